package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	domainitems "rentshare/internal/domain/items"
)

type itemFixture struct {
	ID          string   `json:"id"`
	Owner       string   `json:"owner"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	DailyRate   int64    `json:"daily_rate"`
	Currency    string   `json:"currency"`
	Photos      []string `json:"photos"`
}

// loadItemFixtures seeds the catalog from a JSON file. Items that already
// exist are left untouched so restarts against Mongo are safe.
func loadItemFixtures(ctx context.Context, path string, repo domainitems.Repository, logger *slog.Logger) error {
	if strings.TrimSpace(path) == "" || repo == nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("item fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("item fixtures file empty", "path", path)
		return nil
	}

	var fixtures []itemFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	imported := 0
	for _, fx := range fixtures {
		id := domainitems.ItemID(strings.TrimSpace(fx.ID))
		if _, err := repo.ByID(ctx, id); err == nil {
			continue
		} else if !errors.Is(err, domainitems.ErrItemNotFound) {
			logger.Error("cannot check fixture item", "item_id", fx.ID, "error", err)
			continue
		}
		item, err := domainitems.NewItem(domainitems.CreateParams{
			ID:          id,
			OwnerID:     fx.Owner,
			Title:       fx.Title,
			Description: fx.Description,
			Category:    fx.Category,
			Location:    fx.Location,
			DailyRate:   fx.DailyRate,
			Currency:    strings.ToUpper(fx.Currency),
			Photos:      append([]string(nil), fx.Photos...),
			Now:         now,
		})
		if err != nil {
			logger.Error("fixture invalid", "item_id", fx.ID, "error", err)
			continue
		}
		item.Discard()
		if err := repo.Save(ctx, item); err != nil {
			logger.Error("cannot store fixture item", "item_id", fx.ID, "error", err)
			continue
		}
		imported++
	}
	logger.Info("item fixtures imported", "count", imported, "path", path)
	return nil
}
