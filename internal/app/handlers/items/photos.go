package items

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	"rentshare/internal/app/outbox"
	"rentshare/internal/app/uow"
	domainitems "rentshare/internal/domain/items"
)

const uploadItemPhotoKey = "items.photos.upload"

var (
	// ErrUploadsDisabled is returned when no object store is configured.
	ErrUploadsDisabled = errors.New("items: photo uploads are not configured")
	ErrPhotoUnreadable = errors.New("items: photo could not be processed")
)

// PhotoUploader stores an object and returns its public url.
type PhotoUploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
}

// PhotoProcessor normalizes an upload before it is stored.
type PhotoProcessor interface {
	Process(src io.Reader, contentType string) (io.Reader, error)
}

type UploadItemPhotoCommand struct {
	OwnerID     string    `validate:"required"`
	ItemID      string    `validate:"required"`
	ObjectKey   string    `validate:"required"`
	ContentType string    `validate:"required"`
	Reader      io.Reader `validate:"required"`
}

func (c UploadItemPhotoCommand) Key() string     { return uploadItemPhotoKey }
func (c UploadItemPhotoCommand) ActorID() string { return c.OwnerID }

type UploadItemPhotoHandler struct {
	Uploader  PhotoUploader
	Processor PhotoProcessor
	Publisher outbox.Publisher
	Logger    *slog.Logger
	Now       func() time.Time
}

// Handle checks ownership before uploading so strangers cannot fill the bucket.
func (h *UploadItemPhotoHandler) Handle(ctx context.Context, cmd UploadItemPhotoCommand) (*dto.Item, error) {
	if h.Uploader == nil {
		return nil, ErrUploadsDisabled
	}
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	item, err := unit.Items().ByID(ctx, domainitems.ItemID(strings.TrimSpace(cmd.ItemID)))
	if err != nil {
		return nil, err
	}
	if !item.OwnedBy(cmd.OwnerID) {
		return nil, domainitems.ErrNotOwner
	}
	if len(item.Photos) >= domainitems.MaxPhotos {
		return nil, domainitems.ErrTooManyPhotos
	}
	body := cmd.Reader
	if h.Processor != nil {
		if body, err = h.Processor.Process(body, cmd.ContentType); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPhotoUnreadable, err)
		}
	}
	publicURL, err := h.Uploader.Upload(ctx, cmd.ObjectKey, body, cmd.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	if err := item.AddPhoto(publicURL, now(h.Now)); err != nil {
		return nil, err
	}
	if err := unit.Items().Save(ctx, item); err != nil {
		return nil, err
	}
	if _, err := h.Publisher.Publish(ctx, item); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("item photo added", "item_id", item.ID, "owner_id", cmd.OwnerID, "object_key", cmd.ObjectKey)
	}
	out := dto.MapItem(item)
	return &out, nil
}

var _ commands.Handler[UploadItemPhotoCommand, *dto.Item] = (*UploadItemPhotoHandler)(nil)
