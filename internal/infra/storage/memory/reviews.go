package memory

import (
	"context"
	"sort"
	"sync"

	domainbooking "rentshare/internal/domain/booking"
	domainitems "rentshare/internal/domain/items"
	domainreviews "rentshare/internal/domain/reviews"
)

type ReviewRepository struct {
	mu    sync.RWMutex
	items map[domainreviews.ReviewID]*domainreviews.Review
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{items: make(map[domainreviews.ReviewID]*domainreviews.Review)}
}

func (r *ReviewRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID, authorID string) (*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, review := range r.items {
		if review.BookingID == bookingID && review.AuthorID == authorID {
			return cloneReview(review), nil
		}
	}
	return nil, domainreviews.ErrNotFound
}

// ListByItem returns newest first. A zero limit returns everything after offset.
func (r *ReviewRepository) ListByItem(ctx context.Context, itemID domainitems.ItemID, limit, offset int) ([]*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainreviews.Review, 0)
	for _, review := range r.items {
		if review.ItemID == itemID {
			out = append(out, cloneReview(review))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (r *ReviewRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.items {
		if id != review.ID && existing.BookingID == review.BookingID && existing.AuthorID == review.AuthorID {
			return domainreviews.ErrAlreadyReviewed
		}
	}
	r.items[review.ID] = cloneReview(review)
	return nil
}

func cloneReview(r *domainreviews.Review) *domainreviews.Review {
	return &domainreviews.Review{
		ID:         r.ID,
		BookingID:  r.BookingID,
		ItemID:     r.ItemID,
		AuthorID:   r.AuthorID,
		SubjectID:  r.SubjectID,
		AuthorRole: r.AuthorRole,
		Rating:     r.Rating,
		Text:       r.Text,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

var _ domainreviews.Repository = (*ReviewRepository)(nil)
