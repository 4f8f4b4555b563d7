package repo

import (
	"context"
	"time"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
)

// PostFilter is the compound filter the post store answers for the aggregator
type PostFilter struct {
	AuthorIDs       []string
	HighlightedOnly bool
	Since           time.Time // Inclusive lower bound on ModifiedAt
}

// PostRepo is the post repository interface
type PostRepo interface {
	Create(ctx context.Context, post *domain.Post) error

	// GetByID returns nil, nil when the post does not exist
	GetByID(ctx context.Context, id string) (*domain.Post, error)

	// Update persists content, highlighted and modified_at
	Update(ctx context.Context, post *domain.Post) error

	Delete(ctx context.Context, id string) error

	// ListByAuthor lists an author's posts, most recently modified first
	ListByAuthor(ctx context.Context, authorID string, highlightedOnly bool, limit int) ([]*domain.Post, error)

	// ListHighlighted lists highlighted posts of every author, most recently modified first
	ListHighlighted(ctx context.Context, limit int) ([]*domain.Post, error)

	// FindMatching returns posts by any of the authors modified at or after Since
	// Served by the (author_id, modified_at) index
	FindMatching(ctx context.Context, filter PostFilter) ([]*domain.Post, error)
}
