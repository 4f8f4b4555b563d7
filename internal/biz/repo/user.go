package repo

import (
	"context"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
)

// UserRepo is the account repository interface
// It resolves user ids for the aggregator and the write paths
type UserRepo interface {
	// Create stores a new user
	Create(ctx context.Context, user *domain.User) error

	// GetByID returns nil, nil when the user does not exist
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetNames maps user ids to display names; unknown ids are omitted
	GetNames(ctx context.Context, ids []string) (map[string]string, error)

	// CountExisting returns how many of the given ids resolve to users
	CountExisting(ctx context.Context, ids []string) (int, error)

	// List lists all users ordered by name
	List(ctx context.Context) ([]*domain.User, error)

	// Delete removes a user and cascades to their posts, presets and memberships
	Delete(ctx context.Context, id string) error
}
