package repo

import (
	"context"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
)

// PresetRepo is the watch preset repository interface
// Validation happens in the usecase before any write reaches it
type PresetRepo interface {
	Create(ctx context.Context, preset *domain.Preset) error

	// GetByID returns nil, nil when the preset does not exist
	GetByID(ctx context.Context, id string) (*domain.Preset, error)

	// GetByOwnerAndName returns nil, nil when the owner has no preset with that name
	GetByOwnerAndName(ctx context.Context, ownerID, name string) (*domain.Preset, error)

	// Update replaces name, members and setting
	Update(ctx context.Context, preset *domain.Preset) error

	Delete(ctx context.Context, id string) error

	// ListByOwner lists every preset of an owner, members included
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Preset, error)
}
