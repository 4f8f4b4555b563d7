package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
)

// PresetUsecase owns the preset write path and its validation.
// The aggregator relies on it for the invariants it reads back.
type PresetUsecase struct {
	presetRepo repo.PresetRepo
	userRepo   repo.UserRepo
	clock      Clock
}

// NewPresetUsecase creates a new preset usecase
func NewPresetUsecase(presetRepo repo.PresetRepo, userRepo repo.UserRepo, clock Clock) *PresetUsecase {
	if clock == nil {
		clock = time.Now
	}
	return &PresetUsecase{presetRepo: presetRepo, userRepo: userRepo, clock: clock}
}

// Create validates and stores a new preset
func (uc *PresetUsecase) Create(ctx context.Context, ownerID string, in domain.PresetInput) (*domain.Preset, error) {
	if err := uc.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}

	name, err := uc.validateName(ctx, ownerID, "", in.Name)
	if err != nil {
		return nil, err
	}
	members, err := uc.validateMembers(ctx, ownerID, in.Members)
	if err != nil {
		return nil, err
	}
	var setting domain.PresetSetting
	if in.Setting != nil {
		if setting, err = in.Setting.Resolve(); err != nil {
			return nil, err
		}
	}

	now := uc.clock()
	preset := &domain.Preset{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		Members:   members,
		Setting:   setting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.presetRepo.Create(ctx, preset); err != nil {
		return nil, fmt.Errorf("create preset: %w", err)
	}
	return preset, nil
}

// Get gets a preset on behalf of its owner
func (uc *PresetUsecase) Get(ctx context.Context, actorID, presetID string) (*domain.Preset, error) {
	preset, err := uc.presetRepo.GetByID(ctx, presetID)
	if err != nil {
		return nil, fmt.Errorf("get preset: %w", err)
	}
	if preset == nil {
		return nil, domain.ErrPresetNotFound
	}
	if !preset.IsOwnedBy(actorID) {
		return nil, domain.ErrForbidden
	}
	return preset, nil
}

// Update applies an owner's patch
func (uc *PresetUsecase) Update(ctx context.Context, actorID, presetID string, patch domain.PresetPatch) (*domain.Preset, error) {
	preset, err := uc.Get(ctx, actorID, presetID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if preset.Name, err = uc.validateName(ctx, preset.OwnerID, preset.ID, *patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Members != nil {
		if preset.Members, err = uc.validateMembers(ctx, preset.OwnerID, *patch.Members); err != nil {
			return nil, err
		}
	}
	if patch.Setting != nil {
		if preset.Setting, err = patch.Setting.Resolve(); err != nil {
			return nil, err
		}
	}

	preset.UpdatedAt = uc.clock()
	if err := uc.presetRepo.Update(ctx, preset); err != nil {
		return nil, fmt.Errorf("update preset: %w", err)
	}
	return preset, nil
}

// Delete removes a preset on behalf of its owner
func (uc *PresetUsecase) Delete(ctx context.Context, actorID, presetID string) error {
	if _, err := uc.Get(ctx, actorID, presetID); err != nil {
		return err
	}
	if err := uc.presetRepo.Delete(ctx, presetID); err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	return nil
}

// List lists the presets of an owner
func (uc *PresetUsecase) List(ctx context.Context, ownerID string) ([]*domain.Preset, error) {
	if err := uc.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}
	presets, err := uc.presetRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	return presets, nil
}

func (uc *PresetUsecase) requireUser(ctx context.Context, id string) error {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	return nil
}

// validateName normalizes a name and checks it is free among the owner's
// presets. selfID is the preset being renamed, empty on create.
func (uc *PresetUsecase) validateName(ctx context.Context, ownerID, selfID, name string) (string, error) {
	name, err := domain.NormalizePresetName(name)
	if err != nil {
		return "", err
	}
	existing, err := uc.presetRepo.GetByOwnerAndName(ctx, ownerID, name)
	if err != nil {
		return "", fmt.Errorf("check preset name: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		return "", &domain.ValidationError{Field: "name", Message: "already used by another preset"}
	}
	return name, nil
}

func (uc *PresetUsecase) validateMembers(ctx context.Context, ownerID string, members []string) ([]string, error) {
	members, err := domain.NormalizeMembers(ownerID, members)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return members, nil
	}
	n, err := uc.userRepo.CountExisting(ctx, members)
	if err != nil {
		return nil, fmt.Errorf("check members: %w", err)
	}
	if n != len(members) {
		return nil, &domain.ValidationError{Field: "members", Message: "unknown user in member list"}
	}
	return members, nil
}
