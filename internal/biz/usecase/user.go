package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
)

// UserUsecase handles account bookkeeping
type UserUsecase struct {
	userRepo repo.UserRepo
	clock    Clock
}

// NewUserUsecase creates a new user usecase
func NewUserUsecase(userRepo repo.UserRepo, clock Clock) *UserUsecase {
	if clock == nil {
		clock = time.Now
	}
	return &UserUsecase{userRepo: userRepo, clock: clock}
}

// Register creates an account
func (uc *UserUsecase) Register(ctx context.Context, name string) (*domain.User, error) {
	name, err := domain.NormalizeUserName(name)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: uc.clock(),
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Get gets a user
func (uc *UserUsecase) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// List lists all users
func (uc *UserUsecase) List(ctx context.Context) ([]*domain.User, error) {
	return uc.userRepo.List(ctx)
}

// Delete deletes an account together with its posts and presets
func (uc *UserUsecase) Delete(ctx context.Context, id string) error {
	if _, err := uc.Get(ctx, id); err != nil {
		return err
	}
	if err := uc.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
