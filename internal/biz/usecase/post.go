package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
)

const defaultPostListLimit = 50

// PostUsecase handles the author-side post lifecycle
type PostUsecase struct {
	postRepo repo.PostRepo
	userRepo repo.UserRepo
	clock    Clock
}

// NewPostUsecase creates a new post usecase
func NewPostUsecase(postRepo repo.PostRepo, userRepo repo.UserRepo, clock Clock) *PostUsecase {
	if clock == nil {
		clock = time.Now
	}
	return &PostUsecase{postRepo: postRepo, userRepo: userRepo, clock: clock}
}

// Create publishes a new post
func (uc *PostUsecase) Create(ctx context.Context, authorID, content string, highlighted bool) (*domain.Post, error) {
	content, err := domain.NormalizePostContent(content)
	if err != nil {
		return nil, err
	}

	author, err := uc.userRepo.GetByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("resolve author: %w", err)
	}
	if author == nil {
		return nil, domain.ErrUserNotFound
	}

	now := uc.clock()
	post := &domain.Post{
		ID:          uuid.NewString(),
		AuthorID:    authorID,
		Content:     content,
		Highlighted: highlighted,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	if err := uc.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// Get gets a post
func (uc *PostUsecase) Get(ctx context.Context, id string) (*domain.Post, error) {
	post, err := uc.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, domain.ErrPostNotFound
	}
	return post, nil
}

// Edit changes content and/or the highlighted flag. Only the author may edit.
func (uc *PostUsecase) Edit(ctx context.Context, actorID, postID string, patch domain.PostPatch) (*domain.Post, error) {
	if patch.IsEmpty() {
		return nil, &domain.ValidationError{Field: "post", Message: "nothing to update"}
	}
	if patch.Content != nil {
		content, err := domain.NormalizePostContent(*patch.Content)
		if err != nil {
			return nil, err
		}
		patch.Content = &content
	}

	post, err := uc.ownedPost(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}

	post.Apply(patch, uc.clock())
	if err := uc.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

// Delete removes a post. Only the author may delete.
func (uc *PostUsecase) Delete(ctx context.Context, actorID, postID string) error {
	if _, err := uc.ownedPost(ctx, actorID, postID); err != nil {
		return err
	}
	if err := uc.postRepo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// ListByAuthor lists an author's posts, optionally only the highlighted ones
func (uc *PostUsecase) ListByAuthor(ctx context.Context, authorID string, highlightedOnly bool, limit int) ([]*domain.Post, error) {
	if limit <= 0 {
		limit = defaultPostListLimit
	}
	author, err := uc.userRepo.GetByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("resolve author: %w", err)
	}
	if author == nil {
		return nil, domain.ErrUserNotFound
	}
	return uc.postRepo.ListByAuthor(ctx, authorID, highlightedOnly, limit)
}

// ListHighlights lists the highlighted posts of every author
func (uc *PostUsecase) ListHighlights(ctx context.Context, limit int) ([]*domain.Post, error) {
	if limit <= 0 {
		limit = defaultPostListLimit
	}
	return uc.postRepo.ListHighlighted(ctx, limit)
}

func (uc *PostUsecase) ownedPost(ctx context.Context, actorID, postID string) (*domain.Post, error) {
	post, err := uc.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthoredBy(actorID) {
		return nil, domain.ErrForbidden
	}
	return post, nil
}
