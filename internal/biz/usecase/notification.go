package usecase

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
)

// Clock returns the current time. Usecases read time only through it.
type Clock func() time.Time

// NotificationUsecase computes notification feeds from presets and posts.
// It keeps no state between calls.
type NotificationUsecase struct {
	userRepo   repo.UserRepo
	presetRepo repo.PresetRepo
	postRepo   repo.PostRepo
	clock      Clock
	logger     *zap.Logger
}

// NewNotificationUsecase creates a new notification usecase
func NewNotificationUsecase(
	userRepo repo.UserRepo,
	presetRepo repo.PresetRepo,
	postRepo repo.PostRepo,
	clock Clock,
	logger *zap.Logger,
) *NotificationUsecase {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationUsecase{
		userRepo:   userRepo,
		presetRepo: presetRepo,
		postRepo:   postRepo,
		clock:      clock,
		logger:     logger.Named("notification"),
	}
}

// ComputeNotifications returns the posts that notify userID at time now,
// most recently modified first. A store failure aborts the whole call.
// now is taken at millisecond precision, the precision timestamps are stored at.
func (uc *NotificationUsecase) ComputeNotifications(ctx context.Context, userID string, now time.Time) ([]*domain.Post, error) {
	now = now.Truncate(time.Millisecond)
	var presets []*domain.Preset

	// User resolution and preset loading are independent
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, err := uc.userRepo.GetByID(gctx, userID)
		if err != nil {
			return fmt.Errorf("resolve user: %w", err)
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		return nil
	})
	g.Go(func() error {
		list, err := uc.presetRepo.ListByOwner(gctx, userID)
		if err != nil {
			return fmt.Errorf("list presets: %w", err)
		}
		presets = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	filters := planQueries(presets, domain.WindowStart(now))
	if len(filters) == 0 {
		uc.logger.Debug("No active presets", zap.String("user_id", userID), zap.Int("presets", len(presets)))
		return []*domain.Post{}, nil
	}

	results := make([][]*domain.Post, len(filters))
	g, gctx = errgroup.WithContext(ctx)
	for i, f := range filters {
		g.Go(func() error {
			posts, err := uc.postRepo.FindMatching(gctx, f)
			if err != nil {
				return fmt.Errorf("find posts: %w", err)
			}
			results[i] = posts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	feed := mergeFeed(results...)
	uc.logger.Debug("Computed notifications",
		zap.String("user_id", userID),
		zap.Int("presets", len(presets)),
		zap.Int("queries", len(filters)),
		zap.Int("posts", len(feed)))
	return feed, nil
}

// Feed returns the user's notification feed as of the clock's now,
// projected for presentation. limit <= 0 means no limit.
func (uc *NotificationUsecase) Feed(ctx context.Context, userID string, limit int) ([]*domain.PostSummary, error) {
	posts, err := uc.ComputeNotifications(ctx, userID, uc.clock())
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	if len(posts) == 0 {
		return []*domain.PostSummary{}, nil
	}

	authorIDs := make([]string, 0, len(posts))
	seen := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.AuthorID]; ok {
			continue
		}
		seen[p.AuthorID] = struct{}{}
		authorIDs = append(authorIDs, p.AuthorID)
	}

	names, err := uc.userRepo.GetNames(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve author names: %w", err)
	}

	summaries := make([]*domain.PostSummary, len(posts))
	for i, p := range posts {
		name, ok := names[p.AuthorID]
		if !ok {
			// Author deleted between the two reads
			name = p.AuthorID
		}
		summaries[i] = p.Summarize(name)
	}
	return summaries, nil
}

// planQueries folds every active preset into at most two store filters:
// one for authors watched on any post, one for authors watched only for
// highlighted posts. An author in both sets is served by the broad filter.
func planQueries(presets []*domain.Preset, since time.Time) []repo.PostFilter {
	broad := make(map[string]struct{})
	narrow := make(map[string]struct{})
	for _, p := range presets {
		pr, ok := domain.BuildPredicate(p, since)
		if !ok {
			continue
		}
		target := broad
		if pr.HighlightedOnly {
			target = narrow
		}
		for author := range pr.Authors {
			target[author] = struct{}{}
		}
	}
	for author := range broad {
		delete(narrow, author)
	}

	var filters []repo.PostFilter
	if len(broad) > 0 {
		filters = append(filters, repo.PostFilter{AuthorIDs: sortedKeys(broad), Since: since})
	}
	if len(narrow) > 0 {
		filters = append(filters, repo.PostFilter{AuthorIDs: sortedKeys(narrow), HighlightedOnly: true, Since: since})
	}
	return filters
}

// mergeFeed unions query results, keeps one entry per post id and orders
// by ModifiedAt descending with the id as tie-breaker.
func mergeFeed(results ...[]*domain.Post) []*domain.Post {
	seen := make(map[string]struct{})
	feed := make([]*domain.Post, 0)
	for _, posts := range results {
		for _, p := range posts {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			feed = append(feed, p)
		}
	}
	slices.SortFunc(feed, func(a, b *domain.Post) int {
		if c := b.ModifiedAt.Compare(a.ModifiedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return feed
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
