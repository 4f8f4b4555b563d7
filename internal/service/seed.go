package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/DevRickLin/micropost-notify/internal/biz"
	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
	"github.com/DevRickLin/micropost-notify/internal/conf"
)

// SeedResult maps fixture user names to the ids they were registered under
type SeedResult struct {
	UserIDs map[string]string
	Posts   int
	Presets int
}

// Seeder loads fixtures through the regular write paths, so fixtures get
// the same validation as API input.
type Seeder struct {
	uc     *biz.Usecases
	logger *zap.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(uc *biz.Usecases, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{uc: uc, logger: logger.Named("seed")}
}

// Apply registers users, then posts, then presets. It stops at the first error.
func (s *Seeder) Apply(ctx context.Context, f *conf.Fixtures) (*SeedResult, error) {
	result := &SeedResult{UserIDs: make(map[string]string, len(f.Users))}

	for _, name := range f.Users {
		if _, ok := result.UserIDs[name]; ok {
			continue
		}
		user, err := s.uc.User.Register(ctx, name)
		if err != nil {
			return result, fmt.Errorf("user %q: %w", name, err)
		}
		result.UserIDs[name] = user.ID
	}

	for i, p := range f.Posts {
		if _, err := s.uc.Post.Create(ctx, result.UserIDs[p.Author], p.Content, p.Highlighted); err != nil {
			return result, fmt.Errorf("posts[%d]: %w", i, err)
		}
		result.Posts++
	}

	for i, p := range f.Presets {
		members := make([]string, len(p.Members))
		for j, m := range p.Members {
			members[j] = result.UserIDs[m]
		}
		anyPost, highlightedOnly := p.NotifyOnAnyPost, p.NotifyOnHighlightedOnly
		_, err := s.uc.Preset.Create(ctx, result.UserIDs[p.Owner], domain.PresetInput{
			Name:    p.Name,
			Members: members,
			Setting: &domain.SettingPatch{
				NotifyOnAnyPost:         &anyPost,
				NotifyOnHighlightedOnly: &highlightedOnly,
			},
		})
		if err != nil {
			return result, fmt.Errorf("presets[%d]: %w", i, err)
		}
		result.Presets++
	}

	s.logger.Info("Fixtures applied",
		zap.Int("users", len(result.UserIDs)),
		zap.Int("posts", result.Posts),
		zap.Int("presets", result.Presets))
	return result, nil
}
