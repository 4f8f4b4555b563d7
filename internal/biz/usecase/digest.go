package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
)

// DigestConfig controls digest delivery
type DigestConfig struct {
	MaxItems int // Max feed entries per message
}

// DefaultDigestConfig returns the default digest configuration
func DefaultDigestConfig() DigestConfig {
	return DigestConfig{MaxItems: 20}
}

// DigestUsecase pushes notification feeds to subscribed chats
type DigestUsecase struct {
	digestRepo     repo.DigestRepo
	userRepo       repo.UserRepo
	notificationUC *NotificationUsecase
	notifier       repo.Notifier
	config         DigestConfig
	clock          Clock
	logger         *zap.Logger
}

// NewDigestUsecase creates a new digest usecase. notifier may be nil,
// in which case subscriptions are stored but nothing is delivered.
func NewDigestUsecase(
	digestRepo repo.DigestRepo,
	userRepo repo.UserRepo,
	notificationUC *NotificationUsecase,
	notifier repo.Notifier,
	config DigestConfig,
	clock Clock,
	logger *zap.Logger,
) *DigestUsecase {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DigestUsecase{
		digestRepo:     digestRepo,
		userRepo:       userRepo,
		notificationUC: notificationUC,
		notifier:       notifier,
		config:         config,
		clock:          clock,
		logger:         logger.Named("digest"),
	}
}

// Subscribe routes a user's feed to a chat. Only posts modified after
// subscribing are delivered.
func (uc *DigestUsecase) Subscribe(ctx context.Context, userID, chatID string) (*domain.DigestSubscription, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, &domain.ValidationError{Field: "chat_id", Message: "required"}
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	now := uc.clock()
	sub := &domain.DigestSubscription{
		UserID:          userID,
		ChatID:          chatID,
		LastDeliveredAt: now,
		CreatedAt:       now,
	}
	if err := uc.digestRepo.Subscribe(ctx, sub); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return sub, nil
}

// Get returns a user's digest subscription
func (uc *DigestUsecase) Get(ctx context.Context, userID string) (*domain.DigestSubscription, error) {
	sub, err := uc.digestRepo.GetSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if sub == nil {
		return nil, domain.ErrNotSubscribed
	}
	return sub, nil
}

// Unsubscribe stops digest delivery for a user
func (uc *DigestUsecase) Unsubscribe(ctx context.Context, userID string) error {
	return uc.digestRepo.Unsubscribe(ctx, userID)
}

// IsDeliveryEnabled returns whether a notifier is configured
func (uc *DigestUsecase) IsDeliveryEnabled() bool {
	return uc.notifier != nil
}

// Deliver sends pending feed entries to one subscription's chat and
// returns how many were sent.
func (uc *DigestUsecase) Deliver(ctx context.Context, sub *domain.DigestSubscription) (int, error) {
	if uc.notifier == nil {
		return 0, nil
	}

	feed, err := uc.notificationUC.Feed(ctx, sub.UserID, 0)
	if err != nil {
		return 0, fmt.Errorf("compute feed: %w", err)
	}

	pending := sub.Pending(feed)
	if len(pending) == 0 {
		return 0, nil
	}
	// Feed is newest first. Send the oldest batch so the rest follows next tick.
	// The cursor only holds a timestamp, so the batch never splits entries
	// sharing its newest ModifiedAt.
	if uc.config.MaxItems > 0 && len(pending) > uc.config.MaxItems {
		start := len(pending) - uc.config.MaxItems
		for start > 0 && pending[start-1].ModifiedAt.Equal(pending[start].ModifiedAt) {
			start--
		}
		pending = pending[start:]
	}

	if err := uc.notifier.SendText(ctx, sub.ChatID, domain.FormatDigest(pending)); err != nil {
		return 0, fmt.Errorf("send digest: %w", err)
	}

	newest := pending[0].ModifiedAt
	if err := uc.digestRepo.MarkDelivered(ctx, sub.UserID, newest); err != nil {
		return len(pending), fmt.Errorf("mark delivered: %w", err)
	}
	sub.LastDeliveredAt = newest
	return len(pending), nil
}

// DeliverAll runs Deliver for every subscription. One failing
// subscription does not stop the others.
func (uc *DigestUsecase) DeliverAll(ctx context.Context) (int, error) {
	subs, err := uc.digestRepo.ListSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}

	var (
		total int
		errs  []error
	)
	for _, sub := range subs {
		n, err := uc.Deliver(ctx, sub)
		total += n
		if err != nil {
			uc.logger.Warn("Digest delivery failed",
				zap.String("user_id", sub.UserID),
				zap.String("chat_id", sub.ChatID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("user %s: %w", sub.UserID, err))
			continue
		}
		if n > 0 {
			uc.logger.Info("Digest delivered",
				zap.String("user_id", sub.UserID),
				zap.String("chat_id", sub.ChatID),
				zap.Int("posts", n))
		}
	}
	return total, errors.Join(errs...)
}
