package repo

import (
	"context"
	"time"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
)

// DigestRepo stores Feishu digest subscriptions
type DigestRepo interface {
	// Subscribe creates or re-targets the subscription of a user
	Subscribe(ctx context.Context, sub *domain.DigestSubscription) error
	Unsubscribe(ctx context.Context, userID string) error
	GetSubscription(ctx context.Context, userID string) (*domain.DigestSubscription, error)
	ListSubscriptions(ctx context.Context) ([]*domain.DigestSubscription, error)

	// MarkDelivered advances the delivery cursor of a user
	MarkDelivered(ctx context.Context, userID string, deliveredAt time.Time) error
}

// Notifier delivers text to a chat
type Notifier interface {
	SendText(ctx context.Context, chatID, text string) error
}
