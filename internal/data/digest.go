package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
)

// digestRepo implements the digest subscription repository
type digestRepo struct {
	db *DB
}

// NewDigestRepo creates a new digest subscription repository
func NewDigestRepo(db *DB) repo.DigestRepo {
	return &digestRepo{db: db}
}

// Subscribe creates or re-targets a subscription
func (r *digestRepo) Subscribe(ctx context.Context, sub *domain.DigestSubscription) error {
	_, err := r.db.exec(ctx, `
		INSERT INTO digest_subscriptions (user_id, chat_id, last_delivered_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET chat_id = excluded.chat_id, last_delivered_at = excluded.last_delivered_at
	`, sub.UserID, sub.ChatID, toUnix(sub.LastDeliveredAt), toUnix(sub.CreatedAt))
	if err != nil {
		return storeErr("save subscription", err)
	}
	return nil
}

// Unsubscribe removes a subscription
func (r *digestRepo) Unsubscribe(ctx context.Context, userID string) error {
	if _, err := r.db.exec(ctx, `DELETE FROM digest_subscriptions WHERE user_id = ?`, userID); err != nil {
		return storeErr("delete subscription", err)
	}
	return nil
}

func scanSubscription(row rowScanner) (*domain.DigestSubscription, error) {
	var sub domain.DigestSubscription
	var lastDeliveredAt, createdAt int64
	if err := row.Scan(&sub.UserID, &sub.ChatID, &lastDeliveredAt, &createdAt); err != nil {
		return nil, err
	}
	sub.LastDeliveredAt = fromUnix(lastDeliveredAt)
	sub.CreatedAt = fromUnix(createdAt)
	return &sub, nil
}

// GetSubscription gets a user's subscription
func (r *digestRepo) GetSubscription(ctx context.Context, userID string) (*domain.DigestSubscription, error) {
	sub, err := scanSubscription(r.db.queryRow(ctx, `
		SELECT user_id, chat_id, last_delivered_at, created_at
		FROM digest_subscriptions WHERE user_id = ?
	`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query subscription", err)
	}
	return sub, nil
}

// ListSubscriptions lists all subscriptions
func (r *digestRepo) ListSubscriptions(ctx context.Context) ([]*domain.DigestSubscription, error) {
	rows, err := r.db.query(ctx, `
		SELECT user_id, chat_id, last_delivered_at, created_at
		FROM digest_subscriptions ORDER BY user_id
	`)
	if err != nil {
		return nil, storeErr("list subscriptions", err)
	}
	defer rows.Close()

	var subs []*domain.DigestSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, storeErr("scan subscription", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list subscriptions", err)
	}
	return subs, nil
}

// MarkDelivered advances the delivery cursor
func (r *digestRepo) MarkDelivered(ctx context.Context, userID string, deliveredAt time.Time) error {
	_, err := r.db.exec(ctx, `UPDATE digest_subscriptions SET last_delivered_at = ? WHERE user_id = ?`,
		toUnix(deliveredAt), userID)
	if err != nil {
		return storeErr("mark delivered", err)
	}
	return nil
}
