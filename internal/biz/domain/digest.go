package domain

import (
	"fmt"
	"strings"
	"time"
)

// DigestSubscription routes a user's notification feed to a Feishu chat
type DigestSubscription struct {
	UserID          string
	ChatID          string
	LastDeliveredAt time.Time // ModifiedAt of the newest post already delivered
	CreatedAt       time.Time
}

// Pending keeps the feed entries not delivered yet
func (s *DigestSubscription) Pending(feed []*PostSummary) []*PostSummary {
	var result []*PostSummary
	for _, item := range feed {
		if item.ModifiedAt.After(s.LastDeliveredAt) {
			result = append(result, item)
		}
	}
	return result
}

// FormatDigest renders feed entries as a plain-text chat message
func FormatDigest(items []*PostSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d new post(s) from people you watch:\n", len(items))
	for _, item := range items {
		marker := "-"
		if item.Highlighted {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s [%s] %s: %s\n", marker, item.ModifiedAt.Format("01-02 15:04"), item.AuthorName, item.Content)
	}
	return strings.TrimRight(sb.String(), "\n")
}
