package data

import (
	"context"

	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
)

// TextSender is the subset of the Feishu client the notifier needs
type TextSender interface {
	SendText(ctx context.Context, chatID, text string) error
}

// feishuNotifier delivers digests to Feishu chats
type feishuNotifier struct {
	client TextSender
}

// NewFeishuNotifier creates a notifier backed by the Feishu client
func NewFeishuNotifier(client TextSender) repo.Notifier {
	return &feishuNotifier{client: client}
}

// SendText sends a text message, splitting it when it exceeds the chat limit
func (n *feishuNotifier) SendText(ctx context.Context, chatID, text string) error {
	for _, chunk := range splitMessage(text, maxMessageRunes) {
		if err := n.client.SendText(ctx, chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

// Feishu text messages are capped well above this; stay conservative
const maxMessageRunes = 4000

// splitMessage splits text on line boundaries into chunks of at most limit runes.
// A single line longer than limit is cut.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > 0; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
		if len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
