package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxPostContentLength is the longest accepted post body, in runes
const MaxPostContentLength = 280

// Post represents a micro-post entity
type Post struct {
	ID          string
	AuthorID    string
	Content     string
	Highlighted bool
	CreatedAt   time.Time
	ModifiedAt  time.Time // Bumped on every edit; used for recency and windowing
}

// PostPatch carries an author's edit. Nil fields are left untouched.
type PostPatch struct {
	Content     *string
	Highlighted *bool
}

// IsEmpty reports whether the patch changes nothing
func (p PostPatch) IsEmpty() bool {
	return p.Content == nil && p.Highlighted == nil
}

// IsAuthoredBy checks if the post belongs to the given user
func (p *Post) IsAuthoredBy(userID string) bool {
	return p.AuthorID == userID
}

// Apply applies a validated patch and bumps ModifiedAt.
// ModifiedAt never moves behind CreatedAt, even if the clock does.
func (p *Post) Apply(patch PostPatch, now time.Time) {
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Highlighted != nil {
		p.Highlighted = *patch.Highlighted
	}
	if now.Before(p.CreatedAt) {
		now = p.CreatedAt
	}
	p.ModifiedAt = now
}

// NormalizePostContent trims and validates post content
func NormalizePostContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	n := utf8.RuneCountInString(content)
	if n == 0 {
		return "", &ValidationError{Field: "content", Message: "required"}
	}
	if n > MaxPostContentLength {
		return "", &ValidationError{Field: "content", Message: "must be at most 280 characters"}
	}
	return content, nil
}

// PostSummary is the read-only projection of a post handed to presentation layers
type PostSummary struct {
	PostID      string    `json:"post_id"`
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	Content     string    `json:"content"`
	Highlighted bool      `json:"highlighted"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// Summarize projects a post with its author's display name
func (p *Post) Summarize(authorName string) *PostSummary {
	return &PostSummary{
		PostID:      p.ID,
		AuthorID:    p.AuthorID,
		AuthorName:  authorName,
		Content:     p.Content,
		Highlighted: p.Highlighted,
		CreatedAt:   p.CreatedAt,
		ModifiedAt:  p.ModifiedAt,
	}
}
