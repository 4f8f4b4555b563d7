package domain

import "time"

// NotificationWindow is how far back a post's last modification may lie
// and still raise a notification.
const NotificationWindow = 3 * 24 * time.Hour

// WindowStart returns the inclusive lower bound of the window ending at now
func WindowStart(now time.Time) time.Time {
	return now.Add(-NotificationWindow)
}

// Predicate selects the posts a single preset notifies about
type Predicate struct {
	Authors         map[string]struct{}
	HighlightedOnly bool
	Since           time.Time
}

// BuildPredicate converts a preset into its matching predicate.
// The second return is false when the preset contributes nothing:
// both flags off, no members, or no preset at all.
func BuildPredicate(p *Preset, since time.Time) (Predicate, bool) {
	if p == nil || !p.Setting.IsActive() || len(p.Members) == 0 {
		return Predicate{}, false
	}

	authors := make(map[string]struct{}, len(p.Members))
	for _, m := range p.Members {
		authors[m] = struct{}{}
	}

	return Predicate{
		Authors: authors,
		// Any post is a superset of highlighted posts
		HighlightedOnly: !p.Setting.NotifyOnAnyPost,
		Since:           since,
	}, true
}

// Match evaluates the predicate against a post
func (pr Predicate) Match(post *Post) bool {
	if post == nil {
		return false
	}
	if _, ok := pr.Authors[post.AuthorID]; !ok {
		return false
	}
	if pr.HighlightedOnly && !post.Highlighted {
		return false
	}
	return !post.ModifiedAt.Before(pr.Since)
}
