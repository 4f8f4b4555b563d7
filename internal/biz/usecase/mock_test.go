package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
)

// Mock implementations

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	err   error
}

func newMockUserRepo(users ...*domain.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.users[id], nil
}

func (m *mockUserRepo) GetNames(ctx context.Context, ids []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	names := make(map[string]string)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			names[id] = u.Name
		}
	}
	return names, nil
}

func (m *mockUserRepo) CountExisting(ctx context.Context, ids []string) (int, error) {
	names, err := m.GetNames(ctx, ids)
	return len(names), err
}

func (m *mockUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.User
	for _, u := range m.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

type mockPostRepo struct {
	mu      sync.Mutex
	posts   map[string]*domain.Post
	err     error
	queries []repo.PostFilter
}

func newMockPostRepo(posts ...*domain.Post) *mockPostRepo {
	m := &mockPostRepo{posts: make(map[string]*domain.Post)}
	for _, p := range posts {
		m.posts[p.ID] = p
	}
	return m
}

func (m *mockPostRepo) Create(ctx context.Context, post *domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *mockPostRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockPostRepo) Update(ctx context.Context, post *domain.Post) error {
	return m.Create(ctx, post)
}

func (m *mockPostRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.posts, id)
	return nil
}

func (m *mockPostRepo) ListByAuthor(ctx context.Context, authorID string, highlightedOnly bool, limit int) ([]*domain.Post, error) {
	return m.list(func(p *domain.Post) bool {
		return p.AuthorID == authorID && (!highlightedOnly || p.Highlighted)
	}, limit), nil
}

func (m *mockPostRepo) ListHighlighted(ctx context.Context, limit int) ([]*domain.Post, error) {
	return m.list(func(p *domain.Post) bool { return p.Highlighted }, limit), nil
}

func (m *mockPostRepo) list(keep func(*domain.Post) bool, limit int) []*domain.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Post
	for _, p := range m.posts {
		if keep(p) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ModifiedAt.After(result[j].ModifiedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// FindMatching iterates the map, so results come back in random order
func (m *mockPostRepo) FindMatching(ctx context.Context, filter repo.PostFilter) ([]*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, filter)
	if m.err != nil {
		return nil, m.err
	}
	authors := make(map[string]bool, len(filter.AuthorIDs))
	for _, a := range filter.AuthorIDs {
		authors[a] = true
	}
	var result []*domain.Post
	for _, p := range m.posts {
		if !authors[p.AuthorID] || p.ModifiedAt.Before(filter.Since) {
			continue
		}
		if filter.HighlightedOnly && !p.Highlighted {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (m *mockPostRepo) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

type mockPresetRepo struct {
	mu      sync.Mutex
	presets map[string]*domain.Preset
	err     error
}

func newMockPresetRepo(presets ...*domain.Preset) *mockPresetRepo {
	m := &mockPresetRepo{presets: make(map[string]*domain.Preset)}
	for _, p := range presets {
		m.presets[p.ID] = p
	}
	return m
}

func (m *mockPresetRepo) Create(ctx context.Context, preset *domain.Preset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *preset
	m.presets[preset.ID] = &cp
	return nil
}

func (m *mockPresetRepo) GetByID(ctx context.Context, id string) (*domain.Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.presets[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockPresetRepo) GetByOwnerAndName(ctx context.Context, ownerID, name string) (*domain.Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.presets {
		if p.OwnerID == ownerID && p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockPresetRepo) Update(ctx context.Context, preset *domain.Preset) error {
	return m.Create(ctx, preset)
}

func (m *mockPresetRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.presets, id)
	return nil
}

func (m *mockPresetRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []*domain.Preset
	for _, p := range m.presets {
		if p.OwnerID == ownerID {
			result = append(result, p)
		}
	}
	return result, nil
}

type mockDigestRepo struct {
	mu   sync.Mutex
	subs map[string]*domain.DigestSubscription
}

func newMockDigestRepo() *mockDigestRepo {
	return &mockDigestRepo{subs: make(map[string]*domain.DigestSubscription)}
}

func (m *mockDigestRepo) Subscribe(ctx context.Context, sub *domain.DigestSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.subs[sub.UserID] = &cp
	return nil
}

func (m *mockDigestRepo) Unsubscribe(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, userID)
	return nil
}

func (m *mockDigestRepo) GetSubscription(ctx context.Context, userID string) (*domain.DigestSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subs[userID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *mockDigestRepo) ListSubscriptions(ctx context.Context) ([]*domain.DigestSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.DigestSubscription
	for _, s := range m.subs {
		cp := *s
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (m *mockDigestRepo) MarkDelivered(ctx context.Context, userID string, deliveredAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subs[userID]; ok {
		s.LastDeliveredAt = deliveredAt
	}
	return nil
}

type sentMessage struct {
	ChatID string
	Text   string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (m *mockNotifier) SendText(ctx context.Context, chatID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
