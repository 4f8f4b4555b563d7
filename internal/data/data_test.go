package data

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
)

var base = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	return openTestRepos(t, DriverSQLite, filepath.Join(t.TempDir(), "micropost.db"))
}

func openTestRepos(t *testing.T, driver, dsn string) *Repositories {
	t.Helper()
	db, err := Open(context.Background(), driver, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Repositories{
		DB:     db,
		User:   NewUserRepo(db),
		Post:   NewPostRepo(db),
		Preset: NewPresetRepo(db),
		Digest: NewDigestRepo(db),
	}
}

func seedUsers(t *testing.T, r *Repositories, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, r.User.Create(context.Background(), &domain.User{ID: id, Name: "name-" + id, CreatedAt: base}))
	}
}

func seedPost(t *testing.T, r *Repositories, id, author string, highlighted bool, modified time.Time) {
	t.Helper()
	require.NoError(t, r.Post.Create(context.Background(), &domain.Post{
		ID: id, AuthorID: author, Content: "content " + id, Highlighted: highlighted,
		CreatedAt: modified, ModifiedAt: modified,
	}))
}

func postIDs(posts []*domain.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)", pg.rebind("SELECT * FROM t WHERE a = ? AND b IN (?, ?)"))

	lite := &DB{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestUserRepo(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	seedUsers(t, r, "u1", "u2")

	u, err := r.User.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "name-u1", u.Name)
	assert.Equal(t, base, u.CreatedAt)

	missing, err := r.User.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	names, err := r.User.GetNames(ctx, []string{"u1", "u2", "nope"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"u1": "name-u1", "u2": "name-u2"}, names)

	n, err := r.User.CountExisting(ctx, []string{"u1", "nope"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := r.User.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestPostRepo_FindMatching(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	seedUsers(t, r, "a", "b", "c")

	since := base.Add(-72 * time.Hour)
	seedPost(t, r, "a-plain", "a", false, base.Add(-time.Hour))
	seedPost(t, r, "a-hl", "a", true, base.Add(-2*time.Hour))
	seedPost(t, r, "b-hl", "b", true, base.Add(-time.Hour))
	seedPost(t, r, "b-edge", "b", true, since)
	seedPost(t, r, "b-stale", "b", true, since.Add(-time.Millisecond))
	seedPost(t, r, "c-plain", "c", false, base)

	broad, err := r.Post.FindMatching(ctx, repo.PostFilter{AuthorIDs: []string{"a", "b"}, Since: since})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-plain", "b-hl", "a-hl", "b-edge"}, postIDs(broad))

	narrow, err := r.Post.FindMatching(ctx, repo.PostFilter{AuthorIDs: []string{"a"}, HighlightedOnly: true, Since: since})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-hl"}, postIDs(narrow))

	none, err := r.Post.FindMatching(ctx, repo.PostFilter{Since: since})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPostRepo_WindowBoundaryAtMillisecond(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	seedUsers(t, r, "a")

	since := base.Add(-72 * time.Hour)
	seedPost(t, r, "inside", "a", false, since.Add(300*time.Microsecond))
	seedPost(t, r, "outside", "a", false, since.Add(-300*time.Microsecond))

	got, err := r.Post.FindMatching(ctx, repo.PostFilter{AuthorIDs: []string{"a"}, Since: since})
	require.NoError(t, err)
	assert.Equal(t, []string{"inside"}, postIDs(got))
}

func TestPostRepo_ListHighlighted(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	seedUsers(t, r, "a", "b")
	seedPost(t, r, "a-plain", "a", false, base)
	seedPost(t, r, "a-hl", "a", true, base.Add(-time.Hour))
	seedPost(t, r, "b-hl", "b", true, base.Add(-time.Minute))

	mine, err := r.Post.ListByAuthor(ctx, "a", true, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-hl"}, postIDs(mine))

	all, err := r.Post.ListByAuthor(ctx, "a", false, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-plain", "a-hl"}, postIDs(all))

	highlights, err := r.Post.ListHighlighted(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b-hl", "a-hl"}, postIDs(highlights))

	highlights, err = r.Post.ListHighlighted(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b-hl"}, postIDs(highlights))
}

func TestPostRepo_UpdateAndDelete(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	seedUsers(t, r, "a")
	seedPost(t, r, "p1", "a", false, base)

	p, err := r.Post.GetByID(ctx, "p1")
	require.NoError(t, err)
	p.Content = "edited"
	p.Highlighted = true
	p.ModifiedAt = base.Add(time.Minute)
	require.NoError(t, r.Post.Update(ctx, p))

	got, err := r.Post.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	list, err := r.Post.ListByAuthor(ctx, "a", false, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, r.Post.Delete(ctx, "p1"))
	got, err = r.Post.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPresetRepo_RoundTrip(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	seedUsers(t, r, "owner", "a", "b", "c")

	p := &domain.Preset{
		ID: "p1", OwnerID: "owner", Name: "friends",
		Members:   []string{"a", "b"},
		Setting:   domain.PresetSetting{NotifyOnHighlightedOnly: true},
		CreatedAt: base, UpdatedAt: base,
	}
	require.NoError(t, r.Preset.Create(ctx, p))

	got, err := r.Preset.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	byName, err := r.Preset.GetByOwnerAndName(ctx, "owner", "friends")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, "p1", byName.ID)

	p.Members = []string{"c"}
	p.Setting = domain.PresetSetting{NotifyOnAnyPost: true}
	p.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, r.Preset.Update(ctx, p))

	list, err := r.Preset.ListByOwner(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p, list[0])

	require.NoError(t, r.Preset.Delete(ctx, "p1"))
	list, err = r.Preset.ListByOwner(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPresetRepo_DuplicateName(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	seedUsers(t, r, "owner")

	require.NoError(t, r.Preset.Create(ctx, &domain.Preset{ID: "p1", OwnerID: "owner", Name: "x", CreatedAt: base, UpdatedAt: base}))
	err := r.Preset.Create(ctx, &domain.Preset{ID: "p2", OwnerID: "owner", Name: "x", CreatedAt: base, UpdatedAt: base})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPresetRepo_NullSettingReadsInactive(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	seedUsers(t, r, "owner", "a")

	_, err := r.DB.exec(ctx, `
		INSERT INTO presets (id, owner_id, name, notify_on_any_post, notify_on_highlighted_only, created_at, updated_at)
		VALUES ('legacy', 'owner', 'legacy', 1, NULL, 0, 0)
	`)
	require.NoError(t, err)

	p, err := r.Preset.GetByID(ctx, "legacy")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.False(t, p.Setting.IsActive())
}

func TestUserDelete_Cascades(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	seedUsers(t, r, "owner", "a", "b")
	seedPost(t, r, "a1", "a", false, base)
	require.NoError(t, r.Preset.Create(ctx, &domain.Preset{
		ID: "p1", OwnerID: "owner", Name: "x", Members: []string{"a", "b"},
		CreatedAt: base, UpdatedAt: base,
	}))
	require.NoError(t, r.Preset.Create(ctx, &domain.Preset{
		ID: "p2", OwnerID: "a", Name: "mine", Members: []string{"b"},
		CreatedAt: base, UpdatedAt: base,
	}))

	require.NoError(t, r.User.Delete(ctx, "a"))

	post, err := r.Post.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Nil(t, post, "posts cascade with their author")

	owned, err := r.Preset.GetByID(ctx, "p2")
	require.NoError(t, err)
	assert.Nil(t, owned, "presets cascade with their owner")

	watching, err := r.Preset.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, watching.Members, "deleted user leaves member sets")
}

func TestDigestRepo(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	seedUsers(t, r, "u1")

	require.NoError(t, r.Digest.Subscribe(ctx, &domain.DigestSubscription{UserID: "u1", ChatID: "oc_1", LastDeliveredAt: base, CreatedAt: base}))
	require.NoError(t, r.Digest.Subscribe(ctx, &domain.DigestSubscription{UserID: "u1", ChatID: "oc_2", LastDeliveredAt: base, CreatedAt: base}))

	subs, err := r.Digest.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "oc_2", subs[0].ChatID)

	require.NoError(t, r.Digest.MarkDelivered(ctx, "u1", base.Add(time.Hour)))
	sub, err := r.Digest.GetSubscription(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Hour), sub.LastDeliveredAt)

	require.NoError(t, r.Digest.Unsubscribe(ctx, "u1"))
	sub, err = r.Digest.GetSubscription(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestStoreErrorsAreTransient(t *testing.T) {
	r := newTestRepos(t)
	require.NoError(t, r.DB.Close())

	_, err := r.User.GetByID(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = r.Post.FindMatching(context.Background(), repo.PostFilter{AuthorIDs: []string{"a"}})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

type recordingSender struct {
	chunks []string
}

func (s *recordingSender) SendText(ctx context.Context, chatID, text string) error {
	s.chunks = append(s.chunks, text)
	return nil
}

func TestFeishuNotifier_SplitsLongMessages(t *testing.T) {
	sender := &recordingSender{}
	n := NewFeishuNotifier(sender)

	line := strings.Repeat("x", 999) + "\n"
	require.NoError(t, n.SendText(context.Background(), "oc_1", strings.Repeat(line, 10)))

	require.Len(t, sender.chunks, 3)
	for _, c := range sender.chunks {
		assert.LessOrEqual(t, len([]rune(c)), maxMessageRunes)
	}
	assert.Equal(t, strings.Repeat(line, 10), strings.Join(sender.chunks, "\n"))
}

func TestSplitMessage_Short(t *testing.T) {
	assert.Equal(t, []string{"hi"}, splitMessage("hi", 10))
}
