package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
)

const postColumns = `id, author_id, content, highlighted, created_at, modified_at`

// postRepo implements the Post repository
type postRepo struct {
	db *DB
}

// NewPostRepo creates a new Post repository
func NewPostRepo(db *DB) repo.PostRepo {
	return &postRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var post domain.Post
	var createdAt, modifiedAt int64
	if err := row.Scan(&post.ID, &post.AuthorID, &post.Content, &post.Highlighted, &createdAt, &modifiedAt); err != nil {
		return nil, err
	}
	post.CreatedAt = fromUnix(createdAt)
	post.ModifiedAt = fromUnix(modifiedAt)
	return &post, nil
}

func collectPosts(rows *sql.Rows) ([]*domain.Post, error) {
	defer rows.Close()

	posts := make([]*domain.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// Create stores a post
func (r *postRepo) Create(ctx context.Context, post *domain.Post) error {
	_, err := r.db.exec(ctx, `INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		post.ID, post.AuthorID, post.Content, post.Highlighted, toUnix(post.CreatedAt), toUnix(post.ModifiedAt))
	if err != nil {
		return storeErr("insert post", err)
	}
	return nil
}

// GetByID gets a post by ID
func (r *postRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	post, err := scanPost(r.db.queryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query post", err)
	}
	return post, nil
}

// Update persists the mutable fields of a post
func (r *postRepo) Update(ctx context.Context, post *domain.Post) error {
	_, err := r.db.exec(ctx, `UPDATE posts SET content = ?, highlighted = ?, modified_at = ? WHERE id = ?`,
		post.Content, post.Highlighted, toUnix(post.ModifiedAt), post.ID)
	if err != nil {
		return storeErr("update post", err)
	}
	return nil
}

// Delete deletes a post
func (r *postRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.exec(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
		return storeErr("delete post", err)
	}
	return nil
}

// ListByAuthor lists an author's posts, newest first
func (r *postRepo) ListByAuthor(ctx context.Context, authorID string, highlightedOnly bool, limit int) ([]*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE author_id = ?`
	args := []any{authorID}
	if highlightedOnly {
		query += ` AND highlighted = ?`
		args = append(args, true)
	}
	query += ` ORDER BY modified_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	posts, err := collectPosts(rows)
	if err != nil {
		return nil, storeErr("scan posts", err)
	}
	return posts, nil
}

// ListHighlighted lists highlighted posts across all authors, newest first
func (r *postRepo) ListHighlighted(ctx context.Context, limit int) ([]*domain.Post, error) {
	rows, err := r.db.query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE highlighted = ?
		ORDER BY modified_at DESC, id
		LIMIT ?
	`, true, limit)
	if err != nil {
		return nil, storeErr("list highlights", err)
	}
	posts, err := collectPosts(rows)
	if err != nil {
		return nil, storeErr("scan highlights", err)
	}
	return posts, nil
}

// FindMatching answers the aggregator's compound filter
func (r *postRepo) FindMatching(ctx context.Context, filter repo.PostFilter) ([]*domain.Post, error) {
	if len(filter.AuthorIDs) == 0 {
		return []*domain.Post{}, nil
	}

	placeholders, args := inClause(filter.AuthorIDs)
	query := `SELECT ` + postColumns + ` FROM posts WHERE author_id IN (` + placeholders + `) AND modified_at >= ?`
	args = append(args, toUnix(filter.Since))
	if filter.HighlightedOnly {
		query += ` AND highlighted = ?`
		args = append(args, true)
	}
	query += ` ORDER BY modified_at DESC, id`

	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query matching posts", err)
	}
	posts, err := collectPosts(rows)
	if err != nil {
		return nil, storeErr("scan matching posts", err)
	}
	return posts, nil
}
