package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
)

// userRepo implements the User repository
type userRepo struct {
	db *DB
}

// NewUserRepo creates a new User repository
func NewUserRepo(db *DB) repo.UserRepo {
	return &userRepo{db: db}
}

// Create stores a user
func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.exec(ctx, `INSERT INTO users (id, name, created_at) VALUES (?, ?, ?)`,
		user.ID, user.Name, toUnix(user.CreatedAt))
	if err != nil {
		return storeErr("insert user", err)
	}
	return nil
}

// GetByID gets a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	var createdAt int64
	err := r.db.queryRow(ctx, `SELECT id, name, created_at FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query user", err)
	}
	user.CreatedAt = fromUnix(createdAt)
	return &user, nil
}

// GetNames maps ids to display names
func (r *userRepo) GetNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	placeholders, args := inClause(ids)
	rows, err := r.db.query(ctx, `SELECT id, name FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, storeErr("query user names", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, storeErr("scan user name", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("query user names", err)
	}
	return names, nil
}

// CountExisting counts how many ids resolve to users
func (r *userRepo) CountExisting(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders, args := inClause(ids)
	var n int
	err := r.db.queryRow(ctx, `SELECT COUNT(*) FROM users WHERE id IN (`+placeholders+`)`, args...).Scan(&n)
	if err != nil {
		return 0, storeErr("count users", err)
	}
	return n, nil
}

// List lists all users
func (r *userRepo) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.query(ctx, `SELECT id, name, created_at FROM users ORDER BY name, id`)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		var createdAt int64
		if err := rows.Scan(&user.ID, &user.Name, &createdAt); err != nil {
			return nil, storeErr("scan user", err)
		}
		user.CreatedAt = fromUnix(createdAt)
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

// Delete deletes a user; foreign keys cascade to posts, presets and memberships
func (r *userRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.exec(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return storeErr("delete user", err)
	}
	return nil
}
