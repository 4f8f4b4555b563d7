package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
)

const presetColumns = `id, owner_id, name, notify_on_any_post, notify_on_highlighted_only, created_at, updated_at`

// presetRepo implements the Preset repository
// Members live in preset_members and are loaded with their preset
type presetRepo struct {
	db *DB
}

// NewPresetRepo creates a new Preset repository
func NewPresetRepo(db *DB) repo.PresetRepo {
	return &presetRepo{db: db}
}

func scanPreset(row rowScanner) (*domain.Preset, error) {
	var p domain.Preset
	var anyPost, highlightedOnly sql.NullBool
	var createdAt, updatedAt int64
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &anyPost, &highlightedOnly, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	// A half-missing pair is read as inactive
	if anyPost.Valid && highlightedOnly.Valid {
		p.Setting = domain.PresetSetting{
			NotifyOnAnyPost:         anyPost.Bool,
			NotifyOnHighlightedOnly: highlightedOnly.Bool,
		}
	}
	p.CreatedAt = fromUnix(createdAt)
	p.UpdatedAt = fromUnix(updatedAt)
	p.Members = []string{}
	return &p, nil
}

// Create stores a preset and its members in one transaction
func (r *presetRepo) Create(ctx context.Context, preset *domain.Preset) error {
	return r.withTx(ctx, "create preset", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, r.db.rebind(`INSERT INTO presets (`+presetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
			preset.ID, preset.OwnerID, preset.Name,
			preset.Setting.NotifyOnAnyPost, preset.Setting.NotifyOnHighlightedOnly,
			toUnix(preset.CreatedAt), toUnix(preset.UpdatedAt))
		if err != nil {
			return err
		}
		return r.insertMembers(ctx, tx, preset)
	})
}

// Update replaces name, setting and members
func (r *presetRepo) Update(ctx context.Context, preset *domain.Preset) error {
	return r.withTx(ctx, "update preset", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, r.db.rebind(`
			UPDATE presets SET name = ?, notify_on_any_post = ?, notify_on_highlighted_only = ?, updated_at = ?
			WHERE id = ?
		`), preset.Name, preset.Setting.NotifyOnAnyPost, preset.Setting.NotifyOnHighlightedOnly, toUnix(preset.UpdatedAt), preset.ID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, r.db.rebind(`DELETE FROM preset_members WHERE preset_id = ?`), preset.ID); err != nil {
			return err
		}
		return r.insertMembers(ctx, tx, preset)
	})
}

func (r *presetRepo) insertMembers(ctx context.Context, tx *sql.Tx, preset *domain.Preset) error {
	if len(preset.Members) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, r.db.rebind(`INSERT INTO preset_members (preset_id, member_id) VALUES (?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, m := range preset.Members {
		if _, err := stmt.ExecContext(ctx, preset.ID, m); err != nil {
			return fmt.Errorf("member %s: %w", m, err)
		}
	}
	return nil
}

func (r *presetRepo) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		if isUniqueViolation(err) {
			return &domain.ValidationError{Field: "name", Message: "already used by another preset"}
		}
		return storeErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr(op, err)
	}
	return nil
}

// GetByID gets a preset with its members
func (r *presetRepo) GetByID(ctx context.Context, id string) (*domain.Preset, error) {
	return r.getOne(ctx, `SELECT `+presetColumns+` FROM presets WHERE id = ?`, id)
}

// GetByOwnerAndName gets an owner's preset by exact name
func (r *presetRepo) GetByOwnerAndName(ctx context.Context, ownerID, name string) (*domain.Preset, error) {
	return r.getOne(ctx, `SELECT `+presetColumns+` FROM presets WHERE owner_id = ? AND name = ?`, ownerID, name)
}

func (r *presetRepo) getOne(ctx context.Context, query string, args ...any) (*domain.Preset, error) {
	preset, err := scanPreset(r.db.queryRow(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query preset", err)
	}
	if err := r.loadMembers(ctx, []*domain.Preset{preset}); err != nil {
		return nil, err
	}
	return preset, nil
}

// Delete deletes a preset; memberships cascade
func (r *presetRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.exec(ctx, `DELETE FROM presets WHERE id = ?`, id); err != nil {
		return storeErr("delete preset", err)
	}
	return nil
}

// ListByOwner lists an owner's presets with members
func (r *presetRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Preset, error) {
	rows, err := r.db.query(ctx, `SELECT `+presetColumns+` FROM presets WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, storeErr("list presets", err)
	}
	defer rows.Close()

	presets := make([]*domain.Preset, 0)
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, storeErr("scan preset", err)
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list presets", err)
	}
	rows.Close()

	if err := r.loadMembers(ctx, presets); err != nil {
		return nil, err
	}
	return presets, nil
}

// loadMembers fills Members of all presets with a single query
func (r *presetRepo) loadMembers(ctx context.Context, presets []*domain.Preset) error {
	if len(presets) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Preset, len(presets))
	ids := make([]string, len(presets))
	for i, p := range presets {
		byID[p.ID] = p
		ids[i] = p.ID
	}

	placeholders, args := inClause(ids)
	rows, err := r.db.query(ctx, `
		SELECT preset_id, member_id FROM preset_members
		WHERE preset_id IN (`+placeholders+`)
		ORDER BY member_id
	`, args...)
	if err != nil {
		return storeErr("query preset members", err)
	}
	defer rows.Close()

	for rows.Next() {
		var presetID, memberID string
		if err := rows.Scan(&presetID, &memberID); err != nil {
			return storeErr("scan preset member", err)
		}
		if p, ok := byID[presetID]; ok {
			p.Members = append(p.Members, memberID)
		}
	}
	if err := rows.Err(); err != nil {
		return storeErr("query preset members", err)
	}
	return nil
}
