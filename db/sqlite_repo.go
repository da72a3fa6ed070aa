package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type sqliteRepo struct {
	db *sql.DB
}

func NewRepo(sqldb *sql.DB) Repo {
	return &sqliteRepo{db: sqldb}
}

func (r *sqliteRepo) UpsertSetting(ctx context.Context, s Setting) error {
	if strings.TrimSpace(s.Key) == "" {
		return errors.New("setting key is empty")
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	const q = `
INSERT INTO settings(key, label, value, updated_at)
VALUES(?, ?, ?, ?)
ON CONFLICT(key, label) DO UPDATE SET
  value      = excluded.value,
  updated_at = excluded.updated_at;`
	_, err := r.db.ExecContext(ctx, q, s.Key, s.Label, s.Value, s.UpdatedAt.Unix())
	return err
}

func (r *sqliteRepo) GetSetting(ctx context.Context, key, label string) (Setting, error) {
	const q = `
SELECT key, label, value, updated_at
FROM settings
WHERE key = ? AND label = ?;`
	var (
		s  Setting
		ts int64
	)
	err := r.db.QueryRowContext(ctx, q, key, label).Scan(&s.Key, &s.Label, &s.Value, &ts)
	if err != nil {
		return Setting{}, err
	}
	s.UpdatedAt = time.Unix(ts, 0).UTC()
	return s, nil
}

func (r *sqliteRepo) ListSettings(ctx context.Context, label string) ([]Setting, error) {
	// unlabeled rows first so labeled ones override them when loaded in order
	const q = `
SELECT key, label, value, updated_at
FROM settings
WHERE label = '' OR label = ?
ORDER BY (label <> '') ASC, key ASC;`
	rows, err := r.db.QueryContext(ctx, q, label)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Setting
	for rows.Next() {
		var (
			s  Setting
			ts int64
		)
		if err := rows.Scan(&s.Key, &s.Label, &s.Value, &ts); err != nil {
			return nil, err
		}
		s.UpdatedAt = time.Unix(ts, 0).UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sqliteRepo) DeleteSetting(ctx context.Context, key, label string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ? AND label = ?;`, key, label)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}
