package db

import (
	"context"
	"database/sql"
	"time"
)

// Re-export so callers can check db.ErrNoRows without importing database/sql.
var ErrNoRows = sql.ErrNoRows

// Setting is one row of the settings table. An empty Label applies to every environment.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Label     string    `json:"label"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Repo interface {
	UpsertSetting(ctx context.Context, s Setting) error
	GetSetting(ctx context.Context, key, label string) (Setting, error) // ErrNoRows if none
	// ListSettings returns unlabeled rows and rows carrying label, ordered by key.
	ListSettings(ctx context.Context, label string) ([]Setting, error)
	DeleteSetting(ctx context.Context, key, label string) (bool, error)
}
