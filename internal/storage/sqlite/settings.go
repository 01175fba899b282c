package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rahat-c2c/disburse/internal/errs"
	"github.com/rahat-c2c/disburse/internal/models"
)

// GetSetting returns the JSON value stored under name.
func (s *SQLiteStore) GetSetting(ctx context.Context, name string) (json.RawMessage, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Wrapf(errs.ErrNotFound, "setting %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return json.RawMessage(value), nil
}

// PutSetting stores a JSON value under name, replacing any previous one.
func (s *SQLiteStore) PutSetting(ctx context.Context, name string, value json.RawMessage) error {
	if !json.Valid(value) {
		return errs.Wrapf(errs.ErrInvalidInput, "setting %s is not valid JSON", name)
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO settings (name, value) VALUES (?, ?) ON CONFLICT (name) DO UPDATE SET value = excluded.value",
		name, string(value))
	if err != nil {
		return fmt.Errorf("failed to put setting: %w", err)
	}
	return nil
}

// UpsertStat writes a named stat row, replacing any previous payload.
func (s *SQLiteStore) UpsertStat(ctx context.Context, st *models.Stat) error {
	st.UpdatedAt = time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stats (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		st.Name, string(st.Data), st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert stat: %w", err)
	}
	return nil
}

// GetStat returns a stat row by name.
func (s *SQLiteStore) GetStat(ctx context.Context, name string) (*models.Stat, error) {
	st := &models.Stat{}
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT name, data, updated_at FROM stats WHERE name = ?", name).
		Scan(&st.Name, &data, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Wrapf(errs.ErrNotFound, "stat %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stat: %w", err)
	}
	st.Data = []byte(data)
	return st, nil
}

// ListStats returns all stat rows.
func (s *SQLiteStore) ListStats(ctx context.Context) ([]models.Stat, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, data, updated_at FROM stats ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}
	defer rows.Close()

	var out []models.Stat
	for rows.Next() {
		var st models.Stat
		var data string
		if err := rows.Scan(&st.Name, &data, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stat: %w", err)
		}
		st.Data = []byte(data)
		out = append(out, st)
	}
	return out, rows.Err()
}
