// Package sqlite provides a SQLite-backed implementation of the storage ports.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Adapter implements ports.Storage on a single key/value table.
type Adapter struct {
	db *sql.DB
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}
	if err := adapter.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// GetItem returns the value stored under key, or domain.ErrNotFound.
func (a *Adapter) GetItem(ctx context.Context, key string) (string, error) {
	v, err := getItem(ctx, a.db, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return "", &domain.StorageError{Op: "get", Key: key, Err: err}
	}
	return v, nil
}

// SetItem stores value under key, replacing any previous value.
func (a *Adapter) SetItem(ctx context.Context, key, value string) error {
	if err := setItem(ctx, a.db, key, value); err != nil {
		return &domain.StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// List returns the saved tracks in insertion order.
func (a *Adapter) List(ctx context.Context) ([]domain.Track, error) {
	tracks, err := readSaved(ctx, a.db)
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Key: domain.SavedSongsKey, Err: err}
	}
	return tracks, nil
}

// Append adds t to the end of the saved list.
func (a *Adapter) Append(ctx context.Context, t domain.Track) error {
	err := a.update(ctx, func(tracks []domain.Track) []domain.Track {
		return domain.AppendTrack(tracks, t)
	})
	if err != nil {
		return &domain.StorageError{Op: "append", Key: domain.SavedSongsKey, Err: err}
	}
	return nil
}

// Remove deletes every saved entry with t's name and artist.
func (a *Adapter) Remove(ctx context.Context, t domain.Track) error {
	err := a.update(ctx, func(tracks []domain.Track) []domain.Track {
		return domain.RemoveTrack(tracks, t)
	})
	if err != nil {
		return &domain.StorageError{Op: "remove", Key: domain.SavedSongsKey, Err: err}
	}
	return nil
}

// update runs a read-modify-write of the saved list in one transaction.
func (a *Adapter) update(ctx context.Context, fn func([]domain.Track) []domain.Track) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tracks, err := readSaved(ctx, tx)
	if err != nil {
		return err
	}
	raw, err := domain.EncodeSavedTracks(fn(tracks))
	if err != nil {
		return err
	}
	if err := setItem(ctx, tx, domain.SavedSongsKey, raw); err != nil {
		return err
	}
	return tx.Commit()
}

func readSaved(ctx context.Context, q queryer) ([]domain.Track, error) {
	raw, err := getItem(ctx, q, domain.SavedSongsKey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return domain.DecodeSavedTracks(raw)
}

func getItem(ctx context.Context, q queryer, key string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func setItem(ctx context.Context, q queryer, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := a.db.Exec(query)
	return err
}
