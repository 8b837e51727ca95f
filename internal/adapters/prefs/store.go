// Package prefs stores key/value data in Fyne application preferences,
// the on-device store used when the service runs inside the mobile shell.
package prefs

import (
	"context"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
)

// Store implements ports.Storage on top of fyne.Preferences.
//
// The mutex serializes read-modify-write of the saved list within this
// process only. Another process sharing the same preferences file can
// still lose an update.
type Store struct {
	prefs fyne.Preferences
	mu    sync.Mutex
}

// NewStore wraps the given preferences.
func NewStore(prefs fyne.Preferences) *Store {
	return &Store{prefs: prefs}
}

// GetItem returns the value for key. Preferences cannot tell an empty
// value from a missing one, so both report domain.ErrNotFound.
func (s *Store) GetItem(_ context.Context, key string) (string, error) {
	v := s.prefs.String(key)
	if v == "" {
		return "", domain.ErrNotFound
	}
	return v, nil
}

// SetItem stores value under key.
func (s *Store) SetItem(_ context.Context, key, value string) error {
	s.prefs.SetString(key, value)
	return nil
}

// List returns the saved tracks in insertion order.
func (s *Store) List(_ context.Context) ([]domain.Track, error) {
	tracks, err := domain.DecodeSavedTracks(s.prefs.String(domain.SavedSongsKey))
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Key: domain.SavedSongsKey, Err: err}
	}
	return tracks, nil
}

// Append adds t to the end of the saved list.
func (s *Store) Append(_ context.Context, t domain.Track) error {
	return s.update("append", func(tracks []domain.Track) []domain.Track {
		return domain.AppendTrack(tracks, t)
	})
}

// Remove deletes every saved entry with t's name and artist.
func (s *Store) Remove(_ context.Context, t domain.Track) error {
	return s.update("remove", func(tracks []domain.Track) []domain.Track {
		return domain.RemoveTrack(tracks, t)
	})
}

func (s *Store) update(op string, fn func([]domain.Track) []domain.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracks, err := domain.DecodeSavedTracks(s.prefs.String(domain.SavedSongsKey))
	if err != nil {
		return &domain.StorageError{Op: op, Key: domain.SavedSongsKey, Err: err}
	}
	raw, err := domain.EncodeSavedTracks(fn(tracks))
	if err != nil {
		return &domain.StorageError{Op: op, Key: domain.SavedSongsKey, Err: err}
	}
	s.prefs.SetString(domain.SavedSongsKey, raw)
	return nil
}
