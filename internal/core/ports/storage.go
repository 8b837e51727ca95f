package ports

import (
	"context"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
)

// KeyValueStore is the device-local string store. GetItem returns
// domain.ErrNotFound for a missing key.
type KeyValueStore interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
}

// SavedTrackStore persists the user's saved tracks in insertion order.
// Read and write failures are reported as *domain.StorageError.
type SavedTrackStore interface {
	List(ctx context.Context) ([]domain.Track, error)
	Append(ctx context.Context, t domain.Track) error
	Remove(ctx context.Context, t domain.Track) error
}

// Storage is a backend offering both views.
type Storage interface {
	KeyValueStore
	SavedTrackStore
}
