package ports

import (
	"context"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
)

// MetadataProvider fetches discography information for an artist.
// Failures are reported as *domain.NetworkError.
type MetadataProvider interface {
	FetchAlbums(ctx context.Context, artist string) ([]domain.Album, error)
}

// TrackInfoProvider resolves supplementary detail for a Spotify track reference.
type TrackInfoProvider interface {
	GetTrackInfo(ctx context.Context, ref string) (domain.TrackInfo, error)
}
