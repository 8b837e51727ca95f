// Package spotify looks up tempo, key and release data for a track on the
// Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	libspotify "github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
)

// DefaultBaseURL is the Spotify Web API root.
const DefaultBaseURL = "https://api.spotify.com/v1/"

// ErrInvalidRef indicates a track reference with no ID in it.
var ErrInvalidRef = errors.New("spotify adapter: invalid track reference")

// Client is the Spotify adapter.
type Client struct {
	tokens     oauth2.TokenSource
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// compile-time interface assertion
var _ ports.TrackInfoProvider = (*Client)(nil)

// NewClient constructs a new Spotify client.
func NewClient(tokens oauth2.TokenSource, baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{tokens: tokens, baseURL: baseURL, httpClient: httpClient, logger: logger}
}

// GetTrackInfo fetches the track and its audio features. ref may be a
// spotify: URI, an open.spotify.com URL or a bare ID.
func (c *Client) GetTrackInfo(ctx context.Context, ref string) (domain.TrackInfo, error) {
	id := TrackID(ref)
	if id == "" {
		return domain.TrackInfo{}, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}

	tok, err := c.tokens.Token()
	if err != nil {
		return domain.TrackInfo{}, err
	}

	hc := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), oauth2.StaticTokenSource(tok))
	api := libspotify.New(hc, libspotify.WithBaseURL(c.baseURL))

	c.logger.Debug("spotify adapter: fetching track info", zap.String("id", id))
	track, err := api.GetTrack(ctx, libspotify.ID(id))
	if err != nil {
		return domain.TrackInfo{}, &domain.NetworkError{Op: "spotify track", Err: err}
	}
	features, err := api.GetAudioFeatures(ctx, libspotify.ID(id))
	if err != nil {
		return domain.TrackInfo{}, &domain.NetworkError{Op: "spotify audio features", Err: err}
	}

	var f *libspotify.AudioFeatures
	if len(features) > 0 {
		f = features[0]
	}
	return mapTrackInfo(track, f), nil
}

// TrackID extracts the ID from a spotify: URI, a track URL or a bare ID.
func TrackID(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	ref = strings.TrimRight(ref, "/")
	if i := strings.LastIndexAny(ref, ":/"); i >= 0 {
		ref = ref[i+1:]
	}
	return ref
}
