// Package audiodb fetches artist discographies from TheAudioDB.
package audiodb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
)

const (
	// DefaultBaseURL is TheAudioDB's public host.
	DefaultBaseURL = "https://www.theaudiodb.com"
	// DefaultAPIKey is the free test key.
	DefaultAPIKey = "2"

	maxBodyBytes = 1 << 20
)

// Client is an HTTP client for the TheAudioDB discography endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// compile-time interface assertion
var _ ports.MetadataProvider = (*Client)(nil)

// NewClient constructs a new TheAudioDB client. A nil limiter disables
// request pacing.
func NewClient(httpClient *http.Client, baseURL, apiKey string, limiter *rate.Limiter, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiKey == "" {
		apiKey = DefaultAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		limiter:    limiter,
		logger:     logger,
	}
}

// FetchAlbums returns the artist's albums in the order the service lists
// them. The artist name is sent as-is. An artist with no albums yields an
// empty slice.
func (c *Client) FetchAlbums(ctx context.Context, artist string) ([]domain.Album, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &domain.NetworkError{Op: "discography", Err: err}
		}
	}

	endpoint := fmt.Sprintf("%s/api/v1/json/%s/discography.php?s=%s",
		c.baseURL, url.PathEscape(c.apiKey), domain.EscapeComponent(artist))
	c.logger.Debug("audiodb: fetching discography", zap.String("artist", artist), zap.String("url", endpoint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &domain.NetworkError{Op: "discography", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: "discography", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.NetworkError{Op: "discography", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var doc any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&doc); err != nil {
		return nil, &domain.NetworkError{Op: "discography", Err: fmt.Errorf("decode: %w", err)}
	}

	albums, err := projectDiscography(doc)
	if err != nil {
		return nil, &domain.NetworkError{Op: "discography", Err: err}
	}
	return albums, nil
}
