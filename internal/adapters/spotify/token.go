package spotify

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
)

// TokenKey is the key-value store key holding the Spotify access token.
const TokenKey = "spotify_access_token"

// ErrNoToken indicates no access token has been stored.
var ErrNoToken = errors.New("spotify adapter: no access token")

type storeTokenSource struct {
	kv ports.KeyValueStore
}

// TokenFromStore returns a token source that reads the bearer token from kv
// on every call, so a token written later is picked up without a restart.
func TokenFromStore(kv ports.KeyValueStore) oauth2.TokenSource {
	return storeTokenSource{kv: kv}
}

func (s storeTokenSource) Token() (*oauth2.Token, error) {
	v, err := s.kv.GetItem(context.Background(), TokenKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("spotify adapter: read token: %w", err)
	}
	return &oauth2.Token{AccessToken: v, TokenType: "Bearer"}, nil
}
