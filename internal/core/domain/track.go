package domain

import "strings"

// Album is one entry of an artist's discography.
type Album struct {
	Name string `json:"name"`
	Year string `json:"year"`
}

// Track represents a song in the domain layer. Identity is the
// (Name, Artist) pair; there is no other identifier.
type Track struct {
	Name   string  `json:"name"`
	Artist string  `json:"artist"`
	Albums []Album `json:"albums,omitempty"` // enriched from the metadata source
}

// SameAs reports whether t and other identify the same song.
func (t Track) SameAs(other Track) bool {
	return t.Name == other.Name && t.Artist == other.Artist
}

// Bare returns the track without any fetched album metadata.
func (t Track) Bare() Track {
	return Track{Name: t.Name, Artist: t.Artist}
}

const searchURLBase = "https://open.spotify.com/search/"

// SearchURL builds the external deep link used to play the track:
// the escaped name and artist joined by an encoded space.
func (t Track) SearchURL() string {
	return searchURLBase + EscapeComponent(t.Name) + "%20" + EscapeComponent(t.Artist)
}

// EscapeComponent percent-encodes everything except the characters left
// untouched by URI component encoding: ALPHA / DIGIT / - _ . ! ~ * ' ( )
// Spaces become %20.
func EscapeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isComponentSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isComponentSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// TrackInfo is the supplementary detail looked up from Spotify for a track.
type TrackInfo struct {
	BPM        float64 `json:"bpm"`
	Year       int     `json:"year"`
	Key        string  `json:"key"`
	Background string  `json:"background"`
}
