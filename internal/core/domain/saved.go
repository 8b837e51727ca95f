package domain

import (
	"encoding/json"
	"fmt"
)

// SavedSongsKey is the storage key holding the saved track list.
const SavedSongsKey = "savedSongs"

// savedTrack is the persisted shape; fetched albums are never stored.
type savedTrack struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

// EncodeSavedTracks serialises a saved list to its stored JSON form.
func EncodeSavedTracks(tracks []Track) (string, error) {
	out := make([]savedTrack, len(tracks))
	for i, t := range tracks {
		out[i] = savedTrack{Name: t.Name, Artist: t.Artist}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("domain: encode saved tracks: %w", err)
	}
	return string(b), nil
}

// DecodeSavedTracks parses the stored JSON form. An empty value is an
// empty list.
func DecodeSavedTracks(raw string) ([]Track, error) {
	if raw == "" {
		return []Track{}, nil
	}
	var in []savedTrack
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("domain: decode saved tracks: %w", err)
	}
	tracks := make([]Track, len(in))
	for i, st := range in {
		tracks[i] = Track{Name: st.Name, Artist: st.Artist}
	}
	return tracks, nil
}

// AppendTrack adds t to the end of the list. Duplicates are kept.
func AppendTrack(tracks []Track, t Track) []Track {
	return append(tracks, t.Bare())
}

// RemoveTrack drops every entry with the same (name, artist) as t.
// A missing entry leaves the list unchanged.
func RemoveTrack(tracks []Track, t Track) []Track {
	kept := make([]Track, 0, len(tracks))
	for _, ex := range tracks {
		if ex.SameAs(t) {
			continue
		}
		kept = append(kept, ex)
	}
	return kept
}
