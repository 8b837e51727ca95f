package spotify

import (
	"strconv"

	libspotify "github.com/zmb3/spotify/v2"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
)

// pitchClasses maps Spotify's key integer to a name.
var pitchClasses = []string{
	"C", "C♯/D♭", "D", "D♯/E♭", "E", "F",
	"F♯/G♭", "G", "G♯/A♭", "A", "A♯/B♭", "B",
}

// KeyName returns the pitch class for key, or "Unknown" when out of range.
func KeyName(key int) string {
	if key < 0 || key >= len(pitchClasses) {
		return "Unknown"
	}
	return pitchClasses[key]
}

func mapTrackInfo(track *libspotify.FullTrack, f *libspotify.AudioFeatures) domain.TrackInfo {
	info := domain.TrackInfo{Key: "Unknown"}
	if track != nil {
		info.Background = track.Album.Name
		info.Year = releaseYear(track.Album.ReleaseDate)
	}
	if f != nil {
		info.BPM = float64(f.Tempo)
		info.Key = KeyName(int(f.Key))
	}
	return info
}

// releaseYear reads the year from "YYYY", "YYYY-MM" or "YYYY-MM-DD".
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
