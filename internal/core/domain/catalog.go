package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Mood is a label used as the lookup key into the track catalog.
type Mood string

const (
	MoodSad       Mood = "Sad"
	MoodHappy     Mood = "Happy"
	MoodAngry     Mood = "Angry"
	MoodEnergetic Mood = "Energetic"
)

var moodOrder = []Mood{MoodSad, MoodHappy, MoodAngry, MoodEnergetic}

// catalog is read-only; every accessor hands out copies.
var catalog = map[Mood][]Track{
	MoodSad: {
		{Name: "Someone Like You", Artist: "Adele"},
		{Name: "Too Good at Goodbyes", Artist: "Sam Smith"},
		{Name: "Goodbye My Lover", Artist: "James Blunt"},
		{Name: "When the Party's Over", Artist: "Billie Eilish"},
		{Name: "The Scientist", Artist: "Coldplay"},
		{Name: "Let Her Go", Artist: "Passenger"},
		{Name: "Someone You Loved", Artist: "Lewis Capaldi"},
		{Name: "Summertime Sadness", Artist: "Lana Del Rey"},
		{Name: "The Blower's Daughter", Artist: "Damien Rice"},
		{Name: "Skinny Love", Artist: "Birdy"},
	},
	MoodHappy: {
		{Name: "Happy", Artist: "Pharrell Williams"},
		{Name: "Walking on Sunshine", Artist: "Katrina and the Waves"},
		{Name: "Can't Stop the Feeling!", Artist: "Justin Timberlake"},
		{Name: "Here Comes the Sun", Artist: "The Beatles"},
		{Name: "Firework", Artist: "Katy Perry"},
		{Name: "Don't Worry, Be Happy", Artist: "Bobby McFerrin"},
		{Name: "Shake It Off", Artist: "Taylor Swift"},
		{Name: "Sorry", Artist: "Justin Bieber"},
		{Name: "Uptown Funk", Artist: "Mark Ronson ft. Bruno Mars"},
		{Name: "Dancing Queen", Artist: "ABBA"},
	},
	MoodAngry: {
		{Name: "In the End", Artist: "Linkin Park"},
		{Name: "Lose Yourself", Artist: "Eminem"},
		{Name: "Killing in the Name", Artist: "Rage Against the Machine"},
		{Name: "Enter Sandman", Artist: "Metallica"},
		{Name: "Smells Like Teen Spirit", Artist: "Nirvana"},
		{Name: "Chop Suey!", Artist: "System Of A Down"},
		{Name: "Down with the Sickness", Artist: "Disturbed"},
		{Name: "I Hate Everything About You", Artist: "Three Days Grace"},
		{Name: "The Pretender", Artist: "Foo Fighters"},
		{Name: "Freak on a Leash", Artist: "Korn"},
	},
	MoodEnergetic: {
		{Name: "Eye of the Tiger", Artist: "Survivor"},
		{Name: "Don't Stop Me Now", Artist: "Queen"},
		{Name: "Titanium", Artist: "David Guetta ft. Sia"},
		{Name: "Believer", Artist: "Imagine Dragons"},
		{Name: "Can't Hold Us", Artist: "Macklemore & Ryan Lewis"},
		{Name: "Stronger", Artist: "Kanye West"},
		{Name: "Pump It", Artist: "The Black Eyed Peas"},
		{Name: "Summer", Artist: "Calvin Harris"},
		{Name: "Party Rock Anthem", Artist: "LMFAO"},
		{Name: "One More Time", Artist: "Daft Punk"},
	},
}

// Moods returns every mood in display order.
func Moods() []Mood {
	return slices.Clone(moodOrder)
}

// Valid reports whether m belongs to the mood set.
func (m Mood) Valid() bool {
	_, ok := catalog[m]
	return ok
}

// ParseMood resolves a label case-insensitively.
func ParseMood(label string) (Mood, error) {
	label = strings.TrimSpace(label)
	for _, m := range moodOrder {
		if strings.EqualFold(string(m), label) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMood, label)
}

// TracksFor returns a copy of the catalog entry for m, or nil when m is
// not a known mood.
func TracksFor(m Mood) []Track {
	tracks, ok := catalog[m]
	if !ok {
		return nil
	}
	return slices.Clone(tracks)
}
