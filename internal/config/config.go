// Package config loads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverPrefs  = "prefs"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port int

	// Storage
	StorageDriver string // sqlite or prefs
	StoragePath   string // sqlite file; ignored by prefs

	// TheAudioDB
	AudioDBBaseURL      string
	AudioDBAPIKey       string
	AudioDBRateInterval time.Duration // minimum spacing between requests once the burst is spent
	AudioDBRateBurst    int
	HTTPTimeout         time.Duration

	// Spotify
	SpotifyBaseURL     string
	SpotifyAccessToken string // seeds the stored token when set

	// Shake detection
	ShakeThreshold      float64
	ShakeDebounce       time.Duration
	ShakeSettle         time.Duration
	ShakeSampleInterval time.Duration

	// Fetch workers
	Workers   int
	QueueSize int

	// Logging
	LogLevel  string
	LogFormat string // json or console
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port: envInt("PORT", 8080),

		StorageDriver: strings.ToLower(envStr("STORAGE_DRIVER", DriverSQLite)),
		StoragePath:   envStr("STORAGE_PATH", "moodmusic.db"),

		AudioDBBaseURL:      envStr("AUDIODB_BASE_URL", "https://www.theaudiodb.com"),
		AudioDBAPIKey:       envStr("AUDIODB_API_KEY", "2"),
		AudioDBRateInterval: envDuration("AUDIODB_RATE_INTERVAL_MS", 2000*time.Millisecond),
		AudioDBRateBurst:    envInt("AUDIODB_RATE_BURST", 5),
		HTTPTimeout:         envDuration("HTTP_TIMEOUT_MS", 10*time.Second),

		SpotifyBaseURL:     envStr("SPOTIFY_BASE_URL", "https://api.spotify.com/v1/"),
		SpotifyAccessToken: envStr("SPOTIFY_ACCESS_TOKEN", ""),

		ShakeThreshold:      envFloat("SHAKE_THRESHOLD", 1.78),
		ShakeDebounce:       envDuration("SHAKE_DEBOUNCE_MS", time.Second),
		ShakeSettle:         envDuration("SHAKE_SETTLE_MS", 500*time.Millisecond),
		ShakeSampleInterval: envDuration("SHAKE_SAMPLE_INTERVAL_MS", 100*time.Millisecond),

		Workers:   envInt("WORKERS", 2),
		QueueSize: envInt("QUEUE_SIZE", 32),

		LogLevel:  strings.ToLower(envStr("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(envStr("LOG_FORMAT", "json")),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// envDuration reads a whole number of milliseconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return fallback
}
