package domain

// FetchStatus is the state of the metadata fetch for a session's current track.
type FetchStatus string

const (
	// FetchIdle means no mood has been chosen yet.
	FetchIdle FetchStatus = "Idle"

	// FetchLoading means a fetch for the current track is outstanding.
	FetchLoading FetchStatus = "Loading"

	// FetchReady means albums for the current track are attached.
	FetchReady FetchStatus = "Ready"

	// FetchFailed means the last fetch errored; name and artist remain usable.
	FetchFailed FetchStatus = "Failed"
)

// String returns the string representation of FetchStatus
func (fs FetchStatus) String() string {
	return string(fs)
}

// IsSettled returns true once the fetch for the current track has resolved.
func (fs FetchStatus) IsSettled() bool {
	return fs == FetchReady || fs == FetchFailed
}
