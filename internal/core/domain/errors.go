package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a missing key or record.
	ErrNotFound = errors.New("domain: not found")

	// ErrUnknownMood indicates a label outside the mood set.
	ErrUnknownMood = errors.New("domain: unknown mood")

	// ErrNoTrack indicates an operation that needs a current track was
	// called before a mood was chosen.
	ErrNoTrack = errors.New("domain: no current track")

	// ErrNetwork matches any *NetworkError.
	ErrNetwork = errors.New("network error")

	// ErrStorage matches any *StorageError.
	ErrStorage = errors.New("storage error")
)

// NetworkError reports a failed or malformed metadata fetch.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("network: %s failed", e.Op)
	}
	return fmt.Sprintf("network: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// StorageError reports a failed read or write of local persistence.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
