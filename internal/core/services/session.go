package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
)

// ErrSessionClosed is returned by operations on a session that has ended.
var ErrSessionClosed = errors.New("service: session closed")

// Dispatcher runs fetch jobs off the caller's goroutine.
type Dispatcher interface {
	Dispatch(name string, fn func()) error
}

type goDispatcher struct{}

func (goDispatcher) Dispatch(_ string, fn func()) error {
	go fn()
	return nil
}

// Snapshot is a copy of a session's visible state.
type Snapshot struct {
	Mood    domain.Mood
	Tracks  []domain.Track
	Index   int
	Current domain.Track
	Status  domain.FetchStatus
	Err     string // reason for FetchFailed
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDispatcher sets where album fetches run. Defaults to one goroutine per fetch.
func WithDispatcher(d Dispatcher) SessionOption {
	return func(s *Session) {
		if d != nil {
			s.dispatch = d
		}
	}
}

// WithPicker replaces the uniform random choice of the opening track.
func WithPicker(pick func(n int) int) SessionOption {
	return func(s *Session) {
		if pick != nil {
			s.pick = pick
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session is the mood-selection-through-playback state for one user.
//
// Every track change bumps a sequence number. A session keeps at most one
// fetch job queued; the job reads the current track and its number when a
// worker picks it up, so changes made while it waits are coalesced into one
// request. A completed fetch is applied only while its number is still
// current, so the last requested change wins regardless of the order in
// which fetches resolve.
type Session struct {
	ctx      context.Context
	metadata ports.MetadataProvider
	store    ports.SavedTrackStore
	dispatch Dispatcher
	pick     func(n int) int
	logger   *zap.Logger

	mu       sync.Mutex
	mood     domain.Mood
	tracks   []domain.Track
	index    int
	current  domain.Track
	status   domain.FetchStatus
	lastErr  string
	seq      uint64
	queued   bool // a fetch job is waiting for a worker
	closed   bool
	onUpdate func(Snapshot)
}

type fetchJob struct {
	seq   uint64
	track domain.Track
}

// NewSession creates an idle session. ctx bounds the album fetches it starts.
func NewSession(ctx context.Context, metadata ports.MetadataProvider, store ports.SavedTrackStore, opts ...SessionOption) *Session {
	s := &Session{
		ctx:      ctx,
		metadata: metadata,
		store:    store,
		dispatch: goDispatcher{},
		pick:     rand.IntN,
		logger:   zap.NewNop(),
		status:   domain.FetchIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetUpdateCallback sets the function called after every state change.
func (s *Session) SetUpdateCallback(fn func(Snapshot)) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

// SelectMood picks a random track from the mood's catalog entry and starts
// fetching its albums.
func (s *Session) SelectMood(mood domain.Mood) error {
	tracks := domain.TracksFor(mood)
	if len(tracks) == 0 {
		return fmt.Errorf("service: select mood: %w: %q", domain.ErrUnknownMood, mood)
	}
	idx := s.pick(len(tracks))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mood = mood
	s.tracks = tracks
	job := s.moveToLocked(idx)
	s.mu.Unlock()

	s.logger.Info("service: mood selected",
		zap.String("mood", string(mood)),
		zap.String("track", job.track.Name),
		zap.String("artist", job.track.Artist))
	s.startFetch(job)
	return nil
}

// Advance moves to the next track, wrapping at the end of the list.
func (s *Session) Advance() error {
	return s.step(1)
}

// Retreat moves to the previous track, wrapping at the start of the list.
func (s *Session) Retreat() error {
	return s.step(-1)
}

func (s *Session) step(delta int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	n := len(s.tracks)
	if n == 0 {
		s.mu.Unlock()
		return domain.ErrNoTrack
	}
	job := s.moveToLocked(((s.index+delta)%n + n) % n)
	s.mu.Unlock()

	s.startFetch(job)
	return nil
}

// moveToLocked makes tracks[idx] current and returns the fetch to start
// for it. Must be called with mu held.
func (s *Session) moveToLocked(idx int) fetchJob {
	s.seq++
	s.index = idx
	s.current = s.tracks[idx].Bare()
	s.status = domain.FetchLoading
	s.lastErr = ""
	return fetchJob{seq: s.seq, track: s.current}
}

func (s *Session) startFetch(job fetchJob) {
	s.notify()

	s.mu.Lock()
	if s.queued {
		s.mu.Unlock()
		return
	}
	s.queued = true
	s.mu.Unlock()

	name := fmt.Sprintf("albums:%d:%s", job.seq, job.track.Artist)
	if err := s.dispatch.Dispatch(name, s.runFetch); err != nil {
		// Changes made during Dispatch saw the job as queued, so the
		// failure belongs to whatever track is current now.
		s.mu.Lock()
		s.queued = false
		latest := fetchJob{seq: s.seq, track: s.current.Bare()}
		s.mu.Unlock()
		s.logger.Warn("service: could not schedule album fetch", zap.String("artist", latest.track.Artist), zap.Error(err))
		s.apply(latest, nil, fmt.Errorf("service: schedule album fetch: %w", err))
	}
}

// runFetch fetches albums for whatever track is current when it starts.
func (s *Session) runFetch() {
	s.mu.Lock()
	s.queued = false
	if s.closed {
		s.mu.Unlock()
		return
	}
	job := fetchJob{seq: s.seq, track: s.current.Bare()}
	s.mu.Unlock()

	albums, err := s.metadata.FetchAlbums(s.ctx, job.track.Artist)
	s.apply(job, albums, err)
}

func (s *Session) apply(job fetchJob, albums []domain.Album, err error) {
	s.mu.Lock()
	if s.closed || job.seq != s.seq {
		current := s.seq
		s.mu.Unlock()
		s.logger.Debug("service: discarding stale album fetch",
			zap.Uint64("fetch_seq", job.seq),
			zap.Uint64("current_seq", current),
			zap.String("artist", job.track.Artist))
		return
	}

	if err != nil {
		s.status = domain.FetchFailed
		s.lastErr = err.Error()
		s.current.Albums = nil
	} else {
		if albums == nil {
			albums = []domain.Album{}
		}
		s.status = domain.FetchReady
		s.current.Albums = albums
	}
	snap := s.snapshotLocked()
	cb := s.onUpdate
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("service: album fetch failed", zap.String("artist", job.track.Artist), zap.Error(err))
	}
	if cb != nil {
		cb(snap)
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	cb := s.onUpdate
	s.mu.Unlock()
	if cb != nil {
		cb(snap)
	}
}

// PlayURL returns the external search link for the current track.
func (s *Session) PlayURL() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tracks) == 0 {
		return "", domain.ErrNoTrack
	}
	return s.current.SearchURL(), nil
}

// Save appends the current track to the saved list. Duplicates are not checked.
func (s *Session) Save(ctx context.Context) (domain.Track, error) {
	s.mu.Lock()
	if len(s.tracks) == 0 {
		s.mu.Unlock()
		return domain.Track{}, domain.ErrNoTrack
	}
	t := s.current.Bare()
	s.mu.Unlock()

	if err := s.store.Append(ctx, t); err != nil {
		return domain.Track{}, fmt.Errorf("service: save track: %w", err)
	}
	s.logger.Info("service: track saved", zap.String("track", t.Name), zap.String("artist", t.Artist))
	return t, nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	current := s.current
	current.Albums = slices.Clone(s.current.Albums)
	return Snapshot{
		Mood:    s.mood,
		Tracks:  slices.Clone(s.tracks),
		Index:   s.index,
		Current: current,
		Status:  s.status,
		Err:     s.lastErr,
	}
}

// Close ends the session. Fetches still in flight are discarded when they resolve.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.onUpdate = nil
	s.mu.Unlock()
}
