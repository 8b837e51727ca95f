package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
	"github.com/ewilliams-labs/moodmusic/internal/motion"
)

var (
	// ErrSessionNotFound indicates an unknown or ended session id.
	ErrSessionNotFound = errors.New("service: session not found")

	// ErrTrackInfoUnavailable indicates no track info provider is configured.
	ErrTrackInfoUnavailable = errors.New("service: track info provider not configured")
)

const motionBuffer = 64

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSessionDispatcher sets the dispatcher shared by all sessions.
func WithSessionDispatcher(d Dispatcher) Option {
	return func(o *Orchestrator) { o.dispatch = d }
}

// WithShakeConfig sets the detector parameters used for every session.
func WithShakeConfig(cfg motion.Config) Option {
	return func(o *Orchestrator) { o.shake = cfg }
}

// WithTrackInfo enables the Spotify track info lookup.
func WithTrackInfo(p ports.TrackInfoProvider) Option {
	return func(o *Orchestrator) { o.info = p }
}

// WithOrchestratorLogger sets the logger handed to sessions and detectors.
func WithOrchestratorLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSessionOptions appends options applied to every new session.
func WithSessionOptions(opts ...SessionOption) Option {
	return func(o *Orchestrator) { o.sessionOpts = append(o.sessionOpts, opts...) }
}

type sessionEntry struct {
	session *Session
	samples chan motion.Sample
	cancel  context.CancelFunc
}

// Orchestrator owns the live sessions and coordinates the metadata,
// storage and track info adapters.
type Orchestrator struct {
	metadata    ports.MetadataProvider
	store       ports.SavedTrackStore
	info        ports.TrackInfoProvider
	dispatch    Dispatcher
	shake       motion.Config
	sessionOpts []SessionOption
	logger      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	onUpdate func(id string, snap Snapshot)
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(metadata ports.MetadataProvider, store ports.SavedTrackStore, opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		metadata: metadata,
		store:    store,
		shake:    motion.DefaultConfig(),
		logger:   zap.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*sessionEntry),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.shake = motion.NewDetector(o.shake, nil).Config()
	return o
}

// SetUpdateCallback sets the function called after any session changes state.
func (o *Orchestrator) SetUpdateCallback(fn func(id string, snap Snapshot)) {
	o.mu.Lock()
	o.onUpdate = fn
	o.mu.Unlock()
}

// ShakeConfig returns the detector parameters, including the rate clients
// should sample their accelerometer at.
func (o *Orchestrator) ShakeConfig() motion.Config {
	return o.shake
}

// StartSession creates a session for the mood label and selects its first track.
func (o *Orchestrator) StartSession(moodLabel string) (string, Snapshot, error) {
	mood, err := domain.ParseMood(moodLabel)
	if err != nil {
		return "", Snapshot{}, fmt.Errorf("service: start session: %w", err)
	}

	id := uuid.NewString()
	logger := o.logger.With(zap.String("session", id))

	opts := []SessionOption{WithLogger(logger)}
	if o.dispatch != nil {
		opts = append(opts, WithDispatcher(o.dispatch))
	}
	opts = append(opts, o.sessionOpts...)
	session := NewSession(o.ctx, o.metadata, o.store, opts...)
	session.SetUpdateCallback(func(snap Snapshot) {
		o.mu.RLock()
		cb := o.onUpdate
		o.mu.RUnlock()
		if cb != nil {
			cb(id, snap)
		}
	})

	detCtx, cancel := context.WithCancel(o.ctx)
	entry := &sessionEntry{
		session: session,
		samples: make(chan motion.Sample, motionBuffer),
		cancel:  cancel,
	}
	detector := motion.NewDetector(o.shake, logger)
	go detector.Run(detCtx, entry.samples, func() {
		if err := session.Advance(); err != nil {
			logger.Warn("service: shake advance failed", zap.Error(err))
		}
	})

	o.mu.Lock()
	o.sessions[id] = entry
	o.mu.Unlock()

	if err := session.SelectMood(mood); err != nil {
		o.removeEntry(id)
		return "", Snapshot{}, err
	}
	return id, session.Snapshot(), nil
}

func (o *Orchestrator) lookup(id string) (*sessionEntry, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	entry, ok := o.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return entry, nil
}

// Session returns the state of a live session.
func (o *Orchestrator) Session(id string) (Snapshot, error) {
	entry, err := o.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return entry.session.Snapshot(), nil
}

// PlayURL returns the external search link for the session's current track.
func (o *Orchestrator) PlayURL(id string) (string, error) {
	entry, err := o.lookup(id)
	if err != nil {
		return "", err
	}
	return entry.session.PlayURL()
}

// Advance moves the session to its next track.
func (o *Orchestrator) Advance(id string) (Snapshot, error) {
	entry, err := o.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := entry.session.Advance(); err != nil {
		return Snapshot{}, err
	}
	return entry.session.Snapshot(), nil
}

// Retreat moves the session to its previous track.
func (o *Orchestrator) Retreat(id string) (Snapshot, error) {
	entry, err := o.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := entry.session.Retreat(); err != nil {
		return Snapshot{}, err
	}
	return entry.session.Snapshot(), nil
}

// Save stores the session's current track in the saved list.
func (o *Orchestrator) Save(ctx context.Context, id string) (domain.Track, error) {
	entry, err := o.lookup(id)
	if err != nil {
		return domain.Track{}, err
	}
	return entry.session.Save(ctx)
}

// FeedMotion queues accelerometer samples for the session's shake detector.
// A batch is read as consecutive readings taken SampleInterval apart.
// Samples beyond the buffer are dropped; the number accepted is returned.
func (o *Orchestrator) FeedMotion(id string, samples []motion.Sample) (int, error) {
	entry, err := o.lookup(id)
	if err != nil {
		return 0, err
	}
	accepted := 0
	for _, s := range samples {
		select {
		case entry.samples <- s:
			accepted++
		default:
			o.logger.Warn("service: motion buffer full, dropping samples",
				zap.String("session", id),
				zap.Int("dropped", len(samples)-accepted))
			return accepted, nil
		}
	}
	return accepted, nil
}

// EndSession discards a session and stops its detector.
func (o *Orchestrator) EndSession(id string) error {
	if !o.removeEntry(id) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	o.logger.Info("service: session ended", zap.String("session", id))
	return nil
}

func (o *Orchestrator) removeEntry(id string) bool {
	o.mu.Lock()
	entry, ok := o.sessions[id]
	delete(o.sessions, id)
	o.mu.Unlock()
	if !ok {
		return false
	}
	entry.cancel()
	entry.session.Close()
	return true
}

// SessionCount returns the number of live sessions.
func (o *Orchestrator) SessionCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.sessions)
}

// SavedTracks lists the saved tracks in insertion order.
func (o *Orchestrator) SavedTracks(ctx context.Context) ([]domain.Track, error) {
	tracks, err := o.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: list saved tracks: %w", err)
	}
	return tracks, nil
}

// RemoveSaved deletes every saved entry matching the track's name and artist.
func (o *Orchestrator) RemoveSaved(ctx context.Context, t domain.Track) error {
	if err := o.store.Remove(ctx, t); err != nil {
		return fmt.Errorf("service: remove saved track: %w", err)
	}
	return nil
}

// TrackInfo looks up tempo, key, year and album for a Spotify track reference.
func (o *Orchestrator) TrackInfo(ctx context.Context, ref string) (domain.TrackInfo, error) {
	if o.info == nil {
		return domain.TrackInfo{}, ErrTrackInfoUnavailable
	}
	info, err := o.info.GetTrackInfo(ctx, ref)
	if err != nil {
		return domain.TrackInfo{}, fmt.Errorf("service: track info: %w", err)
	}
	return info, nil
}

// Shutdown ends every session and cancels outstanding fetches.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	entries := o.sessions
	o.sessions = make(map[string]*sessionEntry)
	o.mu.Unlock()

	for _, entry := range entries {
		entry.cancel()
		entry.session.Close()
	}
	o.cancel()
}
