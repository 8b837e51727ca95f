package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/worker"
)

type mockMetadata struct {
	mu     sync.Mutex
	albums map[string][]domain.Album
	err    error
	delay  time.Duration
	calls  []string
}

func (m *mockMetadata) FetchAlbums(_ context.Context, artist string) ([]domain.Album, error) {
	time.Sleep(m.delay)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, artist)
	if m.err != nil {
		return nil, m.err
	}
	return m.albums[artist], nil
}

type mockStore struct {
	mu        sync.Mutex
	tracks    []domain.Track
	appendErr error
	listErr   error
}

func (m *mockStore) List(context.Context) ([]domain.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.Track{}, m.tracks...), nil
}

func (m *mockStore) Append(_ context.Context, t domain.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.tracks = append(m.tracks, t)
	return nil
}

func (m *mockStore) Remove(_ context.Context, t domain.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks = domain.RemoveTrack(m.tracks, t)
	return nil
}

// syncDispatcher runs jobs inline.
type syncDispatcher struct{}

func (syncDispatcher) Dispatch(_ string, fn func()) error {
	fn()
	return nil
}

// heldDispatcher queues jobs until the test releases them.
type heldDispatcher struct {
	mu   sync.Mutex
	jobs []func()
}

func (h *heldDispatcher) Dispatch(_ string, fn func()) error {
	h.mu.Lock()
	h.jobs = append(h.jobs, fn)
	h.mu.Unlock()
	return nil
}

func (h *heldDispatcher) run(i int) {
	h.mu.Lock()
	fn := h.jobs[i]
	h.mu.Unlock()
	fn()
}

type fullDispatcher struct{}

func (fullDispatcher) Dispatch(string, func()) error {
	return errors.New("queue full")
}

func first(int) int { return 0 }

func newTestSession(md *mockMetadata, store *mockStore, opts ...SessionOption) *Session {
	opts = append([]SessionOption{WithDispatcher(syncDispatcher{}), WithPicker(first)}, opts...)
	return NewSession(context.Background(), md, store, opts...)
}

func TestSession_SelectMoodReady(t *testing.T) {
	happy := domain.TracksFor(domain.MoodHappy)
	md := &mockMetadata{albums: map[string][]domain.Album{
		happy[0].Artist: {{Name: "X", Year: "2001"}},
	}}
	s := newTestSession(md, &mockStore{})

	if err := s.SelectMood(domain.MoodHappy); err != nil {
		t.Fatalf("SelectMood: %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != domain.FetchReady {
		t.Fatalf("status = %s, want ready", snap.Status)
	}
	if snap.Mood != domain.MoodHappy || len(snap.Tracks) != len(happy) {
		t.Fatalf("unexpected mood/tracks: %s %d", snap.Mood, len(snap.Tracks))
	}
	if !snap.Current.SameAs(happy[0]) {
		t.Fatalf("current = %+v, want %+v", snap.Current, happy[0])
	}
	if len(snap.Current.Albums) != 1 || snap.Current.Albums[0] != (domain.Album{Name: "X", Year: "2001"}) {
		t.Fatalf("albums = %+v", snap.Current.Albums)
	}
}

func TestSession_SelectMoodFetchFails(t *testing.T) {
	md := &mockMetadata{err: &domain.NetworkError{Op: "discography", Err: errors.New("boom")}}
	s := newTestSession(md, &mockStore{})

	if err := s.SelectMood(domain.MoodSad); err != nil {
		t.Fatalf("SelectMood: %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != domain.FetchFailed {
		t.Fatalf("status = %s, want failed", snap.Status)
	}
	if len(snap.Current.Albums) != 0 {
		t.Fatalf("albums should be empty, got %+v", snap.Current.Albums)
	}
	if snap.Err == "" {
		t.Fatal("expected failure reason")
	}
	if !snap.Current.SameAs(domain.TracksFor(domain.MoodSad)[0]) {
		t.Fatalf("track should stay displayed, got %+v", snap.Current)
	}
}

func TestSession_EmptyAlbumsIsReady(t *testing.T) {
	s := newTestSession(&mockMetadata{}, &mockStore{})
	if err := s.SelectMood(domain.MoodAngry); err != nil {
		t.Fatalf("SelectMood: %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != domain.FetchReady {
		t.Fatalf("status = %s, want ready", snap.Status)
	}
	if snap.Current.Albums == nil || len(snap.Current.Albums) != 0 {
		t.Fatalf("albums = %#v, want empty non-nil", snap.Current.Albums)
	}
}

func TestSession_SelectUnknownMood(t *testing.T) {
	s := newTestSession(&mockMetadata{}, &mockStore{})
	err := s.SelectMood(domain.Mood("Calm"))
	if !errors.Is(err, domain.ErrUnknownMood) {
		t.Fatalf("err = %v, want ErrUnknownMood", err)
	}
	if s.Snapshot().Status != domain.FetchIdle {
		t.Fatal("session should stay idle")
	}
}

func TestSession_AdvanceWraps(t *testing.T) {
	n := len(domain.TracksFor(domain.MoodEnergetic))
	tests := []struct {
		name  string
		start int
		steps int
		want  int
	}{
		{name: "single step", start: 0, steps: 1, want: 1},
		{name: "full cycle", start: 3, steps: n, want: 3},
		{name: "past end", start: n - 1, steps: 2, want: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession(&mockMetadata{}, &mockStore{}, WithPicker(func(int) int { return tc.start }))
			if err := s.SelectMood(domain.MoodEnergetic); err != nil {
				t.Fatalf("SelectMood: %v", err)
			}
			for i := 0; i < tc.steps; i++ {
				if err := s.Advance(); err != nil {
					t.Fatalf("Advance: %v", err)
				}
			}
			if got := s.Snapshot().Index; got != tc.want {
				t.Fatalf("index = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSession_RetreatThenAdvanceRestores(t *testing.T) {
	for start := 0; start < len(domain.TracksFor(domain.MoodSad)); start++ {
		s := newTestSession(&mockMetadata{}, &mockStore{}, WithPicker(func(int) int { return start }))
		if err := s.SelectMood(domain.MoodSad); err != nil {
			t.Fatalf("SelectMood: %v", err)
		}
		if err := s.Retreat(); err != nil {
			t.Fatalf("Retreat: %v", err)
		}
		if start == 0 && s.Snapshot().Index != len(domain.TracksFor(domain.MoodSad))-1 {
			t.Fatalf("retreat from 0 should wrap to last, got %d", s.Snapshot().Index)
		}
		if err := s.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
		if got := s.Snapshot().Index; got != start {
			t.Fatalf("index = %d, want %d", got, start)
		}
	}
}

// gatedMetadata blocks each fetch until the test releases that artist.
type gatedMetadata struct {
	started chan string
	gates   map[string]chan struct{}
	albums  map[string][]domain.Album
}

func newGatedMetadata(albums map[string][]domain.Album) *gatedMetadata {
	g := &gatedMetadata{
		started: make(chan string, 8),
		gates:   make(map[string]chan struct{}),
		albums:  albums,
	}
	for artist := range albums {
		g.gates[artist] = make(chan struct{})
	}
	return g
}

func (g *gatedMetadata) FetchAlbums(ctx context.Context, artist string) ([]domain.Album, error) {
	g.started <- artist
	select {
	case <-g.gates[artist]:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.albums[artist], nil
}

func waitStarted(t *testing.T, g *gatedMetadata, artist string) {
	t.Helper()
	select {
	case got := <-g.started:
		if got != artist {
			t.Fatalf("fetch started for %q, want %q", got, artist)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for fetch of %q", artist)
	}
}

func waitFor(t *testing.T, s *Session, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := s.Snapshot()
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timeout; last snapshot %+v", snap)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestSession_OutOfOrderFetchesKeepLatest(t *testing.T) {
	tracks := domain.TracksFor(domain.MoodHappy)
	a, b := tracks[0].Artist, tracks[1].Artist
	md := newGatedMetadata(map[string][]domain.Album{
		a: {{Name: "First", Year: "1990"}},
		b: {{Name: "Second", Year: "2000"}},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewSession(ctx, md, &mockStore{}, WithPicker(first))

	if err := s.SelectMood(domain.MoodHappy); err != nil {
		t.Fatalf("SelectMood: %v", err)
	}
	waitStarted(t, md, a)
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	waitStarted(t, md, b)

	close(md.gates[b]) // newer fetch resolves first
	waitFor(t, s, func(snap Snapshot) bool { return snap.Status == domain.FetchReady })
	close(md.gates[a])
	time.Sleep(20 * time.Millisecond)

	snap := s.Snapshot()
	if !snap.Current.SameAs(tracks[1]) {
		t.Fatalf("current = %+v, want %+v", snap.Current, tracks[1])
	}
	if snap.Status != domain.FetchReady {
		t.Fatalf("status = %s, want ready", snap.Status)
	}
	if len(snap.Current.Albums) != 1 || snap.Current.Albums[0].Name != "Second" {
		t.Fatalf("albums = %+v, want Second", snap.Current.Albums)
	}
}

func TestSession_QueuedFetchCoalescesChanges(t *testing.T) {
	tracks := domain.TracksFor(domain.MoodSad)
	md := &mockMetadata{albums: map[string][]domain.Album{tracks[2].Artist: {{Name: "Back to Bedlam", Year: "2004"}}}}
	held := &heldDispatcher{}
	s := NewSession(context.Background(), md, &mockStore{}, WithDispatcher(held), WithPicker(first))

	if err := s.SelectMood(domain.MoodSad); err != nil {
		t.Fatalf("SelectMood: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	if len(held.jobs) != 1 {
		t.Fatalf("queued jobs = %d, want 1", len(held.jobs))
	}

	held.run(0)

	if len(md.calls) != 1 || md.calls[0] != tracks[2].Artist {
		t.Fatalf("fetches = %v, want only %q", md.calls, tracks[2].Artist)
	}
	snap := s.Snapshot()
	if snap.Status != domain.FetchReady || !snap.Current.SameAs(tracks[2]) {
		t.Fatalf("snapshot = %+v", snap)
	}
	if len(snap.Current.Albums) != 1 {
		t.Fatalf("albums = %+v", snap.Current.Albums)
	}

	// Once the job has started, the next change queues a fresh one.
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if len(held.jobs) != 2 {
		t.Fatalf("queued jobs = %d, want 2", len(held.jobs))
	}
}

func TestSession_RapidChangesOnWorkerPool(t *testing.T) {
	tracks := domain.TracksFor(domain.MoodEnergetic)
	md := &mockMetadata{delay: 100 * time.Millisecond}
	pool := worker.NewPool(1, 4, nil)
	pool.Start()
	defer pool.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewSession(ctx, md, &mockStore{}, WithDispatcher(pool), WithPicker(first))

	if err := s.SelectMood(domain.MoodEnergetic); err != nil {
		t.Fatalf("SelectMood: %v", err)
	}
	for i := 0; i < 8; i++ {
		if err := s.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}

	snap := waitFor(t, s, func(snap Snapshot) bool { return snap.Status.IsSettled() })
	if snap.Status != domain.FetchReady {
		t.Fatalf("status = %s (%s), want ready", snap.Status, snap.Err)
	}
	if !snap.Current.SameAs(tracks[8]) {
		t.Fatalf("current = %+v, want %+v", snap.Current, tracks[8])
	}

	md.mu.Lock()
	defer md.mu.Unlock()
	if len(md.calls) > 2 {
		t.Fatalf("fetches = %v, want at most the first and the latest", md.calls)
	}
	if last := md.calls[len(md.calls)-1]; last != tracks[8].Artist {
		t.Fatalf("last fetch for %q, want %q", last, tracks[8].Artist)
	}
}

func TestSession_IdleOperations(t *testing.T) {
	s := newTestSession(&mockMetadata{}, &mockStore{})
	if err := s.Advance(); !errors.Is(err, domain.ErrNoTrack) {
		t.Fatalf("Advance err = %v", err)
	}
	if err := s.Retreat(); !errors.Is(err, domain.ErrNoTrack) {
		t.Fatalf("Retreat err = %v", err)
	}
	if _, err := s.Save(context.Background()); !errors.Is(err, domain.ErrNoTrack) {
		t.Fatalf("Save err = %v", err)
	}
	if _, err := s.PlayURL(); !errors.Is(err, domain.ErrNoTrack) {
		t.Fatalf("PlayURL err = %v", err)
	}
}

func TestSession_Save(t *testing.T) {
	tracks := domain.TracksFor(domain.MoodHappy)
	md := &mockMetadata{albums: map[string][]domain.Album{tracks[0].Artist: {{Name: "X", Year: "2001"}}}}
	store := &mockStore{}
	s := newTestSession(md, store)
	if err := s.SelectMood(domain.MoodHappy); err != nil {
		t.Fatalf("SelectMood: %v", err)
	}

	saved, err := s.Save(context.Background())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(saved.Albums) != 0 {
		t.Fatal("saved track should not carry albums")
	}
	list, _ := store.List(context.Background())
	if len(list) != 1 || !list[0].SameAs(tracks[0]) {
		t.Fatalf("stored = %+v", list)
	}
}

func TestSession_SaveStorageError(t *testing.T) {
	store := &mockStore{appendErr: &domain.StorageError{Op: "append", Key: domain.SavedSongsKey, Err: errors.New("disk")}}
	s := newTestSession(&mockMetadata{}, store)
	if err := s.SelectMood(domain.MoodSad); err != nil {
		t.Fatalf("SelectMood: %v", err)
	}
	if _, err := s.Save(context.Background()); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
}

func TestSession_DispatchFailureMarksFailed(t *testing.T) {
	s := NewSession(context.Background(), &mockMetadata{}, &mockStore{}, WithDispatcher(fullDispatcher{}), WithPicker(first))
	if err := s.SelectMood(domain.MoodAngry); err != nil {
		t.Fatalf("SelectMood: %v", err)
	}
	if got := s.Snapshot().Status; got != domain.FetchFailed {
		t.Fatalf("status = %s, want failed", got)
	}
}

func TestSession_CloseDiscardsLateResults(t *testing.T) {
	held := &heldDispatcher{}
	s := NewSession(context.Background(), &mockMetadata{}, &mockStore{}, WithDispatcher(held), WithPicker(first))
	var updates int
	s.SetUpdateCallback(func(Snapshot) { updates++ })
	if err := s.SelectMood(domain.MoodHappy); err != nil {
		t.Fatalf("SelectMood: %v", err)
	}
	before := updates
	s.Close()
	held.run(0)

	if updates != before {
		t.Fatalf("callback fired after close")
	}
	if got := s.Snapshot().Status; got != domain.FetchLoading {
		t.Fatalf("status = %s, want loading", got)
	}
	if err := s.Advance(); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Advance err = %v, want ErrSessionClosed", err)
	}
}

func TestSession_PlayURL(t *testing.T) {
	s := newTestSession(&mockMetadata{}, &mockStore{})
	if err := s.SelectMood(domain.MoodSad); err != nil {
		t.Fatalf("SelectMood: %v", err)
	}
	got, err := s.PlayURL()
	if err != nil {
		t.Fatalf("PlayURL: %v", err)
	}
	if want := domain.TracksFor(domain.MoodSad)[0].SearchURL(); got != want {
		t.Fatalf("PlayURL = %q, want %q", got, want)
	}
}
