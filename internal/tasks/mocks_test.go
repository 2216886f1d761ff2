package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/dzrpc/internal/broadcast"
	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/presence"
	"github.com/desertthunder/dzrpc/internal/services"
	"github.com/desertthunder/dzrpc/internal/shared"
)

type mockCatalog struct {
	mu       sync.Mutex
	tracks   map[string]models.Track // keyed by albumRef|title
	albums   map[string]models.Album
	albumErr error
	finds    []string
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		tracks: map[string]models.Track{
			"302127|One More Time": {
				ID: 3135553, Title: "One More Time", Link: "https://www.deezer.com/track/3135553",
				Contributors: []models.Contributor{{ID: 27, Name: "Daft Punk"}, {ID: 1, Name: "Romanthony"}},
			},
			"302127|Aerodynamic": {
				ID: 3135554, Title: "Aerodynamic", Link: "https://www.deezer.com/track/3135554",
				Contributors: []models.Contributor{{ID: 27, Name: "Daft Punk"}},
			},
		},
		albums: map[string]models.Album{
			"302127": {ID: 302127, Title: "Discovery", CoverMedium: "https://cdn.example/discovery-250.jpg"},
		},
	}
}

func (m *mockCatalog) FindTrackInAlbum(_ context.Context, title, albumRef string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds = append(m.finds, title+"|"+albumRef)
	t, ok := m.tracks[albumRef+"|"+title]
	if !ok {
		return 0, fmt.Errorf("%w: %q not found", shared.ErrCatalogLookup, title)
	}
	return t.ID, nil
}

func (m *mockCatalog) Track(_ context.Context, id int64) (*models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tracks {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: track %d", shared.ErrCatalogLookup, id)
}

func (m *mockCatalog) Album(_ context.Context, albumRef string) (*models.Album, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.albumErr != nil {
		return nil, m.albumErr
	}
	a, ok := m.albums[albumRef]
	if !ok {
		return nil, fmt.Errorf("%w: album %s", shared.ErrAlbumLookup, albumRef)
	}
	return &a, nil
}

func (m *mockCatalog) findCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.finds...)
}

type mockArtwork struct {
	mu         sync.Mutex
	fragment   string
	coverErr   error
	refreshErr error
	covers     int
	refreshes  int
	queries    []services.CoverQuery
}

func (m *mockArtwork) Cover(_ context.Context, q services.CoverQuery) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.covers++
	m.queries = append(m.queries, q)
	return m.fragment, m.coverErr
}

func (m *mockArtwork) Refresh(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes++
	if m.refreshErr == nil {
		m.coverErr = nil
	}
	return m.refreshErr
}

func (m *mockArtwork) counts() (covers, refreshes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.covers, m.refreshes
}

type mockSettings struct {
	listening   bool
	onlyPlaying bool
}

func (m mockSettings) ListeningMode() bool     { return m.listening }
func (m mockSettings) OnlyShowIfPlaying() bool { return m.onlyPlaying }

type mockCache struct {
	mu      sync.Mutex
	entries map[string]*models.CachedTrack
	stores  int
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string]*models.CachedTrack{}}
}

func (m *mockCache) Lookup(albumRef, title string) (*models.CachedTrack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.entries[albumRef+"|"+title]
	if !ok {
		return nil, fmt.Errorf("track %w", shared.ErrNotFound)
	}
	return c, nil
}

func (m *mockCache) Store(albumRef, title string, track models.Track, album models.Album) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores++
	m.entries[albumRef+"|"+title] = models.NewCachedTrack(m.stores, albumRef, title, track, album)
	return nil
}

type mockPresence struct {
	mu         sync.Mutex
	activities []presence.Activity
	clears     int
	err        error
}

func (m *mockPresence) SetActivity(a presence.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.activities = append(m.activities, a)
	return nil
}

func (m *mockPresence) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	return nil
}

func (m *mockPresence) Close() {}

func (m *mockPresence) sent() []presence.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]presence.Activity(nil), m.activities...)
}

type mockPublisher struct {
	mu       sync.Mutex
	messages []broadcast.Message
	err      error
}

func (m *mockPublisher) Send(msg broadcast.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockPublisher) sent() []broadcast.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]broadcast.Message(nil), m.messages...)
}

type mockRecorder struct {
	mu    sync.Mutex
	plays []*models.Play
}

func (m *mockRecorder) Create(p *models.Play) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := p.Validate(); err != nil {
		return err
	}
	m.plays = append(m.plays, p)
	return nil
}

// sinkFunc adapts a function to [Sink].
type sinkFunc struct {
	name string
	fn   func(models.Change) error
}

func (s sinkFunc) Name() string { return s.name }

func (s sinkFunc) Send(_ context.Context, c models.Change) error { return s.fn(c) }
