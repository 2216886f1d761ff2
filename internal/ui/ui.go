package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dzrpc/internal/broadcast"
	"github.com/desertthunder/dzrpc/internal/models"
)

const historySize = 100

// Source delivers broadcast messages until its channel closes.
type Source interface {
	Messages() <-chan broadcast.Message
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	NowPlayingView ViewState = iota
	HistoryView
)

// Model is the watch TUI state. It only ever reads the broadcast stream.
type Model struct {
	source    Source
	now       func() time.Time
	view      ViewState
	connected bool
	track     *models.Track
	album     *models.Album
	playing   bool
	remaining time.Duration
	anchor    time.Time
	history   list.Model
	width     int
	height    int
	help      help.Model
	keys      keyMap
}

// NewModel creates a watch model reading from source.
func NewModel(source Source) *Model {
	h := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	h.Title = "Received events"
	h.SetShowHelp(false)

	return &Model{
		source:    source,
		now:       time.Now,
		connected: true,
		history:   h,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts reading the stream and the countdown clock.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForMessage(), m.tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.history.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.tab):
			if m.view == NowPlayingView {
				m.view = HistoryView
			} else {
				m.view = NowPlayingView
			}
			return m, nil
		}

	case Msg:
		switch msg.kind {
		case MsgBroadcast:
			cmd := m.apply(msg.data.(broadcast.Message))
			return m, tea.Batch(cmd, m.waitForMessage())
		case MsgDisconnected:
			m.connected = false
			return m, nil
		case MsgClock:
			return m, m.tick()
		}
	}

	if m.view == HistoryView {
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply folds one broadcast into the model and records it in the history.
func (m *Model) apply(msg broadcast.Message) tea.Cmd {
	item := eventItem{at: m.now(), event: msg.Event}

	switch msg.Event {
	case broadcast.EventTrackChanged:
		data, err := msg.DecodeTrackChanged()
		if err != nil {
			return nil
		}
		m.setTrack(data.New)
		m.remaining = 0
		item.event = "track changed"

	case broadcast.EventStateChanged:
		data, err := msg.DecodeStateChanged()
		if err != nil {
			return nil
		}
		m.setTrack(data.TrackAlbum)
		if p := data.Event.Playing; p != nil {
			m.remaining = m.Remaining()
			m.playing = *p
			m.anchor = m.now()
			if m.playing {
				item.event = "played"
			} else {
				item.event = "paused"
			}
		}
		if t := data.Event.Time; t != nil {
			m.remaining = time.Duration(*t) * time.Second
			m.anchor = m.now()
			m.playing = true
			item.event = "position"
			item.detail = fmt.Sprintf("%s left", formatDuration(m.remaining))
		}

	default:
		return nil
	}

	if m.track != nil {
		item.title = m.track.Title
		item.artists = m.track.Artists(models.ArtistsSeparator)
	}

	items := append([]list.Item{item}, m.history.Items()...)
	if len(items) > historySize {
		items = items[:historySize]
	}
	return m.history.SetItems(items)
}

func (m *Model) setTrack(ta broadcast.TrackAlbum) {
	if ta.Track != nil {
		m.track = ta.Track
	}
	if ta.Album != nil {
		m.album = ta.Album
	}
}

// Remaining is the countdown from the last reported position, never negative.
func (m *Model) Remaining() time.Duration {
	if m.remaining <= 0 {
		return 0
	}
	if !m.playing {
		return m.remaining
	}
	left := m.remaining - m.now().Sub(m.anchor)
	if left < 0 {
		return 0
	}
	return left
}

func (m *Model) waitForMessage() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.source.Messages()
		if !ok {
			return disconnectedMsg()
		}
		return broadcastMsg(msg)
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case HistoryView:
		body = m.history.View()
	default:
		body = m.renderNowPlaying()
	}

	status := styles.ok.Render("● connected")
	if !m.connected {
		status = styles.err.Render("● disconnected")
	}

	return fmt.Sprintf("%s\n\n%s\n%s", body, status, m.help.View(m.keys))
}

func (m *Model) renderNowPlaying() string {
	title := styles.title.Render("dzrpc")
	if m.track == nil {
		return fmt.Sprintf("%s\n%s", title, styles.help.Render("Waiting for the player..."))
	}

	var b strings.Builder
	b.WriteString(styles.ok.Render(m.track.Title))
	b.WriteString("\n")
	b.WriteString(styles.artist.Render(m.track.Artists(models.ArtistsSeparator)))
	if m.album != nil && m.album.Title != "" {
		b.WriteString("\n")
		b.WriteString(m.album.Title)
	}
	b.WriteString("\n\n")

	if m.playing {
		b.WriteString("▶ playing")
	} else {
		b.WriteString(styles.warn.Render("⏸ paused"))
	}
	if r := m.Remaining(); r > 0 {
		fmt.Fprintf(&b, "  %s left", formatDuration(r))
	}

	return fmt.Sprintf("%s\n%s", title, styles.frame.Render(b.String()))
}

func formatDuration(d time.Duration) string {
	s := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
