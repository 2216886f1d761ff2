package presence

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dzrpc/internal/shared"
	"github.com/hugolgst/rich-go/client"
)

// maxButtons is the number of buttons the chat client renders.
const maxButtons = 2

// Button links out of the presence card.
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Activity is one presence update.
//
// Start and End are optional. A nil End with a non-nil Start shows elapsed time.
type Activity struct {
	Details    string     `json:"details"`
	State      string     `json:"state"`
	LargeImage string     `json:"large_image,omitempty"`
	LargeText  string     `json:"large_text,omitempty"`
	SmallImage string     `json:"small_image,omitempty"`
	SmallText  string     `json:"small_text,omitempty"`
	Start      *time.Time `json:"start,omitempty"`
	End        *time.Time `json:"end,omitempty"`
	Buttons    []Button   `json:"buttons,omitempty"`
}

// Client sets and clears the user's activity.
type Client interface {
	SetActivity(a Activity) error
	Clear() error
	Close()
}

// ipc is the subset of rich-go used by [RPC].
type ipc interface {
	Login(clientID string) error
	Logout()
	SetActivity(a client.Activity) error
}

type richGo struct{}

func (richGo) Login(id string) error { return client.Login(id) }

func (richGo) Logout() { client.Logout() }

func (richGo) SetActivity(a client.Activity) error { return client.SetActivity(a) }

// RPC is a [Client] over the chat client's local IPC socket.
//
// rich-go keeps one global connection, so calls are serialised.
type RPC struct {
	mu        sync.Mutex
	clientID  string
	conn      ipc
	connected bool
	logger    *log.Logger
}

// NewRPC creates a presence client for the application clientID.
func NewRPC(clientID string, logger *log.Logger) *RPC {
	return newRPC(clientID, richGo{}, logger)
}

func newRPC(clientID string, conn ipc, logger *log.Logger) *RPC {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &RPC{
		clientID: clientID,
		conn:     conn,
		logger:   shared.WithLogger(logger, "component", "presence"),
	}
}

func (r *RPC) login() error {
	if r.connected {
		return nil
	}
	if r.clientID == "" {
		return fmt.Errorf("%w: presence client_id", shared.ErrMissingCredentials)
	}
	if err := r.conn.Login(r.clientID); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrNotConnected, err)
	}
	r.connected = true
	r.logger.Debug("connected to chat client")
	return nil
}

// SetActivity replaces the current activity, connecting first if needed.
//
// A failed write drops the connection so the next call logs in again.
func (r *RPC) SetActivity(a Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.login(); err != nil {
		return err
	}

	if err := r.conn.SetActivity(Convert(a)); err != nil {
		r.conn.Logout()
		r.connected = false
		return fmt.Errorf("set activity: %w", err)
	}
	return nil
}

// Clear removes the activity by closing the IPC session.
func (r *RPC) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connected {
		r.conn.Logout()
		r.connected = false
		r.logger.Debug("cleared activity")
	}
	return nil
}

// Close releases the IPC session.
func (r *RPC) Close() {
	_ = r.Clear()
}

// Convert maps a to the rich-go payload.
func Convert(a Activity) client.Activity {
	out := client.Activity{
		Details:    a.Details,
		State:      a.State,
		LargeImage: a.LargeImage,
		LargeText:  a.LargeText,
		SmallImage: a.SmallImage,
		SmallText:  a.SmallText,
	}

	if a.Start != nil || a.End != nil {
		out.Timestamps = &client.Timestamps{Start: a.Start, End: a.End}
	}

	for i, b := range a.Buttons {
		if i == maxButtons {
			break
		}
		out.Buttons = append(out.Buttons, &client.Button{Label: b.Label, Url: b.URL})
	}
	return out
}
