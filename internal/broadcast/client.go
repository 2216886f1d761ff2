package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/dzrpc/internal/shared"
	"github.com/gorilla/websocket"
)

// Subscription is a listener attached to a [Hub].
type Subscription struct {
	conn *websocket.Conn
	ch   chan Message
}

// Dial attaches to the hub at rawURL (ws://host:port/).
func Dial(ctx context.Context, rawURL string) (*Subscription, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", shared.ErrNotConnected, rawURL, err)
	}
	return &Subscription{conn: conn, ch: make(chan Message, 32)}, nil
}

// Start reads messages in a background goroutine until the connection closes.
// Malformed frames are skipped.
func (s *Subscription) Start() {
	go func() {
		defer close(s.ch)
		for {
			_, raw, err := s.conn.ReadMessage()
			if err != nil {
				return
			}
			var msg Message
			if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != MessageType {
				continue
			}
			s.ch <- msg
		}
	}()
}

// Messages is closed once the connection ends.
func (s *Subscription) Messages() <-chan Message {
	return s.ch
}

// Close detaches from the hub.
func (s *Subscription) Close() error {
	return s.conn.Close()
}
