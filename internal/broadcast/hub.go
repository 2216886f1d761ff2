package broadcast

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dzrpc/internal/shared"
	"github.com/gorilla/websocket"
)

const (
	writeWait         = 5 * time.Second
	readWait          = 60 * time.Second
	pingInterval      = 30 * time.Second
	connectionTimeout = 120 * time.Second
	maxReadSize       = 1024
)

// CheckOrigin allows requests without an origin (native clients), same-host
// origins and loopback origins.
func CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	if originURL.Host == r.Host {
		return true
	}

	return strings.HasPrefix(originURL.Host, "localhost:") ||
		strings.HasPrefix(originURL.Host, "127.0.0.1:")
}

// connection is one attached listener.
//
// lastSeen is guarded by the hub's lock, writes by writeMu.
type connection struct {
	id        string
	conn      *websocket.Conn
	lastSeen  time.Time
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *connection) write(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writeLocked(msg)
}

func (c *connection) writeLocked(msg Message) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *connection) close() {
	c.closeOnce.Do(func() { c.conn.Close() })
}

// Hub is the broadcast channel server.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]*connection
	latest   *Message
	closed   bool
	upgrader websocket.Upgrader
	logger   *log.Logger

	pingInterval time.Duration
	timeout      time.Duration
}

// NewHub creates a hub with no listeners.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Hub{
		conns: make(map[string]*connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     CheckOrigin,
		},
		logger:       shared.WithLogger(logger, "component", "hub"),
		pingInterval: pingInterval,
		timeout:      connectionTimeout,
	}
}

// Routes implements server.Handler.
func (h *Hub) Routes() []string {
	return []string{"/"}
}

// Listeners returns the number of attached listeners.
func (h *Hub) Listeners() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// HasListeners reports whether anyone would receive a message.
func (h *Hub) HasListeners() bool {
	return h.Listeners() > 0
}

// Latest returns the last message sent, if any.
func (h *Hub) Latest() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return Message{}, false
	}
	return *h.latest, true
}

// Send stores msg as the latest message and writes it to every listener in parallel.
//
// Having no listeners is not an error. Listeners whose write fails are dropped.
func (h *Hub) Send(msg Message) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return fmt.Errorf("%w: hub closed", shared.ErrServiceUnavailable)
	}
	h.latest = &msg
	conns := make([]*connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	if len(conns) == 0 {
		return nil
	}

	var (
		dead   []*connection
		deadMu sync.Mutex
		wg     sync.WaitGroup
	)
	for _, c := range conns {
		wg.Add(1)
		go func(c *connection) {
			defer wg.Done()
			if err := c.write(msg); err != nil {
				h.logger.Warn("write failed, dropping listener", "conn", c.id, "error", err)
				deadMu.Lock()
				dead = append(dead, c)
				deadMu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	h.drop(dead...)
	h.logger.Debug("sent", "event", msg.Event, "listeners", len(conns)-len(dead))
	return nil
}

func (h *Hub) add(c *connection) {
	h.conns[c.id] = c
}

func (h *Hub) drop(conns ...*connection) {
	if len(conns) == 0 {
		return
	}
	h.mu.Lock()
	for _, c := range conns {
		delete(h.conns, c.id)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}

func (h *Hub) touch(c *connection) {
	h.mu.Lock()
	c.lastSeen = time.Now()
	h.mu.Unlock()
}

// ServeHTTP upgrades the request and keeps the listener attached until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &connection{id: shared.GenerateID(), conn: conn, lastSeen: time.Now()}

	conn.SetReadLimit(maxReadSize)
	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		h.touch(c)
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
	conn.SetPingHandler(func(appData string) error {
		h.touch(c)
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	// The replay write is claimed before the listener becomes visible to Send,
	// so a concurrent Send cannot reach it ahead of an older message.
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.close()
		return
	}
	h.add(c)
	latest := h.latest
	c.writeMu.Lock()
	h.mu.Unlock()

	var replayErr error
	if latest != nil {
		replayErr = c.writeLocked(*latest)
	}
	c.writeMu.Unlock()

	h.logger.Info("listener attached", "conn", c.id, "remote", r.RemoteAddr)
	defer func() {
		h.drop(c)
		h.logger.Info("listener detached", "conn", c.id)
	}()

	if replayErr != nil {
		h.logger.Warn("replay failed", "conn", c.id, "error", replayErr)
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("read failed", "conn", c.id, "error", err)
			}
			return
		}
		h.touch(c)
		conn.SetReadDeadline(time.Now().Add(readWait))
	}
}

// Start pings listeners on an interval and drops the ones that stopped answering,
// until ctx is done. It closes the hub on return.
func (h *Hub) Start(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	defer h.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.healthCheck(time.Now())
		}
	}
}

func (h *Hub) healthCheck(now time.Time) {
	h.mu.RLock()
	conns := make([]*connection, 0, len(h.conns))
	stale := make(map[string]bool, len(h.conns))
	for id, c := range h.conns {
		conns = append(conns, c)
		stale[id] = now.Sub(c.lastSeen) > h.timeout
	}
	h.mu.RUnlock()

	var (
		dead   []*connection
		deadMu sync.Mutex
		wg     sync.WaitGroup
	)
	for _, c := range conns {
		if stale[c.id] {
			h.logger.Info("listener timed out", "conn", c.id)
			deadMu.Lock()
			dead = append(dead, c)
			deadMu.Unlock()
			continue
		}

		wg.Add(1)
		go func(c *connection) {
			defer wg.Done()
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.logger.Warn("ping failed", "conn", c.id, "error", err)
				deadMu.Lock()
				dead = append(dead, c)
				deadMu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	h.drop(dead...)
}

// Close disconnects every listener. Later sends fail.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	conns := make([]*connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[string]*connection)
	h.mu.Unlock()

	for _, c := range conns {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		c.close()
	}
}
