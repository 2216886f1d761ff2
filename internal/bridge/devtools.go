package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dzrpc/internal/shared"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 5 * time.Second
	seekBinding  = "dzrpcSeek"
)

// Bridge evaluates a script in the player page and returns its string result.
type Bridge interface {
	Evaluate(ctx context.Context, script string) (string, error)
}

// Watcher reports user interactions with an element of the player page.
type Watcher interface {
	Watch(ctx context.Context, selector string) (<-chan struct{}, error)
}

// Target is one inspectable page as listed by the DevTools HTTP endpoint.
type Target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

type cdpError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type message struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *cdpError       `json:"error,omitempty"`

	err error
}

type evaluateResult struct {
	Result struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	} `json:"result"`
	ExceptionDetails *struct {
		Text      string `json:"text"`
		Exception *struct {
			Description string `json:"description"`
		} `json:"exception"`
	} `json:"exceptionDetails"`
}

type bindingCalled struct {
	Name    string `json:"name"`
	Payload string `json:"payload"`
}

// DevTools speaks the Chrome DevTools Protocol to the shell's player page.
//
// The connection is opened on first use and re-opened after it drops.
// A single reader goroutine owns the socket's read side.
type DevTools struct {
	endpoint string
	match    string
	client   *http.Client
	dialer   *websocket.Dialer
	logger   *log.Logger

	nextID atomic.Int64

	mu       sync.Mutex
	conn     *websocket.Conn
	pending  map[int64]chan message
	bindings map[string]*watch

	writeMu sync.Mutex
}

// NewDevTools creates a [DevTools] client for the configured endpoint.
func NewDevTools(cfg shared.BridgeConfig, logger *log.Logger) *DevTools {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DevTools{
		endpoint: strings.TrimRight(cfg.DevToolsURL, "/"),
		match:    cfg.PageMatch,
		client:   &http.Client{Timeout: 10 * time.Second},
		dialer:   websocket.DefaultDialer,
		logger:   shared.WithLogger(logger, "component", "bridge"),
		pending:  make(map[int64]chan message),
		bindings: make(map[string]*watch),
	}
}

// Targets lists the inspectable pages.
func (d *DevTools) Targets(ctx context.Context) ([]Target, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"/json/list", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrNotConnected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrNotConnected, resp.StatusCode, string(body))
	}

	var targets []Target
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("failed to decode targets: %w", err)
	}
	return targets, nil
}

// Connect attaches to the first page whose URL contains the configured match.
func (d *DevTools) Connect(ctx context.Context) error {
	d.mu.Lock()
	connected := d.conn != nil
	d.mu.Unlock()
	if connected {
		return nil
	}

	targets, err := d.Targets(ctx)
	if err != nil {
		return err
	}

	var target *Target
	for i := range targets {
		t := targets[i]
		if t.Type == "page" && strings.Contains(t.URL, d.match) && t.WebSocketDebuggerURL != "" {
			target = &t
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: no page matching %q", shared.ErrNotConnected, d.match)
	}

	conn, _, err := d.dialer.DialContext(ctx, target.WebSocketDebuggerURL, nil)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", shared.ErrNotConnected, target.WebSocketDebuggerURL, err)
	}

	d.mu.Lock()
	if d.conn != nil {
		d.mu.Unlock()
		conn.Close()
		return nil
	}
	d.conn = conn
	d.mu.Unlock()

	d.logger.Info("attached to player page", "title", target.Title, "url", target.URL)
	go d.readLoop(conn)
	return nil
}

// Evaluate runs script in the page and returns its value.
//
// String results are returned unquoted; other JSON values are returned as-is.
// undefined and null yield "".
func (d *DevTools) Evaluate(ctx context.Context, script string) (string, error) {
	raw, err := d.call(ctx, "Runtime.evaluate", map[string]any{
		"expression":    script,
		"returnByValue": true,
		"awaitPromise":  true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrBridgeEvaluation, err)
	}

	var res evaluateResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("%w: decode result: %w", shared.ErrBridgeEvaluation, err)
	}

	if ex := res.ExceptionDetails; ex != nil {
		desc := ex.Text
		if ex.Exception != nil && ex.Exception.Description != "" {
			desc = ex.Exception.Description
		}
		return "", fmt.Errorf("%w: %s", shared.ErrBridgeEvaluation, desc)
	}

	value := res.Result.Value
	if len(value) == 0 || string(value) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s, nil
	}
	return string(value), nil
}

// Watch installs a click listener on the element matching selector.
//
// The returned channel receives one value per click, coalescing bursts. It is
// closed when ctx is done or the page connection drops, since a binding does
// not survive into a new session; callers watch again to reinstall it.
func (d *DevTools) Watch(ctx context.Context, selector string) (<-chan struct{}, error) {
	w := &watch{ch: make(chan struct{}, 1), stop: make(chan struct{})}

	d.mu.Lock()
	if _, ok := d.bindings[seekBinding]; ok {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: %s is already watched", shared.ErrInvalidArgument, seekBinding)
	}
	d.bindings[seekBinding] = w
	d.mu.Unlock()

	unregister := func() { d.unbind(seekBinding, w) }

	if _, err := d.call(ctx, "Runtime.addBinding", map[string]any{"name": seekBinding}); err != nil {
		unregister()
		return nil, fmt.Errorf("%w: add binding: %w", shared.ErrBridgeEvaluation, err)
	}

	quoted, _ := json.Marshal(selector)
	script := fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) return "missing";
	if (!el.dataset.dzrpcWatch) {
		el.dataset.dzrpcWatch = "1";
		el.addEventListener("click", () => window.%s("seek"));
	}
	return "installed";
})()`, quoted, seekBinding)

	out, err := d.Evaluate(ctx, script)
	if err != nil {
		unregister()
		return nil, err
	}
	if out != "installed" {
		unregister()
		return nil, fmt.Errorf("%w: no element matches %s", shared.ErrBridgeEvaluation, selector)
	}

	go func() {
		select {
		case <-ctx.Done():
			unregister()
		case <-w.stop:
		}
	}()

	d.logger.Debug("watching element", "selector", selector)
	return w.ch, nil
}

// Close drops the connection. Pending calls fail with [shared.ErrNotConnected].
func (d *DevTools) Close() error {
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()
	if conn == nil {
		return nil
	}

	d.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	d.writeMu.Unlock()

	d.drop(conn, shared.ErrNotConnected)
	return conn.Close()
}

func (d *DevTools) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if err := d.Connect(ctx); err != nil {
		return nil, err
	}

	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params: %w", err)
	}

	id := d.nextID.Add(1)
	ch := make(chan message, 1)

	d.mu.Lock()
	conn := d.conn
	if conn == nil {
		d.mu.Unlock()
		return nil, shared.ErrNotConnected
	}
	d.pending[id] = ch
	d.mu.Unlock()

	d.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = conn.WriteJSON(message{ID: id, Method: method, Params: rawParams})
	d.writeMu.Unlock()
	if err != nil {
		d.forget(id)
		d.drop(conn, err)
		return nil, fmt.Errorf("failed to send %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		d.forget(id)
		return nil, ctx.Err()
	case msg := <-ch:
		if msg.err != nil {
			return nil, msg.err
		}
		if msg.Error != nil {
			return nil, fmt.Errorf("%s: %s (code %d)", method, msg.Error.Message, msg.Error.Code)
		}
		return msg.Result, nil
	}
}

func (d *DevTools) forget(id int64) {
	d.mu.Lock()
	delete(d.pending, id)
	d.mu.Unlock()
}

func (d *DevTools) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			d.drop(conn, err)
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			d.logger.Debug("skipping undecodable frame", "err", err)
			continue
		}

		if msg.ID != 0 {
			d.mu.Lock()
			ch, ok := d.pending[msg.ID]
			delete(d.pending, msg.ID)
			d.mu.Unlock()
			if ok {
				ch <- msg
			}
			continue
		}

		if msg.Method == "Runtime.bindingCalled" {
			var ev bindingCalled
			if err := json.Unmarshal(msg.Params, &ev); err != nil {
				continue
			}
			d.notify(ev.Name)
		}
	}
}

func (d *DevTools) notify(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, ok := d.bindings[name]
	if !ok {
		return
	}
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

// watch is one installed binding.
type watch struct {
	ch   chan struct{}
	stop chan struct{}
}

func (w *watch) close() {
	close(w.ch)
	close(w.stop)
}

// unbind removes and closes w unless a drop already did.
func (d *DevTools) unbind(name string, w *watch) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cur, ok := d.bindings[name]; ok && cur == w {
		delete(d.bindings, name)
		w.close()
	}
}

// drop forgets conn, fails every call waiting on it and closes every watch.
func (d *DevTools) drop(conn *websocket.Conn, cause error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != conn {
		return
	}
	d.conn = nil

	for id, ch := range d.pending {
		ch <- message{err: fmt.Errorf("%w: %w", shared.ErrNotConnected, cause)}
		delete(d.pending, id)
	}
	for name, w := range d.bindings {
		w.close()
		delete(d.bindings, name)
	}
	d.logger.Debug("connection dropped", "err", cause)
}
