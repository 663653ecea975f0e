// Package live maintains the WebSocket subscription that keeps mirrored
// schedules fresh without polling. The server pushes either a complete
// schedule set (refresh-all) or an empty set meaning "something changed,
// re-fetch your scope yourself".
package live

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"orarsync/internal/model"
)

const (
	maxReconnectAttempts = 5
	reconnectBaseDelay   = 3 * time.Second
	pingInterval         = 30 * time.Second
)

// message is the wire frame pushed by the backend.
type message struct {
	Type            string           `json:"type"`
	Action          string           `json:"action,omitempty"`
	Schedule        *model.Schedule  `json:"schedule,omitempty"`
	AllSchedules    []model.Schedule `json:"all_schedules,omitempty"`
	Message         string           `json:"message,omitempty"`
	ConnectionCount int              `json:"connection_count,omitempty"`
}

// UpdateFunc receives pushed schedule data. A non-empty slice is the
// complete current set (refresh-all); an empty slice signals that a
// change happened elsewhere and the caller must re-fetch its scope.
type UpdateFunc func(schedules []model.Schedule)

// Channel is a reconnecting WebSocket client for schedule updates.
type Channel struct {
	url    string
	header http.Header

	onUpdate  UpdateFunc
	onConnect func()

	mu         sync.Mutex
	conn       *websocket.Conn
	connecting bool
	closed     bool
	attempts   int
	timer      *time.Timer
}

// URLFromAPI derives the channel endpoint from the REST base URL
// (http -> ws, https -> wss).
func URLFromAPI(apiBaseURL string) (string, error) {
	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return "", fmt.Errorf("live: parse api url: %w", err)
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return scheme + "://" + u.Host + "/ws/schedule", nil
}

// New creates a channel for the given ws:// or wss:// URL. The clientID
// is sent as a header so the backend can tell mirror instances apart.
func New(wsURL, clientID string) *Channel {
	header := http.Header{}
	if clientID != "" {
		header.Set("X-Client-ID", clientID)
	}
	return &Channel{url: wsURL, header: header}
}

// OnUpdate registers the update callback. Set before Connect.
func (ch *Channel) OnUpdate(fn UpdateFunc) {
	ch.onUpdate = fn
}

// OnConnect registers a callback invoked after each successful dial.
func (ch *Channel) OnConnect(fn func()) {
	ch.onConnect = fn
}

// Connect dials the channel. Calling it while connected or mid-dial is a
// no-op, so overlapping triggers (startup, online transition, reconnect
// timer) never produce duplicate subscriptions.
func (ch *Channel) Connect() {
	ch.mu.Lock()
	if ch.connecting || ch.conn != nil {
		ch.mu.Unlock()
		return
	}
	ch.connecting = true
	ch.closed = false
	ch.mu.Unlock()

	go ch.dial()
}

// Disconnect closes the connection and stops any pending reconnect.
func (ch *Channel) Disconnect() {
	ch.mu.Lock()
	ch.closed = true
	ch.connecting = false
	if ch.timer != nil {
		ch.timer.Stop()
		ch.timer = nil
	}
	conn := ch.conn
	ch.conn = nil
	ch.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// IsConnected reports whether a live connection is established.
func (ch *Channel) IsConnected() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.conn != nil
}

func (ch *Channel) dial() {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(ch.url, ch.header)

	ch.mu.Lock()
	ch.connecting = false
	if err != nil {
		ch.mu.Unlock()
		log.Printf("live: dial %s failed: %v", ch.url, err)
		ch.scheduleReconnect()
		return
	}
	if ch.closed {
		// Disconnect raced the dial; drop the fresh connection.
		ch.mu.Unlock()
		conn.Close()
		return
	}
	ch.conn = conn
	ch.attempts = 0
	ch.mu.Unlock()

	log.Printf("live: connected to %s", ch.url)
	if ch.onConnect != nil {
		ch.onConnect()
	}

	done := make(chan struct{})
	go ch.pingLoop(conn, done)
	ch.readLoop(conn, done)
}

func (ch *Channel) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("live: connection lost: %v", err)
			}
			break
		}
		var msg message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("live: bad frame, skipping: %v", err)
			continue
		}
		ch.handle(msg)
	}

	ch.mu.Lock()
	if ch.conn == conn {
		ch.conn = nil
	}
	manual := ch.closed
	ch.mu.Unlock()
	conn.Close()

	if !manual {
		ch.scheduleReconnect()
	}
}

func (ch *Channel) handle(msg message) {
	switch msg.Type {
	case "connected":
		log.Printf("live: server acknowledged, %d clients connected", msg.ConnectionCount)
	case "pong":
		// keepalive reply, nothing to do
	case "schedule_update":
		if ch.onUpdate == nil {
			return
		}
		if msg.Action == "refresh_all" && msg.AllSchedules != nil {
			ch.onUpdate(msg.AllSchedules)
			return
		}
		// create/update/delete carry no usable payload; an empty set
		// tells the subscriber to re-fetch its scope.
		ch.onUpdate([]model.Schedule{})
	}
}

func (ch *Channel) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

func (ch *Channel) scheduleReconnect() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.closed || ch.timer != nil {
		return
	}
	ch.attempts++
	if ch.attempts > maxReconnectAttempts {
		log.Printf("live: giving up after %d reconnect attempts", maxReconnectAttempts)
		return
	}
	delay := reconnectBaseDelay * time.Duration(ch.attempts)
	log.Printf("live: reconnect attempt %d/%d in %s", ch.attempts, maxReconnectAttempts, delay)
	ch.timer = time.AfterFunc(delay, func() {
		ch.mu.Lock()
		ch.timer = nil
		ch.mu.Unlock()
		ch.Connect()
	})
}
