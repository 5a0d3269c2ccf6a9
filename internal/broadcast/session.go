package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/yaxxerr/ai-security-system/internal/domain"
	"github.com/yaxxerr/ai-security-system/internal/metrics"
)

const (
	writeDeadline  = 5 * time.Second
	pingInterval   = 30 * time.Second
	pongDeadline   = 60 * time.Second
	sendBufferSize = 16
)

// SessionState is the lifecycle state of a connection session.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateOpen
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session owns one client's live WebSocket connection. A session belongs to
// its channels only while OPEN; the writer goroutine is the sole writer on
// the connection, and the owning handler goroutine runs ReadPump. Close is
// idempotent and safe to call concurrently from the read path, the router's
// failure path, and shutdown.
type Session struct {
	id       uuid.UUID
	channels []string
	pong     []byte

	conn     *websocket.Conn
	clock    clockwork.Clock
	registry *Registry

	sendCh    chan []byte
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	state     atomic.Int32
}

// NewAlertsSession creates a session subscribed to the global alerts feed.
func NewAlertsSession(registry *Registry, conn *websocket.Conn, clock clockwork.Clock) *Session {
	return newSession(registry, conn, clock,
		[]string{domain.ChannelAlerts},
		mustMarshal(map[string]string{"type": "pong", "message": "Connection alive"}),
	)
}

// NewCameraSession creates a session subscribed to a single camera feed.
// The pong reply carries the camera id so viewers can correlate probes.
func NewCameraSession(registry *Registry, conn *websocket.Conn, clock clockwork.Clock, cameraID string) *Session {
	return newSession(registry, conn, clock,
		[]string{"camera:" + cameraID},
		mustMarshal(map[string]string{"type": "pong", "camera_id": cameraID}),
	)
}

// NewDashboardSession creates a session subscribed to the dashboard feed.
func NewDashboardSession(registry *Registry, conn *websocket.Conn, clock clockwork.Clock) *Session {
	return newSession(registry, conn, clock,
		[]string{domain.ChannelDashboard},
		mustMarshal(map[string]string{"type": "pong", "message": "Dashboard connection alive"}),
	)
}

func newSession(registry *Registry, conn *websocket.Conn, clock clockwork.Clock, channels []string, pong []byte) *Session {
	s := &Session{
		id:       uuid.New(),
		channels: channels,
		pong:     pong,
		conn:     conn,
		clock:    clock,
		registry: registry,
		sendCh:   make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))
	return s
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// ID returns the session's opaque per-connection handle.
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Open completes the handshake: the session joins its channels, becomes
// eligible for delivery, and starts its writer goroutine.
func (s *Session) Open() {
	s.configurePongHandler()

	s.state.Store(int32(StateOpen))
	for _, ch := range s.channels {
		s.registry.Join(ch, s)
	}

	s.wg.Add(1)
	go s.writeLoop()

	slog.Debug("Session opened", "session_id", s.id.String(), "channels", s.channels)
}

// ReadPump reads inbound control messages until the client disconnects or the
// session is closed, then tears the session down. Blocks; run it on the
// handler goroutine.
func (s *Session) ReadPump() {
	defer s.Close("connection closed")
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleControl(raw)
	}
}

// handleControl parses the small inbound protocol. A liveness probe gets a
// pong through the outbound queue (the writer goroutine is the only writer);
// anything malformed or unrecognized is silently ignored.
func (s *Session) handleControl(raw []byte) {
	var msg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if msg.Type == "ping" {
		s.enqueue(s.pong)
	}
}

// enqueue pushes an encoded frame onto the outbound queue without blocking.
// Returns false only when the session is OPEN but its queue is full, which
// is the slow-client signal. Enqueue to a closed or closing session is a
// silent no-op per the at-most-once contract.
func (s *Session) enqueue(data []byte) bool {
	if s.State() != StateOpen {
		return true
	}
	select {
	case s.sendCh <- data:
		return true
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) writeLoop() {
	ticker := s.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.wg.Done()

	for {
		select {
		case msg := <-s.sendCh:
			start := s.clock.Now()
			s.updateWriteDeadline()
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				go s.Close("write failed")
				return
			}
			metrics.WebSocketMessageSendDuration.Observe(s.clock.Since(start).Seconds())
		case <-ticker.Chan():
			s.updateWriteDeadline()
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				metrics.WebSocketPingFailures.Inc()
				go s.Close("ping failed")
				return
			}
		case <-s.done:
			return
		}
	}
}

// Close transitions the session to CLOSED, leaves all channels, and releases
// the transport. Only the first caller has any effect; it is safe to race the
// client-disconnect and router-failure paths.
func (s *Session) Close(reason string) {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		for _, ch := range s.channels {
			s.registry.Leave(ch, s)
		}

		// Signal the writer to exit and wait for it, so the close frame
		// below is never a concurrent write.
		close(s.done)
		s.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		s.updateWriteDeadline()
		_ = s.conn.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = s.conn.Close()

		slog.Debug("Session closed", "session_id", s.id.String(), "reason", reason)
	})
}

func (s *Session) configurePongHandler() {
	s.updateReadDeadline()
	s.conn.SetPongHandler(func(string) error {
		s.updateReadDeadline()
		return nil
	})
}

func (s *Session) updateWriteDeadline() {
	_ = s.conn.SetWriteDeadline(s.clock.Now().Add(writeDeadline))
}

func (s *Session) updateReadDeadline() {
	_ = s.conn.SetReadDeadline(s.clock.Now().Add(pongDeadline))
}
