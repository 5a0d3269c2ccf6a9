package broadcast

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaxxerr/ai-security-system/internal/domain"
)

func TestSession_PingPongAlerts(t *testing.T) {
	registry, _, dial := testRouter(t)

	conn := dial("alerts", "")
	require.True(t, waitFor(func() bool { return registry.MemberCount(domain.ChannelAlerts) == 1 }))

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(`{"type":"ping"}`)))

	frame := readFrame(t, conn)
	assert.Equal(t, "pong", frame["type"])
	assert.Equal(t, "Connection alive", frame["message"])
}

func TestSession_PingPongCameraCarriesID(t *testing.T) {
	registry, _, dial := testRouter(t)

	conn := dial("camera", "42")
	require.True(t, waitFor(func() bool { return registry.MemberCount("camera:42") == 1 }))

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(`{"type":"ping"}`)))

	frame := readFrame(t, conn)
	assert.Equal(t, "pong", frame["type"])
	assert.Equal(t, "42", frame["camera_id"])
}

func TestSession_PingPongDashboard(t *testing.T) {
	registry, _, dial := testRouter(t)

	conn := dial("dashboard", "")
	require.True(t, waitFor(func() bool { return registry.MemberCount(domain.ChannelDashboard) == 1 }))

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(`{"type":"ping"}`)))

	frame := readFrame(t, conn)
	assert.Equal(t, "pong", frame["type"])
	assert.Equal(t, "Dashboard connection alive", frame["message"])
}

func TestSession_MalformedInboundIgnored(t *testing.T) {
	registry, _, dial := testRouter(t)

	conn := dial("alerts", "")
	require.True(t, waitFor(func() bool { return registry.MemberCount(domain.ChannelAlerts) == 1 }))

	// Garbage and unknown types must not disturb the session.
	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(`not json at all`)))
	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(`{"type":"subscribe"}`)))
	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(`{}`)))

	// A subsequent ping still gets its pong, proving the session survived.
	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(`{"type":"ping"}`)))
	frame := readFrame(t, conn)
	assert.Equal(t, "pong", frame["type"])

	assert.Equal(t, 1, registry.MemberCount(domain.ChannelAlerts))
}

func TestSession_ClientDisconnectDetaches(t *testing.T) {
	registry, _, dial := testRouter(t)

	conn := dial("alerts", "")
	require.True(t, waitFor(func() bool { return registry.MemberCount(domain.ChannelAlerts) == 1 }))

	conn.Close()
	require.True(t, waitFor(func() bool { return registry.MemberCount(domain.ChannelAlerts) == 0 }))
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	registry, session, conn := testOpenSession(t)
	defer conn.Close()

	// Race many closers; exactly one wins and the rest are silent no-ops.
	var wg sync.WaitGroup
	for n := 0; n < 10; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.Close("test")
		}()
	}
	wg.Wait()

	assert.Equal(t, StateClosed, session.State())
	assert.Equal(t, 0, registry.MemberCount(domain.ChannelAlerts))

	// Closing again after the fact is still fine.
	session.Close("again")
	assert.Equal(t, StateClosed, session.State())
}

func TestSession_EnqueueAfterCloseIsNoOp(t *testing.T) {
	_, session, conn := testOpenSession(t)
	defer conn.Close()

	session.Close("test")

	// At-most-once: delivery to a closed session reports success and drops.
	assert.True(t, session.enqueue([]byte(`{"type":"alert"}`)))
}

func TestSession_StateLifecycle(t *testing.T) {
	registry := NewRegistry()
	s := newBareSession(registry, "alerts")
	assert.Equal(t, StateConnecting, s.State())

	// Before Open the session belongs nowhere and accepts nothing.
	assert.True(t, s.enqueue([]byte(`{}`)))
	assert.Equal(t, 0, registry.MemberCount("alerts"))
	assert.Len(t, s.sendCh, 0)
}

// testOpenSession upgrades a single alerts client and hands the server-side
// session back to the test body.
func testOpenSession(t *testing.T) (*Registry, *Session, *ws.Conn) {
	t.Helper()

	registry := NewRegistry()
	clock := clockwork.NewRealClock()
	sessions := make(chan *Session, 1)

	upgrader := ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		session := NewAlertsSession(registry, conn, clock)
		session.Open()
		sessions <- session
		go session.ReadPump()
	}))
	t.Cleanup(func() { server.Close() })

	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)

	session := <-sessions
	require.True(t, waitFor(func() bool { return registry.MemberCount(domain.ChannelAlerts) == 1 }))
	t.Cleanup(func() { session.Close("test cleanup") })

	return registry, session, conn
}
