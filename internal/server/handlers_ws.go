package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/yaxxerr/ai-security-system/internal/apperrors"
	"github.com/yaxxerr/ai-security-system/internal/broadcast"
	"github.com/yaxxerr/ai-security-system/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleAlertsSocket(c echo.Context) error {
	return s.serveSocket(c, func(conn *websocket.Conn) *broadcast.Session {
		return broadcast.NewAlertsSession(s.registry, conn, s.clock)
	})
}

func (s *Server) handleCameraSocket(c echo.Context) error {
	cameraID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("invalid camera id")
	}
	return s.serveSocket(c, func(conn *websocket.Conn) *broadcast.Session {
		return broadcast.NewCameraSession(s.registry, conn, s.clock, strconv.FormatInt(cameraID, 10))
	})
}

func (s *Server) handleDashboardSocket(c echo.Context) error {
	return s.serveSocket(c, func(conn *websocket.Conn) *broadcast.Session {
		return broadcast.NewDashboardSession(s.registry, conn, s.clock)
	})
}

// serveSocket runs the shared upgrade path: admission through the connection
// limits, protocol upgrade, then the blocking read pump. The handler returns
// when the client disconnects or the session is evicted.
func (s *Server) serveSocket(c echo.Context, build func(*websocket.Conn) *broadcast.Session) error {
	ip := c.RealIP()

	allowed, reason := s.limits.Acquire(ip)
	if !allowed {
		metrics.WebSocketConnectionsRejected.WithLabelValues(string(reason)).Inc()
		metrics.WebSocketConnectionsTotal.WithLabelValues("rejected").Inc()
		slog.Warn("websocket connection rejected", "ip", ip, "reason", reason)
		return c.JSON(http.StatusTooManyRequests, map[string]string{
			"error": "too many connections",
		})
	}
	defer s.limits.Release(ip)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		metrics.WebSocketConnectionsTotal.WithLabelValues("error").Inc()
		slog.Error("websocket upgrade failed", "ip", ip, "error", err)
		return nil
	}

	metrics.WebSocketConnectionsTotal.WithLabelValues("success").Inc()
	metrics.WebSocketConnectionsCurrent.Inc()
	defer metrics.WebSocketConnectionsCurrent.Dec()

	session := build(conn)
	session.Open()
	session.ReadPump()
	return nil
}
