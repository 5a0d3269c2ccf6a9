package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yaxxerr/ai-security-system/internal/domain"
	"github.com/yaxxerr/ai-security-system/internal/metrics"
)

// Router is the single entry point producers call. Publish resolves the
// envelope's channel against the registry and pushes the encoded frame to
// every member independently, so a slow or dead session never delays or
// fails delivery to the others.
type Router struct {
	registry *Registry
	relay    *Relay
}

var _ domain.EventPublisher = (*Router)(nil)

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// AttachRelay connects a cross-instance relay. Envelopes published locally
// are forwarded to peers; envelopes the relay receives are dispatched to
// local members only. Call before the service starts accepting producers.
func (r *Router) AttachRelay(relay *Relay) {
	r.relay = relay
}

// Publish fans the envelope out to every current member of its channel and
// forwards it to peer instances. Fire-and-forget: subscriber failures are
// contained per session and never surface to the producer. Publishing to a
// channel with no members is a no-op. Safe for concurrent producers; each
// subscriber observes one channel's envelopes in Publish call order.
func (r *Router) Publish(env domain.Envelope) {
	data, err := encodeFrame(env)
	if err != nil {
		slog.Error("Failed to encode event frame", "channel", env.Channel, "frame", string(env.Frame), "error", err)
		return
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(env.Frame)).Inc()
	r.dispatch(env.Channel, data)

	if r.relay != nil {
		r.relay.Forward(env)
	}
}

// DispatchLocal delivers an envelope received from a peer instance to local
// members only. Never forwards back to the relay.
func (r *Router) DispatchLocal(env domain.Envelope) {
	data, err := encodeFrame(env)
	if err != nil {
		slog.Error("Failed to encode relayed event frame", "channel", env.Channel, "frame", string(env.Frame), "error", err)
		return
	}
	r.dispatch(env.Channel, data)
}

// dispatch delivers an encoded frame to the channel's current members. A
// session whose queue is full is evicted asynchronously; its Close performs
// the Leave, so in-flight dispatches to other sessions are never blocked.
func (r *Router) dispatch(channel string, data []byte) {
	for _, s := range r.registry.Members(channel) {
		if s.enqueue(data) {
			metrics.EventsDeliveredTotal.Inc()
			continue
		}
		slog.Warn("Disconnecting slow session", "session_id", s.ID().String(), "channel", channel)
		metrics.SlowSessionsEvicted.Inc()
		go s.Close("send queue overflow")
	}
}

// Shutdown closes every live session gracefully. Producers may still call
// Publish during shutdown; they fan out to nobody.
func (r *Router) Shutdown() {
	sessions := r.registry.Sessions()
	slog.Info("Broadcast router shutting down", "sessions", len(sessions))
	for _, s := range sessions {
		s.Close("Server shutting down")
	}
}

// alertFrame et al. are the per-channel wire shapes the dashboard clients
// consume.
type alertFrame struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Data    alertFrameData `json:"data"`
}

type alertFrameData struct {
	Action domain.EventKind `json:"action"`
	Alert  json.RawMessage  `json:"alert"`
}

type cameraFrame struct {
	Type     string          `json:"type"`
	CameraID string          `json:"camera_id"`
	Data     json.RawMessage `json:"data"`
}

type dashboardFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func encodeFrame(env domain.Envelope) ([]byte, error) {
	switch env.Frame {
	case domain.FrameAlert:
		return json.Marshal(alertFrame{
			Type:    "alert",
			Message: fmt.Sprintf("Alert %s", env.Kind),
			Data:    alertFrameData{Action: env.Kind, Alert: env.Payload},
		})
	case domain.FrameCameraFrame, domain.FrameCameraDetection:
		return json.Marshal(cameraFrame{
			Type:     string(env.Frame),
			CameraID: strings.TrimPrefix(env.Channel, "camera:"),
			Data:     env.Payload,
		})
	case domain.FrameDashboardUpdate:
		return json.Marshal(dashboardFrame{
			Type: "dashboard_update",
			Data: env.Payload,
		})
	}
	return nil, fmt.Errorf("unknown frame type %q", env.Frame)
}
