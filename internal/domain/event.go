package domain

import (
	"encoding/json"
	"fmt"
)

// Channel names for the broadcast core. Camera channels are parameterized
// by camera ID via CameraChannel.
const (
	ChannelAlerts    = "alerts"
	ChannelDashboard = "dashboard"
)

// CameraChannel returns the broadcast channel name for a single camera feed.
func CameraChannel(cameraID int64) string {
	return fmt.Sprintf("camera:%d", cameraID)
}

// EventKind describes which lifecycle operation produced an event.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// FrameType is the client-facing message type carried on the wire.
// The alerts and dashboard channels each have a single frame type; camera
// channels carry either raw frame relays or detection notifications.
type FrameType string

const (
	FrameAlert           FrameType = "alert"
	FrameCameraFrame     FrameType = "frame"
	FrameCameraDetection FrameType = "detection"
	FrameDashboardUpdate FrameType = "dashboard_update"
)

// Envelope is an immutable description of one event occurrence, routed to a
// channel. The payload is a pre-serialized snapshot taken at publish time;
// the broadcast core never re-queries storage.
type Envelope struct {
	Channel string
	Kind    EventKind
	Frame   FrameType
	Payload json.RawMessage
}

// NewAlertEvent builds an envelope for the global alerts channel.
func NewAlertEvent(kind EventKind, payload json.RawMessage) Envelope {
	return Envelope{
		Channel: ChannelAlerts,
		Kind:    kind,
		Frame:   FrameAlert,
		Payload: payload,
	}
}

// NewCameraDetection builds a detection envelope for one camera's channel.
func NewCameraDetection(cameraID int64, payload json.RawMessage) Envelope {
	return Envelope{
		Channel: CameraChannel(cameraID),
		Kind:    EventCreated,
		Frame:   FrameCameraDetection,
		Payload: payload,
	}
}

// NewCameraFrame builds a frame-relay envelope for one camera's channel.
func NewCameraFrame(cameraID int64, payload json.RawMessage) Envelope {
	return Envelope{
		Channel: CameraChannel(cameraID),
		Kind:    EventCreated,
		Frame:   FrameCameraFrame,
		Payload: payload,
	}
}

// NewDashboardUpdate builds an envelope for the dashboard channel.
func NewDashboardUpdate(payload json.RawMessage) Envelope {
	return Envelope{
		Channel: ChannelDashboard,
		Kind:    EventUpdated,
		Frame:   FrameDashboardUpdate,
		Payload: payload,
	}
}

// EventPublisher is the producer adapter contract. Implementations must be
// safe for concurrent use and must never surface subscriber failures to the
// caller: Publish is fire-and-forget and a publish with zero subscribers is
// a no-op. Callers invoke Publish only after the underlying write has been
// durably committed.
type EventPublisher interface {
	Publish(env Envelope)
}
