package domain

import (
	"context"
	"time"
)

// IncidentType classifies how serious an incident is.
type IncidentType string

const (
	IncidentWorthChecking IncidentType = "WORTH_CHECKING"
	IncidentDangerous     IncidentType = "DANGEROUS"
	IncidentCritical      IncidentType = "CRITICAL"
)

// Valid reports whether t is a known incident type.
func (t IncidentType) Valid() bool {
	switch t {
	case IncidentWorthChecking, IncidentDangerous, IncidentCritical:
		return true
	}
	return false
}

// Severity maps the incident type to its numeric severity (1=low, 3=critical).
func (t IncidentType) Severity() int {
	switch t {
	case IncidentDangerous:
		return 2
	case IncidentCritical:
		return 3
	default:
		return 1
	}
}

// DetectionSource identifies which detector reported an incident.
type DetectionSource string

const (
	DetectedByYOLO   DetectionSource = "YOLO"
	DetectedByAI     DetectionSource = "AI"
	DetectedByManual DetectionSource = "MANUAL"
)

// Incident is one detection occurrence on a camera.
type Incident struct {
	ID              int64           `json:"id"`
	CameraID        int64           `json:"camera_id"`
	Camera          *Camera         `json:"camera,omitempty"`
	DetectedBy      DetectionSource `json:"detected_by"`
	Type            IncidentType    `json:"type"`
	SeverityLevel   int             `json:"severity_level"`
	Description     string          `json:"description"`
	ConfidenceScore float64         `json:"confidence_score"`
	AISummary       *string         `json:"ai_summary,omitempty"`
	IsVerified      bool            `json:"is_verified"`
	Timestamp       time.Time       `json:"timestamp"`
}

// IncidentRepository persists incidents.
type IncidentRepository interface {
	Create(ctx context.Context, incident *Incident) (*Incident, error)
	GetByID(ctx context.Context, id int64) (*Incident, error)
	List(ctx context.Context, limit int) ([]Incident, error)
	SetVerified(ctx context.Context, id int64, verified bool) error
	Delete(ctx context.Context, id int64) error
	CountUnverified(ctx context.Context) (int64, error)
}
