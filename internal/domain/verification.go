package domain

import (
	"context"
	"encoding/json"
	"time"
)

// VerificationDecision is the outcome of an external AI-vision check.
type VerificationDecision string

const (
	DecisionSafe       VerificationDecision = "SAFE"
	DecisionSuspicious VerificationDecision = "SUSPICIOUS"
	DecisionConfirmed  VerificationDecision = "CONFIRMED"
)

// VerificationLog records one AI-vision verification of an incident.
type VerificationLog struct {
	ID              int64                `json:"id"`
	IncidentID      *int64               `json:"incident_id,omitempty"`
	Decision        VerificationDecision `json:"decision"`
	ConfidenceScore *float64             `json:"confidence_score"`
	RawResponse     json.RawMessage      `json:"raw_response,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// VerificationLogRepository persists AI verification logs.
type VerificationLogRepository interface {
	Create(ctx context.Context, entry *VerificationLog) (*VerificationLog, error)
	List(ctx context.Context, limit int) ([]VerificationLog, error)
	ListByIncident(ctx context.Context, incidentID int64) ([]VerificationLog, error)
}
