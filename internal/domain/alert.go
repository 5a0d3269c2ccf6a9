package domain

import (
	"context"
	"time"
)

// Alert is an escalated incident requiring operator attention. Alerts are the
// entities whose lifecycle events the broadcast core fans out in real time.
type Alert struct {
	ID           int64     `json:"id"`
	IncidentID   *int64    `json:"incident_id,omitempty"`
	Incident     *Incident `json:"incident,omitempty"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Acknowledged bool      `json:"acknowledged"`
	CreatedAt    time.Time `json:"created_at"`
}

// AlertSummary is the trimmed form embedded in dashboard stats.
type AlertSummary struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// AlertRepository persists alerts.
type AlertRepository interface {
	Create(ctx context.Context, alert *Alert) (*Alert, error)
	GetByID(ctx context.Context, id int64) (*Alert, error)
	List(ctx context.Context, limit int) ([]Alert, error)
	Update(ctx context.Context, alert *Alert) (*Alert, error)
	SetAcknowledged(ctx context.Context, id int64, acknowledged bool) (*Alert, error)
	Delete(ctx context.Context, id int64) error
	RecentSummaries(ctx context.Context, limit int) ([]AlertSummary, error)
}
