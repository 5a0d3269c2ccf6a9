package domain

import (
	"context"
	"time"
)

// Report is a generated summary covering a time period.
type Report struct {
	ID          int64     `json:"id"`
	Summary     string    `json:"summary"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReportSummary is the trimmed form embedded in dashboard stats.
type ReportSummary struct {
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportRepository persists reports.
type ReportRepository interface {
	Create(ctx context.Context, report *Report) (*Report, error)
	GetByID(ctx context.Context, id int64) (*Report, error)
	List(ctx context.Context, limit int) ([]Report, error)
	Delete(ctx context.Context, id int64) error
	RecentSummaries(ctx context.Context, limit int) ([]ReportSummary, error)
}
