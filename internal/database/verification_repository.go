package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yaxxerr/ai-security-system/internal/domain"
)

type VerificationLogRepo struct {
	pool *pgxpool.Pool
}

var _ domain.VerificationLogRepository = (*VerificationLogRepo)(nil)

func NewVerificationLogRepo(pool *pgxpool.Pool) *VerificationLogRepo {
	return &VerificationLogRepo{pool: pool}
}

func (r *VerificationLogRepo) Create(ctx context.Context, entry *domain.VerificationLog) (*domain.VerificationLog, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO verification_logs (incident_id, decision, confidence_score, raw_response)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		entry.IncidentID, entry.Decision, entry.ConfidenceScore, entry.RawResponse)

	created := *entry
	if err := row.Scan(&created.ID, &created.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create verification log: %w", err)
	}
	return &created, nil
}

func (r *VerificationLogRepo) List(ctx context.Context, limit int) ([]domain.VerificationLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, incident_id, decision, confidence_score, raw_response, created_at
		FROM verification_logs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification logs: %w", err)
	}
	defer rows.Close()

	return collectVerificationLogs(rows)
}

func (r *VerificationLogRepo) ListByIncident(ctx context.Context, incidentID int64) ([]domain.VerificationLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, incident_id, decision, confidence_score, raw_response, created_at
		FROM verification_logs
		WHERE incident_id = $1
		ORDER BY created_at DESC`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification logs for incident: %w", err)
	}
	defer rows.Close()

	return collectVerificationLogs(rows)
}

func collectVerificationLogs(rows pgx.Rows) ([]domain.VerificationLog, error) {
	var entries []domain.VerificationLog
	for rows.Next() {
		var e domain.VerificationLog
		if err := rows.Scan(&e.ID, &e.IncidentID, &e.Decision, &e.ConfidenceScore, &e.RawResponse, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verification log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
