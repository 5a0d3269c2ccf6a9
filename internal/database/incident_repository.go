package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yaxxerr/ai-security-system/internal/domain"
)

type IncidentRepo struct {
	pool *pgxpool.Pool
}

var _ domain.IncidentRepository = (*IncidentRepo)(nil)

func NewIncidentRepo(pool *pgxpool.Pool) *IncidentRepo {
	return &IncidentRepo{pool: pool}
}

func (r *IncidentRepo) Create(ctx context.Context, incident *domain.Incident) (*domain.Incident, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO incidents (camera_id, detected_by, incident_type, severity_level, description, confidence_score, ai_summary, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, occurred_at`,
		incident.CameraID, incident.DetectedBy, incident.Type, incident.SeverityLevel,
		incident.Description, incident.ConfidenceScore, incident.AISummary, incident.IsVerified)

	created := *incident
	if err := row.Scan(&created.ID, &created.Timestamp); err != nil {
		return nil, fmt.Errorf("failed to create incident: %w", err)
	}
	return &created, nil
}

// incidentJoinColumns includes the owning camera so list responses can embed
// it without a second round trip.
const incidentJoinColumns = `
	i.id, i.camera_id, i.detected_by, i.incident_type, i.severity_level,
	i.description, i.confidence_score, i.ai_summary, i.is_verified, i.occurred_at,
	c.id, c.name, c.location, c.ip_address, c.is_active, c.last_checked`

func scanIncidentWithCamera(row pgx.Row) (*domain.Incident, error) {
	var i domain.Incident
	var c domain.Camera
	err := row.Scan(
		&i.ID, &i.CameraID, &i.DetectedBy, &i.Type, &i.SeverityLevel,
		&i.Description, &i.ConfidenceScore, &i.AISummary, &i.IsVerified, &i.Timestamp,
		&c.ID, &c.Name, &c.Location, &c.IPAddress, &c.IsActive, &c.LastChecked,
	)
	if err != nil {
		return nil, err
	}
	i.Camera = &c
	return &i, nil
}

func (r *IncidentRepo) GetByID(ctx context.Context, id int64) (*domain.Incident, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+incidentJoinColumns+`
		FROM incidents i
		JOIN cameras c ON c.id = i.camera_id
		WHERE i.id = $1`, id)

	incident, err := scanIncidentWithCamera(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIncidentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}
	return incident, nil
}

func (r *IncidentRepo) List(ctx context.Context, limit int) ([]domain.Incident, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+incidentJoinColumns+`
		FROM incidents i
		JOIN cameras c ON c.id = i.camera_id
		ORDER BY i.occurred_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	var incidents []domain.Incident
	for rows.Next() {
		incident, err := scanIncidentWithCamera(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		incidents = append(incidents, *incident)
	}
	return incidents, rows.Err()
}

func (r *IncidentRepo) SetVerified(ctx context.Context, id int64, verified bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE incidents SET is_verified = $1 WHERE id = $2`, verified, id)
	if err != nil {
		return fmt.Errorf("failed to set incident verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIncidentNotFound
	}
	return nil
}

func (r *IncidentRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIncidentNotFound
	}
	return nil
}

func (r *IncidentRepo) CountUnverified(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM incidents WHERE NOT is_verified`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unverified incidents: %w", err)
	}
	return count, nil
}
