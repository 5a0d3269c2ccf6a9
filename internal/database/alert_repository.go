package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yaxxerr/ai-security-system/internal/domain"
)

type AlertRepo struct {
	pool *pgxpool.Pool
}

var _ domain.AlertRepository = (*AlertRepo)(nil)

func NewAlertRepo(pool *pgxpool.Pool) *AlertRepo {
	return &AlertRepo{pool: pool}
}

const alertColumns = "id, incident_id, title, message, acknowledged, created_at"

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var a domain.Alert
	err := row.Scan(&a.ID, &a.IncidentID, &a.Title, &a.Message, &a.Acknowledged, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AlertRepo) Create(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO alerts (incident_id, title, message, acknowledged)
		VALUES ($1, $2, $3, $4)
		RETURNING `+alertColumns,
		alert.IncidentID, alert.Title, alert.Message, alert.Acknowledged)

	created, err := scanAlert(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return created, nil
}

func (r *AlertRepo) GetByID(ctx context.Context, id int64) (*domain.Alert, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)

	alert, err := scanAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return alert, nil
}

func (r *AlertRepo) List(ctx context.Context, limit int) ([]domain.Alert, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+alertColumns+`
		FROM alerts
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(&a.ID, &a.IncidentID, &a.Title, &a.Message, &a.Acknowledged, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *AlertRepo) Update(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE alerts
		SET title = $1, message = $2, acknowledged = $3
		WHERE id = $4
		RETURNING `+alertColumns,
		alert.Title, alert.Message, alert.Acknowledged, alert.ID)

	updated, err := scanAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	return updated, nil
}

func (r *AlertRepo) SetAcknowledged(ctx context.Context, id int64, acknowledged bool) (*domain.Alert, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE alerts
		SET acknowledged = $1
		WHERE id = $2
		RETURNING `+alertColumns,
		acknowledged, id)

	updated, err := scanAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return updated, nil
}

func (r *AlertRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlertNotFound
	}
	return nil
}

func (r *AlertRepo) RecentSummaries(ctx context.Context, limit int) ([]domain.AlertSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT title, message, created_at
		FROM alerts
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert summaries: %w", err)
	}
	defer rows.Close()

	var summaries []domain.AlertSummary
	for rows.Next() {
		var s domain.AlertSummary
		if err := rows.Scan(&s.Title, &s.Message, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
