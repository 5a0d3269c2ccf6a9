package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yaxxerr/ai-security-system/internal/domain"
)

type ReportRepo struct {
	pool *pgxpool.Pool
}

var _ domain.ReportRepository = (*ReportRepo)(nil)

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

const reportColumns = "id, summary, period_start, period_end, created_at"

func scanReport(row pgx.Row) (*domain.Report, error) {
	var rep domain.Report
	err := row.Scan(&rep.ID, &rep.Summary, &rep.PeriodStart, &rep.PeriodEnd, &rep.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *ReportRepo) Create(ctx context.Context, report *domain.Report) (*domain.Report, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reports (summary, period_start, period_end)
		VALUES ($1, $2, $3)
		RETURNING `+reportColumns,
		report.Summary, report.PeriodStart, report.PeriodEnd)

	created, err := scanReport(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return created, nil
}

func (r *ReportRepo) GetByID(ctx context.Context, id int64) (*domain.Report, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)

	report, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

func (r *ReportRepo) List(ctx context.Context, limit int) ([]domain.Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		var rep domain.Report
		if err := rows.Scan(&rep.ID, &rep.Summary, &rep.PeriodStart, &rep.PeriodEnd, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *ReportRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

func (r *ReportRepo) RecentSummaries(ctx context.Context, limit int) ([]domain.ReportSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT summary, created_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list report summaries: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ReportSummary
	for rows.Next() {
		var s domain.ReportSummary
		if err := rows.Scan(&s.Summary, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
