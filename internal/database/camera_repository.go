package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yaxxerr/ai-security-system/internal/domain"
)

type CameraRepo struct {
	pool *pgxpool.Pool
}

var _ domain.CameraRepository = (*CameraRepo)(nil)

func NewCameraRepo(pool *pgxpool.Pool) *CameraRepo {
	return &CameraRepo{pool: pool}
}

const cameraColumns = "id, name, location, ip_address, is_active, last_checked"

func scanCamera(row pgx.Row) (*domain.Camera, error) {
	var c domain.Camera
	err := row.Scan(&c.ID, &c.Name, &c.Location, &c.IPAddress, &c.IsActive, &c.LastChecked)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CameraRepo) Create(ctx context.Context, name, location, ipAddress string) (*domain.Camera, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO cameras (name, location, ip_address)
		VALUES ($1, $2, $3)
		RETURNING `+cameraColumns,
		name, location, ipAddress)

	camera, err := scanCamera(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create camera: %w", err)
	}
	return camera, nil
}

func (r *CameraRepo) GetByID(ctx context.Context, id int64) (*domain.Camera, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cameraColumns+` FROM cameras WHERE id = $1`, id)

	camera, err := scanCamera(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCameraNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get camera: %w", err)
	}
	return camera, nil
}

func (r *CameraRepo) List(ctx context.Context) ([]domain.Camera, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cameraColumns+` FROM cameras ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []domain.Camera
	for rows.Next() {
		var c domain.Camera
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.IPAddress, &c.IsActive, &c.LastChecked); err != nil {
			return nil, fmt.Errorf("failed to scan camera: %w", err)
		}
		cameras = append(cameras, c)
	}
	return cameras, rows.Err()
}

func (r *CameraRepo) Update(ctx context.Context, camera *domain.Camera) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cameras
		SET name = $1, location = $2, ip_address = $3, is_active = $4, last_checked = $5
		WHERE id = $6`,
		camera.Name, camera.Location, camera.IPAddress, camera.IsActive, camera.LastChecked, camera.ID)
	if err != nil {
		return fmt.Errorf("failed to update camera: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCameraNotFound
	}
	return nil
}

func (r *CameraRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cameras WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete camera: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCameraNotFound
	}
	return nil
}

func (r *CameraRepo) SetActive(ctx context.Context, ids []int64, active bool, checkedAt time.Time) ([]domain.Camera, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE cameras
		SET is_active = $1, last_checked = $2
		WHERE id = ANY($3)
		RETURNING `+cameraColumns,
		active, checkedAt, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to set cameras active: %w", err)
	}
	defer rows.Close()

	var cameras []domain.Camera
	for rows.Next() {
		var c domain.Camera
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.IPAddress, &c.IsActive, &c.LastChecked); err != nil {
			return nil, fmt.Errorf("failed to scan camera: %w", err)
		}
		cameras = append(cameras, c)
	}
	return cameras, rows.Err()
}

func (r *CameraRepo) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cameras`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cameras: %w", err)
	}
	return count, nil
}

func (r *CameraRepo) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cameras WHERE is_active`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active cameras: %w", err)
	}
	return count, nil
}
