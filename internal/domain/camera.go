package domain

import (
	"context"
	"time"
)

// Camera is a registered surveillance camera.
type Camera struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Location    string     `json:"location"`
	IPAddress   string     `json:"ip_address"`
	IsActive    bool       `json:"is_active"`
	LastChecked *time.Time `json:"last_checked"`
}

// CameraRepository persists cameras.
type CameraRepository interface {
	Create(ctx context.Context, name, location, ipAddress string) (*Camera, error)
	GetByID(ctx context.Context, id int64) (*Camera, error)
	List(ctx context.Context) ([]Camera, error)
	Update(ctx context.Context, camera *Camera) error
	Delete(ctx context.Context, id int64) error

	// SetActive flips is_active for the given cameras and stamps last_checked.
	// Returns the cameras that matched.
	SetActive(ctx context.Context, ids []int64, active bool, checkedAt time.Time) ([]Camera, error)

	CountAll(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}
