package database

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/yaxxerr/ai-security-system/internal/domain"
)

// CreateTestCamera is a helper that creates a camera with default values for
// testing. Returns the created camera.
func CreateTestCamera(t *testing.T, pool *pgxpool.Pool, name string) *domain.Camera {
	t.Helper()

	repo := NewCameraRepo(pool)
	camera, err := repo.Create(context.Background(), name, "Test Hall", "10.0.0.1")
	require.NoError(t, err)
	require.NotZero(t, camera.ID)

	return camera
}

// CreateTestIncident creates an incident on a camera for testing.
func CreateTestIncident(t *testing.T, pool *pgxpool.Pool, cameraID int64, incidentType domain.IncidentType) *domain.Incident {
	t.Helper()

	repo := NewIncidentRepo(pool)
	incident, err := repo.Create(context.Background(), &domain.Incident{
		CameraID:        cameraID,
		DetectedBy:      domain.DetectedByYOLO,
		Type:            incidentType,
		SeverityLevel:   incidentType.Severity(),
		Description:     "test incident",
		ConfidenceScore: 0.9,
	})
	require.NoError(t, err)
	require.NotZero(t, incident.ID)

	return incident
}
