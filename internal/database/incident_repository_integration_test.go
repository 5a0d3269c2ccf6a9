package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaxxerr/ai-security-system/internal/domain"
)

func TestIncidentRepo_CreateAndGet(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewIncidentRepo(pool)
	ctx := context.Background()

	camera := CreateTestCamera(t, pool, "Parking")

	incident, err := repo.Create(ctx, &domain.Incident{
		CameraID:        camera.ID,
		DetectedBy:      domain.DetectedByAI,
		Type:            domain.IncidentDangerous,
		SeverityLevel:   2,
		Description:     "person in restricted area",
		ConfidenceScore: 0.87,
	})
	require.NoError(t, err)
	assert.NotZero(t, incident.ID)
	assert.False(t, incident.Timestamp.IsZero())

	got, err := repo.GetByID(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentDangerous, got.Type)
	assert.Equal(t, domain.DetectedByAI, got.DetectedBy)
	assert.InDelta(t, 0.87, got.ConfidenceScore, 0.001)

	// The owning camera is embedded in reads.
	require.NotNil(t, got.Camera)
	assert.Equal(t, camera.ID, got.Camera.ID)
	assert.Equal(t, "Parking", got.Camera.Name)
}

func TestIncidentRepo_GetMissing(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewIncidentRepo(pool)

	_, err := repo.GetByID(context.Background(), 99999)
	assert.ErrorIs(t, err, domain.ErrIncidentNotFound)
}

func TestIncidentRepo_ListNewestFirst(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewIncidentRepo(pool)
	ctx := context.Background()

	camera := CreateTestCamera(t, pool, "Yard")
	first := CreateTestIncident(t, pool, camera.ID, domain.IncidentWorthChecking)
	second := CreateTestIncident(t, pool, camera.ID, domain.IncidentCritical)

	incidents, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, incidents, 2)
	assert.Equal(t, second.ID, incidents[0].ID)
	assert.Equal(t, first.ID, incidents[1].ID)
}

func TestIncidentRepo_SetVerified(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewIncidentRepo(pool)
	ctx := context.Background()

	camera := CreateTestCamera(t, pool, "Dock")
	incident := CreateTestIncident(t, pool, camera.ID, domain.IncidentWorthChecking)

	unverified, err := repo.CountUnverified(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unverified)

	require.NoError(t, repo.SetVerified(ctx, incident.ID, true))

	got, err := repo.GetByID(ctx, incident.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)

	unverified, err = repo.CountUnverified(ctx)
	require.NoError(t, err)
	assert.Zero(t, unverified)

	assert.ErrorIs(t, repo.SetVerified(ctx, 99999, true), domain.ErrIncidentNotFound)
}

func TestIncidentRepo_CameraCascadeDelete(t *testing.T) {
	pool := setupTestDB(t)
	cameraRepo := NewCameraRepo(pool)
	repo := NewIncidentRepo(pool)
	ctx := context.Background()

	camera := CreateTestCamera(t, pool, "Gone")
	incident := CreateTestIncident(t, pool, camera.ID, domain.IncidentWorthChecking)

	require.NoError(t, cameraRepo.Delete(ctx, camera.ID))

	_, err := repo.GetByID(ctx, incident.ID)
	assert.ErrorIs(t, err, domain.ErrIncidentNotFound)
}
