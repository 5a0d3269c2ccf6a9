package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaxxerr/ai-security-system/internal/domain"
)

func TestAlertRepo_CreateAndGet(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAlertRepo(pool)
	ctx := context.Background()

	camera := CreateTestCamera(t, pool, "Vault")
	incident := CreateTestIncident(t, pool, camera.ID, domain.IncidentCritical)

	alert, err := repo.Create(ctx, &domain.Alert{
		IncidentID: &incident.ID,
		Title:      "Critical Incident",
		Message:    "weapon detected",
	})
	require.NoError(t, err)
	assert.NotZero(t, alert.ID)
	assert.False(t, alert.Acknowledged)
	assert.False(t, alert.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	require.NotNil(t, got.IncidentID)
	assert.Equal(t, incident.ID, *got.IncidentID)
}

func TestAlertRepo_SetAcknowledged(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAlertRepo(pool)
	ctx := context.Background()

	alert, err := repo.Create(ctx, &domain.Alert{Title: "Manual", Message: "check entrance"})
	require.NoError(t, err)

	updated, err := repo.SetAcknowledged(ctx, alert.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Acknowledged)

	_, err = repo.SetAcknowledged(ctx, 99999, true)
	assert.ErrorIs(t, err, domain.ErrAlertNotFound)
}

func TestAlertRepo_IncidentDeleteDetaches(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAlertRepo(pool)
	incidentRepo := NewIncidentRepo(pool)
	ctx := context.Background()

	camera := CreateTestCamera(t, pool, "Roof")
	incident := CreateTestIncident(t, pool, camera.ID, domain.IncidentCritical)

	alert, err := repo.Create(ctx, &domain.Alert{IncidentID: &incident.ID, Title: "Escalated"})
	require.NoError(t, err)

	// Alerts outlive their incident; the reference just becomes NULL.
	require.NoError(t, incidentRepo.Delete(ctx, incident.ID))

	got, err := repo.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Nil(t, got.IncidentID)
}

func TestAlertRepo_RecentSummaries(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAlertRepo(pool)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := repo.Create(ctx, &domain.Alert{Title: title})
		require.NoError(t, err)
	}

	summaries, err := repo.RecentSummaries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "third", summaries[0].Title)
	assert.Equal(t, "second", summaries[1].Title)
}
