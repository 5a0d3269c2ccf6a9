package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaxxerr/ai-security-system/internal/apperrors"
	"github.com/yaxxerr/ai-security-system/internal/domain"
)

// --- Mock implementations ---

type mockCameraRepo struct {
	createFn      func(ctx context.Context, name, location, ipAddress string) (*domain.Camera, error)
	getByIDFn     func(ctx context.Context, id int64) (*domain.Camera, error)
	setActiveFn   func(ctx context.Context, ids []int64, active bool, checkedAt time.Time) ([]domain.Camera, error)
	countAllFn    func(ctx context.Context) (int64, error)
	countActiveFn func(ctx context.Context) (int64, error)
}

func (m *mockCameraRepo) Create(ctx context.Context, name, location, ipAddress string) (*domain.Camera, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name, location, ipAddress)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockCameraRepo) GetByID(ctx context.Context, id int64) (*domain.Camera, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockCameraRepo) List(ctx context.Context) ([]domain.Camera, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockCameraRepo) Update(ctx context.Context, camera *domain.Camera) error {
	return fmt.Errorf("not implemented")
}

func (m *mockCameraRepo) Delete(ctx context.Context, id int64) error {
	return fmt.Errorf("not implemented")
}

func (m *mockCameraRepo) SetActive(ctx context.Context, ids []int64, active bool, checkedAt time.Time) ([]domain.Camera, error) {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, ids, active, checkedAt)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockCameraRepo) CountAll(ctx context.Context) (int64, error) {
	if m.countAllFn != nil {
		return m.countAllFn(ctx)
	}
	return 0, nil
}

func (m *mockCameraRepo) CountActive(ctx context.Context) (int64, error) {
	if m.countActiveFn != nil {
		return m.countActiveFn(ctx)
	}
	return 0, nil
}

type mockIncidentRepo struct {
	createFn          func(ctx context.Context, incident *domain.Incident) (*domain.Incident, error)
	countUnverifiedFn func(ctx context.Context) (int64, error)
}

func (m *mockIncidentRepo) Create(ctx context.Context, incident *domain.Incident) (*domain.Incident, error) {
	if m.createFn != nil {
		return m.createFn(ctx, incident)
	}
	created := *incident
	created.ID = 1
	created.Timestamp = time.Now().UTC()
	return &created, nil
}

func (m *mockIncidentRepo) GetByID(ctx context.Context, id int64) (*domain.Incident, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockIncidentRepo) List(ctx context.Context, limit int) ([]domain.Incident, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockIncidentRepo) SetVerified(ctx context.Context, id int64, verified bool) error {
	return fmt.Errorf("not implemented")
}

func (m *mockIncidentRepo) Delete(ctx context.Context, id int64) error {
	return fmt.Errorf("not implemented")
}

func (m *mockIncidentRepo) CountUnverified(ctx context.Context) (int64, error) {
	if m.countUnverifiedFn != nil {
		return m.countUnverifiedFn(ctx)
	}
	return 0, nil
}

type mockAlertRepo struct {
	createFn          func(ctx context.Context, alert *domain.Alert) (*domain.Alert, error)
	setAcknowledgedFn func(ctx context.Context, id int64, acknowledged bool) (*domain.Alert, error)
	deleteFn          func(ctx context.Context, id int64) error
	recentSummariesFn func(ctx context.Context, limit int) ([]domain.AlertSummary, error)
}

func (m *mockAlertRepo) Create(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
	if m.createFn != nil {
		return m.createFn(ctx, alert)
	}
	created := *alert
	created.ID = 1
	created.CreatedAt = time.Now().UTC()
	return &created, nil
}

func (m *mockAlertRepo) GetByID(ctx context.Context, id int64) (*domain.Alert, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAlertRepo) List(ctx context.Context, limit int) ([]domain.Alert, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAlertRepo) Update(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAlertRepo) SetAcknowledged(ctx context.Context, id int64, acknowledged bool) (*domain.Alert, error) {
	if m.setAcknowledgedFn != nil {
		return m.setAcknowledgedFn(ctx, id, acknowledged)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAlertRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return fmt.Errorf("not implemented")
}

func (m *mockAlertRepo) RecentSummaries(ctx context.Context, limit int) ([]domain.AlertSummary, error) {
	if m.recentSummariesFn != nil {
		return m.recentSummariesFn(ctx, limit)
	}
	return nil, nil
}

type mockReportRepo struct {
	createFn          func(ctx context.Context, report *domain.Report) (*domain.Report, error)
	recentSummariesFn func(ctx context.Context, limit int) ([]domain.ReportSummary, error)
}

func (m *mockReportRepo) Create(ctx context.Context, report *domain.Report) (*domain.Report, error) {
	if m.createFn != nil {
		return m.createFn(ctx, report)
	}
	created := *report
	created.ID = 1
	return &created, nil
}

func (m *mockReportRepo) GetByID(ctx context.Context, id int64) (*domain.Report, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockReportRepo) List(ctx context.Context, limit int) ([]domain.Report, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockReportRepo) Delete(ctx context.Context, id int64) error {
	return fmt.Errorf("not implemented")
}

func (m *mockReportRepo) RecentSummaries(ctx context.Context, limit int) ([]domain.ReportSummary, error) {
	if m.recentSummariesFn != nil {
		return m.recentSummariesFn(ctx, limit)
	}
	return nil, nil
}

type mockVerificationRepo struct {
	createFn func(ctx context.Context, entry *domain.VerificationLog) (*domain.VerificationLog, error)
}

func (m *mockVerificationRepo) Create(ctx context.Context, entry *domain.VerificationLog) (*domain.VerificationLog, error) {
	if m.createFn != nil {
		return m.createFn(ctx, entry)
	}
	created := *entry
	created.ID = 1
	return &created, nil
}

func (m *mockVerificationRepo) List(ctx context.Context, limit int) ([]domain.VerificationLog, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockVerificationRepo) ListByIncident(ctx context.Context, incidentID int64) ([]domain.VerificationLog, error) {
	return nil, fmt.Errorf("not implemented")
}

// capturingPublisher records every published envelope.
type capturingPublisher struct {
	mu        sync.Mutex
	envelopes []domain.Envelope
}

func (p *capturingPublisher) Publish(env domain.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envelopes = append(p.envelopes, env)
}

func (p *capturingPublisher) published() []domain.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Envelope(nil), p.envelopes...)
}

type serviceFixture struct {
	cameras       *mockCameraRepo
	incidents     *mockIncidentRepo
	alerts        *mockAlertRepo
	reports       *mockReportRepo
	verifications *mockVerificationRepo
	publisher     *capturingPublisher
	clock         *clockwork.FakeClock
	service       *Service
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		cameras:       &mockCameraRepo{},
		incidents:     &mockIncidentRepo{},
		alerts:        &mockAlertRepo{},
		reports:       &mockReportRepo{},
		verifications: &mockVerificationRepo{},
		publisher:     &capturingPublisher{},
		clock:         clockwork.NewFakeClock(),
	}
	f.service = NewService(f.cameras, f.incidents, f.alerts, f.reports, f.verifications, f.publisher, f.clock)
	return f
}

// --- Tests ---

func TestReportIncident_ManualByDefault(t *testing.T) {
	f := newServiceFixture()

	incident, err := f.service.ReportIncident(context.Background(), IncidentReport{
		CameraID:    3,
		Type:        domain.IncidentWorthChecking,
		Description: "unattended bag",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DetectedByManual, incident.DetectedBy)
	assert.Equal(t, 1, incident.SeverityLevel)

	envs := f.publisher.published()
	require.Len(t, envs, 1)
	assert.Equal(t, "camera:3", envs[0].Channel)
	assert.Equal(t, domain.FrameCameraDetection, envs[0].Frame)
}

func TestReportIncident_ConfidenceImpliesAI(t *testing.T) {
	f := newServiceFixture()

	var logged *domain.VerificationLog
	f.verifications.createFn = func(ctx context.Context, entry *domain.VerificationLog) (*domain.VerificationLog, error) {
		logged = entry
		return entry, nil
	}

	confidence := 0.72
	incident, err := f.service.ReportIncident(context.Background(), IncidentReport{
		CameraID:        1,
		Type:            domain.IncidentDangerous,
		Description:     "intruder",
		ConfidenceScore: &confidence,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DetectedByAI, incident.DetectedBy)
	assert.Equal(t, 2, incident.SeverityLevel)

	require.NotNil(t, logged)
	assert.Equal(t, domain.DecisionSuspicious, logged.Decision)
	require.NotNil(t, logged.ConfidenceScore)
	assert.InDelta(t, 0.72, *logged.ConfidenceScore, 0.001)
}

func TestReportIncident_CriticalEscalatesToAlert(t *testing.T) {
	f := newServiceFixture()

	var createdAlert *domain.Alert
	f.alerts.createFn = func(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
		created := *alert
		created.ID = 9
		createdAlert = &created
		return &created, nil
	}

	incident, err := f.service.ReportIncident(context.Background(), IncidentReport{
		CameraID:    2,
		Type:        domain.IncidentCritical,
		Description: "weapon detected",
		DetectedBy:  domain.DetectedByYOLO,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, incident.SeverityLevel)

	require.NotNil(t, createdAlert)
	require.NotNil(t, createdAlert.IncidentID)
	assert.Equal(t, incident.ID, *createdAlert.IncidentID)
	assert.Equal(t, "Critical incident detected", createdAlert.Title)
	assert.Equal(t, "weapon detected", createdAlert.Message)

	envs := f.publisher.published()
	require.Len(t, envs, 2)
	assert.Equal(t, "camera:2", envs[0].Channel)
	assert.Equal(t, domain.ChannelAlerts, envs[1].Channel)
	assert.Equal(t, domain.EventCreated, envs[1].Kind)
}

func TestReportIncident_UnknownType(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.ReportIncident(context.Background(), IncidentReport{
		CameraID: 1,
		Type:     "SHENANIGANS",
	})

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Empty(t, f.publisher.published())
}

func TestCreateAlert_NoPublishOnFailure(t *testing.T) {
	f := newServiceFixture()
	f.alerts.createFn = func(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
		return nil, fmt.Errorf("db down")
	}

	_, err := f.service.CreateAlert(context.Background(), &domain.Alert{Title: "x"})
	require.Error(t, err)
	assert.Empty(t, f.publisher.published())
}

func TestAcknowledgeAlert_PublishesUpdate(t *testing.T) {
	f := newServiceFixture()
	f.alerts.setAcknowledgedFn = func(ctx context.Context, id int64, acknowledged bool) (*domain.Alert, error) {
		return &domain.Alert{ID: id, Title: "t", Acknowledged: acknowledged}, nil
	}

	alert, err := f.service.AcknowledgeAlert(context.Background(), 5, true)
	require.NoError(t, err)
	assert.True(t, alert.Acknowledged)

	envs := f.publisher.published()
	require.Len(t, envs, 1)
	assert.Equal(t, domain.ChannelAlerts, envs[0].Channel)
	assert.Equal(t, domain.EventUpdated, envs[0].Kind)
}

func TestDeleteAlert_PublishesDeletion(t *testing.T) {
	f := newServiceFixture()
	f.alerts.deleteFn = func(ctx context.Context, id int64) error { return nil }

	require.NoError(t, f.service.DeleteAlert(context.Background(), 7))

	envs := f.publisher.published()
	require.Len(t, envs, 1)
	assert.Equal(t, domain.EventDeleted, envs[0].Kind)

	var payload map[string]int64
	require.NoError(t, json.Unmarshal(envs[0].Payload, &payload))
	assert.Equal(t, int64(7), payload["id"])
}

func TestStartAnalysis_EmptyIDs(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.StartAnalysis(context.Background(), nil)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
}

func TestStartAnalysis_PublishesDashboardUpdate(t *testing.T) {
	f := newServiceFixture()
	f.cameras.setActiveFn = func(ctx context.Context, ids []int64, active bool, checkedAt time.Time) ([]domain.Camera, error) {
		assert.True(t, active)
		assert.Equal(t, f.clock.Now().UTC(), checkedAt)
		cameras := make([]domain.Camera, len(ids))
		for i, id := range ids {
			cameras[i] = domain.Camera{ID: id, IsActive: true, LastChecked: &checkedAt}
		}
		return cameras, nil
	}

	cameras, err := f.service.StartAnalysis(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Len(t, cameras, 2)

	envs := f.publisher.published()
	require.Len(t, envs, 1)
	assert.Equal(t, domain.ChannelDashboard, envs[0].Channel)
	assert.Equal(t, domain.FrameDashboardUpdate, envs[0].Frame)
}

func TestCreateReport_InvalidPeriod(t *testing.T) {
	f := newServiceFixture()
	now := time.Now().UTC()

	_, err := f.service.CreateReport(context.Background(), &domain.Report{
		Summary:     "backwards",
		PeriodStart: now,
		PeriodEnd:   now.Add(-time.Hour),
	})

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
}

func TestGetDashboardStats_AggregatesAndPublishes(t *testing.T) {
	f := newServiceFixture()
	f.cameras.countAllFn = func(ctx context.Context) (int64, error) { return 10, nil }
	f.cameras.countActiveFn = func(ctx context.Context) (int64, error) { return 4, nil }
	f.incidents.countUnverifiedFn = func(ctx context.Context) (int64, error) { return 2, nil }
	f.alerts.recentSummariesFn = func(ctx context.Context, limit int) ([]domain.AlertSummary, error) {
		assert.Equal(t, recentAlertsLimit, limit)
		return []domain.AlertSummary{{Title: "a"}}, nil
	}
	f.reports.recentSummariesFn = func(ctx context.Context, limit int) ([]domain.ReportSummary, error) {
		return []domain.ReportSummary{{Summary: "r"}}, nil
	}

	stats, err := f.service.GetDashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(10), stats.TotalCameras)
	assert.Equal(t, int64(4), stats.ActiveCameras)
	assert.Equal(t, int64(2), stats.UnverifiedIncidents)
	assert.Len(t, stats.RecentAlerts, 1)
	assert.Len(t, stats.RecentReports, 1)
	assert.Equal(t, f.clock.Now().UTC(), stats.GeneratedAt)

	envs := f.publisher.published()
	require.Len(t, envs, 1)
	assert.Equal(t, domain.ChannelDashboard, envs[0].Channel)

	var snapshot DashboardStats
	require.NoError(t, json.Unmarshal(envs[0].Payload, &snapshot))
	assert.Equal(t, int64(10), snapshot.TotalCameras)
}
