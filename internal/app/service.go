package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/yaxxerr/ai-security-system/internal/apperrors"
	"github.com/yaxxerr/ai-security-system/internal/domain"
	"github.com/yaxxerr/ai-security-system/internal/metrics"
)

const (
	recentAlertsLimit  = 5
	recentReportsLimit = 5
)

// Service orchestrates the monitoring use cases on top of the repositories
// and the broadcast publisher.
type Service struct {
	cameras       domain.CameraRepository
	incidents     domain.IncidentRepository
	alerts        domain.AlertRepository
	reports       domain.ReportRepository
	verifications domain.VerificationLogRepository
	publisher     domain.EventPublisher
	clock         clockwork.Clock
	statsGroup    singleflight.Group
}

func NewService(
	cameras domain.CameraRepository,
	incidents domain.IncidentRepository,
	alerts domain.AlertRepository,
	reports domain.ReportRepository,
	verifications domain.VerificationLogRepository,
	publisher domain.EventPublisher,
	clock clockwork.Clock,
) *Service {
	return &Service{
		cameras:       cameras,
		incidents:     incidents,
		alerts:        alerts,
		reports:       reports,
		verifications: verifications,
		publisher:     publisher,
		clock:         clock,
	}
}

// publish marshals the payload and hands the envelope to the broadcast core.
// Called only after the corresponding write committed; marshal failures are
// logged and swallowed because the write itself already succeeded.
func (s *Service) publish(build func(json.RawMessage) domain.Envelope, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal event payload", "error", err)
		return
	}
	s.publisher.Publish(build(data))
}

// --- Cameras ---

func (s *Service) CreateCamera(ctx context.Context, name, location, ipAddress string) (*domain.Camera, error) {
	return s.cameras.Create(ctx, name, location, ipAddress)
}

func (s *Service) GetCamera(ctx context.Context, id int64) (*domain.Camera, error) {
	return s.cameras.GetByID(ctx, id)
}

func (s *Service) ListCameras(ctx context.Context) ([]domain.Camera, error) {
	return s.cameras.List(ctx)
}

func (s *Service) UpdateCamera(ctx context.Context, camera *domain.Camera) error {
	return s.cameras.Update(ctx, camera)
}

func (s *Service) DeleteCamera(ctx context.Context, id int64) error {
	return s.cameras.Delete(ctx, id)
}

// StartAnalysis marks the given cameras as actively analyzed and notifies
// dashboard watchers. An empty id list is a validation error.
func (s *Service) StartAnalysis(ctx context.Context, cameraIDs []int64) ([]domain.Camera, error) {
	return s.setAnalysis(ctx, cameraIDs, true)
}

// StopAnalysis marks the given cameras as no longer analyzed.
func (s *Service) StopAnalysis(ctx context.Context, cameraIDs []int64) ([]domain.Camera, error) {
	return s.setAnalysis(ctx, cameraIDs, false)
}

func (s *Service) setAnalysis(ctx context.Context, cameraIDs []int64, active bool) ([]domain.Camera, error) {
	if len(cameraIDs) == 0 {
		return nil, apperrors.ValidationError("camera_ids must not be empty")
	}

	cameras, err := s.cameras.SetActive(ctx, cameraIDs, active, s.clock.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.publish(domain.NewDashboardUpdate, map[string]any{
		"analysis_active": active,
		"cameras":         cameras,
	})
	return cameras, nil
}

// --- Incidents ---

// IncidentReport is a detector's submission of one incident.
type IncidentReport struct {
	CameraID        int64
	Type            domain.IncidentType
	Description     string
	DetectedBy      domain.DetectionSource
	ConfidenceScore *float64
	AISummary       *string
}

// ReportIncident records an incident and fans out its consequences: the
// detection event on the camera's channel, an AI verification log when the
// report carries a confidence score, and for CRITICAL incidents an
// auto-created alert on the alerts channel.
func (s *Service) ReportIncident(ctx context.Context, report IncidentReport) (*domain.Incident, error) {
	if !report.Type.Valid() {
		return nil, apperrors.ValidationError("unknown incident type").WithField("type", string(report.Type))
	}

	detectedBy := report.DetectedBy
	if detectedBy == "" {
		// A confidence score means an AI detector filed the report.
		if report.ConfidenceScore != nil {
			detectedBy = domain.DetectedByAI
		} else {
			detectedBy = domain.DetectedByManual
		}
	}

	var confidence float64
	if report.ConfidenceScore != nil {
		confidence = *report.ConfidenceScore
	}

	incident, err := s.incidents.Create(ctx, &domain.Incident{
		CameraID:        report.CameraID,
		DetectedBy:      detectedBy,
		Type:            report.Type,
		SeverityLevel:   report.Type.Severity(),
		Description:     report.Description,
		ConfidenceScore: confidence,
		AISummary:       report.AISummary,
	})
	if err != nil {
		return nil, err
	}
	metrics.IncidentsReportedTotal.WithLabelValues(string(detectedBy), string(report.Type)).Inc()

	if detectedBy == domain.DetectedByAI {
		s.logVerification(ctx, incident)
	}

	s.publish(func(p json.RawMessage) domain.Envelope {
		return domain.NewCameraDetection(incident.CameraID, p)
	}, incident)

	if incident.Type == domain.IncidentCritical {
		if err := s.escalate(ctx, incident); err != nil {
			slog.Error("Failed to escalate critical incident", "incident_id", incident.ID, "error", err)
		}
	}

	return incident, nil
}

// logVerification records the AI detector's decision alongside the incident.
// Failure here never fails the report; the incident row is already committed.
func (s *Service) logVerification(ctx context.Context, incident *domain.Incident) {
	decision := domain.DecisionSafe
	switch incident.Type {
	case domain.IncidentCritical:
		decision = domain.DecisionConfirmed
	case domain.IncidentDangerous:
		decision = domain.DecisionSuspicious
	}

	confidence := incident.ConfidenceScore
	_, err := s.verifications.Create(ctx, &domain.VerificationLog{
		IncidentID:      &incident.ID,
		Decision:        decision,
		ConfidenceScore: &confidence,
	})
	if err != nil {
		slog.Error("Failed to record AI verification", "incident_id", incident.ID, "error", err)
	}
}

// escalate auto-creates an alert for a critical incident and publishes it.
func (s *Service) escalate(ctx context.Context, incident *domain.Incident) error {
	alert, err := s.alerts.Create(ctx, &domain.Alert{
		IncidentID: &incident.ID,
		Title:      "Critical incident detected",
		Message:    incident.Description,
	})
	if err != nil {
		return err
	}

	metrics.AlertsEscalatedTotal.Inc()
	s.publish(func(p json.RawMessage) domain.Envelope {
		return domain.NewAlertEvent(domain.EventCreated, p)
	}, alert)
	return nil
}

func (s *Service) GetIncident(ctx context.Context, id int64) (*domain.Incident, error) {
	return s.incidents.GetByID(ctx, id)
}

func (s *Service) ListIncidents(ctx context.Context, limit int) ([]domain.Incident, error) {
	return s.incidents.List(ctx, limit)
}

func (s *Service) VerifyIncident(ctx context.Context, id int64, verified bool) error {
	return s.incidents.SetVerified(ctx, id, verified)
}

func (s *Service) DeleteIncident(ctx context.Context, id int64) error {
	return s.incidents.Delete(ctx, id)
}

// --- Alerts ---

func (s *Service) CreateAlert(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
	created, err := s.alerts.Create(ctx, alert)
	if err != nil {
		return nil, err
	}

	s.publish(func(p json.RawMessage) domain.Envelope {
		return domain.NewAlertEvent(domain.EventCreated, p)
	}, created)
	return created, nil
}

func (s *Service) GetAlert(ctx context.Context, id int64) (*domain.Alert, error) {
	return s.alerts.GetByID(ctx, id)
}

func (s *Service) ListAlerts(ctx context.Context, limit int) ([]domain.Alert, error) {
	return s.alerts.List(ctx, limit)
}

func (s *Service) UpdateAlert(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
	updated, err := s.alerts.Update(ctx, alert)
	if err != nil {
		return nil, err
	}

	s.publish(func(p json.RawMessage) domain.Envelope {
		return domain.NewAlertEvent(domain.EventUpdated, p)
	}, updated)
	return updated, nil
}

func (s *Service) AcknowledgeAlert(ctx context.Context, id int64, acknowledged bool) (*domain.Alert, error) {
	updated, err := s.alerts.SetAcknowledged(ctx, id, acknowledged)
	if err != nil {
		return nil, err
	}

	s.publish(func(p json.RawMessage) domain.Envelope {
		return domain.NewAlertEvent(domain.EventUpdated, p)
	}, updated)
	return updated, nil
}

func (s *Service) DeleteAlert(ctx context.Context, id int64) error {
	if err := s.alerts.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(func(p json.RawMessage) domain.Envelope {
		return domain.NewAlertEvent(domain.EventDeleted, p)
	}, map[string]int64{"id": id})
	return nil
}

// --- Reports ---

func (s *Service) CreateReport(ctx context.Context, report *domain.Report) (*domain.Report, error) {
	if !report.PeriodEnd.After(report.PeriodStart) {
		return nil, apperrors.ValidationError("period_end must be after period_start")
	}
	return s.reports.Create(ctx, report)
}

func (s *Service) GetReport(ctx context.Context, id int64) (*domain.Report, error) {
	return s.reports.GetByID(ctx, id)
}

func (s *Service) ListReports(ctx context.Context, limit int) ([]domain.Report, error) {
	return s.reports.List(ctx, limit)
}

func (s *Service) DeleteReport(ctx context.Context, id int64) error {
	return s.reports.Delete(ctx, id)
}

// --- AI verification logs ---

func (s *Service) ListVerifications(ctx context.Context, limit int) ([]domain.VerificationLog, error) {
	return s.verifications.List(ctx, limit)
}

func (s *Service) ListVerificationsForIncident(ctx context.Context, incidentID int64) ([]domain.VerificationLog, error) {
	return s.verifications.ListByIncident(ctx, incidentID)
}

// --- Dashboard ---

// DashboardStats is the aggregate snapshot served to the dashboard.
type DashboardStats struct {
	TotalCameras        int64                  `json:"total_cameras"`
	ActiveCameras       int64                  `json:"active_cameras"`
	UnverifiedIncidents int64                  `json:"unverified_incidents"`
	RecentAlerts        []domain.AlertSummary  `json:"recent_alerts"`
	RecentReports       []domain.ReportSummary `json:"recent_reports"`
	GeneratedAt         time.Time              `json:"generated_at"`
}

// GetDashboardStats aggregates counts and recent activity. Concurrent
// requests are collapsed into one query burst via singleflight, and each fresh
// snapshot is also pushed to dashboard subscribers.
func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	v, err, _ := s.statsGroup.Do("dashboard_stats", func() (any, error) {
		stats, err := s.collectStats(ctx)
		if err != nil {
			return nil, err
		}

		s.publish(domain.NewDashboardUpdate, stats)
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*DashboardStats), nil
}

func (s *Service) collectStats(ctx context.Context) (*DashboardStats, error) {
	total, err := s.cameras.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.cameras.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	unverified, err := s.incidents.CountUnverified(ctx)
	if err != nil {
		return nil, err
	}
	recentAlerts, err := s.alerts.RecentSummaries(ctx, recentAlertsLimit)
	if err != nil {
		return nil, err
	}
	recentReports, err := s.reports.RecentSummaries(ctx, recentReportsLimit)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TotalCameras:        total,
		ActiveCameras:       active,
		UnverifiedIncidents: unverified,
		RecentAlerts:        recentAlerts,
		RecentReports:       recentReports,
		GeneratedAt:         s.clock.Now().UTC(),
	}, nil
}
