package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yaxxerr/ai-security-system/internal/app"
	"github.com/yaxxerr/ai-security-system/internal/apperrors"
	"github.com/yaxxerr/ai-security-system/internal/domain"
)

const defaultListLimit = 50

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationError("invalid id")
	}
	return id, nil
}

func parseLimit(c echo.Context) int {
	raw := c.QueryParam("limit")
	if raw == "" {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}

// mapDomainError lifts the repository sentinels into structured HTTP errors.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrCameraNotFound):
		return apperrors.NotFoundError("camera not found")
	case errors.Is(err, domain.ErrIncidentNotFound):
		return apperrors.NotFoundError("incident not found")
	case errors.Is(err, domain.ErrAlertNotFound):
		return apperrors.NotFoundError("alert not found")
	case errors.Is(err, domain.ErrReportNotFound):
		return apperrors.NotFoundError("report not found")
	default:
		return err
	}
}

// ---- Cameras ----

type createCameraRequest struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	IPAddress string `json:"ip_address"`
}

func (s *Server) handleCreateCamera(c echo.Context) error {
	var req createCameraRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Name == "" {
		return apperrors.ValidationError("name is required")
	}

	camera, err := s.app.CreateCamera(c.Request().Context(), req.Name, req.Location, req.IPAddress)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, camera)
}

func (s *Server) handleListCameras(c echo.Context) error {
	cameras, err := s.app.ListCameras(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cameras)
}

func (s *Server) handleGetCamera(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	camera, err := s.app.GetCamera(c.Request().Context(), id)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, camera)
}

type updateCameraRequest struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	IPAddress string `json:"ip_address"`
	IsActive  bool   `json:"is_active"`
}

func (s *Server) handleUpdateCamera(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req updateCameraRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Name == "" {
		return apperrors.ValidationError("name is required")
	}

	camera := &domain.Camera{
		ID:        id,
		Name:      req.Name,
		Location:  req.Location,
		IPAddress: req.IPAddress,
		IsActive:  req.IsActive,
	}
	if err := s.app.UpdateCamera(c.Request().Context(), camera); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, camera)
}

func (s *Server) handleDeleteCamera(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.app.DeleteCamera(c.Request().Context(), id); err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- Analysis control ----

type analysisRequest struct {
	CameraIDs []int64 `json:"camera_ids"`
}

func (s *Server) handleStartAnalysis(c echo.Context) error {
	return s.handleAnalysis(c, s.app.StartAnalysis)
}

func (s *Server) handleStopAnalysis(c echo.Context) error {
	return s.handleAnalysis(c, s.app.StopAnalysis)
}

func (s *Server) handleAnalysis(c echo.Context, toggle func(ctx context.Context, ids []int64) ([]domain.Camera, error)) error {
	var req analysisRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	cameras, err := toggle(c.Request().Context(), req.CameraIDs)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"cameras": cameras})
}

// ---- Incidents ----

type reportIncidentRequest struct {
	CameraID        int64    `json:"camera_id"`
	Type            string   `json:"type"`
	Description     string   `json:"description"`
	DetectedBy      string   `json:"detected_by"`
	ConfidenceScore *float64 `json:"confidence_score"`
	AISummary       *string  `json:"ai_summary"`
}

func (s *Server) handleReportIncident(c echo.Context) error {
	var req reportIncidentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.CameraID <= 0 {
		return apperrors.ValidationError("camera_id is required")
	}

	incident, err := s.app.ReportIncident(c.Request().Context(), app.IncidentReport{
		CameraID:        req.CameraID,
		Type:            domain.IncidentType(req.Type),
		Description:     req.Description,
		DetectedBy:      domain.DetectionSource(req.DetectedBy),
		ConfidenceScore: req.ConfidenceScore,
		AISummary:       req.AISummary,
	})
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, incident)
}

func (s *Server) handleListIncidents(c echo.Context) error {
	incidents, err := s.app.ListIncidents(c.Request().Context(), parseLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, incidents)
}

func (s *Server) handleGetIncident(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	incident, err := s.app.GetIncident(c.Request().Context(), id)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, incident)
}

type verifyIncidentRequest struct {
	Verified bool `json:"verified"`
}

func (s *Server) handleVerifyIncident(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req verifyIncidentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.app.VerifyIncident(c.Request().Context(), id, req.Verified); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"id": id, "is_verified": req.Verified})
}

func (s *Server) handleDeleteIncident(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.app.DeleteIncident(c.Request().Context(), id); err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListIncidentVerifications(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	logs, err := s.app.ListVerificationsForIncident(c.Request().Context(), id)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, logs)
}

// ---- Alerts ----

type createAlertRequest struct {
	IncidentID *int64 `json:"incident_id"`
	Title      string `json:"title"`
	Message    string `json:"message"`
}

func (s *Server) handleCreateAlert(c echo.Context) error {
	var req createAlertRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Title == "" {
		return apperrors.ValidationError("title is required")
	}

	alert, err := s.app.CreateAlert(c.Request().Context(), &domain.Alert{
		IncidentID: req.IncidentID,
		Title:      req.Title,
		Message:    req.Message,
	})
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, alert)
}

func (s *Server) handleListAlerts(c echo.Context) error {
	alerts, err := s.app.ListAlerts(c.Request().Context(), parseLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, alerts)
}

func (s *Server) handleGetAlert(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	alert, err := s.app.GetAlert(c.Request().Context(), id)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, alert)
}

type updateAlertRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (s *Server) handleUpdateAlert(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req updateAlertRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Title == "" {
		return apperrors.ValidationError("title is required")
	}

	alert, err := s.app.UpdateAlert(c.Request().Context(), &domain.Alert{
		ID:      id,
		Title:   req.Title,
		Message: req.Message,
	})
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, alert)
}

type acknowledgeAlertRequest struct {
	Acknowledged *bool `json:"acknowledged"`
}

func (s *Server) handleAcknowledgeAlert(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	// Missing body or field defaults to acknowledging.
	acknowledged := true
	var req acknowledgeAlertRequest
	if err := c.Bind(&req); err == nil && req.Acknowledged != nil {
		acknowledged = *req.Acknowledged
	}

	alert, err := s.app.AcknowledgeAlert(c.Request().Context(), id, acknowledged)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, alert)
}

func (s *Server) handleDeleteAlert(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.app.DeleteAlert(c.Request().Context(), id); err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- Reports ----

type createReportRequest struct {
	Summary     string    `json:"summary"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

func (s *Server) handleCreateReport(c echo.Context) error {
	var req createReportRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Summary == "" {
		return apperrors.ValidationError("summary is required")
	}

	report, err := s.app.CreateReport(c.Request().Context(), &domain.Report{
		Summary:     req.Summary,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
	})
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, report)
}

func (s *Server) handleListReports(c echo.Context) error {
	reports, err := s.app.ListReports(c.Request().Context(), parseLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

func (s *Server) handleGetReport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	report, err := s.app.GetReport(c.Request().Context(), id)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) handleDeleteReport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.app.DeleteReport(c.Request().Context(), id); err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- AI verification logs ----

func (s *Server) handleListVerifications(c echo.Context) error {
	logs, err := s.app.ListVerifications(c.Request().Context(), parseLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logs)
}

// ---- Dashboard ----

func (s *Server) handleDashboardStats(c echo.Context) error {
	stats, err := s.app.GetDashboardStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
