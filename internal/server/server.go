package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/yaxxerr/ai-security-system/internal/app"
	"github.com/yaxxerr/ai-security-system/internal/apperrors"
	"github.com/yaxxerr/ai-security-system/internal/broadcast"
	"github.com/yaxxerr/ai-security-system/internal/config"
	"github.com/yaxxerr/ai-security-system/internal/domain"
)

// appService is the slice of the application layer the handlers consume.
type appService interface {
	CreateCamera(ctx context.Context, name, location, ipAddress string) (*domain.Camera, error)
	GetCamera(ctx context.Context, id int64) (*domain.Camera, error)
	ListCameras(ctx context.Context) ([]domain.Camera, error)
	UpdateCamera(ctx context.Context, camera *domain.Camera) error
	DeleteCamera(ctx context.Context, id int64) error
	StartAnalysis(ctx context.Context, cameraIDs []int64) ([]domain.Camera, error)
	StopAnalysis(ctx context.Context, cameraIDs []int64) ([]domain.Camera, error)

	ReportIncident(ctx context.Context, report app.IncidentReport) (*domain.Incident, error)
	GetIncident(ctx context.Context, id int64) (*domain.Incident, error)
	ListIncidents(ctx context.Context, limit int) ([]domain.Incident, error)
	VerifyIncident(ctx context.Context, id int64, verified bool) error
	DeleteIncident(ctx context.Context, id int64) error

	CreateAlert(ctx context.Context, alert *domain.Alert) (*domain.Alert, error)
	GetAlert(ctx context.Context, id int64) (*domain.Alert, error)
	ListAlerts(ctx context.Context, limit int) ([]domain.Alert, error)
	UpdateAlert(ctx context.Context, alert *domain.Alert) (*domain.Alert, error)
	AcknowledgeAlert(ctx context.Context, id int64, acknowledged bool) (*domain.Alert, error)
	DeleteAlert(ctx context.Context, id int64) error

	CreateReport(ctx context.Context, report *domain.Report) (*domain.Report, error)
	GetReport(ctx context.Context, id int64) (*domain.Report, error)
	ListReports(ctx context.Context, limit int) ([]domain.Report, error)
	DeleteReport(ctx context.Context, id int64) error

	ListVerifications(ctx context.Context, limit int) ([]domain.VerificationLog, error)
	ListVerificationsForIncident(ctx context.Context, incidentID int64) ([]domain.VerificationLog, error)

	GetDashboardStats(ctx context.Context) (*app.DashboardStats, error)
}

// HealthCheck is a named readiness probe against a backing service.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	echo         *echo.Echo
	config       *config.Config
	app          appService
	registry     *broadcast.Registry
	clock        clockwork.Clock
	limits       *ConnectionLimits
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, appSvc appService, registry *broadcast.Registry, clock clockwork.Clock, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:     e,
		config:   cfg,
		app:      appSvc,
		registry: registry,
		clock:    clock,
		limits: NewConnectionLimits(
			cfg.MaxWebSocketConnections,
			cfg.MaxConnectionsPerIP,
			cfg.ConnectionRatePerSec,
			cfg.ConnectionBurst,
		),
		healthChecks: healthChecks,
		startTime:    clock.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
