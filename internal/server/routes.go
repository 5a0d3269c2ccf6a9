package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Cameras
	s.echo.POST("/api/cameras", s.handleCreateCamera)
	s.echo.GET("/api/cameras", s.handleListCameras)
	s.echo.GET("/api/cameras/:id", s.handleGetCamera)
	s.echo.PUT("/api/cameras/:id", s.handleUpdateCamera)
	s.echo.DELETE("/api/cameras/:id", s.handleDeleteCamera)

	// Analysis control
	s.echo.POST("/api/analysis/start", s.handleStartAnalysis)
	s.echo.POST("/api/analysis/stop", s.handleStopAnalysis)

	// Incidents
	s.echo.POST("/api/incidents", s.handleReportIncident)
	s.echo.GET("/api/incidents", s.handleListIncidents)
	s.echo.GET("/api/incidents/:id", s.handleGetIncident)
	s.echo.POST("/api/incidents/:id/verify", s.handleVerifyIncident)
	s.echo.DELETE("/api/incidents/:id", s.handleDeleteIncident)
	s.echo.GET("/api/incidents/:id/ai-logs", s.handleListIncidentVerifications)

	// Alerts
	s.echo.POST("/api/alerts", s.handleCreateAlert)
	s.echo.GET("/api/alerts", s.handleListAlerts)
	s.echo.GET("/api/alerts/:id", s.handleGetAlert)
	s.echo.PUT("/api/alerts/:id", s.handleUpdateAlert)
	s.echo.POST("/api/alerts/:id/acknowledge", s.handleAcknowledgeAlert)
	s.echo.DELETE("/api/alerts/:id", s.handleDeleteAlert)

	// Reports
	s.echo.POST("/api/reports", s.handleCreateReport)
	s.echo.GET("/api/reports", s.handleListReports)
	s.echo.GET("/api/reports/:id", s.handleGetReport)
	s.echo.DELETE("/api/reports/:id", s.handleDeleteReport)

	// AI verification logs
	s.echo.GET("/api/ai-logs", s.handleListVerifications)

	// Dashboard
	s.echo.GET("/api/dashboard/stats", s.handleDashboardStats)

	// WebSocket feeds
	s.echo.GET("/ws/alerts", s.handleAlertsSocket)
	s.echo.GET("/ws/camera/:id", s.handleCameraSocket)
	s.echo.GET("/ws/dashboard", s.handleDashboardSocket)
}
