package domain

import "errors"

var (
	ErrCameraNotFound   = errors.New("camera not found")
	ErrIncidentNotFound = errors.New("incident not found")
	ErrAlertNotFound    = errors.New("alert not found")
	ErrReportNotFound   = errors.New("report not found")
)
