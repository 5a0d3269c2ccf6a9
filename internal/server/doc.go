// Package server exposes the HTTP surface: the REST API for cameras,
// incidents, alerts and reports, the WebSocket endpoints feeding the
// broadcast core, and the health and metrics probes.
package server
