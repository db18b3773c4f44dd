// Package api implements the HTTP REST API and WebSocket server for Clear Gauge Core.
//
// This package provides:
//   - REST endpoints for sensor CRUD, unit conversion, and reading queries
//   - WebSocket hub for real-time normalised reading broadcasts
//   - Admin-key token exchange with JWT bearer authentication
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between user interfaces (dashboards, wall displays,
// CLI tooling) and the sensor registry + normalisation pipeline. Raw
// observations flow in over MQTT, the pipeline normalises them, and the
// results are broadcast to WebSocket clients while the REST surface serves
// snapshots, history, and catalogue management.
//
// # Security
//
// A configured admin key is exchanged for short-lived JWT bearer tokens at
// POST /api/v1/auth/token. Admin tokens can mutate the sensor catalogue;
// viewer tokens are read-only. WebSocket upgrades authenticate via a token
// query parameter because browsers cannot set Authorization headers there.
//
// # Graceful Degradation
//
// The server operates without the pipeline, history store, or time-series
// database. Endpoints backed by a missing component return 503 rather than
// failing the whole server, so the catalogue stays manageable during
// partial outages.
package api
