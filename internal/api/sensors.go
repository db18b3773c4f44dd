package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/clear-gauge-core/internal/infrastructure/tsdb"
	"github.com/nerrad567/clear-gauge-core/internal/sensor"
	"github.com/nerrad567/clear-gauge-core/internal/units"
)

const (
	// maxQueryParamLen limits query parameter length to prevent DoS via oversized URL params.
	maxQueryParamLen = 100

	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	defaultMetricsRange = time.Hour
	defaultMetricsStep  = time.Minute
)

// handleListSensors returns all sensors, with optional query filters.
//
// Query parameters:
//   - source: filter by integration source (e.g. "weatherstation")
//   - quantity: filter by measured quantity (temperature, pressure, etc.)
func (s *Server) handleListSensors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if source := r.URL.Query().Get("source"); source != "" {
		if len(source) > maxQueryParamLen {
			writeBadRequest(w, "source exceeds maximum length")
			return
		}
		sensors, err := s.registry.GetSensorsBySource(ctx, source)
		if err != nil {
			writeInternalError(w, "failed to list sensors")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sensors": sensors, "count": len(sensors)})
		return
	}

	if quantity := r.URL.Query().Get("quantity"); quantity != "" {
		if len(quantity) > maxQueryParamLen {
			writeBadRequest(w, "quantity exceeds maximum length")
			return
		}
		sensors, err := s.registry.GetSensorsByQuantity(ctx, units.Quantity(quantity))
		if err != nil {
			writeInternalError(w, "failed to list sensors")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sensors": sensors, "count": len(sensors)})
		return
	}

	sensors, err := s.registry.ListSensors(ctx)
	if err != nil {
		writeInternalError(w, "failed to list sensors")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sensors": sensors, "count": len(sensors)})
}

// handleGetSensor returns a single sensor by ID.
func (s *Server) handleGetSensor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sen, err := s.registry.GetSensor(r.Context(), id)
	if err != nil {
		if errors.Is(err, sensor.ErrSensorNotFound) {
			writeNotFound(w, "sensor not found")
			return
		}
		writeInternalError(w, "failed to get sensor")
		return
	}

	writeJSON(w, http.StatusOK, sen)
}

// handleCreateSensor registers a new sensor.
func (s *Server) handleCreateSensor(w http.ResponseWriter, r *http.Request) {
	var sen sensor.Sensor
	if err := json.NewDecoder(r.Body).Decode(&sen); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.registry.CreateSensor(r.Context(), &sen); err != nil {
		switch {
		case errors.Is(err, sensor.ErrInvalidSensor):
			writeValidationError(w, err.Error())
		case errors.Is(err, sensor.ErrSensorExists):
			writeConflict(w, err.Error())
		default:
			writeInternalError(w, "failed to create sensor")
		}
		return
	}

	writeJSON(w, http.StatusCreated, sen)
}

// handleUpdateSensor partially updates a sensor.
func (s *Server) handleUpdateSensor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.registry.GetSensor(r.Context(), id)
	if err != nil {
		if errors.Is(err, sensor.ErrSensorNotFound) {
			writeNotFound(w, "sensor not found")
			return
		}
		writeInternalError(w, "failed to get sensor")
		return
	}

	// Decode the partial update onto the existing sensor
	if err := json.NewDecoder(r.Body).Decode(existing); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	existing.ID = id // the ID cannot be changed

	if err := s.registry.UpdateSensor(r.Context(), existing); err != nil {
		switch {
		case errors.Is(err, sensor.ErrInvalidSensor):
			writeValidationError(w, err.Error())
		case errors.Is(err, sensor.ErrSensorExists):
			writeConflict(w, err.Error())
		default:
			writeInternalError(w, "failed to update sensor")
		}
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteSensor removes a sensor by ID.
func (s *Server) handleDeleteSensor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.registry.DeleteSensor(r.Context(), id); err != nil {
		if errors.Is(err, sensor.ErrSensorNotFound) {
			writeNotFound(w, "sensor not found")
			return
		}
		writeInternalError(w, "failed to delete sensor")
		return
	}

	// Drop the stale latest-reading snapshot for the deleted sensor.
	if s.pipeline != nil {
		s.pipeline.ForgetLatest(id)
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSensorStats returns sensor catalogue statistics.
func (s *Server) handleSensorStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.registry.GetStats()
	writeJSON(w, http.StatusOK, stats)
}

// handleSensorHistory returns recent normalised readings for a sensor.
//
// Query parameters:
//   - limit: maximum entries to return (default 50, max 200)
//   - since: RFC3339 lower bound on recording time
func (s *Server) handleSensorHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sensorID := chi.URLParam(r, "id")
	if sensorID == "" || len(sensorID) > maxQueryParamLen {
		writeBadRequest(w, "invalid sensor ID")
		return
	}

	limit, err := parseHistoryLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	since, err := parseSinceParam(r.URL.Query().Get("since"))
	if err != nil {
		writeBadRequest(w, "invalid since timestamp")
		return
	}

	if _, err := s.registry.GetSensor(ctx, sensorID); err != nil {
		if errors.Is(err, sensor.ErrSensorNotFound) {
			writeNotFound(w, "sensor not found")
			return
		}
		writeInternalError(w, "failed to get sensor")
		return
	}

	if s.history == nil {
		writeUnavailable(w, "reading history unavailable")
		return
	}

	entries, err := s.history.History(ctx, sensorID, limit, since)
	if err != nil {
		writeInternalError(w, "failed to load reading history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sensor_id": sensorID,
		"history":   entries,
		"count":     len(entries),
	})
}

// handleSensorMetrics proxies a PromQL range query for a sensor's series.
//
// Query parameters:
//   - start, end: RFC3339 or Unix timestamps (default: the last hour)
//   - step: Prometheus duration (default 1m)
func (s *Server) handleSensorMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sensorID := chi.URLParam(r, "id")
	if sensorID == "" || len(sensorID) > maxQueryParamLen {
		writeBadRequest(w, "invalid sensor ID")
		return
	}

	start, end, step, err := parseMetricsRangeParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if _, err := s.registry.GetSensor(ctx, sensorID); err != nil {
		if errors.Is(err, sensor.ErrSensorNotFound) {
			writeNotFound(w, "sensor not found")
			return
		}
		writeInternalError(w, "failed to get sensor")
		return
	}

	if s.tsdb == nil || !s.tsdb.IsConnected() {
		writeUnavailable(w, "time-series database unavailable")
		return
	}

	resp, err := s.tsdb.QueryRange(ctx, tsdb.ReadingSeries(sensorID), start, end, step)
	if err != nil {
		writeUnavailable(w, "time-series database unavailable")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseHistoryLimit parses the limit query parameter with bounds enforcement.
func parseHistoryLimit(raw string) (int, error) {
	if raw == "" {
		return defaultHistoryLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit")
	}
	if limit > maxHistoryLimit {
		return 0, fmt.Errorf("limit exceeds maximum")
	}

	return limit, nil
}

// parseSinceParam parses the since parameter as RFC3339/RFC3339Nano.
func parseSinceParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}

	return parseRFC3339(raw)
}

// parseMetricsRangeParams parses start, end, and step parameters with defaults.
func parseMetricsRangeParams(r *http.Request) (time.Time, time.Time, time.Duration, error) {
	now := time.Now().UTC()
	start, err := parseTimeParam(r.URL.Query().Get("start"), now.Add(-defaultMetricsRange))
	if err != nil {
		return time.Time{}, time.Time{}, 0, fmt.Errorf("invalid start timestamp")
	}

	end, err := parseTimeParam(r.URL.Query().Get("end"), now)
	if err != nil {
		return time.Time{}, time.Time{}, 0, fmt.Errorf("invalid end timestamp")
	}

	step, err := parseStepParam(r.URL.Query().Get("step"))
	if err != nil || step <= 0 {
		return time.Time{}, time.Time{}, 0, fmt.Errorf("invalid step")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, 0, fmt.Errorf("end must be after start")
	}

	return start, end, step, nil
}

// parseTimeParam parses an ISO8601 or Unix timestamp, with a fallback default.
func parseTimeParam(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}

	if parsed, err := parseRFC3339(raw); err == nil {
		return parsed, nil
	}

	parsed, err := parseUnixTimestamp(raw)
	if err != nil {
		return time.Time{}, err
	}

	return parsed, nil
}

// parseRFC3339 parses a timestamp in RFC3339 or RFC3339Nano format.
func parseRFC3339(raw string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return parsed.UTC(), nil
	}

	parsed, err = time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}

	return parsed.UTC(), nil
}

// parseUnixTimestamp parses a Unix timestamp string into time.Time.
func parseUnixTimestamp(raw string) (time.Time, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, err
	}

	seconds, fraction := math.Modf(value)
	return time.Unix(int64(seconds), int64(fraction*float64(time.Second))).UTC(), nil
}

// parseStepParam parses a Prometheus duration string into time.Duration.
func parseStepParam(raw string) (time.Duration, error) {
	if raw == "" {
		return defaultMetricsStep, nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		return parsed, nil
	}

	return parseExtendedDuration(raw)
}

// parseExtendedDuration handles day/week/year suffixes not supported by time.ParseDuration.
func parseExtendedDuration(raw string) (time.Duration, error) {
	if len(raw) < 2 {
		return 0, fmt.Errorf("invalid duration")
	}

	number := raw[:len(raw)-1]
	unit := raw[len(raw)-1]

	multiplier, ok := map[byte]time.Duration{
		'd': 24 * time.Hour,
		'w': 7 * 24 * time.Hour,
		'y': 365 * 24 * time.Hour,
	}[unit]
	if !ok {
		return 0, fmt.Errorf("invalid duration")
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration")
	}
	if value <= 0 {
		return 0, fmt.Errorf("invalid duration")
	}

	return time.Duration(value * float64(multiplier)), nil
}
