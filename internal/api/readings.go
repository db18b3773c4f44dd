package api

import (
	"net/http"
)

// handleReadings returns the latest normalised reading per tracked sensor.
//
// Query parameters:
//   - sensor_id: return only the named sensor's latest reading
func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		writeUnavailable(w, "reading pipeline unavailable")
		return
	}

	if sensorID := r.URL.Query().Get("sensor_id"); sensorID != "" {
		if len(sensorID) > maxQueryParamLen {
			writeBadRequest(w, "sensor_id exceeds maximum length")
			return
		}
		rec, ok := s.pipeline.Latest(sensorID)
		if !ok {
			writeNotFound(w, "no reading for sensor")
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}

	readings := s.pipeline.LatestAll()
	writeJSON(w, http.StatusOK, map[string]any{
		"readings": readings,
		"count":    len(readings),
	})
}
