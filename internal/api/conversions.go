package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/clear-gauge-core/internal/units"
)

// QuantityUnits lists the valid units for one measured quantity.
type QuantityUnits struct {
	Quantity units.Quantity `json:"quantity"`
	Units    []units.Unit   `json:"units"`
}

// handleUnits returns every supported quantity with its valid units,
// in a stable order. Dashboards use this to build unit pickers.
func (s *Server) handleUnits(w http.ResponseWriter, _ *http.Request) {
	quantities := units.AllQuantities()
	out := make([]QuantityUnits, 0, len(quantities))
	for _, q := range quantities {
		out = append(out, QuantityUnits{Quantity: q, Units: units.UnitsFor(q)})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"quantities": out,
		"count":      len(out),
	})
}

// convertRequest is the request body for POST /convert.
type convertRequest struct {
	Quantity units.Quantity `json:"quantity"`
	Value    float64        `json:"value"`
	From     units.Unit     `json:"from"`
	To       units.Unit     `json:"to"`
}

// convertResponse echoes the request alongside the converted value.
type convertResponse struct {
	Quantity units.Quantity `json:"quantity"`
	Value    float64        `json:"value"`
	From     units.Unit     `json:"from"`
	To       units.Unit     `json:"to"`
	Result   float64        `json:"result"`
}

// handleConvert converts a value between two units of the same quantity.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Quantity == "" || req.From == "" || req.To == "" {
		writeValidationError(w, "quantity, from and to are required")
		return
	}

	result, err := units.Convert(req.Quantity, req.Value, req.From, req.To)
	if err != nil {
		if isUnitsValidationError(err) {
			writeValidationError(w, err.Error())
			return
		}
		writeInternalError(w, "conversion failed")
		return
	}

	writeJSON(w, http.StatusOK, convertResponse{
		Quantity: req.Quantity,
		Value:    req.Value,
		From:     req.From,
		To:       req.To,
		Result:   result,
	})
}

// dewpointRequest is the request body for POST /dewpoint.
type dewpointRequest struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`

	// Unit of the supplied temperature; the dewpoint is returned in the
	// same unit. Defaults to Celsius.
	Unit units.Unit `json:"unit,omitempty"`
}

// dewpointResponse is the response body for POST /dewpoint.
type dewpointResponse struct {
	Dewpoint    float64    `json:"dewpoint"`
	Unit        units.Unit `json:"unit"`
	Temperature float64    `json:"temperature"`
	Humidity    float64    `json:"humidity"`
}

// handleDewPoint computes the dewpoint for a temperature and relative humidity.
func (s *Server) handleDewPoint(w http.ResponseWriter, r *http.Request) {
	var req dewpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Unit == "" {
		req.Unit = units.Celsius
	}

	dewpoint, err := units.DewPoint(req.Temperature, req.Humidity, req.Unit)
	if err != nil {
		if isUnitsValidationError(err) {
			writeValidationError(w, err.Error())
			return
		}
		writeInternalError(w, "dewpoint calculation failed")
		return
	}

	writeJSON(w, http.StatusOK, dewpointResponse{
		Dewpoint:    dewpoint,
		Unit:        req.Unit,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
	})
}

// isUnitsValidationError reports whether an error stems from invalid caller
// input rather than an internal fault. The units package wraps sentinel
// errors, so every case is an errors.Is check.
func isUnitsValidationError(err error) bool {
	return errors.Is(err, units.ErrUnknownQuantity) ||
		errors.Is(err, units.ErrUnknownUnit) ||
		errors.Is(err, units.ErrNotFinite) ||
		errors.Is(err, units.ErrHumidityRange)
}
