package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/nerrad567/clear-gauge-core/internal/sensor"
)

// maxCatalogSize caps catalog upload size at 1MB.
const maxCatalogSize = 1 << 20

// readCatalogBody reads a YAML catalog document from the request body.
func readCatalogBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCatalogSize))
	if err != nil {
		writeBadRequest(w, "failed to read request body")
		return nil, false
	}
	if len(body) == 0 {
		writeBadRequest(w, "empty catalog document")
		return nil, false
	}
	return body, true
}

// handleCatalogParse validates a YAML catalog document without applying it.
func (s *Server) handleCatalogParse(w http.ResponseWriter, r *http.Request) {
	body, ok := readCatalogBody(w, r)
	if !ok {
		return
	}

	catalog, err := sensor.ParseCatalog(body)
	if err != nil {
		if errors.Is(err, sensor.ErrInvalidCatalog) {
			writeValidationError(w, err.Error())
			return
		}
		writeInternalError(w, "failed to parse catalog")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":   true,
		"count":   len(catalog.Sensors),
		"sensors": catalog.Sensors,
	})
}

// handleCatalogImport applies a YAML catalog document to the registry.
//
// Query parameters:
//   - dry_run: when "true", report what would change without persisting
func (s *Server) handleCatalogImport(w http.ResponseWriter, r *http.Request) {
	body, ok := readCatalogBody(w, r)
	if !ok {
		return
	}

	catalog, err := sensor.ParseCatalog(body)
	if err != nil {
		if errors.Is(err, sensor.ErrInvalidCatalog) {
			writeValidationError(w, err.Error())
			return
		}
		writeInternalError(w, "failed to parse catalog")
		return
	}

	dryRun := r.URL.Query().Get("dry_run") == "true"

	result, err := sensor.Import(r.Context(), s.registry, catalog, dryRun)
	if err != nil {
		writeInternalError(w, "failed to import catalog")
		return
	}

	s.logger.Info("catalog import completed",
		"dry_run", dryRun,
		"created", result.Results.SensorsCreated,
		"updated", result.Results.SensorsUpdated,
		"skipped", result.Results.SensorsSkipped,
		"errors", len(result.Errors))

	writeJSON(w, http.StatusOK, result)
}
