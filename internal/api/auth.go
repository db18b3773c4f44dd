package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/clear-gauge-core/internal/auth"
)

// defaultTokenTTLMinutes applies when security.jwt.access_token_ttl is unset.
const defaultTokenTTLMinutes = 15

// tokenRequest is the request body for POST /auth/token.
type tokenRequest struct {
	AdminKey string `json:"admin_key"`

	// Role of the issued token: "admin" (default) or "viewer". The admin
	// key holder can mint read-only tokens for dashboards.
	Role string `json:"role,omitempty"`

	// Subject labels the token holder in logs. Defaults to "hub-{role}".
	Subject string `json:"subject,omitempty"`
}

// tokenResponse is the response body for POST /auth/token.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Role        string `json:"role"`
}

// handleToken exchanges the configured admin key for a bearer token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if !auth.VerifyAdminKey(req.AdminKey, s.secCfg.AdminKey) {
		writeUnauthorized(w, "invalid admin key")
		return
	}

	role := auth.RoleAdmin
	if req.Role != "" {
		role = auth.Role(req.Role)
		if !auth.IsValidRole(role) {
			writeValidationError(w, "role must be \"admin\" or \"viewer\"")
			return
		}
	}

	subject := req.Subject
	if subject == "" {
		subject = "hub-" + string(role)
	}

	ttl := s.secCfg.JWT.AccessTokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTLMinutes
	}

	token, err := auth.GenerateToken(subject, role, s.secCfg.JWT.Secret, ttl)
	if err != nil {
		s.logger.Error("failed to generate token", "error", err)
		writeInternalError(w, "failed to generate token")
		return
	}

	s.logger.Info("token issued", "subject", subject, "role", role, "ttl_minutes", ttl)

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   ttl * 60, // seconds
		Role:        string(role),
	})
}
