package httpapi

import (
	"errors"
	"net/http"
	"time"

	"scanandgo.org/internal/audit"
	"scanandgo.org/internal/auth"
)

type apiKeyResponse struct {
	Success   bool    `json:"success"`
	Exists    bool    `json:"exists"`
	APIKey    *string `json:"apiKey"`
	CreatedAt *string `json:"created_at"`
}

// handleGetAPIKey returns the caller's external-API key if one exists.
func (a *API) handleGetAPIKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	key, err := a.auth.APIKey(r.Context(), claims.CustomerID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeJSON(w, http.StatusOK, apiKeyResponse{Success: true})
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, keyResponse(key))
}

// handleGenerateAPIKey mints a fresh key, invalidating any prior one.
func (a *API) handleGenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	key, err := a.auth.GenerateAPIKey(r.Context(), claims.CustomerID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.apikey.generated", map[string]any{
		"customer_id": claims.CustomerID,
	})
	writeJSON(w, http.StatusOK, keyResponse(key))
}

func (a *API) handleDeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	if err := a.auth.DeleteAPIKey(r.Context(), claims.CustomerID); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "API key not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.apikey.deleted", map[string]any{
		"customer_id": claims.CustomerID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "API key deleted successfully",
	})
}

func keyResponse(key *auth.APIKey) apiKeyResponse {
	created := key.CreatedAt.UTC().Format(time.RFC3339)
	return apiKeyResponse{
		Success:   true,
		Exists:    true,
		APIKey:    &key.Key,
		CreatedAt: &created,
	}
}
