package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"scanandgo.org/internal/audit"
	"scanandgo.org/internal/auth"
	"scanandgo.org/internal/pulsepoint"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleAuthError maps the auth/pulsepoint error taxonomy onto status
// codes: credential rejections are 401/403 with a specific reason,
// provider outages are 503, anything else is internal.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, strings.TrimPrefix(err.Error(), "auth: invalid input: "))
	case errors.Is(err, auth.ErrNotRegistered):
		writeError(w, r, http.StatusUnauthorized, "This account is not registered")
	case errors.Is(err, auth.ErrIncorrectPassword):
		writeError(w, r, http.StatusUnauthorized, "Incorrect password")
	case errors.Is(err, auth.ErrInactive):
		writeError(w, r, http.StatusForbidden, "Account is not active")
	case errors.Is(err, auth.ErrAccessDenied):
		writeError(w, r, http.StatusForbidden, "Access denied to this customer's data")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, "already exists")
	case errors.Is(err, pulsepoint.ErrRejected):
		writeError(w, r, http.StatusUnauthorized, "Invalid credentials or account not found")
	case errors.Is(err, pulsepoint.ErrUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "External authentication service unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
