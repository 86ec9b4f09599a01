package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"scanandgo.org/internal/audit"
	"scanandgo.org/internal/auth"
)

type registerDeviceRequest struct {
	DeviceID string `json:"device_id"`
}

// handleDevicesCollection lists the caller's registered scanning devices.
func (a *API) handleDevicesCollection(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		devices, err := a.auth.ListDevices(r.Context(), claims.CustomerID)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		if devices == nil {
			devices = []auth.Device{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"agents":  devices,
		})
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

// handleDeviceResource serves /api/agents/register and /api/agents/{id}.
func (a *API) handleDeviceResource(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/agents/")
	if path == "register" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.registerDevice(w, r, claims)
		return
	}

	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodDelete:
		a.deleteDevice(w, r, claims, id)
	default:
		methodNotAllowed(w, r, http.MethodDelete)
	}
}

func (a *API) registerDevice(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	var req registerDeviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	dev, err := a.auth.RegisterDevice(r.Context(), claims.CustomerID, req.DeviceID)
	if err != nil {
		if errors.Is(err, auth.ErrConflict) {
			writeError(w, r, http.StatusBadRequest, "Device ID is already registered for this customer")
			return
		}
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.device.registered", map[string]any{
		"device_id":   dev.DeviceID,
		"customer_id": dev.CustomerID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Mobile device registered successfully",
		"data":    dev,
	})
}

func (a *API) deleteDevice(w http.ResponseWriter, r *http.Request, claims auth.Claims, id int64) {
	// The delete is keyed by the caller's own customer id, so a foreign
	// device id simply comes back not-found.
	if err := a.auth.RemoveDevice(r.Context(), id, claims.CustomerID); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Device not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.device.removed", map[string]any{
		"agents_id": id,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Mobile device removed successfully",
	})
}
