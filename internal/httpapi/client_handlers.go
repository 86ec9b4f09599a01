package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"scanandgo.org/internal/auth"
)

type updateClientRequest struct {
	ClientName string `json:"clientname"`
}

// handleClient serves the customer display name: read auto-creates a
// default, update upserts. Both operate strictly on the caller's own
// tenant.
func (a *API) handleClient(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getClient(w, r, claims)
	case http.MethodPut:
		a.updateClient(w, r, claims)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) getClient(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	client, err := a.auth.ClientInfo(r.Context(), claims.CustomerID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if !guardCustomer(w, r, claims, client.CustomerID) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"clientname": client.Name,
	})
}

func (a *API) updateClient(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	var req updateClientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		name = defaultClientName(claims.CustomerID)
	}

	client, err := a.auth.UpdateClientName(r.Context(), claims.CustomerID, name)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Client name updated successfully",
		"clientname": client.Name,
	})
}

func defaultClientName(customerID int64) string {
	return fmt.Sprintf("Client_%d", customerID)
}
