package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"scanandgo.org/internal/audit"
	"scanandgo.org/internal/auth"
	"scanandgo.org/internal/obs"
	"scanandgo.org/internal/pulsepoint"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type signInUser struct {
	CustomerID int64  `json:"customerId"`
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role"`
}

type signInResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    signInUser `json:"user"`
}

// handleSignIn serves credential sign-in for both roles: administrators
// are delegated to PulsePoint, agents are checked against local
// credentials. Malformed input is rejected before any authentication
// logic runs.
func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	switch req.Role {
	case auth.RoleAdmin:
		a.signInAdmin(w, r, req)
	case auth.RoleAgent:
		a.signInAgent(w, r, req)
	default:
		writeError(w, r, http.StatusBadRequest, "Invalid role specified")
	}
}

func (a *API) signInAdmin(w http.ResponseWriter, r *http.Request, req signInRequest) {
	user, err := a.admin.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		result := "rejected"
		if errors.Is(err, pulsepoint.ErrUnavailable) {
			result = "unavailable"
		}
		obs.CountLogin(auth.RoleAdmin, result)
		_ = audit.LogEvent(r.Context(), "auth.signin.failed", map[string]any{
			"username": req.Email,
			"role":     auth.RoleAdmin,
			"reason":   result,
		})
		handleAuthError(w, r, err)
		return
	}

	email := user.Email
	if email == "" {
		email = req.Email
	}
	claims := auth.Claims{
		CustomerID: user.ID,
		UserID:     user.ID,
		Username:   email,
		Email:      email,
		Role:       auth.RoleAdmin,
		IsActive:   true,
	}
	token, err := a.auth.Codec().Encode(claims)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	obs.CountLogin(auth.RoleAdmin, "success")
	_ = audit.LogEvent(r.Context(), "auth.signin.success", map[string]any{
		"username": email,
		"role":     auth.RoleAdmin,
	})

	writeJSON(w, http.StatusOK, signInResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
		User: signInUser{
			CustomerID: claims.CustomerID,
			ID:         claims.UserID,
			Username:   email,
			Email:      email,
			Role:       auth.RoleAdmin,
		},
	})
}

func (a *API) signInAgent(w http.ResponseWriter, r *http.Request, req signInRequest) {
	token, claims, err := a.auth.SignInOperator(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.CountLogin(auth.RoleAgent, "rejected")
		_ = audit.LogEvent(r.Context(), "auth.signin.failed", map[string]any{
			"username": req.Email,
			"role":     auth.RoleAgent,
			"reason":   err.Error(),
		})
		handleAuthError(w, r, err)
		return
	}

	obs.CountLogin(auth.RoleAgent, "success")
	_ = audit.LogEvent(r.Context(), "auth.signin.success", map[string]any{
		"username": claims.Username,
		"role":     auth.RoleAgent,
	})

	writeJSON(w, http.StatusOK, signInResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
		User: signInUser{
			CustomerID: claims.CustomerID,
			ID:         claims.UserID,
			Username:   claims.Username,
			Role:       auth.RoleAgent,
		},
	})
}

type deviceSignInRequest struct {
	DeviceID string `json:"device_id"`
}

type deviceSignInResponse struct {
	AccessToken string `json:"access_token"`
	Message     string `json:"message"`
	Status      int    `json:"status"`
	CustomerID  int64  `json:"customer_id"`
}

// handleDeviceSignIn serves the scanning app's device-id-only sign-in.
// Unknown devices are auto-provisioned; there is no rejection path.
func (a *API) handleDeviceSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req deviceSignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, claims, provisioned, err := a.auth.SignInDevice(r.Context(), req.DeviceID)
	if err != nil {
		obs.CountLogin("device", "error")
		handleAuthError(w, r, err)
		return
	}

	obs.CountLogin("device", "success")
	if provisioned {
		_ = audit.LogEvent(r.Context(), "auth.device.provisioned", map[string]any{
			"device_id":   req.DeviceID,
			"customer_id": claims.CustomerID,
		})
	}

	writeJSON(w, http.StatusOK, deviceSignInResponse{
		AccessToken: token,
		Message:     "Login successful",
		Status:      1,
		CustomerID:  claims.CustomerID,
	})
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

type verifyTokenResponse struct {
	Valid   bool         `json:"valid"`
	Payload *auth.Claims `json:"payload,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// handleVerifyToken answers token validity checks from the dashboard. The
// outcome is always 200; validity travels in the body.
func (a *API) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req verifyTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Token == "" {
		writeJSON(w, http.StatusOK, verifyTokenResponse{Valid: false, Error: "Token is required"})
		return
	}

	claims, err := a.auth.Codec().Decode(req.Token)
	if err != nil {
		writeJSON(w, http.StatusOK, verifyTokenResponse{Valid: false, Error: "Invalid token"})
		return
	}
	writeJSON(w, http.StatusOK, verifyTokenResponse{Valid: true, Payload: claims})
}

type registerUserRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	CustomerID int64  `json:"customer_id"`
}

func (a *API) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	op, err := a.auth.RegisterOperator(r.Context(), req.CustomerID, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrConflict) {
			writeError(w, r, http.StatusConflict, "Username already exists")
			return
		}
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.operator.registered", map[string]any{
		"username":    op.Username,
		"customer_id": op.CustomerID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User registered successfully",
	})
}

type passwordResetRequestBody struct {
	Username string `json:"username"`
}

func (a *API) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req passwordResetRequestBody
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.auth.RequestPasswordReset(r.Context(), req.Username); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "User not found")
			return
		}
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.password_reset.requested", map[string]any{
		"username": req.Username,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password reset request submitted. Please contact your administrator.",
	})
}

type passwordResetBody struct {
	Username    string `json:"username"`
	NewPassword string `json:"new_password"`
}

// handlePasswordReset lets an administrator set a new password for an
// operator and clears the pending-reset flag.
func (a *API) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req passwordResetBody
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.auth.ResetPassword(r.Context(), req.Username, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "User not found")
			return
		}
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.password_reset.completed", map[string]any{
		"username": req.Username,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password reset successfully",
	})
}

type checkUsernameRequest struct {
	Username string `json:"username"`
}

func (a *API) handleCheckUsername(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req checkUsernameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	exists, err := a.auth.UsernameExists(r.Context(), req.Username)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available": !exists,
		"exists":    exists,
	})
}

type checkAdminEmailRequest struct {
	Email string `json:"email"`
}

func (a *API) handleCheckAdminEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req checkAdminEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, r, http.StatusBadRequest, "valid email is required")
		return
	}

	check, err := a.admin.CheckEmail(r.Context(), req.Email)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}
