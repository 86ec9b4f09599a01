package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"scanandgo.org/internal/auth"
	"scanandgo.org/internal/obs"
	"scanandgo.org/internal/pulsepoint"
)

// ReadyProbe reports readiness, pinging the DB when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// AdminAuthenticator is the delegated sign-in contract, satisfied by
// pulsepoint.Client and substituted in tests.
type AdminAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (*pulsepoint.User, error)
	CheckEmail(ctx context.Context, email string) (pulsepoint.DirectoryCheck, error)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	auth  *auth.Service
	admin AdminAuthenticator

	corsOrigins []string
	rateBurst   int
	ratePerSec  int
}

// Option configures the API.
type Option func(*API)

// WithCORSOrigins sets the allowed browser origins.
func WithCORSOrigins(origins []string) Option {
	return func(a *API) { a.corsOrigins = origins }
}

// WithRateLimit sets the per-IP token bucket parameters.
func WithRateLimit(burst, perSec int) Option {
	return func(a *API) {
		if burst > 0 {
			a.rateBurst = burst
		}
		if perSec > 0 {
			a.ratePerSec = perSec
		}
	}
}

func New(rp ReadyProbe, version string, svc *auth.Service, admin AdminAuthenticator, opts ...Option) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		auth:       svc,
		admin:      admin,
		rateBurst:  20,
		ratePerSec: 10,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	// authentication
	a.mux.HandleFunc("/api/signin", a.handleSignIn)
	a.mux.HandleFunc("/api/user/signin", a.handleDeviceSignIn)
	a.mux.HandleFunc("/api/verify-token", a.handleVerifyToken)
	a.mux.HandleFunc("/api/register-user", a.handleRegisterUser)
	a.mux.HandleFunc("/api/password-reset-request", a.handlePasswordResetRequest)
	a.mux.Handle("/api/password-reset", RequireRole(auth.RoleAdmin)(http.HandlerFunc(a.handlePasswordReset)))
	a.mux.HandleFunc("/api/check-username", a.handleCheckUsername)
	a.mux.HandleFunc("/api/check-admin-email", a.handleCheckAdminEmail)

	// authenticated surface
	a.mux.HandleFunc("/api/client", a.handleClient)
	a.mux.HandleFunc("/api/agents", a.handleDevicesCollection)
	a.mux.HandleFunc("/api/agents/", a.handleDeviceResource)
	a.mux.HandleFunc("/api/admin/get-apikey", a.handleGetAPIKey)
	a.mux.HandleFunc("/api/admin/generate-apikey", a.handleGenerateAPIKey)
	a.mux.HandleFunc("/api/admin/delete-apikey", a.handleDeleteAPIKey)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h, a.corsOrigins)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "scanandgo-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.readyProbe.Check(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}
