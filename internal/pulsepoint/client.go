// Package pulsepoint authenticates administrators against the PulsePoint
// identity service. Admin credentials are never stored locally: the
// sign-in call is delegated, and a second directory call recovers the
// customer id, which the session endpoint does not return.
package pulsepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrRejected means the provider answered and declined the
	// credentials, or the directory had no entry for the signed-in user.
	// This is a normal wrong-credentials outcome, not a service failure.
	ErrRejected = errors.New("pulsepoint: authentication rejected")

	// ErrUnavailable means the provider could not be reached or timed
	// out. Callers surface it as a retryable 503, never as a 401.
	ErrUnavailable = errors.New("pulsepoint: service unavailable")
)

const defaultTimeout = 10 * time.Second

// Config is the process-wide PulsePoint configuration, fixed at startup.
// Username and Password are the service-level directory credentials,
// distinct from any end-user's.
type Config struct {
	BaseURL   string
	ProjectID int
	Username  string
	Password  string
	Timeout   time.Duration
}

// User is a directory entry. ID doubles as the customer id in token
// claims.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// DirectoryCheck is the result of an email existence probe.
type DirectoryCheck struct {
	Exists     bool  `json:"exists"`
	CustomerID int64 `json:"customerId,omitempty"`
}

// Client talks to the PulsePoint API over a shared, pooled HTTP client.
// It is safe for concurrent use; construct once at startup and Close on
// shutdown.
type Client struct {
	cfg  Config
	http *http.Client
}

// Option configures Client behavior.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client (used in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New constructs a Client with a bounded connection pool and timeout.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases pooled connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

type signinRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	ProjectID int    `json:"projectId"`
}

type signinResponse struct {
	Status int `json:"status"`
}

// Authenticate verifies admin credentials against the provider, then
// matches the username case-insensitively against the provider's user
// directory to recover the stable customer id. Wrong credentials and a
// missing directory entry both return ErrRejected; transport failures
// return ErrUnavailable.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*User, error) {
	body, err := json.Marshal(signinRequest{
		Username:  username,
		Password:  password,
		ProjectID: c.cfg.ProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal signin request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/api/user/project/signin", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var signin signinResponse
	if err := json.NewDecoder(resp.Body).Decode(&signin); err != nil {
		return nil, fmt.Errorf("%w: malformed signin response", ErrUnavailable)
	}
	if signin.Status != 1 {
		return nil, ErrRejected
	}

	users, err := c.listUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, username) {
			return &users[i], nil
		}
	}
	// Signed in but absent from the directory: no customer id can be
	// resolved, so the sign-in cannot proceed.
	return nil, ErrRejected
}

// CheckEmail probes the directory for an email and returns the matching
// customer id if present.
func (c *Client) CheckEmail(ctx context.Context, email string) (DirectoryCheck, error) {
	users, err := c.listUsers(ctx)
	if err != nil {
		return DirectoryCheck{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return DirectoryCheck{Exists: true, CustomerID: u.ID}, nil
		}
	}
	return DirectoryCheck{}, nil
}

// listUsers fetches the full user directory using the service credentials.
func (c *Client) listUsers(ctx context.Context) ([]User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/api/user/allusers", nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: directory returned %d", ErrUnavailable, resp.StatusCode)
	}

	// The directory endpoint returns either a bare array or {"data": [...]}.
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: malformed directory response", ErrUnavailable)
	}
	var users []User
	if err := json.Unmarshal(raw, &users); err == nil {
		return users, nil
	}
	var wrapped struct {
		Data []User `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: malformed directory response", ErrUnavailable)
	}
	return wrapped.Data, nil
}
