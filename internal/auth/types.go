package auth

import "time"

// Roles carried inside token claims. Administrators authenticate against
// the delegated PulsePoint directory; agents are local operators and
// registered scanning devices.
const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

// Operator is a locally stored field-operator credential record.
// IsActive follows the legacy schema: 0 disabled, 1 enabled.
type Operator struct {
	ID                int64  `json:"id"`
	CustomerID        int64  `json:"customer_id"`
	Username          string `json:"username"`
	PasswordHash      string `json:"-"`
	IsPasswordRequest bool   `json:"is_password_request"`
	IsActive          int    `json:"is_active"`
}

// Device links an opaque device identifier to a customer. A device id may
// appear under several customers, but the (device_id, customer_id) pair is
// unique.
type Device struct {
	ID         int64  `json:"agents_id"`
	DeviceID   string `json:"device_id"`
	CustomerID int64  `json:"customer_id"`
}

// APIKey is the per-customer key used by the external export collaborator.
// At most one key exists per customer.
type APIKey struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Key        string    `json:"api_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// Client carries the display name shown for a customer on the dashboard.
type Client struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"clientname"`
}
