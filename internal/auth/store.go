package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
// Every query an implementation runs must filter by customer id except the
// two global lookups the sign-in paths depend on: operator usernames are
// unique across customers, and device identifiers are resolved globally on
// first contact.
type Store interface {
	Operators() OperatorStore
	Devices() DeviceStore
	APIKeys() APIKeyStore
	Clients() ClientStore
}

// OperatorStore manages locally stored field-operator credentials.
type OperatorStore interface {
	Create(ctx context.Context, op *Operator) error
	FindByUsername(ctx context.Context, username string) (*Operator, error)
	SetPasswordResetRequested(ctx context.Context, id int64, requested bool) error
	SetPassword(ctx context.Context, id int64, passwordHash string) error
}

// DeviceStore manages device registrations.
type DeviceStore interface {
	Create(ctx context.Context, d *Device) error
	FindByDeviceID(ctx context.Context, deviceID string) (*Device, error)
	FindForCustomer(ctx context.Context, deviceID string, customerID int64) (*Device, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Device, error)
	Delete(ctx context.Context, id, customerID int64) error
}

// APIKeyStore manages the single external-API key per customer.
type APIKeyStore interface {
	FindByCustomer(ctx context.Context, customerID int64) (*APIKey, error)
	Replace(ctx context.Context, customerID int64, key string) (*APIKey, error)
	Delete(ctx context.Context, customerID int64) error
}

// ClientStore manages customer display names.
type ClientStore interface {
	FindByCustomer(ctx context.Context, customerID int64) (*Client, error)
	Upsert(ctx context.Context, customerID int64, name string) (*Client, error)
}
