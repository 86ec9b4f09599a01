package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SignInDevice authenticates a mobile device by its opaque identifier.
// There is no rejection path: an unseen identifier auto-provisions a
// registration under DefaultDeviceCustomerID so field devices work
// out-of-box. Returns the signed token, the minted claims and whether a
// new registration was created.
func (s *Service) SignInDevice(ctx context.Context, deviceID string) (string, Claims, bool, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return "", Claims{}, false, fmt.Errorf("%w: device_id is required", ErrInvalidInput)
	}

	provisioned := false
	dev, err := s.store.Devices().FindByDeviceID(ctx, deviceID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return "", Claims{}, false, err
		}
		dev = &Device{DeviceID: deviceID, CustomerID: DefaultDeviceCustomerID}
		if err := s.store.Devices().Create(ctx, dev); err != nil {
			return "", Claims{}, false, err
		}
		provisioned = true
	}

	claims := Claims{
		CustomerID: dev.CustomerID,
		UserID:     dev.ID,
		Username:   fmt.Sprintf("device_%d", dev.ID),
		Role:       RoleAgent,
		IsActive:   true,
	}
	token, err := s.codec.Encode(claims)
	if err != nil {
		return "", Claims{}, false, err
	}
	return token, claims, provisioned, nil
}

// RegisterDevice explicitly binds a device identifier to the caller's
// customer, used by the dashboard's device-management screen.
func (s *Service) RegisterDevice(ctx context.Context, customerID int64, deviceID string) (*Device, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, fmt.Errorf("%w: device_id is required", ErrInvalidInput)
	}
	if _, err := s.store.Devices().FindForCustomer(ctx, deviceID, customerID); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	dev := &Device{DeviceID: deviceID, CustomerID: customerID}
	if err := s.store.Devices().Create(ctx, dev); err != nil {
		return nil, err
	}
	return dev, nil
}

// ListDevices returns the devices registered to a customer.
func (s *Service) ListDevices(ctx context.Context, customerID int64) ([]Device, error) {
	return s.store.Devices().ListByCustomer(ctx, customerID)
}

// RemoveDevice deletes a registration. The customer id restricts the
// delete to the caller's own tenant.
func (s *Service) RemoveDevice(ctx context.Context, id, customerID int64) error {
	return s.store.Devices().Delete(ctx, id, customerID)
}
