package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Operators() OperatorStore { return &operatorStore{db: s.db} }
func (s *PGStore) Devices() DeviceStore     { return &deviceStore{db: s.db} }
func (s *PGStore) APIKeys() APIKeyStore     { return &apiKeyStore{db: s.db} }
func (s *PGStore) Clients() ClientStore     { return &clientStore{db: s.db} }

// Operator store -----------------------------------------------------------
type operatorStore struct{ db *sql.DB }

func (s *operatorStore) Create(ctx context.Context, op *Operator) error {
	err := s.db.QueryRowContext(ctx,
		`insert into operators(customer_id, username, password, is_active)
		 values($1,$2,$3,$4) returning id`,
		op.CustomerID, op.Username, op.PasswordHash, op.IsActive,
	).Scan(&op.ID)
	if err != nil && isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *operatorStore) FindByUsername(ctx context.Context, username string) (*Operator, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, customer_id, username, password,
		        coalesce(is_password_request, 0), coalesce(is_active, 0)
		 from operators where username=$1`, username)
	var (
		op      Operator
		pending int
	)
	if err := row.Scan(&op.ID, &op.CustomerID, &op.Username, &op.PasswordHash, &pending, &op.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	op.IsPasswordRequest = pending == 1
	return &op, nil
}

func (s *operatorStore) SetPasswordResetRequested(ctx context.Context, id int64, requested bool) error {
	flag := 0
	if requested {
		flag = 1
	}
	res, err := s.db.ExecContext(ctx,
		`update operators set is_password_request=$1 where id=$2`, flag, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *operatorStore) SetPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update operators set password=$1, is_password_request=0 where id=$2`, passwordHash, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Device store -------------------------------------------------------------
type deviceStore struct{ db *sql.DB }

func (s *deviceStore) Create(ctx context.Context, d *Device) error {
	err := s.db.QueryRowContext(ctx,
		`insert into agents(device_id, customer_id) values($1,$2) returning agents_id`,
		d.DeviceID, d.CustomerID,
	).Scan(&d.ID)
	if err != nil && isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *deviceStore) FindByDeviceID(ctx context.Context, deviceID string) (*Device, error) {
	row := s.db.QueryRowContext(ctx,
		`select agents_id, device_id, customer_id from agents
		 where device_id=$1 order by agents_id limit 1`, deviceID)
	return scanDevice(row)
}

func (s *deviceStore) FindForCustomer(ctx context.Context, deviceID string, customerID int64) (*Device, error) {
	row := s.db.QueryRowContext(ctx,
		`select agents_id, device_id, customer_id from agents
		 where device_id=$1 and customer_id=$2`, deviceID, customerID)
	return scanDevice(row)
}

func (s *deviceStore) ListByCustomer(ctx context.Context, customerID int64) ([]Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`select agents_id, device_id, customer_id from agents
		 where customer_id=$1 order by agents_id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.ID, &d.DeviceID, &d.CustomerID); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (s *deviceStore) Delete(ctx context.Context, id, customerID int64) error {
	res, err := s.db.ExecContext(ctx,
		`delete from agents where agents_id=$1 and customer_id=$2`, id, customerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func scanDevice(row *sql.Row) (*Device, error) {
	var d Device
	if err := row.Scan(&d.ID, &d.DeviceID, &d.CustomerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// APIKey store -------------------------------------------------------------
type apiKeyStore struct{ db *sql.DB }

func (s *apiKeyStore) FindByCustomer(ctx context.Context, customerID int64) (*APIKey, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, customer_id, api_key, created_at from apikey where customer_id=$1`, customerID)
	var k APIKey
	if err := row.Scan(&k.ID, &k.CustomerID, &k.Key, &k.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}

// Replace deletes any existing key for the customer and inserts the new one
// in a single transaction, so at most one key is ever active.
func (s *apiKeyStore) Replace(ctx context.Context, customerID int64, key string) (*APIKey, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `delete from apikey where customer_id=$1`, customerID); err != nil {
		return nil, err
	}
	var k APIKey
	err = tx.QueryRowContext(ctx,
		`insert into apikey(customer_id, api_key, created_at) values($1,$2,now())
		 returning id, customer_id, api_key, created_at`,
		customerID, key,
	).Scan(&k.ID, &k.CustomerID, &k.Key, &k.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &k, nil
}

func (s *apiKeyStore) Delete(ctx context.Context, customerID int64) error {
	res, err := s.db.ExecContext(ctx, `delete from apikey where customer_id=$1`, customerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Client store -------------------------------------------------------------
type clientStore struct{ db *sql.DB }

func (s *clientStore) FindByCustomer(ctx context.Context, customerID int64) (*Client, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, customer_id, clientname from clients where customer_id=$1`, customerID)
	var c Client
	if err := row.Scan(&c.ID, &c.CustomerID, &c.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *clientStore) Upsert(ctx context.Context, customerID int64, name string) (*Client, error) {
	var c Client
	err := s.db.QueryRowContext(ctx,
		`insert into clients(customer_id, clientname) values($1,$2)
		 on conflict (customer_id) do update set clientname=excluded.clientname
		 returning id, customer_id, clientname`,
		customerID, name,
	).Scan(&c.ID, &c.CustomerID, &c.Name)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// helpers ------------------------------------------------------------------

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// pgx surfaces PostgreSQL errors with the SQLSTATE embedded; 23505 is
	// unique_violation. String matching keeps the stdlib driver interface.
	return err != nil && strings.Contains(err.Error(), "23505")
}
