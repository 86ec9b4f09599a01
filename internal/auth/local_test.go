package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	codec, err := NewCodec("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	svc, err := NewService(NewPGStore(db), codec)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, mock, func() { db.Close() }
}

func operatorRows(id, customerID int64, username, hash string, isActive int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "customer_id", "username", "password", "is_password_request", "is_active"}).
		AddRow(id, customerID, username, hash, 0, isActive)
}

func TestSignInOperatorSuccess(t *testing.T) {
	svc, mock, done := newTestService(t)
	defer done()

	hash, err := HashPassword("secret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	mock.ExpectQuery("select id, customer_id, username, password").
		WithArgs("scanner01").
		WillReturnRows(operatorRows(7, 42, "scanner01", hash, 1))

	token, claims, err := svc.SignInOperator(context.Background(), "scanner01", "secret-pass")
	if err != nil {
		t.Fatalf("SignInOperator: %v", err)
	}
	if claims.CustomerID != 42 || claims.UserID != 7 || claims.Role != RoleAgent {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	decoded, err := svc.Codec().Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Username != "scanner01" || !decoded.IsActive {
		t.Fatalf("unexpected decoded claims: %+v", decoded)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSignInOperatorLegacyHash(t *testing.T) {
	svc, mock, done := newTestService(t)
	defer done()

	hash := GeneratePBKDF2Hash("legacy-pass", []byte("0123456789abcdef"), 29000)
	mock.ExpectQuery("select id, customer_id, username, password").
		WithArgs("oldtimer").
		WillReturnRows(operatorRows(3, 9, "oldtimer", hash, 1))

	if _, _, err := svc.SignInOperator(context.Background(), "oldtimer", "legacy-pass"); err != nil {
		t.Fatalf("SignInOperator with legacy hash: %v", err)
	}
}

func TestSignInOperatorUnknownUsername(t *testing.T) {
	svc, mock, done := newTestService(t)
	defer done()

	mock.ExpectQuery("select id, customer_id, username, password").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, _, err := svc.SignInOperator(context.Background(), "ghost", "whatever")
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestSignInOperatorInactiveBeforePassword(t *testing.T) {
	svc, mock, done := newTestService(t)
	defer done()

	hash, _ := HashPassword("right-pass")
	mock.ExpectQuery("select id, customer_id, username, password").
		WithArgs("dormant").
		WillReturnRows(operatorRows(5, 12, "dormant", hash, 0))

	// Even the correct password is rejected as inactive: the active check
	// runs before password verification.
	_, _, err := svc.SignInOperator(context.Background(), "dormant", "right-pass")
	if !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestSignInOperatorWrongPassword(t *testing.T) {
	svc, mock, done := newTestService(t)
	defer done()

	hash, _ := HashPassword("right-pass")
	mock.ExpectQuery("select id, customer_id, username, password").
		WithArgs("scanner01").
		WillReturnRows(operatorRows(7, 42, "scanner01", hash, 1))

	_, _, err := svc.SignInOperator(context.Background(), "scanner01", "wrong-pass")
	if !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("expected ErrIncorrectPassword, got %v", err)
	}
}

func TestSignInOperatorMissingFields(t *testing.T) {
	svc, _, done := newTestService(t)
	defer done()

	if _, _, err := svc.SignInOperator(context.Background(), "", "pass"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := svc.SignInOperator(context.Background(), "user", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegisterOperator(t *testing.T) {
	svc, mock, done := newTestService(t)
	defer done()

	mock.ExpectQuery("select id, customer_id, username, password").
		WithArgs("newagent").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("insert into operators").
		WithArgs(int64(42), "newagent", sqlmock.AnyArg(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	op, err := svc.RegisterOperator(context.Background(), 42, "newagent", "longenough")
	if err != nil {
		t.Fatalf("RegisterOperator: %v", err)
	}
	if op.ID != 11 || op.CustomerID != 42 || op.IsActive != 1 {
		t.Fatalf("unexpected operator: %+v", op)
	}
	if !VerifyPassword("longenough", op.PasswordHash) {
		t.Fatalf("stored hash does not verify")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegisterOperatorConflict(t *testing.T) {
	svc, mock, done := newTestService(t)
	defer done()

	hash, _ := HashPassword("whatever1")
	mock.ExpectQuery("select id, customer_id, username, password").
		WithArgs("taken").
		WillReturnRows(operatorRows(1, 1, "taken", hash, 1))

	if _, err := svc.RegisterOperator(context.Background(), 2, "taken", "longenough"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRegisterOperatorValidation(t *testing.T) {
	svc, _, done := newTestService(t)
	defer done()

	if _, err := svc.RegisterOperator(context.Background(), 1, "ab", "longenough"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short username, got %v", err)
	}
	if _, err := svc.RegisterOperator(context.Background(), 1, "agent", "short"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short password, got %v", err)
	}
	if _, err := svc.RegisterOperator(context.Background(), 0, "agent", "longenough"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing customer, got %v", err)
	}
}

func TestRequestPasswordReset(t *testing.T) {
	svc, mock, done := newTestService(t)
	defer done()

	hash, _ := HashPassword("whatever1")
	mock.ExpectQuery("select id, customer_id, username, password").
		WithArgs("scanner01").
		WillReturnRows(operatorRows(7, 42, "scanner01", hash, 1))
	mock.ExpectExec("update operators set is_password_request").
		WithArgs(1, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.RequestPasswordReset(context.Background(), "scanner01"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRequestPasswordResetUnknown(t *testing.T) {
	svc, mock, done := newTestService(t)
	defer done()

	mock.ExpectQuery("select id, customer_id, username, password").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	if err := svc.RequestPasswordReset(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResetPassword(t *testing.T) {
	svc, mock, done := newTestService(t)
	defer done()

	legacy := GeneratePBKDF2Hash("old-pass", []byte("0123456789abcdef"), 1000)
	mock.ExpectQuery("select id, customer_id, username, password").
		WithArgs("oldtimer").
		WillReturnRows(operatorRows(3, 9, "oldtimer", legacy, 1))
	mock.ExpectExec("update operators set password").
		WithArgs(sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.ResetPassword(context.Background(), "oldtimer", "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUsernameExists(t *testing.T) {
	svc, mock, done := newTestService(t)
	defer done()

	hash, _ := HashPassword("whatever1")
	mock.ExpectQuery("select id, customer_id, username, password").
		WithArgs("taken").
		WillReturnRows(operatorRows(1, 1, "taken", hash, 1))
	mock.ExpectQuery("select id, customer_id, username, password").
		WithArgs("free").
		WillReturnError(sql.ErrNoRows)

	exists, err := svc.UsernameExists(context.Background(), "taken")
	if err != nil || !exists {
		t.Fatalf("expected taken username to exist, got %v %v", exists, err)
	}
	exists, err = svc.UsernameExists(context.Background(), "free")
	if err != nil || exists {
		t.Fatalf("expected free username to be available, got %v %v", exists, err)
	}
}
