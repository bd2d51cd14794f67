package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"
)

func TestSetPIN(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewPINService(mock)

	mock.ExpectExec(`INSERT INTO safety_pins`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := svc.SetPIN(context.Background(), "user-1", "1234"); err != nil {
		t.Fatalf("set pin: %v", err)
	}

	if err := svc.SetPIN(context.Background(), "user-1", "12"); err == nil {
		t.Fatalf("expected short pin rejection")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestVerifyPIN(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewPINService(mock)
	hash, _ := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)

	mock.ExpectQuery(`SELECT pin_hash FROM safety_pins`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"pin_hash"}).AddRow(string(hash)))
	if err := svc.VerifyPIN(context.Background(), "user-1", "1234"); err != nil {
		t.Fatalf("verify pin: %v", err)
	}

	mock.ExpectQuery(`SELECT pin_hash FROM safety_pins`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"pin_hash"}).AddRow(string(hash)))
	if err := svc.VerifyPIN(context.Background(), "user-1", "9999"); !errors.Is(err, ErrPINMismatch) {
		t.Fatalf("expected pin mismatch, got %v", err)
	}
}

func TestVerifyPINWithoutRegistration(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewPINService(mock)

	mock.ExpectQuery(`SELECT pin_hash FROM safety_pins`).
		WithArgs("user-2").
		WillReturnRows(pgxmock.NewRows([]string{"pin_hash"}))
	if err := svc.VerifyPIN(context.Background(), "user-2", "anything"); err != nil {
		t.Fatalf("expected trivial verification without a pin, got %v", err)
	}
}
