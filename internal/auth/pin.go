package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/db"
)

var (
	ErrPINMismatch = errors.New("guard pin mismatch")
	ErrNoPIN       = errors.New("no guard pin registered")
)

// PINService stores the guard PIN a user must present to stand down an
// active emergency session. PINs are bcrypt hashed at rest.
type PINService struct {
	db db.Querier
}

func NewPINService(db db.Querier) *PINService {
	return &PINService{db: db}
}

func (s *PINService) SetPIN(ctx context.Context, userID, pin string) error {
	if len(pin) < 4 {
		return errors.New("pin must be at least 4 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO safety_pins (id, user_id, pin_hash)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id) DO UPDATE SET pin_hash = EXCLUDED.pin_hash
	`, uuid.NewString(), userID, string(hash))
	return err
}

// VerifyPIN checks the presented PIN against the stored hash. A user with
// no registered PIN verifies trivially so stand-down is never blocked for
// accounts that skipped setup.
func (s *PINService) VerifyPIN(ctx context.Context, userID, pin string) error {
	hash, err := s.lookupHash(ctx, userID)
	if errors.Is(err, ErrNoPIN) {
		return nil
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) != nil {
		return ErrPINMismatch
	}
	return nil
}

func (s *PINService) lookupHash(ctx context.Context, userID string) (string, error) {
	rows, err := s.db.Query(ctx, `SELECT pin_hash FROM safety_pins WHERE user_id=$1`, userID)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	if !rows.Next() {
		return "", ErrNoPIN
	}
	var hash string
	if err := rows.Scan(&hash); err != nil {
		return "", err
	}
	return hash, nil
}
