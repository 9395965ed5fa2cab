package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("user not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, getUserQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &u.BillingKeys, getBillingKeysQuery, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const getUserQuery = `SELECT id, name, phone, current_ride FROM users WHERE id = $1`

const getBillingKeysQuery = `
SELECT token, label, position FROM billing_keys
WHERE user_id = $1
ORDER BY position ASC
`

// ClearCurrentRide nulls the active-ride pointer only while it still points
// at rideID. The condition is the race-safety re-check: a pointer that moved
// on to a newer ride must not be cleared.
func (r *Repository) ClearCurrentRide(ctx context.Context, userID string, rideID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, clearCurrentRideQuery, userID, rideID)
	return err
}

const clearCurrentRideQuery = `UPDATE users SET current_ride = NULL WHERE id = $1 AND current_ride = $2`

// SetPhone backfills a phone number resolved from the identity provider.
func (r *Repository) SetPhone(ctx context.Context, userID, phone string) error {
	_, err := r.db.ExecContext(ctx, setPhoneQuery, phone, userID)
	return err
}

const setPhoneQuery = `UPDATE users SET phone = NULLIF($1, '') WHERE id = $2`
