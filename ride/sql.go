package ride

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("ride not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// FetchStale returns open rides that started before cutoff, oldest first.
// When onlyUserID is non-empty the result is limited to that user (single
// test-subject mode).
func (r *Repository) FetchStale(ctx context.Context, cutoff time.Time, onlyUserID string) ([]Ride, error) {
	var rides []Ride
	if onlyUserID != "" {
		err := r.db.SelectContext(ctx, &rides, fetchStaleForUserQuery, cutoff, onlyUserID)
		return rides, err
	}
	err := r.db.SelectContext(ctx, &rides, fetchStaleQuery, cutoff)
	return rides, err
}

const fetchStaleQuery = `
SELECT * FROM rides
WHERE ended_at IS NULL
  AND started_at < $1
ORDER BY started_at ASC
`

const fetchStaleForUserQuery = `
SELECT * FROM rides
WHERE ended_at IS NULL
  AND started_at < $1
  AND user_id = $2
ORDER BY started_at ASC
`

// LatestForKickboard returns the most recently started ride for a kickboard,
// open or not. Returns nil if the kickboard has no rides.
func (r *Repository) LatestForKickboard(ctx context.Context, kickboardID string) (*Ride, error) {
	var ride Ride
	err := r.db.GetContext(ctx, &ride, latestForKickboardQuery, kickboardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ride, nil
}

const latestForKickboardQuery = `
SELECT * FROM rides
WHERE kickboard_id = $1
ORDER BY started_at DESC
LIMIT 1
`

// Close records the termination outcome. paymentRef is stored as NULL when
// empty, which is the no-successful-charge case.
func (r *Repository) Close(ctx context.Context, id uuid.UUID, endedAt time.Time, cost int, paymentRef string) error {
	res, err := r.db.ExecContext(ctx, closeRideQuery, endedAt, cost, paymentRef, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

const closeRideQuery = `
UPDATE rides SET ended_at = $1, cost = $2, payment_ref = NULLIF($3, '')
WHERE id = $4
`

// Delete removes a ride record. Used only by reconciliation.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, deleteRideQuery, id)
	return err
}

const deleteRideQuery = `DELETE FROM rides WHERE id = $1`

func (r *Repository) SetHelmetStatus(ctx context.Context, id uuid.UUID, status HelmetStatus) error {
	_, err := r.db.ExecContext(ctx, setHelmetStatusQuery, status, id)
	return err
}

const setHelmetStatusQuery = `UPDATE rides SET helmet_status = $1 WHERE id = $2`
