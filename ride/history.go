package ride

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type HistoryRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, rec HistoryRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, appendHistoryQuery,
		rec.ID, rec.UserID, rec.RideID, rec.KickboardCode, rec.StartedAt, rec.EndedAt, rec.Cost, rec.Unpaid)
	return err
}

const appendHistoryQuery = `
INSERT INTO ride_history (id, user_id, ride_id, kickboard_code, started_at, ended_at, cost, unpaid, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
`

// DeleteByRide removes any history entry referencing the ride. A stale ride
// that was already reconciled once can leave one behind.
func (r *HistoryRepository) DeleteByRide(ctx context.Context, userID string, rideID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, deleteHistoryQuery, userID, rideID)
	return err
}

const deleteHistoryQuery = `DELETE FROM ride_history WHERE user_id = $1 AND ride_id = $2`
