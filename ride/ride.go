// Package ride holds the rental-session records the sweeper closes.
package ride

import (
	"database/sql"
	"math"
	"time"

	"github.com/google/uuid"
)

// HelmetStatus is the canonical helmet lifecycle carried on a ride. The
// settlement workflow only ever moves IN_USE to LOST_PAID or LOST_UNPAID;
// every other value is terminal from the sweeper's point of view.
type HelmetStatus string

const (
	HelmetReady      HelmetStatus = "READY"
	HelmetInUse      HelmetStatus = "IN_USE"
	HelmetReturned   HelmetStatus = "RETURNED"
	HelmetLostPaid   HelmetStatus = "LOST_PAID"
	HelmetLostUnpaid HelmetStatus = "LOST_UNPAID"
	HelmetNotWorking HelmetStatus = "NOT_WORKING"
)

type Ride struct {
	ID            uuid.UUID      `db:"id"`
	UserID        string         `db:"user_id"`
	Branch        string         `db:"branch"`
	KickboardID   string         `db:"kickboard_id"`
	KickboardCode string         `db:"kickboard_code"`
	KickboardName sql.NullString `db:"kickboard_name"`
	StartedAt     time.Time      `db:"started_at"`
	EndedAt       sql.NullTime   `db:"ended_at"`
	Cost          sql.NullInt32  `db:"cost"`
	Coupon        sql.NullString `db:"coupon"`
	PaymentRef    sql.NullString `db:"payment_ref"`
	Helmet        *HelmetStatus  `db:"helmet_status"`
}

// Minutes is the billable elapsed time at now, rounded up.
func (r Ride) Minutes(now time.Time) int {
	return int(math.Ceil(now.Sub(r.StartedAt).Minutes()))
}

// HelmetStillInUse reports whether the ride has an unreturned helmet.
func (r Ride) HelmetStillInUse() bool {
	return r.Helmet != nil && *r.Helmet == HelmetInUse
}

// HistoryRecord is the denormalized per-user copy of a closed ride. Records
// flagged unpaid are what the app surfaces as an outstanding balance.
type HistoryRecord struct {
	ID            uuid.UUID    `db:"id"`
	UserID        string       `db:"user_id"`
	RideID        uuid.UUID    `db:"ride_id"`
	KickboardCode string       `db:"kickboard_code"`
	StartedAt     time.Time    `db:"started_at"`
	EndedAt       time.Time    `db:"ended_at"`
	Cost          int          `db:"cost"`
	Unpaid        bool         `db:"unpaid"`
	CreatedAt     sql.NullTime `db:"created_at"`
}
