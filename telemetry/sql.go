package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type Source struct {
	db *sqlx.DB
}

func NewSource(db *sqlx.DB) *Source {
	return &Source{db: db}
}

// Latest returns the most recent 15-minute bucket of status reports for a
// kickboard since the given time, or nil when the device reported nothing.
func (s *Source) Latest(ctx context.Context, kickboardID string, since time.Time) (*Signal, error) {
	var sig Signal
	err := s.db.GetContext(ctx, &sig, latestSignalQuery, kickboardID, since)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sig, nil
}

const latestSignalQuery = `
SELECT date_bin('15 minutes', created_at, timestamptz 'epoch') AS bucket,
       avg(CASE WHEN is_enabled THEN 0 ELSE 1 END)             AS disabled_fraction,
       coalesce(stddev_samp(gps_latitude), 0)                  AS lat_stddev,
       coalesce(stddev_samp(gps_longitude), 0)                 AS lng_stddev,
       coalesce(avg(speed), 0)                                 AS avg_speed
FROM kickboard_status
WHERE kickboard_id = $1
  AND created_at > $2
GROUP BY bucket
ORDER BY bucket DESC
LIMIT 1
`
