package sweeper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openkick/ridesweeper/ride"
	"github.com/openkick/ridesweeper/user"
)

// reconcile repairs a ride whose owning user no longer points at it: the
// record is a stale duplicate and is purged without billing, notification or
// device command.
func (e *Engine) reconcile(ctx context.Context, r ride.Ride, u *user.User, logger *slog.Logger) error {
	logger.Info("ride disagrees with user's current-ride pointer, reconciling",
		"currentRide", u.CurrentRide)

	// Conditional update: clears the pointer only if it moved back to this
	// ride between our read and now.
	if err := e.d.Users.ClearCurrentRide(ctx, u.ID, r.ID); err != nil {
		return fmt.Errorf("clear current ride: %w", err)
	}

	if err := e.d.History.DeleteByRide(ctx, u.ID, r.ID); err != nil {
		return fmt.Errorf("delete history record: %w", err)
	}

	if err := e.d.Rides.Delete(ctx, r.ID); err != nil {
		return fmt.Errorf("delete stale ride: %w", err)
	}

	e.d.Metrics.RidesReconciled.Inc()
	logger.Info("stale ride purged")
	return nil
}
