package sweeper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openkick/ridesweeper/notify"
	"github.com/openkick/ridesweeper/ride"
	"github.com/openkick/ridesweeper/user"
)

// settleHelmet runs after the ride itself has closed, whatever the fare
// outcome was: a helmet still marked in use is treated as lost and the loss
// fee goes through its own cascade invocation.
func (e *Engine) settleHelmet(ctx context.Context, r ride.Ride, u *user.User, phone string, logger *slog.Logger) {
	out := e.d.Charger.Run(ctx, u, e.cfg.HelmetLossFee, fmt.Sprintf("helmet loss fee, ride %s", r.ID))

	if out.Paid {
		if err := e.d.Rides.SetHelmetStatus(ctx, r.ID, ride.HelmetLostPaid); err != nil {
			logger.Error("helmet status update failed", "status", ride.HelmetLostPaid, "error", err)
		}
		e.d.Metrics.HelmetSettlements.WithLabelValues("paid").Inc()

		delivered, err := e.d.Messenger.Send(ctx, phone, notify.TemplateHelmetLost, map[string]any{
			"Name":          u.Name,
			"KickboardCode": r.KickboardCode,
			"Fee":           e.cfg.HelmetLossFee,
			"CardLabel":     out.CardLabel,
		})
		if err != nil || !delivered {
			logger.Warn("helmet loss notice not delivered", "error", err)
		}
		e.d.Ops.Send(ctx, fmt.Sprintf("Helmet lost on ride %s (%s): collected %d KRW via %s",
			r.ID, u.Name, e.cfg.HelmetLossFee, out.CardLabel))
		return
	}

	if err := e.d.Rides.SetHelmetStatus(ctx, r.ID, ride.HelmetLostUnpaid); err != nil {
		logger.Error("helmet status update failed", "status", ride.HelmetLostUnpaid, "error", err)
	}
	e.d.Metrics.HelmetSettlements.WithLabelValues("unpaid").Inc()

	// Only the ops channel hears about the unpaid path; the rider is not
	// sent an outstanding-balance message here.
	e.d.Ops.Send(ctx, fmt.Sprintf("Helmet lost on ride %s (%s): could NOT collect %d KRW (%s)",
		r.ID, u.Name, e.cfg.HelmetLossFee, out.Reason))
}
