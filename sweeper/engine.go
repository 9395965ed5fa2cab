// Package sweeper force-terminates rides that exceeded usage or inactivity
// thresholds: it reconciles stale records, collects the fare through the
// billing cascade, settles lost helmets, and stops the device.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/openkick/ridesweeper/billing"
	"github.com/openkick/ridesweeper/identity"
	"github.com/openkick/ridesweeper/notify"
	"github.com/openkick/ridesweeper/ride"
	"github.com/openkick/ridesweeper/telemetry"
	"github.com/openkick/ridesweeper/user"
)

// Storage and side-effect capabilities the engine consumes. Concrete
// bindings live in the ride, user, kickboard, telemetry, pricing, billing,
// notify, iot and identity packages.
type (
	RideStore interface {
		FetchStale(ctx context.Context, cutoff time.Time, onlyUserID string) ([]ride.Ride, error)
		LatestForKickboard(ctx context.Context, kickboardID string) (*ride.Ride, error)
		Close(ctx context.Context, id uuid.UUID, endedAt time.Time, cost int, paymentRef string) error
		Delete(ctx context.Context, id uuid.UUID) error
		SetHelmetStatus(ctx context.Context, id uuid.UUID, status ride.HelmetStatus) error
	}

	HistoryStore interface {
		Append(ctx context.Context, rec ride.HistoryRecord) error
		DeleteByRide(ctx context.Context, userID string, rideID uuid.UUID) error
	}

	UserStore interface {
		Get(ctx context.Context, id string) (*user.User, error)
		ClearCurrentRide(ctx context.Context, userID string, rideID uuid.UUID) error
		SetPhone(ctx context.Context, userID, phone string) error
	}

	KickboardStore interface {
		SetRentable(ctx context.Context, id string) error
	}

	SignalSource interface {
		Latest(ctx context.Context, kickboardID string, since time.Time) (*telemetry.Signal, error)
	}

	Pricer interface {
		Price(ctx context.Context, branch string, minutes int) (int, error)
	}

	Charger interface {
		Run(ctx context.Context, u *user.User, amount int, description string) billing.Outcome
	}

	Messenger interface {
		Send(ctx context.Context, phone, templateName string, vars map[string]any) (bool, error)
	}

	OpsNotifier interface {
		Send(ctx context.Context, text string)
	}

	CommandBus interface {
		Stop(ctx context.Context, kickboardCode string) error
	}
)

type Deps struct {
	Rides      RideStore
	History    HistoryStore
	Users      UserStore
	Kickboards KickboardStore
	Signals    SignalSource
	Pricer     Pricer
	Charger    Charger
	Directory  identity.Directory
	Messenger  Messenger
	Ops        OpsNotifier
	Bus        CommandBus

	Logger  *slog.Logger
	Metrics *Metrics
}

type Engine struct {
	cfg  Config
	pred Predicate
	d    Deps

	now func() time.Time
}

func New(cfg Config, d Deps) *Engine {
	return &Engine{
		cfg: cfg,
		pred: Predicate{
			Mode:              cfg.Mode,
			MaxRideAge:        cfg.MaxRideAge,
			RequireStationary: cfg.RequireStationary,
		},
		d:   d,
		now: time.Now,
	}
}

// errHaltPass aborts the remainder of a pass. Only the legacy
// missing-phone behavior raises it.
var errHaltPass = errors.New("halting pass")

// errSkipRide abandons the current ride without terminating it.
var errSkipRide = errors.New("skipping ride")

// Run executes one evaluation pass: candidates are processed strictly one at
// a time so per-user and per-device mutations never interleave. Per-ride
// failures are contained; only infrastructure failures (candidate fetch,
// context cancellation) abort the pass.
func (e *Engine) Run(ctx context.Context) error {
	start := e.now()
	defer func() {
		e.d.Metrics.PassDuration.Observe(time.Since(start).Seconds())
	}()

	cutoff := e.cfg.Cutoff(start)
	rides, err := e.d.Rides.FetchStale(ctx, cutoff, e.cfg.OnlyUserID)
	if err != nil {
		return fmt.Errorf("fetch stale rides: %w", err)
	}
	e.d.Logger.Info("pass started", "mode", e.cfg.Mode, "cutoff", cutoff, "candidates", len(rides))

	for _, r := range rides {
		e.d.Metrics.RidesEvaluated.Inc()
		err := e.processRide(ctx, r)
		switch {
		case err == nil:
		case errors.Is(err, errHaltPass):
			e.d.Logger.Warn("pass halted early", "rideId", r.ID)
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			e.d.Metrics.RidesSkipped.Inc()
			e.d.Logger.Error("ride processing failed", "rideId", r.ID, "error", err)
		}
	}
	return nil
}

func (e *Engine) processRide(ctx context.Context, r ride.Ride) error {
	logger := e.d.Logger.With("rideId", r.ID, "kickboard", r.KickboardCode, "userId", r.UserID)

	u, err := e.d.Users.Get(ctx, r.UserID)
	if errors.Is(err, user.ErrNotFound) {
		logger.Warn("user record missing, leaving ride untouched")
		e.d.Metrics.RidesSkipped.Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}

	// Reconciliation runs before any termination logic: a ride the user
	// object no longer points at must never be billed.
	if u.CurrentRide == nil || *u.CurrentRide != r.ID {
		return e.reconcile(ctx, r, u, logger)
	}

	var sig *telemetry.Signal
	if e.cfg.Mode == ModeInactivity {
		sig, err = e.d.Signals.Latest(ctx, r.KickboardID, e.now().Add(-e.cfg.IdleWindow))
		if err != nil {
			return fmt.Errorf("fetch movement signal: %w", err)
		}
		if sig == nil {
			logger.Info("no telemetry for kickboard, leaving ride open")
			e.d.Metrics.RidesSkipped.Inc()
			return nil
		}
	}
	if !e.pred.Eligible(r, sig, e.now()) {
		e.d.Metrics.RidesSkipped.Inc()
		return nil
	}

	phone, err := e.resolvePhone(ctx, u, logger)
	if errors.Is(err, errSkipRide) {
		e.d.Metrics.RidesSkipped.Inc()
		return nil
	}
	if err != nil {
		return err
	}

	return e.terminate(ctx, r, u, phone, logger)
}

// terminate closes an eligible ride: cascade billing, persistence updates
// and notifications, then the recency-gated device stop and, last, helmet
// settlement.
func (e *Engine) terminate(ctx context.Context, r ride.Ride, u *user.User, phone string, logger *slog.Logger) error {
	endedAt := e.now()
	minutes := r.Minutes(endedAt)

	price, err := e.d.Pricer.Price(ctx, r.Branch, minutes)
	if err != nil {
		return fmt.Errorf("price ride: %w", err)
	}

	out := e.d.Charger.Run(ctx, u, price, fmt.Sprintf("ride %s fare", r.ID))

	// The ride closes regardless of the billing outcome; an uncollected
	// fare becomes a zero-cost close plus an unpaid history record.
	finalCost := 0
	paymentRef := ""
	if out.Paid {
		finalCost = price
		paymentRef = out.MerchantRef
		e.d.Metrics.FaresCollected.Inc()
	} else {
		e.d.Metrics.FaresMissed.Inc()
	}

	// Independent side effects run concurrently; none may block the
	// others, so each logs its own failure and the group only reports.
	var g errgroup.Group
	g.Go(func() error {
		if err := e.d.Rides.Close(ctx, r.ID, endedAt, finalCost, paymentRef); err != nil {
			logger.Error("ride close failed", "error", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := e.d.Users.ClearCurrentRide(ctx, u.ID, r.ID); err != nil {
			logger.Error("clearing current ride failed", "error", err)
		}
		return nil
	})
	if !out.Paid {
		g.Go(func() error {
			rec := ride.HistoryRecord{
				UserID:        u.ID,
				RideID:        r.ID,
				KickboardCode: r.KickboardCode,
				StartedAt:     r.StartedAt,
				EndedAt:       endedAt,
				Cost:          price,
				Unpaid:        true,
			}
			if err := e.d.History.Append(ctx, rec); err != nil {
				logger.Error("unpaid history append failed", "error", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		e.sendRiderNotice(ctx, r, u, phone, minutes, price, out, logger)
		return nil
	})
	g.Go(func() error {
		e.d.Ops.Send(ctx, opsSummary(r, u, minutes, price, out))
		return nil
	})
	closeErr := g.Wait()

	e.stopIfLatest(ctx, r, logger)

	if r.HelmetStillInUse() {
		e.settleHelmet(ctx, r, u, phone, logger)
	}

	e.d.Metrics.RidesTerminated.Inc()
	logger.Info("ride terminated", "minutes", minutes, "fare", price, "paid", out.Paid, "attempts", out.Attempts)
	return closeErr
}

// stopIfLatest issues the hardware stop only when the ride being closed is
// the device's most recent ride. A device re-rented since this stale ride
// started must not be cut off under its new rider.
func (e *Engine) stopIfLatest(ctx context.Context, r ride.Ride, logger *slog.Logger) {
	latest, err := e.d.Rides.LatestForKickboard(ctx, r.KickboardID)
	if err != nil {
		logger.Error("recency check failed, skipping device stop", "error", err)
		return
	}
	if latest == nil || latest.ID != r.ID {
		logger.Info("kickboard has a newer ride, not stopping")
		return
	}

	if err := e.d.Bus.Stop(ctx, r.KickboardCode); err != nil {
		logger.Error("device stop failed", "error", err)
	}
	if err := e.d.Kickboards.SetRentable(ctx, r.KickboardID); err != nil {
		logger.Error("marking kickboard rentable failed", "error", err)
	}
}

// resolvePhone returns the user's phone, backfilling from the identity
// provider when the account has none.
func (e *Engine) resolvePhone(ctx context.Context, u *user.User, logger *slog.Logger) (string, error) {
	if u.HasPhone() {
		return u.Phone.String, nil
	}

	phone, err := e.d.Directory.PhoneByUser(ctx, u.ID)
	if err != nil {
		logger.Warn("phone unresolvable", "error", err)
		if e.cfg.HaltPassOnMissingPhone {
			return "", errHaltPass
		}
		return "", errSkipRide
	}

	if err := e.d.Users.SetPhone(ctx, u.ID, phone); err != nil {
		logger.Error("phone backfill failed", "error", err)
	}
	u.Phone.String = phone
	u.Phone.Valid = true
	return phone, nil
}

func (e *Engine) sendRiderNotice(ctx context.Context, r ride.Ride, u *user.User, phone string, minutes, price int, out billing.Outcome, logger *slog.Logger) {
	tmpl := notify.TemplateRideTerminated
	if !out.Paid {
		tmpl = notify.TemplateRideTerminatedUnpaid
	}
	delivered, err := e.d.Messenger.Send(ctx, phone, tmpl, map[string]any{
		"Name":          u.Name,
		"KickboardCode": r.KickboardCode,
		"Minutes":       minutes,
		"Cost":          price,
		"CardLabel":     out.CardLabel,
	})
	if err != nil {
		logger.Error("rider notice failed", "error", err)
		return
	}
	if !delivered {
		logger.Warn("rider notice not delivered")
	}
}

func opsSummary(r ride.Ride, u *user.User, minutes, price int, out billing.Outcome) string {
	if out.Paid {
		return fmt.Sprintf("Auto-terminated ride %s: %s on %s, %d min, collected %d KRW via %s (ref %s)",
			r.ID, u.Name, r.KickboardCode, minutes, price, out.CardLabel, out.MerchantRef)
	}
	return fmt.Sprintf("Auto-terminated ride %s: %s on %s, %d min, FAILED to collect %d KRW (%s, %d attempts)",
		r.ID, u.Name, r.KickboardCode, minutes, price, out.Reason, out.Attempts)
}
