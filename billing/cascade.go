// Package billing charges a user's stored payment instruments in order.
package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openkick/ridesweeper/user"
)

// ChargeRequest is one recurring-charge submission to the gateway.
type ChargeRequest struct {
	Token       string
	Amount      int
	MerchantRef string
	PayerName   string
	PayerPhone  string
	Description string
}

// Result is the gateway's verdict on a single instrument.
type Result struct {
	Paid      bool
	CardLabel string
	Reason    string
}

// Gateway submits a recurring charge against one stored instrument.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (Result, error)
}

// Outcome is the caller-visible result of one cascade invocation.
type Outcome struct {
	Paid        bool
	Amount      int
	CardLabel   string
	MerchantRef string
	Attempts    int
	Reason      string
}

// Cascade tries each instrument in stored order and stops at the first paid
// result. One merchant reference is generated per invocation and reused on
// every attempt, so a gateway that dedupes by reference cannot double-charge
// on a resubmitted request.
type Cascade struct {
	gw      Gateway
	backoff time.Duration
	logger  *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewCascade(gw Gateway, backoff time.Duration, logger *slog.Logger) *Cascade {
	return &Cascade{gw: gw, backoff: backoff, logger: logger, sleep: sleepCtx}
}

// Run attempts to collect amount from u. Gateway errors count as a failed
// attempt on that instrument; the cascade moves on rather than aborting.
// At most one charge succeeds per invocation.
func (c *Cascade) Run(ctx context.Context, u *user.User, amount int, description string) Outcome {
	out := Outcome{Amount: amount, MerchantRef: uuid.NewString()}

	if !u.HasPhone() || len(u.BillingKeys) == 0 {
		// Distinct from a declined charge: there was nothing to try.
		out.Reason = "no payment instruments"
		c.logger.Info("skipping charge, user has no usable instruments",
			"userId", u.ID, "amount", amount, "instruments", len(u.BillingKeys))
		return out
	}

	for i, key := range u.BillingKeys {
		if i > 0 {
			if err := c.sleep(ctx, c.backoff); err != nil {
				out.Reason = "cancelled"
				return out
			}
		}

		out.Attempts++
		res, err := c.gw.Charge(ctx, ChargeRequest{
			Token:       key.Token,
			Amount:      amount,
			MerchantRef: out.MerchantRef,
			PayerName:   u.Name,
			PayerPhone:  u.Phone.String,
			Description: description,
		})
		if err != nil {
			c.logger.Error("charge attempt errored",
				"userId", u.ID, "merchantRef", out.MerchantRef, "instrument", key.Label, "error", err)
			continue
		}
		if res.Paid {
			out.Paid = true
			out.CardLabel = res.CardLabel
			if out.CardLabel == "" {
				out.CardLabel = key.Label
			}
			return out
		}

		c.logger.Info("charge attempt declined",
			"userId", u.ID, "merchantRef", out.MerchantRef, "instrument", key.Label, "reason", res.Reason)
	}

	out.Reason = "all instruments declined"
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
