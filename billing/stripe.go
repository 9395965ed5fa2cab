package billing

import (
	"context"
	"log/slog"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
)

// StripeGateway charges stored payment-method tokens through off-session
// PaymentIntents. The idempotency key combines the cascade's merchant
// reference with the instrument token so a network-level resubmission of the
// same attempt is deduped while later instruments still get a fresh attempt.
type StripeGateway struct {
	logger *slog.Logger
}

func NewStripeGateway(apiKey string, logger *slog.Logger) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{logger: logger}
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (Result, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Amount:        stripe.Int64(int64(req.Amount)),
		Currency:      stripe.String(string(stripe.CurrencyKRW)),
		PaymentMethod: stripe.String(req.Token),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
		Description:   stripe.String(req.Description),
	}
	params.SetIdempotencyKey(req.MerchantRef + ":" + req.Token)
	params.AddMetadata("merchant_ref", req.MerchantRef)
	params.AddMetadata("payer_name", req.PayerName)
	params.AddMetadata("payer_phone", req.PayerPhone)

	pi, err := paymentintent.New(params)
	if err != nil {
		return Result{}, err
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return Result{Reason: string(pi.Status)}, nil
	}

	res := Result{Paid: true}
	if pm := pi.PaymentMethod; pm != nil && pm.Card != nil {
		res.CardLabel = string(pm.Card.Brand) + " " + pm.Card.Last4
	}
	return res, nil
}
