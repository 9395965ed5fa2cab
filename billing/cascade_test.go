package billing

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/openkick/ridesweeper/user"
)

type scriptedGateway struct {
	results  map[string]Result
	errs     map[string]error
	requests []ChargeRequest
}

func (g *scriptedGateway) Charge(_ context.Context, req ChargeRequest) (Result, error) {
	g.requests = append(g.requests, req)
	if err := g.errs[req.Token]; err != nil {
		return Result{}, err
	}
	return g.results[req.Token], nil
}

func testUser(tokens ...string) *user.User {
	u := &user.User{
		ID:    "u1",
		Name:  "Jamie",
		Phone: sql.NullString{String: "+821012345678", Valid: true},
	}
	for i, tok := range tokens {
		u.BillingKeys = append(u.BillingKeys, user.BillingKey{Token: tok, Label: "card-" + tok, Position: i})
	}
	return u
}

func testCascade(gw Gateway) (*Cascade, *[]time.Duration) {
	c := NewCascade(gw, 4*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestCascade_FirstPaidInstrumentWins(t *testing.T) {
	gw := &scriptedGateway{results: map[string]Result{
		"bk_1": {Reason: "card_declined"},
		"bk_2": {Paid: true, CardLabel: "MASTER 1111"},
		"bk_3": {Paid: true, CardLabel: "VISA 2222"},
	}}
	c, _ := testCascade(gw)

	out := c.Run(context.Background(), testUser("bk_1", "bk_2", "bk_3"), 5000, "ride fare")

	if !out.Paid {
		t.Fatalf("expected paid outcome, got %+v", out)
	}
	if out.CardLabel != "MASTER 1111" {
		t.Errorf("expected the second instrument's label, got %q", out.CardLabel)
	}
	if out.Attempts != 2 {
		t.Errorf("cascade must stop at first success, got %d attempts", out.Attempts)
	}
	if len(gw.requests) != 2 {
		t.Errorf("third instrument must never be tried, got %d requests", len(gw.requests))
	}
}

func TestCascade_AllDeclinedSharesMerchantRefWithBackoff(t *testing.T) {
	gw := &scriptedGateway{results: map[string]Result{}}
	c, slept := testCascade(gw)

	out := c.Run(context.Background(), testUser("bk_1", "bk_2", "bk_3"), 5000, "ride fare")

	if out.Paid {
		t.Fatalf("expected no payment, got %+v", out)
	}
	if out.Attempts != 3 || len(gw.requests) != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d (%d requests)", out.Attempts, len(gw.requests))
	}
	for _, req := range gw.requests {
		if req.MerchantRef != out.MerchantRef {
			t.Errorf("all attempts must reuse merchant ref %q, got %q", out.MerchantRef, req.MerchantRef)
		}
		if req.Amount != 5000 {
			t.Errorf("unexpected amount %d", req.Amount)
		}
	}
	if len(*slept) != 2 {
		t.Fatalf("3 attempts must be separated by 2 backoffs, got %d", len(*slept))
	}
	for _, d := range *slept {
		if d != 4*time.Second {
			t.Errorf("expected configured backoff, got %s", d)
		}
	}
}

func TestCascade_GatewayErrorContinuesToNextInstrument(t *testing.T) {
	gw := &scriptedGateway{
		results: map[string]Result{"bk_2": {Paid: true, CardLabel: "VISA 4242"}},
		errs:    map[string]error{"bk_1": errors.New("gateway timeout")},
	}
	c, _ := testCascade(gw)

	out := c.Run(context.Background(), testUser("bk_1", "bk_2"), 5000, "ride fare")

	if !out.Paid {
		t.Fatalf("a gateway error on one instrument must not abort the cascade, got %+v", out)
	}
	if out.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", out.Attempts)
	}
}

func TestCascade_NoInstruments(t *testing.T) {
	gw := &scriptedGateway{}
	c, _ := testCascade(gw)

	out := c.Run(context.Background(), testUser(), 5000, "ride fare")

	if out.Paid || out.Attempts != 0 {
		t.Fatalf("expected no attempts, got %+v", out)
	}
	if out.Reason != "no payment instruments" {
		t.Errorf("no-instrument outcome must be distinguishable, got %q", out.Reason)
	}
	if len(gw.requests) != 0 {
		t.Errorf("gateway must not be called, got %d requests", len(gw.requests))
	}
}

func TestCascade_NoPhone(t *testing.T) {
	u := testUser("bk_1")
	u.Phone = sql.NullString{}
	gw := &scriptedGateway{results: map[string]Result{"bk_1": {Paid: true}}}
	c, _ := testCascade(gw)

	out := c.Run(context.Background(), u, 5000, "ride fare")
	if out.Paid || len(gw.requests) != 0 {
		t.Fatalf("a user without a phone must not be charged, got %+v", out)
	}
}
