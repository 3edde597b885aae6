package observability

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
)

func TestMetricsObserveAppends(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	led := ledger.WithObservers(ledger.NewInMemory(), m)
	ctx := context.Background()

	inputs := []ledger.AppendInput{
		{AccountID: "a", Delta: decimal.NewFromInt(100), Kind: ledger.KindCredit},
		{AccountID: "a", Delta: decimal.NewFromInt(-35), Kind: ledger.KindDebit},
		{AccountID: "a", Delta: decimal.NewFromInt(50), Kind: ledger.KindCredit},
	}
	for _, in := range inputs {
		if _, err := led.Append(ctx, in); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	_, _ = led.Append(ctx, ledger.AppendInput{AccountID: "", Delta: decimal.NewFromInt(1), Kind: ledger.KindCredit})
	_, _ = led.Append(ctx, ledger.AppendInput{AccountID: "a", Delta: decimal.NewFromInt(1), Kind: "bonus"})

	if got := testutil.ToFloat64(m.EntriesAppended.WithLabelValues("credit")); got != 2 {
		t.Fatalf("expected 2 credits, got %v", got)
	}
	if got := testutil.ToFloat64(m.DeltaVolume.WithLabelValues("debit")); got != 35 {
		t.Fatalf("expected debit volume 35, got %v", got)
	}
	if got := testutil.ToFloat64(m.AppendsRejected.WithLabelValues("invalid_input")); got != 1 {
		t.Fatalf("expected 1 invalid input rejection, got %v", got)
	}
	if got := testutil.ToFloat64(m.AppendsRejected.WithLabelValues("unknown_kind")); got != 1 {
		t.Fatalf("expected 1 unknown kind rejection, got %v", got)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/accounts/:id/balance", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadRequest, "nope") })

	for _, path := range []string{"/accounts/a/balance", "/accounts/b/balance", "/boom"} {
		if _, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil)); err != nil {
			t.Fatalf("app.Test: %v", err)
		}
	}

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/accounts/:id/balance", "200")); got != 2 {
		t.Fatalf("expected 2 requests on the route pattern, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/boom", "400")); got != 1 {
		t.Fatalf("expected 1 bad request, got %v", got)
	}
}
