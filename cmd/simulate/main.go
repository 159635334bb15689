// Simulates the full checkout pipeline against the sandbox gateway and the
// in-memory ledger: create order, approve, capture, fan-out, access checks,
// plus the replay and session-expiry paths. No external services needed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"fitledger/internal/checkout"
	"fitledger/internal/domain"
	"fitledger/internal/gateway"
	"fitledger/internal/metrics"
	"fitledger/internal/money"
	"fitledger/internal/repo"
	"fitledger/internal/service"
)

// localBackend adapts the services to the orchestrator's client-side view,
// standing in for the HTTP layer and its session check.
type localBackend struct {
	orders     *service.OrderService
	captures   *service.CaptureService
	credential string
}

func (b *localBackend) CreateOrder(ctx context.Context, credential string, req domain.CheckoutRequest) (string, error) {
	if credential != b.credential {
		return "", domain.ErrSessionExpired
	}
	return b.orders.CreateOrder(ctx, req)
}

func (b *localBackend) CapturePayment(ctx context.Context, credential string, orderID string) (*service.CaptureResult, error) {
	if credential != b.credential {
		return nil, domain.ErrSessionExpired
	}
	return b.captures.CapturePayment(ctx, orderID)
}

func main() {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics.Register()

	sandbox := gateway.NewSandbox()
	ledger := repo.NewMemoryLedger()
	journal := repo.NewMemoryJournal()

	orders := service.NewOrderService(sandbox, log)
	captures := service.NewCaptureService(sandbox, ledger, journal, nil, service.EntitlementTTLs{}, log)
	access := service.NewAccessService(ledger, log)
	backend := &localBackend{orders: orders, captures: captures, credential: "session-ok"}

	converter := money.NewConverter("RUB", nil)
	total, _ := converter.Convert(9000, "USD")

	fmt.Println("--- CHECKOUT: mixed cart, bundle B1 + course C1 ---")
	flow := checkout.New(backend, "buyer-42", "session-ok")
	cart := checkout.Cart{
		Items: []domain.CartItem{
			{ID: "B1", Type: domain.ItemTypeBundle},
			{ID: "C1", Type: domain.ItemTypeCourse},
		},
		Type:  domain.ItemTypeMixed,
		Total: total,
	}

	orderID, err := flow.Begin(ctx, cart)
	if err != nil {
		fmt.Printf("begin failed: %v\n", err)
		return
	}
	fmt.Printf("order %s created, state=%s\n", orderID, flow.State())

	// Buyer approves out of band.
	sandbox.Approve(orderID)

	result, err := flow.CompleteApproval(ctx)
	if err != nil {
		fmt.Printf("capture failed: %v\n", err)
		return
	}
	fmt.Printf("captured, state=%s, cart empty=%v\n", flow.State(), flow.Cart().Empty())
	for _, r := range result.Records {
		amount := money.Amount{MinorUnits: r.AmountMinor, Currency: r.Currency}
		fmt.Printf("  record: item=%s type=%s amount=%s %s\n", r.ItemID, r.ItemType, amount.Value(), r.Currency)
	}

	fmt.Println("--- REPLAYED CAPTURE (must not duplicate records) ---")
	replay, err := captures.CapturePayment(ctx, orderID)
	fmt.Printf("already_captured=%v err=%v ledger_records=%d\n", replay != nil && replay.AlreadyCaptured, err, ledger.Len())

	fmt.Println("--- ACCESS CHECKS ---")
	fmt.Printf("buyer-42 B1: %v\n", access.HasAccess(ctx, "buyer-42", "B1"))
	fmt.Printf("buyer-42 C1: %v\n", access.HasAccess(ctx, "buyer-42", "C1"))
	fmt.Printf("anonymous B1: %v\n", access.HasAccess(ctx, "", "B1"))

	fmt.Println("--- STALE SESSION MID-CHECKOUT (cart must survive) ---")
	stale := checkout.New(backend, "buyer-42", "session-expired")
	_, err = stale.Begin(ctx, cart)
	fmt.Printf("err=%v state=%s cart_items=%d\n", err, stale.State(), len(stale.Cart().Items))
	_ = stale.Reauthenticate("session-ok")
	orderID, err = stale.Begin(ctx, cart)
	fmt.Printf("after reauth: order=%s err=%v state=%s\n", orderID, err, stale.State())
}
