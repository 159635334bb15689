package gateway

import (
	"context"

	"fitledger/internal/money"
)

// Client is the payment gateway surface this core depends on. The gateway is
// authoritative and asynchronous: an order created here is provisional until
// the buyer approves it out of band and Capture succeeds.
type Client interface {
	// CreateOrder registers a capture-intent order for the full checkout
	// total, with customID carried opaquely through the order lifecycle.
	CreateOrder(ctx context.Context, total money.Amount, customID string) (orderID string, err error)

	// Capture captures an approved order's funds. A replayed capture of an
	// already-captured order fails with domain.ErrAlreadyCaptured.
	Capture(ctx context.Context, orderID string) (*CaptureOutcome, error)
}

// CaptureOutcome is what a successful capture yields. CustomID may be empty:
// gateways place the echoed encoding either on the purchase unit or on the
// capture record, and some sandbox responses omit it entirely, which the
// capture service must treat as fatal.
type CaptureOutcome struct {
	OrderID   string
	CaptureID string
	Status    string
	PayerID   string
	Amount    money.Amount
	CustomID  string
}
