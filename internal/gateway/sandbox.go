package gateway

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"fitledger/internal/domain"
	"fitledger/internal/money"
)

const (
	orderCreated  = "CREATED"
	orderApproved = "APPROVED"
	orderCaptured = "CAPTURED"
)

type sandboxOrder struct {
	amount    money.Amount
	customID  string
	status    string
	captureID string
}

// Sandbox is an in-memory gateway for the simulator and tests. It mirrors
// the real lifecycle, including the idempotent replay rejection on a second
// capture of the same order.
type Sandbox struct {
	mu     sync.Mutex
	orders map[string]*sandboxOrder
}

func NewSandbox() *Sandbox {
	return &Sandbox{orders: make(map[string]*sandboxOrder)}
}

func (s *Sandbox) CreateOrder(_ context.Context, total money.Amount, customID string) (string, error) {
	if !total.IsPositive() {
		return "", &domain.GatewayError{Op: "create_order", StatusCode: http.StatusUnprocessableEntity, Body: "INVALID_AMOUNT"}
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.orders[id] = &sandboxOrder{amount: total, customID: customID, status: orderCreated}
	s.mu.Unlock()
	return id, nil
}

// Approve stands in for the buyer's out-of-band approval step.
func (s *Sandbox) Approve(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.status != orderCreated {
		return false
	}
	o.status = orderApproved
	return true
}

func (s *Sandbox) Capture(_ context.Context, orderID string) (*CaptureOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, &domain.GatewayError{Op: "capture", StatusCode: http.StatusNotFound, Body: "RESOURCE_NOT_FOUND"}
	}
	switch o.status {
	case orderCaptured:
		return nil, domain.ErrAlreadyCaptured
	case orderApproved:
		o.status = orderCaptured
		o.captureID = uuid.NewString()
		return &CaptureOutcome{
			OrderID:   orderID,
			CaptureID: o.captureID,
			Status:    "COMPLETED",
			PayerID:   "SANDBOX-PAYER",
			Amount:    o.amount,
			CustomID:  o.customID,
		}, nil
	default:
		return nil, &domain.GatewayError{Op: "capture", StatusCode: http.StatusUnprocessableEntity, Body: "ORDER_NOT_APPROVED"}
	}
}

// OrderStatus exposes an order's state for assertions and the simulator.
func (s *Sandbox) OrderStatus(orderID string) (status, customID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return "", "", false
	}
	return o.status, o.customID, true
}
