// Package checkout drives a buyer through create-order, out-of-band
// approval, and capture. The session credential is passed in explicitly
// rather than read from ambient storage, so the forced re-authentication on
// a stale credential is a pure state transition.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"fitledger/internal/domain"
	"fitledger/internal/money"
	"fitledger/internal/service"
)

type State string

const (
	StateIdle             State = "idle"
	StateCreatingOrder    State = "creating-order"
	StateAwaitingApproval State = "awaiting-approval"
	StateCapturing        State = "capturing"
	StateDone             State = "done"
	StateError            State = "error"

	// StateReauthRequired is the recoverable session-expiry branch: the
	// credential is gone but the cart is not. After re-authentication the
	// buyer resumes checkout with the same cart.
	StateReauthRequired State = "reauth-required"
)

// Cart is the buyer's client-side cart. It survives every failure path;
// only a completed capture clears it.
type Cart struct {
	Items []domain.CartItem
	Type  domain.ItemType
	Total money.Amount
}

func (c Cart) Empty() bool {
	return len(c.Items) == 0
}

// Backend is the local backend as seen from the client. It rejects a stale
// session credential with domain.ErrSessionExpired, which is a different
// failure class from anything the gateway returns.
type Backend interface {
	CreateOrder(ctx context.Context, credential string, req domain.CheckoutRequest) (string, error)
	CapturePayment(ctx context.Context, credential string, orderID string) (*service.CaptureResult, error)
}

type Orchestrator struct {
	backend    Backend
	buyerID    string
	credential string

	state   State
	cart    Cart
	orderID string
	lastErr error
}

func New(backend Backend, buyerID, credential string) *Orchestrator {
	return &Orchestrator{backend: backend, buyerID: buyerID, credential: credential, state: StateIdle}
}

func (o *Orchestrator) State() State    { return o.state }
func (o *Orchestrator) Cart() Cart      { return o.cart }
func (o *Orchestrator) OrderID() string { return o.orderID }
func (o *Orchestrator) Err() error      { return o.lastErr }

// Begin creates the gateway order and moves to awaiting-approval. On a
// rejected session credential the credential is dropped and the machine
// parks in reauth-required with the cart intact; a stale credential is never
// silently retried.
func (o *Orchestrator) Begin(ctx context.Context, cart Cart) (string, error) {
	if o.state != StateIdle {
		return "", fmt.Errorf("cannot begin checkout from state %q", o.state)
	}
	if cart.Empty() {
		return "", &domain.ValidationError{Field: "items", Message: "cart is empty"}
	}

	o.cart = cart
	o.state = StateCreatingOrder

	orderID, err := o.backend.CreateOrder(ctx, o.credential, domain.CheckoutRequest{
		BuyerID:  o.buyerID,
		Items:    cart.Items,
		CartType: cart.Type,
		Total:    cart.Total,
	})
	if err != nil {
		o.fail(err)
		return "", err
	}

	o.orderID = orderID
	o.state = StateAwaitingApproval
	return orderID, nil
}

// CompleteApproval is called once the buyer approved the order with the
// gateway. Success is the single point where the cart is cleared.
func (o *Orchestrator) CompleteApproval(ctx context.Context) (*service.CaptureResult, error) {
	if o.state != StateAwaitingApproval {
		return nil, fmt.Errorf("cannot capture from state %q", o.state)
	}

	o.state = StateCapturing
	result, err := o.backend.CapturePayment(ctx, o.credential, o.orderID)
	if err != nil {
		o.fail(err)
		return nil, err
	}

	o.state = StateDone
	o.cart = Cart{}
	return result, nil
}

// Cancel returns to idle with no backend effect; the unapproved gateway
// order is simply abandoned. An in-flight capture cannot be cancelled: once
// issued it completes and its result stands.
func (o *Orchestrator) Cancel() {
	switch o.state {
	case StateIdle, StateCapturing, StateDone:
		return
	}
	o.state = StateIdle
	o.orderID = ""
	o.lastErr = nil
}

// Reauthenticate installs a fresh credential after the buyer signed back in
// and returns the machine to idle, cart untouched.
func (o *Orchestrator) Reauthenticate(credential string) error {
	if o.state != StateReauthRequired {
		return fmt.Errorf("cannot reauthenticate from state %q", o.state)
	}
	o.credential = credential
	o.state = StateIdle
	o.orderID = ""
	o.lastErr = nil
	return nil
}

func (o *Orchestrator) fail(err error) {
	o.lastErr = err
	if errors.Is(err, domain.ErrSessionExpired) {
		o.credential = ""
		o.state = StateReauthRequired
		return
	}
	o.state = StateError
}
