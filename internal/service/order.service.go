package service

import (
	"context"
	"fmt"
	"log/slog"

	"fitledger/internal/domain"
	"fitledger/internal/gateway"
	"fitledger/internal/metrics"
	"fitledger/internal/money"
	"fitledger/internal/ordercode"
)

// OrderService validates a checkout request and creates the provisional
// gateway order. It writes nothing locally: until capture, the only durable
// trace of the checkout is the gateway order and its embedded encoding.
type OrderService struct {
	gw  gateway.Client
	log *slog.Logger
}

func NewOrderService(gw gateway.Client, log *slog.Logger) *OrderService {
	return &OrderService{gw: gw, log: log}
}

func (s *OrderService) CreateOrder(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	if req.BuyerID == "" {
		return "", &domain.ValidationError{Field: "buyer", Message: "missing buyer id"}
	}
	if len(req.Items) == 0 {
		return "", &domain.ValidationError{Field: "items", Message: "cart is empty"}
	}
	if !req.Total.IsPositive() {
		return "", &domain.ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	// Rejected here rather than letting the gateway bounce it, so the buyer
	// gets a clear message instead of a raw gateway error.
	if !money.Supported(req.Total.Currency) {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedCurrency, req.Total.Currency)
	}

	encoding, err := ordercode.Encode(req.BuyerID, req.Items, req.CartType)
	if err != nil {
		return "", &domain.ValidationError{Field: "items", Message: err.Error()}
	}

	orderID, err := s.gw.CreateOrder(ctx, req.Total, encoding)
	if err != nil {
		return "", err
	}

	metrics.OrdersCreated.Inc()
	s.log.Info("order created",
		slog.String("order_id", orderID),
		slog.String("buyer_id", req.BuyerID),
		slog.Int("items", len(req.Items)),
		slog.String("amount", req.Total.Value()),
		slog.String("currency", req.Total.Currency),
	)
	return orderID, nil
}
