package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitledger/internal/domain"
	"fitledger/internal/money"
)

func TestSandboxLifecycle(t *testing.T) {
	ctx := context.Background()
	sandbox := NewSandbox()
	total := money.Amount{MinorUnits: 9900, Currency: "USD"}

	orderID, err := sandbox.CreateOrder(ctx, total, "v1:buyer:B1:bundle")
	require.NoError(t, err)

	// Capture before approval is rejected.
	_, err = sandbox.Capture(ctx, orderID)
	var gatewayErr *domain.GatewayError
	require.ErrorAs(t, err, &gatewayErr)

	require.True(t, sandbox.Approve(orderID))

	outcome, err := sandbox.Capture(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", outcome.Status)
	assert.Equal(t, total, outcome.Amount)
	assert.Equal(t, "v1:buyer:B1:bundle", outcome.CustomID)
	assert.NotEmpty(t, outcome.CaptureID)

	// Second capture replays idempotently.
	_, err = sandbox.Capture(ctx, orderID)
	require.ErrorIs(t, err, domain.ErrAlreadyCaptured)
}

func TestSandboxUnknownOrder(t *testing.T) {
	sandbox := NewSandbox()
	_, err := sandbox.Capture(context.Background(), "nope")
	var gatewayErr *domain.GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, 404, gatewayErr.StatusCode)
}

func TestSandboxRejectsNonPositiveAmount(t *testing.T) {
	sandbox := NewSandbox()
	_, err := sandbox.CreateOrder(context.Background(), money.Amount{MinorUnits: 0, Currency: "USD"}, "x")
	require.Error(t, err)
}
