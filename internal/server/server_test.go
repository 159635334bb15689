package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitledger/internal/domain"
	"fitledger/internal/gateway"
	"fitledger/internal/repo"
	"fitledger/internal/service"
	"fitledger/internal/testutil"
)

type staticSessions map[string]string

func (s staticSessions) Verify(_ context.Context, credential string) (string, error) {
	buyerID, ok := s[credential]
	if !ok {
		return "", domain.ErrSessionExpired
	}
	return buyerID, nil
}

type serverFixture struct {
	sandbox *gateway.Sandbox
	ledger  *repo.MemoryLedger
	server  *Server
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &serverFixture{
		sandbox: gateway.NewSandbox(),
		ledger:  repo.NewMemoryLedger(),
	}
	log := testutil.Logger()
	orders := service.NewOrderService(f.sandbox, log)
	captures := service.NewCaptureService(f.sandbox, f.ledger, repo.NewMemoryJournal(), nil, service.EntitlementTTLs{}, log)
	access := service.NewAccessService(f.ledger, log)
	f.server = New(nil, orders, captures, access, staticSessions{"tok-1": "buyer-1"}, log)
	return f
}

func (f *serverFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func orderBody(amount, currency, itemType string, items ...orderItemRequest) gin.H {
	return gin.H{"amount": amount, "currency": currency, "item_type": itemType, "items": items}
}

func TestCreateOrderRequiresSession(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(t, http.MethodPost, "/api/orders", "",
		orderBody("45.00", "USD", "set", orderItemRequest{ID: "B1"}))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "SESSION_EXPIRED", decodeBody(t, w)["code"])

	w = f.do(t, http.MethodPost, "/api/orders", "tok-revoked",
		orderBody("45.00", "USD", "set", orderItemRequest{ID: "B1"}))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "SESSION_EXPIRED", decodeBody(t, w)["code"])
}

func TestCreateOrderHappyPath(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(t, http.MethodPost, "/api/orders", "tok-1",
		orderBody("45.00", "USD", "set", orderItemRequest{ID: "B1"}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	orderID, _ := decodeBody(t, w)["order_id"].(string)
	require.NotEmpty(t, orderID)

	status, _, ok := f.sandbox.OrderStatus(orderID)
	require.True(t, ok)
	assert.Equal(t, "CREATED", status)
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	f := newServerFixture(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing amount", gin.H{"currency": "USD", "item_type": "set", "items": []orderItemRequest{{ID: "B1"}}}},
		{"unknown item_type", orderBody("45.00", "USD", "subscription", orderItemRequest{ID: "B1"})},
		{"three decimal places", orderBody("45.001", "USD", "set", orderItemRequest{ID: "B1"})},
		{"unsupported currency", orderBody("45.00", "XBT", "set", orderItemRequest{ID: "B1"})},
		{"empty cart", orderBody("45.00", "USD", "set")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/orders", "tok-1", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestCaptureReturnsRecords(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(t, http.MethodPost, "/api/orders", "tok-1",
		orderBody("90.00", "USD", "mixed",
			orderItemRequest{ID: "B1", Type: "set"},
			orderItemRequest{ID: "C1", Type: "course"}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orderID := decodeBody(t, w)["order_id"].(string)

	require.True(t, f.sandbox.Approve(orderID))

	w = f.do(t, http.MethodPost, "/api/orders/"+orderID+"/capture", "tok-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, "COMPLETED", body["status"])
	assert.Equal(t, false, body["already_captured"])
	records := body["records"].([]any)
	require.Len(t, records, 2)
	first := records[0].(map[string]any)
	assert.Equal(t, "45.00", first["amount"])
}

func TestCaptureReplayIsIdempotent(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(t, http.MethodPost, "/api/orders", "tok-1",
		orderBody("45.00", "USD", "set", orderItemRequest{ID: "B1"}))
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decodeBody(t, w)["order_id"].(string)
	require.True(t, f.sandbox.Approve(orderID))

	w = f.do(t, http.MethodPost, "/api/orders/"+orderID+"/capture", "tok-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/orders/"+orderID+"/capture", "tok-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["already_captured"])
	assert.Equal(t, 1, f.ledger.Len())
}

func TestAccessEndpoints(t *testing.T) {
	f := newServerFixture(t)

	expiry := time.Now().Add(time.Hour)
	require.NoError(t, f.ledger.Create(context.Background(), &domain.PurchaseRecord{
		ID: uuid.New(), BuyerID: "buyer-1", ItemID: "C1", ItemType: domain.ItemTypeCourse,
		PaymentID: "ORDER-1", AmountMinor: 100, Currency: "USD", IsActive: true,
		ExpiresAt: &expiry, CreatedAt: time.Now(),
	}))

	// Anonymous callers get a clean false, not a 401.
	w := f.do(t, http.MethodGet, "/api/access/C1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["has_access"])

	w = f.do(t, http.MethodGet, "/api/course-access/C1", "tok-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["has_access"])

	w = f.do(t, http.MethodGet, "/api/access/C404", "tok-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["has_access"])
}

func TestCaptureGatewayRejectionPassesBodyThrough(t *testing.T) {
	f := newServerFixture(t)

	// Order exists but was never approved: the sandbox rejects the capture.
	w := f.do(t, http.MethodPost, "/api/orders", "tok-1",
		orderBody("45.00", "USD", "set", orderItemRequest{ID: "B1"}))
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decodeBody(t, w)["order_id"].(string)

	w = f.do(t, http.MethodPost, "/api/orders/"+orderID+"/capture", "tok-1", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotEmpty(t, decodeBody(t, w)["error"])
}
