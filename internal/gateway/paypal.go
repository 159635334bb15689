package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/prometheus/client_golang/prometheus"

	"fitledger/internal/domain"
	"fitledger/internal/metrics"
	"fitledger/internal/money"
)

const (
	defaultTimeout = 15 * time.Second

	// tokenSlack is how long before its stated expiry a cached token is
	// considered stale. Resource calls still handle a 401, since the
	// gateway, not this clock, decides when a token dies.
	tokenSlack = 60 * time.Second
)

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// PayPalClient speaks the PayPal-compatible REST protocol: client-credentials
// token grant, v2 checkout order creation and capture.
type PayPalClient struct {
	cfg   Config
	httpc *http.Client
	log   *slog.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewPayPalClient(cfg Config, log *slog.Logger) *PayPalClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &PayPalClient{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
		log:   log,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *PayPalClient) cachedToken() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp.Add(-tokenSlack)) {
		return c.token, true
	}
	return "", false
}

func (c *PayPalClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// accessToken returns a bearer token, fetching a fresh one when the cache is
// stale. The fetch happens outside the mutex; concurrent callers may fetch
// twice, which is harmless and cheaper than holding a lock across a network
// call.
func (c *PayPalClient) accessToken(ctx context.Context) (string, error) {
	if tok, ok := c.cachedToken(); ok {
		return tok, nil
	}

	var tok tokenResponse
	err := retry.Do(
		func() error {
			return c.fetchToken(ctx, &tok)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.MaxDelay(2*time.Second),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransientAuthFailure),
	)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.token = tok.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	c.mu.Unlock()
	return tok.AccessToken, nil
}

// isTransientAuthFailure keeps retries to gateway-side trouble. A 4xx from
// the token endpoint means our credentials are wrong; retrying can't fix it.
func isTransientAuthFailure(err error) bool {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return authErr.StatusCode >= 500
	}
	return true
}

func (c *PayPalClient) fetchToken(ctx context.Context, out *tokenResponse) error {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &domain.AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return json.Unmarshal(body, out)
}

type amountJSON struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnitRequest struct {
	Amount   amountJSON `json:"amount"`
	CustomID string     `json:"custom_id,omitempty"`
}

type orderRequest struct {
	Intent             string                `json:"intent"`
	PurchaseUnits      []purchaseUnitRequest `json:"purchase_units"`
	ApplicationContext struct {
		ShippingPreference string `json:"shipping_preference"`
	} `json:"application_context"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *PayPalClient) CreateOrder(ctx context.Context, total money.Amount, customID string) (string, error) {
	body := orderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnitRequest{{
			Amount:   amountJSON{CurrencyCode: total.Currency, Value: total.Value()},
			CustomID: customID,
		}},
	}
	body.ApplicationContext.ShippingPreference = "NO_SHIPPING"

	var resp orderResponse
	if err := c.call(ctx, "create_order", http.MethodPost, "/v2/checkout/orders", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &domain.GatewayError{Op: "create_order", StatusCode: http.StatusOK, Body: "response carried no order id"}
	}
	c.log.Info("gateway order created", slog.String("order_id", resp.ID), slog.String("amount", total.Value()), slog.String("currency", total.Currency))
	return resp.ID, nil
}

type captureResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		CustomID string `json:"custom_id"`
		Payments struct {
			Captures []struct {
				ID       string     `json:"id"`
				Status   string     `json:"status"`
				CustomID string     `json:"custom_id"`
				Amount   amountJSON `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
	Payer struct {
		PayerID string `json:"payer_id"`
	} `json:"payer"`
}

func (c *PayPalClient) Capture(ctx context.Context, orderID string) (*CaptureOutcome, error) {
	var resp captureResponse
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", url.PathEscape(orderID))
	if err := c.call(ctx, "capture", http.MethodPost, path, struct{}{}, &resp); err != nil {
		return nil, err
	}

	outcome := &CaptureOutcome{
		OrderID: orderID,
		Status:  resp.Status,
		PayerID: resp.Payer.PayerID,
	}

	for _, pu := range resp.PurchaseUnits {
		// First non-empty custom_id wins: purchase unit, then the nested
		// capture record. Both locations occur in the wild.
		if outcome.CustomID == "" {
			outcome.CustomID = pu.CustomID
		}
		for _, cap := range pu.Payments.Captures {
			if outcome.CaptureID == "" {
				outcome.CaptureID = cap.ID
			}
			if outcome.CustomID == "" {
				outcome.CustomID = cap.CustomID
			}
			if outcome.Amount.Currency == "" && cap.Amount.Value != "" {
				amt, err := money.ParseValue(cap.Amount.Value, cap.Amount.CurrencyCode)
				if err != nil {
					return nil, &domain.GatewayError{Op: "capture", StatusCode: http.StatusOK,
						Body: fmt.Sprintf("unparseable captured amount %q", cap.Amount.Value)}
				}
				outcome.Amount = amt
			}
		}
	}
	return outcome, nil
}

func (c *PayPalClient) call(ctx context.Context, op, method, path string, body, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	timer := prometheus.NewTimer(metrics.GatewayRequestDuration.WithLabelValues(op))
	resp, err := c.httpc.Do(req)
	timer.ObserveDuration()
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// The resource call outlived the token. Session-layer failure, not
		// an order failure; drop the cache so the next call re-authenticates.
		c.invalidateToken()
		return &domain.AuthError{StatusCode: resp.StatusCode, Body: string(data)}
	case resp.StatusCode == http.StatusUnprocessableEntity && strings.Contains(string(data), "ORDER_ALREADY_CAPTURED"):
		return domain.ErrAlreadyCaptured
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &domain.GatewayError{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
