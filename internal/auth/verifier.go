// Package auth consumes the external auth subsystem's session credentials.
// The credential is opaque here; the only question this core ever asks is
// "does the auth service still accept it", and the only failure it reports
// is domain.ErrSessionExpired.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fitledger/internal/domain"
)

type Verifier struct {
	url   string
	httpc *http.Client
}

func NewVerifier(url string, timeout time.Duration) *Verifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Verifier{url: url, httpc: &http.Client{Timeout: timeout}}
}

type introspection struct {
	BuyerID string `json:"buyer_id"`
}

func (v *Verifier) Verify(ctx context.Context, credential string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := v.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", domain.ErrSessionExpired
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	var body introspection
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.BuyerID == "" {
		return "", domain.ErrSessionExpired
	}
	return body.BuyerID, nil
}
