package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"gearshare/internal/domain/money"
	"gearshare/internal/pkg/config"
	"gearshare/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// Client talks to the payment processor over HTTP with retries on transient
// failures. Non-2xx responses are terminal and surface as ErrPaymentFailed.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	apiKey  string
}

func NewClient(cfg config.PaymentConfig) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil

	return &Client{
		http:    rc,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

type authorizeRequest struct {
	Amount   string    `json:"amount"`
	Currency string    `json:"currency"`
	PayerID  uuid.UUID `json:"payer_id"`
}

type authorizeResponse struct {
	PaymentRef string `json:"payment_ref"`
}

type refundRequest struct {
	Amount string `json:"amount"`
}

type refundResponse struct {
	RefundRef string `json:"refund_ref"`
}

func (c *Client) Authorize(ctx context.Context, amount money.Money, currency string, payerID uuid.UUID) (string, error) {
	body := authorizeRequest{Amount: amount.String(), Currency: currency, PayerID: payerID}

	var resp authorizeResponse
	if err := c.post(ctx, "/v1/payments/authorize", "", body, &resp); err != nil {
		return "", err
	}
	if resp.PaymentRef == "" {
		return "", errs.Mark(errs.New("processor returned no payment reference"), errs.ErrPaymentFailed)
	}
	return resp.PaymentRef, nil
}

func (c *Client) Capture(ctx context.Context, paymentRef string) error {
	path := fmt.Sprintf("/v1/payments/%s/capture", paymentRef)
	return c.post(ctx, path, "", struct{}{}, nil)
}

// Refund sends the idempotency key so the processor treats a retried
// refund of the same capture as the original request.
func (c *Client) Refund(ctx context.Context, paymentRef string, amount money.Money, idempotencyKey string) (string, error) {
	path := fmt.Sprintf("/v1/payments/%s/refund", paymentRef)

	var resp refundResponse
	if err := c.post(ctx, path, idempotencyKey, refundRequest{Amount: amount.String()}, &resp); err != nil {
		return "", err
	}
	return resp.RefundRef, nil
}

func (c *Client) post(ctx context.Context, path, idempotencyKey string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errs.Wrap(err, "failed to encode payment request")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errs.Wrap(err, "failed to build payment request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Mark(errs.Wrap(err, "payment processor unreachable"), errs.ErrPaymentFailed)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.WarnContext(ctx, "payment processor rejected request",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
		return errs.Mark(errs.Newf("payment processor returned status %d", resp.StatusCode), errs.ErrPaymentFailed)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errs.Mark(errs.Wrap(err, "failed to decode payment response"), errs.ErrPaymentFailed)
		}
	}
	return nil
}
