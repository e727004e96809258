// Package razorpay is a minimal client for the Razorpay Orders API, covering
// only what checkout needs: creating a gateway order for a given amount.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/ovenfresh/bakery-api/internal/domain/payment"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

var _ payment.Gateway = (*Client)(nil)

// Client talks to the Razorpay REST API using key id/secret basic auth.
type Client struct {
	http     *http.Client
	baseURL  string
	keyID    string
	secret   string
	currency string
}

// Option customizes the Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a Client for the given API credentials. Orders are
// created in INR unless the currency is overridden via config.
func NewClient(keyID, secret, currency string, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: 10 * time.Second},
		baseURL:  defaultBaseURL,
		keyID:    keyID,
		secret:   secret,
		currency: currency,
	}
	if c.currency == "" {
		c.currency = "INR"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder creates a pending gateway order. The amount is converted to
// minor currency units (paise) before hitting the API.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*payment.GatewayOrder, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency: c.currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("gateway returned status %d", resp.StatusCode)
	}

	return decodeOrder(raw)
}

// decodeOrder parses the gateway's order JSON, picking out only the fields
// checkout needs and skipping the rest of the payload.
func decodeOrder(raw []byte) (*payment.GatewayOrder, error) {
	var out payment.GatewayOrder
	d := jx.DecodeBytes(raw)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			if err != nil {
				return err
			}
			out.ID = v
		case "amount":
			v, err := d.Int64()
			if err != nil {
				return err
			}
			out.Amount = v
		case "currency":
			v, err := d.Str()
			if err != nil {
				return err
			}
			out.Currency = v
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode order response")
	}
	if out.ID == "" {
		return nil, errors.New("gateway response missing order id")
	}
	return &out, nil
}
