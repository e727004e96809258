// Package payment wraps the hosted payment gateway: creating gateway-side
// orders and verifying payment signatures. It holds no local state; the
// signature check is deterministic and repeat verification of the same
// triple yields the same result.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/shopspring/decimal"
)

// GatewayOrder is the gateway's pending order handle returned to the client
// so it can open the hosted checkout. Amount is in minor currency units.
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
}

// Gateway creates pending orders on the payment provider's side. No stock
// is touched at this phase; the real order is created only after signature
// verification.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*GatewayOrder, error)
}

// Verifier checks the HMAC-SHA256 signature the gateway computes over
// "{orderID}|{paymentID}" with the shared key secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier with the gateway key secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// Verify reports whether signature is a valid hex HMAC-SHA256 of
// "{orderID}|{paymentID}". Comparison is constant-time.
func (v *Verifier) Verify(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}
