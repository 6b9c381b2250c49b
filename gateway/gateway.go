package gateway

import (
	"context"
	"errors"
)

// Authorization statuses as reported by the payment provider. Anything
// other than succeeded means the money is not confirmed.
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

var (
	ErrNotFound    = errors.New("payment authorization not found")
	ErrUnavailable = errors.New("payment gateway unavailable")
)

// LineItem is one cart entry as declared in the authorization metadata.
// Prices are in cents.
type LineItem struct {
	ProductID string `json:"product_id"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
}

// Metadata is the cart snapshot attached to the authorization when the
// payment was created. It is a claim to be re-checked against live
// inventory, not ground truth.
type Metadata struct {
	UserID   int        `json:"user_id"`
	Items    []LineItem `json:"items"`
	Shipping int64      `json:"shipping"`
	Tax      int64      `json:"tax"`
}

// PaymentAuthorization is the gateway's record of a charge.
type PaymentAuthorization struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	Amount   int64    `json:"amount"` // cents actually charged
	Metadata Metadata `json:"metadata"`
}

// PaymentGateway is the collaborator boundary; injected so tests can fake
// the provider deterministically.
type PaymentGateway interface {
	RetrievePayment(ctx context.Context, ref string) (*PaymentAuthorization, error)
}
