package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is the internal ledger record, one per order. All payments from
// one finalization share the gateway reference; the (gateway_ref, product_id)
// pair is unique, which is what makes a replayed finalization collide.
type Payment struct {
	ID         int           `json:"id"`
	OrderID    int           `json:"order_id"`
	GatewayRef string        `json:"gateway_ref"`
	ProductID  string        `json:"product_id"`
	Amount     int64         `json:"amount"` // cents
	Status     PaymentStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}
