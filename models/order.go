package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order covers exactly one product from one seller. A cart spanning N
// sellers finalizes into N orders sharing the same payment reference.
type Order struct {
	ID        int         `json:"id"`
	BuyerID   int         `json:"buyer_id"`
	SellerID  int         `json:"seller_id"`
	ProductID string      `json:"product_id"`
	AddressID int         `json:"address_id"`
	Amount    int64       `json:"amount"` // cents, item price plus allocated shipping and tax
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

type OrderSummary struct {
	ID        int    `json:"id"`
	SellerID  int    `json:"seller_id"`
	ProductID string `json:"product_id"`
	Amount    int64  `json:"amount"`
}

type OrderEvent struct {
	OrderID    int         `json:"order_id"`
	BuyerID    int         `json:"buyer_id"`
	SellerID   int         `json:"seller_id"`
	ProductID  string      `json:"product_id"`
	Amount     int64       `json:"amount"`
	Status     OrderStatus `json:"status"`
	PaymentRef string      `json:"payment_ref"`
	EventType  string      `json:"event_type"` // order_finalized
}
