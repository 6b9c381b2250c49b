package models

import "time"

type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "available"
	ProductStatusReserved  ProductStatus = "reserved"
	ProductStatusSold      ProductStatus = "sold"
	ProductStatusRemoved   ProductStatus = "removed"
)

// Product is owned by the catalog; this service only ever moves it to sold.
type Product struct {
	ID        string        `json:"id"`
	SellerID  int           `json:"seller_id"`
	Price     int64         `json:"price"` // cents
	Status    ProductStatus `json:"status"`
	UpdatedAt time.Time     `json:"updated_at"`
}
