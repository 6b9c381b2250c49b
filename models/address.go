package models

import "time"

type AddressType string

const (
	AddressTypeShipping AddressType = "shipping"
	AddressTypeBilling  AddressType = "billing"
)

type Address struct {
	ID         int         `json:"id"`
	UserID     int         `json:"user_id"`
	Street     string      `json:"street"`
	City       string      `json:"city"`
	State      string      `json:"state"`
	PostalCode string      `json:"postal_code"`
	Country    string      `json:"country"`
	Type       AddressType `json:"type"`
	CreatedAt  time.Time   `json:"created_at"`
}
