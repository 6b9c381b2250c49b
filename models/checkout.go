package models

type AddressRequest struct {
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

type ContactInfoRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone"`
}

type FinalizeCheckoutRequest struct {
	PaymentReference string             `json:"paymentReference" binding:"required"`
	ShippingAddress  AddressRequest     `json:"shippingAddress" binding:"required"`
	BillingAddress   *AddressRequest    `json:"billingAddress"`
	ShippingMethod   string             `json:"shippingMethod" binding:"required,oneof=standard express"`
	ContactInfo      ContactInfoRequest `json:"contactInfo" binding:"required"`
}

type FinalizeCheckoutResponse struct {
	Success bool           `json:"success"`
	Orders  []OrderSummary `json:"orders"`
}
