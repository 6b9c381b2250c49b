package models

import "time"

// User is the internal user row; ExternalID is the stable subject issued
// by the identity provider.
type User struct {
	ID         int       `json:"id"`
	ExternalID string    `json:"external_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
}
