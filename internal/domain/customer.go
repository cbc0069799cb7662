package domain

import "time"

// Customer is a billing account holder identified at the desk by AccountNumber.
type Customer struct {
	ID            int64     `json:"id"`
	AccountNumber string    `json:"accountNumber"`
	Name          string    `json:"name"`
	PhoneNumber   string    `json:"phoneNumber,omitempty"`
	Address       string    `json:"address,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
