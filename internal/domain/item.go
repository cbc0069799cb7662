package domain

import "time"

// Item is a catalog entry. Price is held in minor currency units.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"itemName"`
	Description string    `json:"description,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	CategoryID  *int64    `json:"categoryId,omitempty"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
}
