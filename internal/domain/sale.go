package domain

import "time"

// SaleRequest is the payload submitted at checkout.
type SaleRequest struct {
	CustomerID int64             `json:"customerId"`
	SalesItems []SaleRequestLine `json:"salesItems"`
}

type SaleRequestLine struct {
	ItemID int64 `json:"itemId"`
	Unit   int   `json:"unit"`
}

// Bill is a persisted sale. Its prices and totals are authoritative.
type Bill struct {
	ID         int64      `json:"id"`
	CreatedAt  time.Time  `json:"createdAt"`
	Customer   Customer   `json:"customer"`
	SalesItems []BillLine `json:"salesItems,omitempty"`
	GrandTotal int64      `json:"grandTotal"`
}

type BillLine struct {
	ID        int64 `json:"id,omitempty"`
	Item      Item  `json:"item"`
	Unit      int   `json:"unit"`
	SellPrice int64 `json:"sellPrice"`
	SubTotal  int64 `json:"subTotal"`
}
