package models

import "time"

const StockMovementSale = "sale"

type StockMovement struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Type      string    `json:"type"` // "sale", "restock", "adjustment"
	Quantity  int       `json:"quantity"`
	PrevStock int       `json:"prev_stock"`
	NewStock  int       `json:"new_stock"`
	OrderID   string    `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
