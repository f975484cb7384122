package models

import "time"

// Actions d'audit
const (
	ActionOrderCreate       = "order.create"
	ActionOrderStatusChange = "order.status_change"
	ActionStockReserve      = "stock.reserve"
	ActionStockReserveFail  = "stock.reserve_failed"
)

const (
	ResourceOrder     = "order"
	ResourceInventory = "inventory"
)

type AuditLog struct {
	ID         string                 `json:"id" bson:"_id,omitempty"`
	UserID     string                 `json:"user_id" bson:"user_id"`
	UserEmail  string                 `json:"user_email" bson:"user_email"`
	Action     string                 `json:"action" bson:"action"`
	Resource   string                 `json:"resource" bson:"resource"`
	ResourceID string                 `json:"resource_id" bson:"resource_id"`
	Data       map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"`
	Success    bool                   `json:"success" bson:"success"`
	ErrorMsg   string                 `json:"error_msg,omitempty" bson:"error_msg,omitempty"`
	CreatedAt  time.Time              `json:"created_at" bson:"created_at"`
}
