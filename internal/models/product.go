package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string          `json:"id" db:"product_id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Image         string          `json:"image" db:"image"`
	Category      string          `json:"category" db:"category"`
	StockQuantity int             `json:"stock_quantity" db:"stock"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// InStock est dérivé de StockQuantity, jamais stocké
func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// ProductView est la forme renvoyée au front (avec in_stock calculé)
type ProductView struct {
	Product
	InStock bool `json:"in_stock"`
}

func (p Product) View() ProductView {
	return ProductView{Product: p, InStock: p.InStock()}
}
