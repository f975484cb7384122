package models

import "github.com/shopspring/decimal"

// CartItem est une ligne du panier : une seule entrée par produit
type CartItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Category  string          `json:"category"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

// NewCartItem construit une ligne à partir du produit courant
func NewCartItem(p Product, quantity int) CartItem {
	return CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Category:  p.Category,
		Image:     p.Image,
		Quantity:  quantity,
	}
}
