// Package store définit l'accès aux produits et aux commandes.
package store

import (
	"context"

	"pokestore_back_end/internal/models"
)

type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProductsByCategory(ctx context.Context, category string) ([]models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	SaveProduct(ctx context.Context, p *models.Product) error
	// DecrementStock retire qty du stock de façon atomique et retourne le stock restant.
	// Échoue avec une *errs.StockError si le stock courant est inférieur à qty.
	DecrementStock(ctx context.Context, id string, qty int) (int, error)
}

type OrderStore interface {
	// CreateOrder attribue l'ID et la date de création puis persiste la commande
	CreateOrder(ctx context.Context, order *models.Order) (string, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	// UpdateOrderStatus n'écrit to que si le statut courant vaut encore from,
	// sinon errs.ErrInvalidStatusTransition
	UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) error
	SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error
}
