// Package handlers expose le panier, le checkout et les commandes en HTTP (gin).
package handlers

import (
	"context"
	"errors"
	"net/http"

	"pokestore_back_end/internal/audit"
	"pokestore_back_end/internal/cart"
	"pokestore_back_end/internal/checkout"
	"pokestore_back_end/internal/errs"
	"pokestore_back_end/internal/invoice"
	"pokestore_back_end/internal/middleware"
	"pokestore_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProductsByCategory(ctx context.Context, category string) ([]models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type ProductSearcher interface {
	Search(ctx context.Context, query, category string, limit int) ([]models.Product, error)
}

// CartFeed : notifications de changement de panier (Redis pub/sub)
type CartFeed interface {
	Subscribe(ctx context.Context, sessionKey string) *redis.PubSub
}

type Handler struct {
	products ProductCatalog
	carts    *cart.Manager
	checkout *checkout.Service
	invoices *invoice.Service
	audit    *audit.Logger
	feed     CartFeed
	search   ProductSearcher
	logger   *zap.Logger
}

type Option func(*Handler)

func WithInvoices(s *invoice.Service) Option {
	return func(h *Handler) { h.invoices = s }
}

func WithAudit(l *audit.Logger) Option {
	return func(h *Handler) { h.audit = l }
}

func WithCartFeed(f CartFeed) Option {
	return func(h *Handler) { h.feed = f }
}

func WithSearch(s ProductSearcher) Option {
	return func(h *Handler) { h.search = s }
}

func New(products ProductCatalog, carts *cart.Manager, co *checkout.Service, logger *zap.Logger, opts ...Option) *Handler {
	h := &Handler{products: products, carts: carts, checkout: co, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) openCart(c *gin.Context) (*cart.Cart, bool) {
	key := c.GetString(middleware.KeyCartSession)
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session panier manquante"})
		return nil, false
	}

	ct, err := h.carts.Open(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("❌ ouverture panier", zap.String("cart", key), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Panier indisponible"})
		return nil, false
	}
	return ct, true
}

// respondError traduit les erreurs métier en statut HTTP
func (h *Handler) respondError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, "Erreur interne"

	switch {
	case errors.Is(err, errs.ErrAuthenticationRequired):
		status, message = http.StatusUnauthorized, "Authentification requise"
	case errors.Is(err, errs.ErrAdminRequired):
		status, message = http.StatusForbidden, "Accès réservé aux administrateurs"
	case errors.Is(err, errs.ErrProductNotFound):
		status, message = http.StatusNotFound, "Produit introuvable"
	case errors.Is(err, errs.ErrOrderNotFound):
		status, message = http.StatusNotFound, "Commande introuvable"
	case errors.Is(err, errs.ErrOutOfStock):
		status, message = http.StatusConflict, "Produit en rupture de stock"
	case errors.Is(err, errs.ErrStockLimitReached):
		status, message = http.StatusConflict, "Stock maximum atteint pour ce produit"
	case errors.Is(err, errs.ErrInsufficientStock):
		status, message = http.StatusConflict, "Stock insuffisant"
	case errors.Is(err, errs.ErrInvalidStatusTransition):
		status, message = http.StatusConflict, "Transition de statut impossible"
	case errors.Is(err, errs.ErrEmptyCart):
		status, message = http.StatusBadRequest, "Panier vide"
	case errors.Is(err, errs.ErrInvalidQuantity),
		errors.Is(err, errs.ErrInvalidPaymentMethod),
		errors.Is(err, errs.ErrInvalidCustomerInfo),
		errors.Is(err, errs.ErrInvalidStatus):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, errs.ErrOrderPersistenceFailed),
		errors.Is(err, errs.ErrStockContention):
		status, message = http.StatusServiceUnavailable, "Service indisponible, réessayez"
	}

	if status >= 500 {
		h.logger.Error("❌ requête échouée", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": message})
}
