package routes

import (
	"net/http"
	"time"

	"pokestore_back_end/internal/handlers"
	"pokestore_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Config struct {
	AllowedOrigins []string
	Tokens         middleware.TokenParser
	// limiteurs optionnels (Redis)
	APILimiter      middleware.Limiter
	CheckoutLimiter middleware.Limiter
	CartLimiter     middleware.Limiter
}

func NewRouter(h *handlers.Handler, cfg Config, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.RequestLogger(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.CartSessionHeader},
		ExposeHeaders:    []string{middleware.CartSessionHeader, "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.Authenticate(cfg.Tokens, logger))
	if cfg.APILimiter != nil {
		api.Use(middleware.RateLimit(cfg.APILimiter, middleware.ByIP, logger))
	}

	// Produits
	api.GET("/products", h.ListProducts)
	api.GET("/products/search", h.SearchProducts)
	api.GET("/products/category/:category", h.ProductsByCategory)
	api.GET("/products/:id", h.GetProduct)

	// Panier (anonyme ou connecté)
	cart := api.Group("/cart", middleware.CartSession)
	{
		cart.GET("", h.GetCart)
		cart.GET("/ws", h.CartWebSocket)
		if cfg.CartLimiter != nil {
			cart.POST("/add", middleware.RateLimit(cfg.CartLimiter, middleware.ByIP, logger), h.AddToCart)
		} else {
			cart.POST("/add", h.AddToCart)
		}
		cart.PUT("/:productId", h.UpdateCartItem)
		cart.DELETE("/clear", h.ClearCart)
		cart.DELETE("/:productId", h.RemoveCartItem)
	}

	// Checkout et commandes
	auth := api.Group("", middleware.RequireAuth)
	{
		if cfg.CheckoutLimiter != nil {
			auth.POST("/checkout", middleware.CartSession, middleware.RateLimit(cfg.CheckoutLimiter, middleware.ByUser, logger), h.Checkout)
		} else {
			auth.POST("/checkout", middleware.CartSession, h.Checkout)
		}
		auth.GET("/orders", h.MyOrders)
		auth.GET("/orders/:id", h.GetOrder)
		auth.GET("/orders/:id/invoice", h.OrderInvoice)
		auth.GET("/orders/:id/invoice.pdf", h.OrderInvoicePDF)
	}

	admin := api.Group("/admin", middleware.RequireAdmin)
	{
		admin.GET("/orders", h.AdminListOrders)
		admin.PUT("/orders/:id/status", h.AdminUpdateOrderStatus)
		admin.GET("/audit", h.AdminAuditLogs)
	}

	return r
}
