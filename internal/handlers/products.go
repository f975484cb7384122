package handlers

import (
	"net/http"
	"strconv"

	"pokestore_back_end/internal/models"
	"pokestore_back_end/internal/pricing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func views(products []models.Product) []models.ProductView {
	out := make([]models.ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, p.View())
	}
	return out
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": views(products), "count": len(products)})
}

func (h *Handler) ProductsByCategory(c *gin.Context) {
	products, err := h.products.GetProductsByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": views(products), "count": len(products)})
}

// GetProduct renvoie le produit et l'aperçu du prix pour ?quantity=
func (h *Handler) GetProduct(c *gin.Context) {
	qty, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil || qty < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	p, err := h.products.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": p.View(),
		"pricing": pricing.ComputeLineTotal(p.Category, p.Price, qty),
	})
}

// SearchProducts : ?q= &category= &limit=, servi par Elasticsearch
func (h *Handler) SearchProducts(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Recherche désactivée"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q requis"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	products, err := h.search.Search(c.Request.Context(), query, c.Query("category"), limit)
	if err != nil {
		h.logger.Warn("⚠️ recherche échouée", zap.String("q", query), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recherche indisponible"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": views(products), "count": len(products)})
}
