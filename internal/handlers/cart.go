package handlers

import (
	"net/http"

	"pokestore_back_end/internal/cart"
	"pokestore_back_end/internal/models"

	"github.com/gin-gonic/gin"
)

func paymentMethodQuery(c *gin.Context) models.PaymentMethod {
	m := models.PaymentMethod(c.Query("payment_method"))
	if !m.Valid() {
		return models.PaymentMethodOnline
	}
	return m
}

func cartResponse(ct *cart.Cart, method models.PaymentMethod) gin.H {
	return gin.H{
		"items":   ct.Items(),
		"state":   ct.State().String(),
		"summary": ct.Summary(method),
	}
}

func (h *Handler) GetCart(c *gin.Context) {
	ct, ok := h.openCart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(ct, paymentMethodQuery(c)))
}

func (h *Handler) AddToCart(c *gin.Context) {
	var input struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	ct, ok := h.openCart(c)
	if !ok {
		return
	}

	p, err := h.products.GetProduct(c.Request.Context(), input.ProductID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := ct.AddQuantity(c.Request.Context(), *p, input.Quantity); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(ct, paymentMethodQuery(c)))
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	var input struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	ct, ok := h.openCart(c)
	if !ok {
		return
	}

	applied, err := ct.UpdateQuantity(c.Request.Context(), c.Param("productId"), *input.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := cartResponse(ct, paymentMethodQuery(c))
	resp["applied_quantity"] = applied
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	ct, ok := h.openCart(c)
	if !ok {
		return
	}
	if err := ct.RemoveItem(c.Request.Context(), c.Param("productId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(ct, paymentMethodQuery(c)))
}

func (h *Handler) ClearCart(c *gin.Context) {
	ct, ok := h.openCart(c)
	if !ok {
		return
	}
	if err := ct.Clear(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(ct, paymentMethodQuery(c)))
}
