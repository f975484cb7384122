package handlers

import (
	"net/http"

	"pokestore_back_end/internal/checkout"
	"pokestore_back_end/internal/models"

	"github.com/gin-gonic/gin"
)

// Checkout transforme le panier de la session en commande
func (h *Handler) Checkout(c *gin.Context) {
	var input struct {
		CustomerInfo  models.CustomerInfo  `json:"customerInfo"`
		PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	ct, ok := h.openCart(c)
	if !ok {
		return
	}

	result, err := h.checkout.PlaceOrder(c.Request.Context(), checkout.Request{
		Cart:          ct,
		Customer:      input.CustomerInfo,
		PaymentMethod: input.PaymentMethod,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
