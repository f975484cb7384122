package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"pokestore_back_end/internal/audit"
	"pokestore_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) MyOrders(c *gin.Context) {
	orders, err := h.checkout.ListMyOrders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.checkout.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// OrderInvoice renvoie la facture HTML (QR inclus) d'une commande visible par l'appelant
func (h *Handler) OrderInvoice(c *gin.Context) {
	if h.invoices == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Factures désactivées"})
		return
	}

	order, err := h.checkout.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	html, err := h.invoices.HTML(*order)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// OrderInvoicePDF imprime la facture en PDF (archivée dans MinIO au passage)
func (h *Handler) OrderInvoicePDF(c *gin.Context) {
	if h.invoices == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Factures désactivées"})
		return
	}

	order, err := h.checkout.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	pdf, err := h.invoices.RenderInvoice(c.Request.Context(), *order)
	if err != nil {
		h.logger.Error("❌ rendu facture", zap.String("order_id", order.ID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Facture indisponible"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%s.pdf"`, order.ShortID()))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *Handler) AdminListOrders(c *gin.Context) {
	orders, err := h.checkout.ListOrders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	if status := c.Query("status"); status != "" {
		filtered := orders[:0]
		for _, o := range orders {
			if string(o.Status) == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	var input struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	order, err := h.checkout.UpdateOrderStatus(c.Request.Context(), c.Param("id"), input.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// AdminAuditLogs : ?user_id= &action= &resource_id= &limit= (max 500)
func (h *Handler) AdminAuditLogs(c *gin.Context) {
	if h.audit == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Audit désactivé"})
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)
	logs, err := h.audit.Recent(c.Request.Context(), audit.Filter{
		UserID:     c.Query("user_id"),
		Action:     c.Query("action"),
		ResourceID: c.Query("resource_id"),
		Limit:      limit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}
