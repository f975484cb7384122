package handlers

import (
	"net/http"
	"time"

	"pokestore_back_end/internal/cache"
	"pokestore_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const wsPingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// CartWebSocket pousse le résumé du panier à chaque modification publiée sur Redis
func (h *Handler) CartWebSocket(c *gin.Context) {
	if h.feed == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Synchronisation désactivée"})
		return
	}
	key := c.GetString(middleware.KeyCartSession)
	method := paymentMethodQuery(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("❌ upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	pubsub := h.feed.Subscribe(ctx, key)
	defer pubsub.Close()
	ch := pubsub.Channel()

	push := func(event string) error {
		ct, err := h.carts.Open(ctx, key)
		if err != nil {
			return err
		}
		resp := cartResponse(ct, method)
		resp["type"] = event
		return conn.WriteJSON(resp)
	}

	if err := push("connected"); err != nil {
		h.logger.Warn("❌ envoi WebSocket", zap.String("cart", key), zap.Error(err))
		return
	}

	// lecture en fond pour détecter la fermeture côté client
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg.Payload != cache.CartUpdated && msg.Payload != cache.CartCleared {
				continue
			}
			if err := push("cart_" + msg.Payload); err != nil {
				h.logger.Warn("❌ envoi WebSocket", zap.String("cart", key), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
