package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CartSessionHeader = "X-Cart-Session"
	KeyCartSession    = "cart_session"
)

// CartSession : la clé du panier est la session du header, créée si absente.
// Elle ne dépend pas de l'utilisateur connecté, le panier survit donc au logout/login.
func CartSession(c *gin.Context) {
	session := c.GetHeader(CartSessionHeader)
	if _, err := uuid.Parse(session); err != nil {
		session = uuid.NewString()
	}
	c.Header(CartSessionHeader, session)
	c.Set(KeyCartSession, session)
	c.Next()
}
