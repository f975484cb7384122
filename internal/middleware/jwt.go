package middleware

import (
	"net/http"
	"strings"

	"pokestore_back_end/internal/auth"
	"pokestore_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	KeyUserID = "user_id"
	KeyEmail  = "email"
	KeyRole   = "role"
)

type TokenParser interface {
	Parse(token string) (*models.User, error)
}

// Authenticate pose l'utilisateur dans le contexte si un Bearer valide est présent.
// Sans header la requête continue en anonyme ; un token invalide est rejeté.
func Authenticate(tokens TokenParser, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			logger.Debug("❌ format Authorization invalide", zap.Int("parts", len(parts)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Format Authorization invalide"})
			return
		}

		user, err := tokens.Parse(parts[1])
		if err != nil {
			logger.Debug("❌ JWT refusé", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			return
		}

		c.Set(KeyUserID, user.ID)
		c.Set(KeyEmail, user.Email)
		c.Set(KeyRole, user.Role)
		c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

func RequireAuth(c *gin.Context) {
	if _, ok := auth.UserFromContext(c.Request.Context()); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token manquant"})
		return
	}
	c.Next()
}
