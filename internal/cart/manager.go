package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"pokestore_back_end/internal/models"

	"go.uber.org/zap"
)

// Manager ouvre les paniers d'une requête à partir de leur clé de session
type Manager struct {
	auth     Authenticator
	persist  Persistence
	products ProductReader
	logger   *zap.Logger
}

func NewManager(auth Authenticator, persist Persistence, products ProductReader, logger *zap.Logger) *Manager {
	return &Manager{auth: auth, persist: persist, products: products, logger: logger}
}

// Open restaure le panier persisté sous key. Un contenu illisible donne un panier vide.
func (m *Manager) Open(ctx context.Context, key string) (*Cart, error) {
	c := &Cart{
		key:      key,
		auth:     m.auth,
		persist:  m.persist,
		products: m.products,
	}

	data, err := m.persist.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("ouverture panier: %w", err)
	}
	if len(data) == 0 {
		return c, nil
	}

	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		m.logger.Warn("⚠️ panier illisible, réinitialisé", zap.String("cart", key), zap.Error(err))
		return c, nil
	}

	for _, item := range items {
		if item.ProductID == "" || item.Quantity < 1 {
			continue
		}
		c.items = append(c.items, item)
	}
	return c, nil
}
