// Package cache regroupe les usages Redis : paniers, cache produits, rate limiting.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pokestore_back_end/internal/models"
	"pokestore_back_end/internal/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ProductCacheTTL = 10 * time.Minute

// ProductCache met en cache les lectures unitaires de produits devant un store.ProductStore.
// Toute écriture (SaveProduct, DecrementStock) invalide l'entrée.
type ProductCache struct {
	store.ProductStore
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewProductCache(inner store.ProductStore, client *redis.Client, logger *zap.Logger) *ProductCache {
	return &ProductCache{ProductStore: inner, client: client, ttl: ProductCacheTTL, logger: logger}
}

func productKey(id string) string {
	return "product:" + id
}

func (c *ProductCache) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err == nil {
		var p models.Product
		if json.Unmarshal(data, &p) == nil {
			return &p, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("⚠️ cache produit indisponible", zap.String("product_id", id), zap.Error(err))
	}

	p, err := c.ProductStore.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, productKey(id), payload, c.ttl).Err(); err != nil {
			c.logger.Warn("⚠️ mise en cache produit échouée", zap.String("product_id", id), zap.Error(err))
		}
	}
	return p, nil
}

func (c *ProductCache) SaveProduct(ctx context.Context, p *models.Product) error {
	if err := c.ProductStore.SaveProduct(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.ID)
	return nil
}

func (c *ProductCache) DecrementStock(ctx context.Context, id string, qty int) (int, error) {
	remaining, err := c.ProductStore.DecrementStock(ctx, id, qty)
	if err == nil {
		c.invalidate(ctx, id)
	}
	return remaining, err
}

func (c *ProductCache) invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, productKey(id)).Err(); err != nil {
		c.logger.Warn("⚠️ invalidation cache produit échouée", zap.String("product_id", id), zap.Error(err))
	}
}
