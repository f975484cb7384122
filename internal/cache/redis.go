package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	CartTTL = 30 * 24 * time.Hour // 30 jours

	cartKeyPrefix = "cart:"

	// messages publiés sur le canal du panier
	CartUpdated = "updated"
	CartCleared = "cleared"
)

func CartKey(sessionKey string) string {
	return cartKeyPrefix + sessionKey
}

// RedisCartStore persiste les paniers (JSON) sous cart:<session> et publie chaque changement
// sur le canal du même nom pour la synchro WebSocket.
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartStore(client *redis.Client) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: CartTTL}
}

// Get retourne nil sans erreur quand le panier n'existe pas
func (s *RedisCartStore) Get(ctx context.Context, sessionKey string) ([]byte, error) {
	data, err := s.client.Get(ctx, CartKey(sessionKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture panier: %w", err)
	}
	return data, nil
}

func (s *RedisCartStore) Set(ctx context.Context, sessionKey string, data []byte) error {
	key := CartKey(sessionKey)
	event := CartUpdated
	if len(data) == 0 || string(data) == "[]" || string(data) == "null" {
		event = CartCleared
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.ttl)
	pipe.Publish(ctx, key, event)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("écriture panier: %w", err)
	}
	return nil
}

// Subscribe s'abonne aux changements d'un panier. L'appelant ferme le PubSub.
func (s *RedisCartStore) Subscribe(ctx context.Context, sessionKey string) *redis.PubSub {
	return s.client.Subscribe(ctx, CartKey(sessionKey))
}

// RateLimiter : compteur à fenêtre fixe (INCR + EXPIRE dans un pipeline)
type RateLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, prefix string, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow incrémente le compteur de key et indique si la limite est respectée
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	k := fmt.Sprintf("ratelimit:%s:%s", r.prefix, key)

	// ExpireNX : la fenêtre part de la première requête, les suivantes ne la prolongent pas
	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	count := incr.Val()
	return count <= r.limit, count, nil
}

func (r *RateLimiter) Window() time.Duration {
	return r.window
}

func (r *RateLimiter) Limit() int64 {
	return r.limit
}
