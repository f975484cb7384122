package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pokestore_back_end/internal/errs"
	"pokestore_back_end/internal/models"

	"github.com/google/uuid"
)

// MemoryStore implémente ProductStore et OrderStore en mémoire (dev local et tests).
type MemoryStore struct {
	mu       sync.Mutex
	products map[string]models.Product
	orders   map[string]models.Order
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]models.Product),
		orders:   make(map[string]models.Order),
		now:      time.Now,
	}
}

func (m *MemoryStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, errs.ErrProductNotFound
	}
	return &p, nil
}

func (m *MemoryStore) GetProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Product
	for _, p := range m.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	sortProducts(out)
	return out, nil
}

func (m *MemoryStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sortProducts(out)
	return out, nil
}

func (m *MemoryStore) SaveProduct(ctx context.Context, p *models.Product) error {
	if p.StockQuantity < 0 {
		return errs.ErrInvalidQuantity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) DecrementStock(ctx context.Context, id string, qty int) (int, error) {
	if qty < 1 {
		return 0, errs.ErrInvalidQuantity
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return 0, errs.ErrProductNotFound
	}
	if p.StockQuantity < qty {
		return p.StockQuantity, &errs.StockError{ProductID: id, Available: p.StockQuantity, Requested: qty}
	}

	p.StockQuantity -= qty
	p.UpdatedAt = m.now()
	m.products[id] = p
	return p.StockQuantity, nil
}

func (m *MemoryStore) CreateOrder(ctx context.Context, order *models.Order) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	order.ID = uuid.NewString()
	order.CreatedAt = now
	order.UpdatedAt = now

	stored := *order
	stored.Items = append([]models.CartItem(nil), order.Items...)
	m.orders[order.ID] = stored
	return order.ID, nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, errs.ErrOrderNotFound
	}
	return &o, nil
}

func (m *MemoryStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	sortOrders(out)
	return out, nil
}

func (m *MemoryStore) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sortOrders(out)
	return out, nil
}

func (m *MemoryStore) UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return errs.ErrOrderNotFound
	}
	if o.Status != from {
		return fmt.Errorf("%w: %s -> %s (actuel %s)", errs.ErrInvalidStatusTransition, from, to, o.Status)
	}
	o.Status = to
	o.UpdatedAt = m.now()
	m.orders[id] = o
	return nil
}

func (m *MemoryStore) SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return errs.ErrOrderNotFound
	}
	o.PaymentIntentID = paymentIntentID
	m.orders[id] = o
	return nil
}

// plus récents d'abord
func sortProducts(products []models.Product) {
	sort.Slice(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID < products[j].ID
		}
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
}

func sortOrders(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
