// Package cart maintient le panier d'une session : ajout, mise à jour, retrait, vidage,
// avec les règles d'authentification et de stock appliquées au moment de la mutation.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"pokestore_back_end/internal/errs"
	"pokestore_back_end/internal/models"
	"pokestore_back_end/internal/pricing"

	"github.com/shopspring/decimal"
)

// Authenticator retourne l'utilisateur courant, nil pour un visiteur anonyme
type Authenticator interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// Persistence : stockage clé/valeur du panier sérialisé
type Persistence interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
}

type ProductReader interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

type State int

const (
	StateEmpty State = iota
	StatePopulated
)

func (s State) String() string {
	if s == StatePopulated {
		return "populated"
	}
	return "empty"
}

type Cart struct {
	mu       sync.Mutex
	key      string
	items    []models.CartItem
	auth     Authenticator
	persist  Persistence
	products ProductReader
}

func (c *Cart) Key() string {
	return c.key
}

func (c *Cart) AddItem(ctx context.Context, p models.Product) error {
	return c.AddQuantity(ctx, p, 1)
}

// AddQuantity ajoute qty unités d'un produit. Rejette sans rien modifier si le total
// de la ligne dépasserait le stock : pas d'ajustement silencieux.
func (c *Cart) AddQuantity(ctx context.Context, p models.Product, qty int) error {
	user, err := c.auth.CurrentUser(ctx)
	if err != nil || user == nil {
		return errs.ErrAuthenticationRequired
	}
	if qty < 1 {
		return errs.ErrInvalidQuantity
	}
	if p.StockQuantity < 1 {
		return errs.ErrOutOfStock
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snapshot()
	idx := indexOf(next, p.ID)

	existing := 0
	if idx >= 0 {
		existing = next[idx].Quantity
	}
	if existing+qty > p.StockQuantity {
		return errs.ErrStockLimitReached
	}

	if idx >= 0 {
		next[idx].Quantity += qty
	} else {
		next = append(next, models.NewCartItem(p, qty))
	}
	return c.commit(ctx, next)
}

// UpdateQuantity fixe la quantité d'une ligne, bornée au stock courant du produit.
// qty <= 0 retire la ligne. Retourne la quantité appliquée.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, c.RemoveItem(ctx, productID)
	}

	c.mu.Lock()
	idx := indexOf(c.items, productID)
	c.mu.Unlock()
	if idx < 0 {
		return 0, nil
	}

	// lecture hors verrou : le store peut être lent
	p, err := c.products.GetProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("lecture stock %s: %w", productID, err)
	}
	if p.StockQuantity < qty {
		qty = p.StockQuantity
	}
	if qty <= 0 {
		return 0, c.RemoveItem(ctx, productID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snapshot()
	idx = indexOf(next, productID)
	if idx < 0 {
		return 0, nil
	}
	next[idx].Quantity = qty
	if err := c.commit(ctx, next); err != nil {
		return 0, err
	}
	return qty, nil
}

// RemoveItem est idempotent
func (c *Cart) RemoveItem(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := indexOf(c.items, productID)
	if idx < 0 {
		return nil
	}

	next := make([]models.CartItem, 0, len(c.items)-1)
	next = append(next, c.items[:idx]...)
	next = append(next, c.items[idx+1:]...)
	return c.commit(ctx, next)
}

func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commit(ctx, nil)
}

// Items retourne une copie des lignes
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cart) State() State {
	if c.Len() == 0 {
		return StateEmpty
	}
	return StatePopulated
}

func (c *Cart) Total(method models.PaymentMethod) decimal.Decimal {
	return pricing.ComputeOrderTotal(c.Items(), method)
}

func (c *Cart) Summary(method models.PaymentMethod) pricing.Summary {
	return pricing.Summarize(c.Items(), method)
}

// commit persiste puis remplace l'état ; en cas d'échec l'état en mémoire reste inchangé.
// Appelé verrou tenu.
func (c *Cart) commit(ctx context.Context, next []models.CartItem) error {
	if next == nil {
		next = []models.CartItem{}
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("sérialisation panier: %w", err)
	}
	if err := c.persist.Set(ctx, c.key, data); err != nil {
		return fmt.Errorf("sauvegarde panier: %w", err)
	}

	c.items = next
	return nil
}

func (c *Cart) snapshot() []models.CartItem {
	return append([]models.CartItem(nil), c.items...)
}

func indexOf(items []models.CartItem, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
