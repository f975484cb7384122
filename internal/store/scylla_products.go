package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pokestore_back_end/internal/errs"
	"pokestore_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// nombre de tentatives du compare-and-swap avant d'abandonner
const maxCASAttempts = 5

const productColumns = `product_id, name, description, price, image, category, stock, created_at, updated_at`

// ScyllaProductStore : produits dans ScyllaDB, décrément via transaction légère (LWT)
type ScyllaProductStore struct {
	session *gocql.Session
	logger  *zap.Logger

	// appelé avant chaque tentative de CAS (tests de contention)
	beforeCAS func(attempt int)
}

func NewScyllaProductStore(session *gocql.Session, logger *zap.Logger) *ScyllaProductStore {
	return &ScyllaProductStore{session: session, logger: logger}
}

func (s *ScyllaProductStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	uid, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrProductNotFound, id)
	}

	row := s.session.Query(`SELECT `+productColumns+` FROM products WHERE product_id = ?`, uid).
		WithContext(ctx)

	p, err := scanProduct(row.Scan)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, errs.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture produit %s: %w", id, err)
	}
	return p, nil
}

func (s *ScyllaProductStore) GetProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	iter := s.session.Query(`SELECT `+productColumns+` FROM products WHERE category = ?`, category).
		WithContext(ctx).Iter()
	return s.collect(iter)
}

func (s *ScyllaProductStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	iter := s.session.Query(`SELECT ` + productColumns + ` FROM products`).WithContext(ctx).Iter()
	return s.collect(iter)
}

func (s *ScyllaProductStore) SaveProduct(ctx context.Context, p *models.Product) error {
	if p.StockQuantity < 0 {
		return errs.ErrInvalidQuantity
	}

	now := time.Now()
	uid := gocql.TimeUUID()
	if p.ID != "" {
		parsed, err := gocql.ParseUUID(p.ID)
		if err != nil {
			return fmt.Errorf("ID produit invalide %q: %w", p.ID, err)
		}
		uid = parsed
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	err := s.session.Query(`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uid, p.Name, p.Description, p.Price.String(), p.Image, p.Category, p.StockQuantity, p.CreatedAt, p.UpdatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("enregistrement produit: %w", err)
	}

	p.ID = uid.String()
	return nil
}

// DecrementStock lit le stock puis écrit stock-qty sous condition IF stock = <lu>.
// Si un autre checkout a modifié le stock entre-temps, on recommence avec la valeur observée.
func (s *ScyllaProductStore) DecrementStock(ctx context.Context, id string, qty int) (int, error) {
	if qty < 1 {
		return 0, errs.ErrInvalidQuantity
	}

	uid, err := gocql.ParseUUID(id)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errs.ErrProductNotFound, id)
	}

	var current int
	err = s.session.Query(`SELECT stock FROM products WHERE product_id = ?`, uid).
		WithContext(ctx).
		SerialConsistency(gocql.Serial).
		Scan(&current)
	if errors.Is(err, gocql.ErrNotFound) {
		return 0, errs.ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lecture stock %s: %w", id, err)
	}

	for attempt := 1; attempt <= maxCASAttempts; attempt++ {
		if current < qty {
			return current, &errs.StockError{ProductID: id, Available: current, Requested: qty}
		}

		if s.beforeCAS != nil {
			s.beforeCAS(attempt)
		}

		next := current - qty
		var observed int
		applied, err := s.session.Query(
			`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ? IF stock = ?`,
			next, time.Now(), uid, current,
		).WithContext(ctx).SerialConsistency(gocql.Serial).ScanCAS(&observed)
		if err != nil {
			return 0, fmt.Errorf("décrément stock %s: %w", id, err)
		}
		if applied {
			return next, nil
		}

		s.logger.Debug("conflit LWT sur le stock, nouvelle tentative",
			zap.String("product_id", id),
			zap.Int("attempt", attempt),
			zap.Int("expected", current),
			zap.Int("observed", observed))
		current = observed
	}

	return current, fmt.Errorf("%w: product %s", errs.ErrStockContention, id)
}

// StockMoved enregistre le mouvement de stock d'une vente
func (s *ScyllaProductStore) StockMoved(ctx context.Context, m models.StockMovement) error {
	pid, err := gocql.ParseUUID(m.ProductID)
	if err != nil {
		return fmt.Errorf("ID produit invalide %q: %w", m.ProductID, err)
	}

	return s.session.Query(`
		INSERT INTO stock_movements (
			product_id, id, type, quantity, prev_stock, new_stock, order_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		pid, gocql.TimeUUID(), m.Type, m.Quantity, m.PrevStock, m.NewStock, m.OrderID, m.CreatedAt,
	).WithContext(ctx).Exec()
}

func (s *ScyllaProductStore) collect(iter *gocql.Iter) ([]models.Product, error) {
	var products []models.Product
	for {
		p, err := scanProduct(func(dest ...interface{}) error {
			if !iter.Scan(dest...) {
				return gocql.ErrNotFound
			}
			return nil
		})
		if err != nil {
			break
		}
		products = append(products, *p)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture produits: %w", err)
	}

	sortProducts(products)
	return products, nil
}

func scanProduct(scan func(dest ...interface{}) error) (*models.Product, error) {
	var (
		id    gocql.UUID
		price string
		p     models.Product
	)

	if err := scan(&id, &p.Name, &p.Description, &price, &p.Image, &p.Category, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("prix produit %s: %w", id, err)
	}

	p.ID = id.String()
	p.Price = amount
	return &p, nil
}
