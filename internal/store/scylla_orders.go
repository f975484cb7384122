package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pokestore_back_end/internal/errs"
	"pokestore_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const orderColumns = `order_id, user_id, items, total, customer_info, status, payment_method, payment_intent_id, created_at, updated_at`

// ScyllaOrderStore : table orders + index par utilisateur (orders_by_user), écrits dans un batch logué
type ScyllaOrderStore struct {
	session *gocql.Session
	logger  *zap.Logger
}

func NewScyllaOrderStore(session *gocql.Session, logger *zap.Logger) *ScyllaOrderStore {
	return &ScyllaOrderStore{session: session, logger: logger}
}

func (s *ScyllaOrderStore) CreateOrder(ctx context.Context, order *models.Order) (string, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return "", fmt.Errorf("sérialisation articles: %w", err)
	}
	customer, err := json.Marshal(order.CustomerInfo)
	if err != nil {
		return "", fmt.Errorf("sérialisation client: %w", err)
	}

	id := gocql.TimeUUID()
	now := time.Now()

	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, order.UserID, string(items), order.Total.String(), string(customer),
		string(order.Status), string(order.PaymentMethod), order.PaymentIntentID, now, now)
	batch.Query(`INSERT INTO orders_by_user (user_id, order_id, status, total, created_at) VALUES (?, ?, ?, ?, ?)`,
		order.UserID, id, string(order.Status), order.Total.String(), now)

	if err := s.session.ExecuteBatch(batch); err != nil {
		return "", fmt.Errorf("insertion commande: %w", err)
	}

	order.ID = id.String()
	order.CreatedAt = now
	order.UpdatedAt = now
	return order.ID, nil
}

func (s *ScyllaOrderStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	uid, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, errs.ErrOrderNotFound
	}

	q := s.session.Query(`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, uid).WithContext(ctx)
	o, err := scanOrder(q.Scan)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, errs.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture commande %s: %w", id, err)
	}
	return o, nil
}

// ListOrders parcourt toute la table (vue admin)
func (s *ScyllaOrderStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	iter := s.session.Query(`SELECT ` + orderColumns + ` FROM orders`).WithContext(ctx).Iter()

	var orders []models.Order
	for {
		o, err := scanOrder(func(dest ...interface{}) error {
			if !iter.Scan(dest...) {
				return gocql.ErrNotFound
			}
			return nil
		})
		if errors.Is(err, gocql.ErrNotFound) {
			break
		}
		if err != nil {
			s.logger.Warn("⚠️ commande illisible ignorée", zap.Error(err))
			continue
		}
		orders = append(orders, *o)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture commandes: %w", err)
	}

	sortOrders(orders)
	return orders, nil
}

func (s *ScyllaOrderStore) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	iter := s.session.Query(`SELECT order_id FROM orders_by_user WHERE user_id = ?`, userID).
		WithContext(ctx).Iter()

	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("index commandes utilisateur: %w", err)
	}

	orders := make([]models.Order, 0, len(ids))
	for _, oid := range ids {
		o, err := s.GetOrder(ctx, oid.String())
		if errors.Is(err, errs.ErrOrderNotFound) {
			s.logger.Warn("⚠️ commande indexée mais absente",
				zap.String("user_id", userID), zap.String("order_id", oid.String()))
			continue
		}
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}

	sortOrders(orders)
	return orders, nil
}

// UpdateOrderStatus : LWT IF status = from sur orders, puis recopie dans orders_by_user.
// Une transaction légère ne peut pas partager un batch avec une autre partition.
func (s *ScyllaOrderStore) UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	uid, _ := gocql.ParseUUID(o.ID)

	var observed string
	applied, err := s.session.Query(
		`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ? IF status = ?`,
		string(to), time.Now(), uid, string(from),
	).WithContext(ctx).SerialConsistency(gocql.Serial).ScanCAS(&observed)
	if err != nil {
		return fmt.Errorf("mise à jour statut %s: %w", id, err)
	}
	if !applied {
		return fmt.Errorf("%w: %s -> %s (actuel %s)", errs.ErrInvalidStatusTransition, from, to, observed)
	}

	err = s.session.Query(`UPDATE orders_by_user SET status = ? WHERE user_id = ? AND order_id = ?`,
		string(to), o.UserID, uid).WithContext(ctx).Exec()
	if err != nil {
		s.logger.Warn("⚠️ index commandes utilisateur non mis à jour",
			zap.String("order_id", id), zap.String("status", string(to)), zap.Error(err))
	}
	return nil
}

func (s *ScyllaOrderStore) SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error {
	uid, err := gocql.ParseUUID(id)
	if err != nil {
		return errs.ErrOrderNotFound
	}

	err = s.session.Query(`UPDATE orders SET payment_intent_id = ?, updated_at = ? WHERE order_id = ?`,
		paymentIntentID, time.Now(), uid).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("payment intent %s: %w", id, err)
	}
	return nil
}

func scanOrder(scan func(dest ...interface{}) error) (*models.Order, error) {
	var (
		id                     gocql.UUID
		items, customer, total string
		status, method         string
		o                      models.Order
	)

	err := scan(&id, &o.UserID, &items, &total, &customer, &status, &method,
		&o.PaymentIntentID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, fmt.Errorf("articles commande %s: %w", id, err)
	}
	if customer != "" {
		if err := json.Unmarshal([]byte(customer), &o.CustomerInfo); err != nil {
			return nil, fmt.Errorf("client commande %s: %w", id, err)
		}
	}

	o.Total, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("total commande %s: %w", id, err)
	}

	o.ID = id.String()
	o.Status = models.OrderStatus(status)
	o.PaymentMethod = models.PaymentMethod(method)
	return &o, nil
}
