package checkout

import (
	"context"
	"fmt"

	"pokestore_back_end/internal/errs"
	"pokestore_back_end/internal/models"

	"go.uber.org/zap"
)

// UpdateOrderStatus : réservé aux administrateurs, suit la machine d'états des commandes
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, errs.ErrAdminRequired
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidStatus, status)
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	order, err := s.orders.GetOrder(sctx, orderID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if !previous.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", errs.ErrInvalidStatusTransition, previous, status)
	}

	// écriture conditionnelle : un autre admin a pu changer le statut depuis la lecture
	if err := s.orders.UpdateOrderStatus(sctx, orderID, previous, status); err != nil {
		return nil, err
	}
	order.Status = status
	order.UpdatedAt = s.now()

	s.logger.Info("📦 statut commande mis à jour",
		zap.String("order_id", orderID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("admin_id", user.ID))

	if err := s.notifier.NotifyStatusChanged(*order, previous); err != nil {
		s.logger.Warn("⚠️ notification statut non mise en file", zap.String("order_id", orderID), zap.Error(err))
	}

	s.audit(models.AuditLog{
		UserID:     user.ID,
		UserEmail:  user.Email,
		Action:     models.ActionOrderStatusChange,
		Resource:   models.ResourceOrder,
		ResourceID: orderID,
		Success:    true,
		Data:       map[string]interface{}{"from": string(previous), "to": string(status)},
	})

	return order, nil
}

func (s *Service) ListMyOrders(ctx context.Context) ([]models.Order, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.orders.ListOrdersByUser(sctx, user.ID)
}

// GetOrder : une commande d'un autre client est rapportée comme introuvable
func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	order, err := s.orders.GetOrder(sctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		return nil, errs.ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]models.Order, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, errs.ErrAdminRequired
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.orders.ListOrders(sctx)
}
