package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pokestore_back_end/internal/errs"
	"pokestore_back_end/internal/models"
	"pokestore_back_end/internal/pricing"

	"go.uber.org/zap"
)

type Request struct {
	Cart          Cart
	Customer      models.CustomerInfo
	PaymentMethod models.PaymentMethod
}

// StockFailure : ligne dont le stock n'a pas pu être réservé. La commande reste en pending.
type StockFailure struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available,omitempty"`
	Reason    string `json:"reason"`
	Err       error  `json:"-"`
}

type Result struct {
	Order               models.Order    `json:"order"`
	Summary             pricing.Summary `json:"summary"`
	StockReserved       bool            `json:"stock_reserved"`
	StockFailures       []StockFailure  `json:"stock_failures,omitempty"`
	NotificationQueued  bool            `json:"notification_queued"`
	PaymentClientSecret string          `json:"payment_client_secret,omitempty"`
}

// PlaceOrder exécute le checkout. Une erreur n'est retournée que si la commande
// n'a pas été écrite ; dans ce cas rien d'autre n'a été tenté et le panier est intact.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (*Result, error) {
	// 1. Préconditions
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	items := req.Cart.Items()
	if len(items) == 0 {
		return nil, errs.ErrEmptyCart
	}
	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidPaymentMethod, req.PaymentMethod)
	}
	if missing := req.Customer.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", errs.ErrInvalidCustomerInfo, strings.Join(missing, ", "))
	}

	// 2. Total
	summary := pricing.Summarize(items, req.PaymentMethod)

	// 3. Écriture de la commande : seule étape bloquante
	order := &models.Order{
		UserID:        user.ID,
		Items:         items,
		Total:         summary.Total,
		CustomerInfo:  req.Customer.Trimmed(),
		Status:        models.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	_, err = s.orders.CreateOrder(storeCtx, order)
	cancel()
	if err != nil {
		s.logger.Error("❌ écriture commande échouée",
			zap.String("user_id", user.ID),
			zap.String("total", summary.Total.StringFixed(2)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", errs.ErrOrderPersistenceFailed, err)
	}

	s.logger.Info("🧾 commande créée",
		zap.String("order_id", order.ID),
		zap.String("user_id", user.ID),
		zap.String("total", summary.Total.StringFixed(2)),
		zap.String("payment_method", string(order.PaymentMethod)))

	// la commande existe : la suite ne dépend plus de l'annulation de la requête
	bg := context.WithoutCancel(ctx)

	res := &Result{Summary: summary}

	// 4. Réservation du stock
	res.StockFailures = s.reserveStock(bg, user, order)
	res.StockReserved = len(res.StockFailures) == 0

	// 5. Paiement en ligne, notification, audit
	if order.PaymentMethod == models.PaymentMethodOnline && s.payments != nil {
		res.PaymentClientSecret = s.initiatePayment(bg, order)
	}

	if err := s.notifier.NotifyOrderPlaced(*order); err != nil {
		s.logger.Warn("⚠️ notification non mise en file",
			zap.String("order_id", order.ID),
			zap.Error(fmt.Errorf("%w: %w", errs.ErrNotificationFailed, err)))
	} else {
		res.NotificationQueued = true
	}

	s.audit(models.AuditLog{
		UserID:     user.ID,
		UserEmail:  user.Email,
		Action:     models.ActionOrderCreate,
		Resource:   models.ResourceOrder,
		ResourceID: order.ID,
		Success:    true,
		Data: map[string]interface{}{
			"total":          order.Total.StringFixed(2),
			"payment_method": string(order.PaymentMethod),
			"items":          len(order.Items),
			"stock_reserved": res.StockReserved,
		},
	})

	// 6. Vidage du panier
	if err := req.Cart.Clear(bg); err != nil {
		s.logger.Warn("⚠️ vidage panier échoué", zap.String("order_id", order.ID), zap.Error(err))
	}

	res.Order = *order
	return res, nil
}

// reserveStock décrémente chaque ligne indépendamment ; un échec n'arrête pas les suivantes
func (s *Service) reserveStock(ctx context.Context, user *models.User, order *models.Order) []StockFailure {
	var failures []StockFailure

	for _, item := range order.Items {
		sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		remaining, err := s.stock.DecrementStock(sctx, item.ProductID, item.Quantity)
		cancel()

		if err != nil {
			failure := StockFailure{
				ProductID: item.ProductID,
				Name:      item.Name,
				Requested: item.Quantity,
				Reason:    err.Error(),
				Err:       err,
			}
			var stockErr *errs.StockError
			if errors.As(err, &stockErr) {
				failure.Available = stockErr.Available
			}
			failures = append(failures, failure)

			s.logger.Warn("⚠️ réservation stock échouée, commande conservée en pending",
				zap.String("order_id", order.ID),
				zap.String("product_id", item.ProductID),
				zap.Int("requested", item.Quantity),
				zap.Error(err))

			s.audit(models.AuditLog{
				UserID:     user.ID,
				UserEmail:  user.Email,
				Action:     models.ActionStockReserveFail,
				Resource:   models.ResourceInventory,
				ResourceID: item.ProductID,
				ErrorMsg:   err.Error(),
				Data:       map[string]interface{}{"order_id": order.ID, "requested": item.Quantity},
			})
			continue
		}

		movement := models.StockMovement{
			ProductID: item.ProductID,
			Type:      models.StockMovementSale,
			Quantity:  item.Quantity,
			PrevStock: remaining + item.Quantity,
			NewStock:  remaining,
			OrderID:   order.ID,
			CreatedAt: s.now(),
		}
		for _, obs := range s.observers {
			octx, cancel := context.WithTimeout(ctx, s.storeTimeout)
			if err := obs.StockMoved(octx, movement); err != nil {
				s.logger.Warn("⚠️ propagation mouvement de stock échouée",
					zap.String("product_id", item.ProductID),
					zap.Error(err))
			}
			cancel()
		}
	}

	return failures
}

func (s *Service) initiatePayment(ctx context.Context, order *models.Order) string {
	pctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	intentID, secret, err := s.payments.Initiate(pctx, *order)
	if err != nil {
		s.logger.Warn("⚠️ création paiement échouée", zap.String("order_id", order.ID), zap.Error(err))
		return ""
	}

	order.PaymentIntentID = intentID
	if err := s.orders.SetPaymentIntent(pctx, order.ID, intentID); err != nil {
		s.logger.Warn("⚠️ enregistrement payment intent échoué",
			zap.String("order_id", order.ID),
			zap.String("payment_intent_id", intentID),
			zap.Error(err))
	}

	s.logger.Info("💳 paiement initié", zap.String("order_id", order.ID), zap.String("payment_intent_id", intentID))
	return secret
}
