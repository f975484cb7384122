// Package checkout transforme un panier validé en commande durable.
//
// Ordre du protocole : validation, calcul du total, écriture de la commande,
// réservation du stock ligne par ligne, paiement, notification, vidage du panier.
// Seule l'écriture de la commande peut faire échouer le checkout ; tout ce qui suit
// est journalisé sans annuler la commande.
package checkout

import (
	"context"
	"time"

	"pokestore_back_end/internal/errs"
	"pokestore_back_end/internal/models"

	"go.uber.org/zap"
)

const DefaultStoreTimeout = 5 * time.Second

type Authenticator interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// StockReserver décrémente le stock d'un produit de façon atomique
type StockReserver interface {
	DecrementStock(ctx context.Context, id string, qty int) (int, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) (string, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) error
	SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error
}

// StockObserver est prévenu de chaque décrément réussi (mouvements de stock, index de recherche)
type StockObserver interface {
	StockMoved(ctx context.Context, m models.StockMovement) error
}

type PaymentInitiator interface {
	Initiate(ctx context.Context, order models.Order) (intentID, clientSecret string, err error)
}

// Notifier met en file les e-mails ; ne bloque jamais
type Notifier interface {
	NotifyOrderPlaced(order models.Order) error
	NotifyStatusChanged(order models.Order, previous models.OrderStatus) error
}

type Auditor interface {
	Log(entry models.AuditLog)
}

// Cart : ce dont le checkout a besoin du panier
type Cart interface {
	Items() []models.CartItem
	Clear(ctx context.Context) error
}

type Service struct {
	auth      Authenticator
	stock     StockReserver
	orders    OrderStore
	notifier  Notifier
	payments  PaymentInitiator
	auditor   Auditor
	observers []StockObserver

	storeTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

type Option func(*Service)

func WithPayments(p PaymentInitiator) Option {
	return func(s *Service) { s.payments = p }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func WithStockObservers(observers ...StockObserver) Option {
	return func(s *Service) { s.observers = append(s.observers, observers...) }
}

func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

func NewService(auth Authenticator, stock StockReserver, orders OrderStore, notifier Notifier, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		auth:         auth,
		stock:        stock,
		orders:       orders,
		notifier:     notifier,
		storeTimeout: DefaultStoreTimeout,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) currentUser(ctx context.Context) (*models.User, error) {
	user, err := s.auth.CurrentUser(ctx)
	if err != nil || user == nil {
		return nil, errs.ErrAuthenticationRequired
	}
	return user, nil
}

func (s *Service) audit(entry models.AuditLog) {
	if s.auditor == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.auditor.Log(entry)
}
