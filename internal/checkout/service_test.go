package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pokestore_back_end/internal/errs"
	"pokestore_back_end/internal/models"
	"pokestore_back_end/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeAuth struct{ user *models.User }

func (a fakeAuth) CurrentUser(context.Context) (*models.User, error) { return a.user, nil }

var (
	customer = &models.User{ID: "cust-1", Email: "misty@example.com"}
	admin    = &models.User{ID: "admin-1", Email: "oak@example.com", Role: models.RoleAdmin}

	validInfo = models.CustomerInfo{
		Name:    "Misty",
		Email:   "misty@example.com",
		Phone:   "9876543210",
		Address: "1 Cerulean Gym",
		City:    "Cerulean",
		Pincode: "560001",
	}
)

type fakeCart struct {
	mu       sync.Mutex
	items    []models.CartItem
	clearErr error
	cleared  bool
}

func (c *fakeCart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CartItem(nil), c.items...)
}

func (c *fakeCart) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clearErr != nil {
		return c.clearErr
	}
	c.items = nil
	c.cleared = true
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	err     error
	placed  []models.Order
	changed []models.Order
}

func (n *recordingNotifier) NotifyOrderPlaced(o models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.placed = append(n.placed, o)
	return nil
}

func (n *recordingNotifier) NotifyStatusChanged(o models.Order, _ models.OrderStatus) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.changed = append(n.changed, o)
	return nil
}

type failingOrders struct {
	*store.MemoryStore
}

func (failingOrders) CreateOrder(context.Context, *models.Order) (string, error) {
	return "", errors.New("scylla: no hosts available")
}

type recordingObserver struct {
	mu        sync.Mutex
	movements []models.StockMovement
}

func (o *recordingObserver) StockMoved(_ context.Context, m models.StockMovement) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.movements = append(o.movements, m)
	return nil
}

type fakePayments struct {
	err error
}

func (p fakePayments) Initiate(_ context.Context, o models.Order) (string, string, error) {
	if p.err != nil {
		return "", "", p.err
	}
	return "pi_" + o.ShortID(), "secret_" + o.ShortID(), nil
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (a *recordingAuditor) Log(e models.AuditLog) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func seed(t *testing.T, s *store.MemoryStore, category, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: category + " pack", Category: category, Price: decimal.RequireFromString(price), StockQuantity: stock}
	require.NoError(t, s.SaveProduct(context.Background(), &p))
	return p
}

func newService(t *testing.T, user *models.User, s *store.MemoryStore, n Notifier, opts ...Option) *Service {
	t.Helper()
	return NewService(fakeAuth{user: user}, s, s, n, zaptest.NewLogger(t), opts...)
}

func TestPlaceOrderCODBoosterExample(t *testing.T) {
	s := store.NewMemoryStore()
	p := seed(t, s, "booster", "100", 10)
	notifier := &recordingNotifier{}
	observer := &recordingObserver{}
	auditor := &recordingAuditor{}
	svc := newService(t, customer, s, notifier, WithStockObservers(observer), WithAuditor(auditor))

	c := &fakeCart{items: []models.CartItem{models.NewCartItem(p, 5)}}
	res, err := svc.PlaceOrder(context.Background(), Request{Cart: c, Customer: validInfo, PaymentMethod: models.PaymentMethodCOD})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Order.ID)
	assert.Equal(t, models.OrderStatusPending, res.Order.Status)
	assert.Equal(t, customer.ID, res.Order.UserID)
	assert.Equal(t, "625.00", res.Order.Total.StringFixed(2))
	assert.Equal(t, "425.00", res.Summary.Lines[0].NetTotal.StringFixed(2))
	assert.Equal(t, "75.00", res.Summary.Savings.StringFixed(2))
	assert.True(t, res.StockReserved)
	assert.True(t, res.NotificationQueued)
	assert.True(t, c.cleared)

	stored, err := s.GetOrder(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(625)))

	left, err := s.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, left.StockQuantity)

	require.Len(t, observer.movements, 1)
	assert.Equal(t, models.StockMovement{
		ProductID: p.ID, Type: models.StockMovementSale, Quantity: 5, PrevStock: 10, NewStock: 5,
		OrderID: res.Order.ID, CreatedAt: observer.movements[0].CreatedAt,
	}, observer.movements[0])

	require.Len(t, notifier.placed, 1)
	assert.Equal(t, res.Order.ID, notifier.placed[0].ID)
	require.NotEmpty(t, auditor.entries)
	assert.Equal(t, models.ActionOrderCreate, auditor.entries[len(auditor.entries)-1].Action)
}

func TestPlaceOrderPreconditions(t *testing.T) {
	s := store.NewMemoryStore()
	p := seed(t, s, "single", "10", 3)
	full := func() *fakeCart { return &fakeCart{items: []models.CartItem{models.NewCartItem(p, 1)}} }

	cases := []struct {
		name string
		user *models.User
		req  Request
		want error
	}{
		{"anonyme", nil, Request{Cart: full(), Customer: validInfo, PaymentMethod: models.PaymentMethodCOD}, errs.ErrAuthenticationRequired},
		{"panier vide", customer, Request{Cart: &fakeCart{}, Customer: validInfo, PaymentMethod: models.PaymentMethodCOD}, errs.ErrEmptyCart},
		{"moyen de paiement", customer, Request{Cart: full(), Customer: validInfo, PaymentMethod: "cheque"}, errs.ErrInvalidPaymentMethod},
		{"infos client", customer, Request{Cart: full(), Customer: models.CustomerInfo{Name: "  "}, PaymentMethod: models.PaymentMethodOnline}, errs.ErrInvalidCustomerInfo},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newService(t, tc.user, s, &recordingNotifier{})
			res, err := svc.PlaceOrder(context.Background(), tc.req)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	orders, err := s.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrderStoreFailureCommitsNothing(t *testing.T) {
	s := store.NewMemoryStore()
	p := seed(t, s, "booster", "100", 4)
	notifier := &recordingNotifier{}
	svc := NewService(fakeAuth{user: customer}, s, failingOrders{s}, notifier, zaptest.NewLogger(t))

	c := &fakeCart{items: []models.CartItem{models.NewCartItem(p, 2)}}
	res, err := svc.PlaceOrder(context.Background(), Request{Cart: c, Customer: validInfo, PaymentMethod: models.PaymentMethodCOD})

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrOrderPersistenceFailed)
	assert.Nil(t, res)

	left, err := s.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, left.StockQuantity, "aucun stock décrémenté")
	assert.Len(t, c.Items(), 1, "panier intact")
	assert.False(t, c.cleared)
	assert.Empty(t, notifier.placed)
}

func TestPlaceOrderNotificationFailureStillSucceeds(t *testing.T) {
	s := store.NewMemoryStore()
	p := seed(t, s, "single", "50", 2)
	svc := newService(t, customer, s, &recordingNotifier{err: errors.New("queue full")})

	c := &fakeCart{items: []models.CartItem{models.NewCartItem(p, 1)}}
	res, err := svc.PlaceOrder(context.Background(), Request{Cart: c, Customer: validInfo, PaymentMethod: models.PaymentMethodOnline})

	require.NoError(t, err)
	assert.NotEmpty(t, res.Order.ID)
	assert.False(t, res.NotificationQueued)
	assert.True(t, c.cleared)
	assert.Empty(t, c.Items())
}

func TestPlaceOrderContinuesPastFailingLine(t *testing.T) {
	s := store.NewMemoryStore()
	scarce := seed(t, s, "booster", "100", 1)
	plenty := seed(t, s, "single", "20", 10)
	svc := newService(t, customer, s, &recordingNotifier{})

	c := &fakeCart{items: []models.CartItem{
		models.NewCartItem(scarce, 1),
		models.NewCartItem(plenty, 3),
	}}
	// quelqu'un d'autre a acheté la dernière unité entre-temps
	_, err := s.DecrementStock(context.Background(), scarce.ID, 1)
	require.NoError(t, err)

	res, err := svc.PlaceOrder(context.Background(), Request{Cart: c, Customer: validInfo, PaymentMethod: models.PaymentMethodCOD})
	require.NoError(t, err)

	assert.False(t, res.StockReserved)
	require.Len(t, res.StockFailures, 1)
	assert.Equal(t, scarce.ID, res.StockFailures[0].ProductID)
	assert.ErrorIs(t, res.StockFailures[0].Err, errs.ErrInsufficientStock)
	assert.Zero(t, res.StockFailures[0].Available)

	left, err := s.GetProduct(context.Background(), plenty.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, left.StockQuantity, "ligne suivante réservée")

	stored, err := s.GetOrder(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.True(t, c.cleared)
}

func TestConcurrentCheckoutsForLastUnit(t *testing.T) {
	s := store.NewMemoryStore()
	last := seed(t, s, "booster", "100", 1)

	buyers := []*models.User{
		{ID: "u-a", Email: "a@example.com"},
		{ID: "u-b", Email: "b@example.com"},
	}

	results := make([]*Result, len(buyers))
	var wg sync.WaitGroup
	for i, u := range buyers {
		wg.Add(1)
		go func(i int, u *models.User) {
			defer wg.Done()
			svc := newService(t, u, s, &recordingNotifier{})
			c := &fakeCart{items: []models.CartItem{models.NewCartItem(last, 1)}}
			res, err := svc.PlaceOrder(context.Background(), Request{Cart: c, Customer: validInfo, PaymentMethod: models.PaymentMethodOnline})
			assert.NoError(t, err)
			results[i] = res
		}(i, u)
	}
	wg.Wait()

	reserved, failed := 0, 0
	for _, res := range results {
		require.NotNil(t, res)
		if res.StockReserved {
			reserved++
			continue
		}
		failed++
		require.Len(t, res.StockFailures, 1)
		assert.ErrorIs(t, res.StockFailures[0].Err, errs.ErrInsufficientStock)
	}
	assert.Equal(t, 1, reserved)
	assert.Equal(t, 1, failed)

	orders, err := s.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, models.OrderStatusPending, o.Status)
	}

	p, err := s.GetProduct(context.Background(), last.ID)
	require.NoError(t, err)
	assert.Zero(t, p.StockQuantity)
}

// cancelAfterCreate annule la requête juste après l'écriture de la commande
type cancelAfterCreate struct {
	*store.MemoryStore
	cancel context.CancelFunc
}

func (c cancelAfterCreate) CreateOrder(ctx context.Context, o *models.Order) (string, error) {
	id, err := c.MemoryStore.CreateOrder(ctx, o)
	c.cancel()
	return id, err
}

func TestPlaceOrderSurvivesRequestCancellation(t *testing.T) {
	s := store.NewMemoryStore()
	p := seed(t, s, "single", "10", 5)
	notifier := &recordingNotifier{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := NewService(fakeAuth{user: customer}, s, cancelAfterCreate{s, cancel}, notifier, zaptest.NewLogger(t))

	c := &fakeCart{items: []models.CartItem{models.NewCartItem(p, 2)}}
	res, err := svc.PlaceOrder(ctx, Request{Cart: c, Customer: validInfo, PaymentMethod: models.PaymentMethodCOD})
	require.NoError(t, err)
	assert.True(t, res.StockReserved)
	assert.True(t, c.cleared)

	left, err := s.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, left.StockQuantity)
}

func TestPlaceOrderOnlinePayment(t *testing.T) {
	s := store.NewMemoryStore()
	p := seed(t, s, "single", "499", 5)

	t.Run("intent créé", func(t *testing.T) {
		svc := newService(t, customer, s, &recordingNotifier{}, WithPayments(fakePayments{}))
		c := &fakeCart{items: []models.CartItem{models.NewCartItem(p, 1)}}

		res, err := svc.PlaceOrder(context.Background(), Request{Cart: c, Customer: validInfo, PaymentMethod: models.PaymentMethodOnline})
		require.NoError(t, err)
		assert.Equal(t, "secret_"+res.Order.ShortID(), res.PaymentClientSecret)

		stored, err := s.GetOrder(context.Background(), res.Order.ID)
		require.NoError(t, err)
		assert.Equal(t, "pi_"+res.Order.ShortID(), stored.PaymentIntentID)
	})

	t.Run("stripe en panne", func(t *testing.T) {
		svc := newService(t, customer, s, &recordingNotifier{}, WithPayments(fakePayments{err: errors.New("stripe: 503")}))
		c := &fakeCart{items: []models.CartItem{models.NewCartItem(p, 1)}}

		res, err := svc.PlaceOrder(context.Background(), Request{Cart: c, Customer: validInfo, PaymentMethod: models.PaymentMethodOnline})
		require.NoError(t, err)
		assert.Empty(t, res.PaymentClientSecret)
		assert.True(t, c.cleared)
	})

	t.Run("pas de paiement pour COD", func(t *testing.T) {
		svc := newService(t, customer, s, &recordingNotifier{}, WithPayments(fakePayments{}))
		c := &fakeCart{items: []models.CartItem{models.NewCartItem(p, 1)}}

		res, err := svc.PlaceOrder(context.Background(), Request{Cart: c, Customer: validInfo, PaymentMethod: models.PaymentMethodCOD})
		require.NoError(t, err)
		assert.Empty(t, res.PaymentClientSecret)
		assert.Empty(t, res.Order.PaymentIntentID)
	})
}

func TestPlaceOrderCartClearFailureIsLogged(t *testing.T) {
	s := store.NewMemoryStore()
	p := seed(t, s, "single", "10", 5)
	svc := newService(t, customer, s, &recordingNotifier{})

	c := &fakeCart{items: []models.CartItem{models.NewCartItem(p, 1)}, clearErr: errors.New("redis down")}
	res, err := svc.PlaceOrder(context.Background(), Request{Cart: c, Customer: validInfo, PaymentMethod: models.PaymentMethodCOD})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Order.ID)
}
