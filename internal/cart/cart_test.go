package cart

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

type fakeAuth struct {
	user *models.User
	err  error
}

func (a fakeAuth) CurrentUser(context.Context) (*models.User, error) {
	return a.user, a.err
}

type memoryPersistence struct {
	mu   sync.Mutex
	data map[string][]byte
	fail error
	sets int
}

func newMemoryPersistence() *memoryPersistence {
	return &memoryPersistence{data: make(map[string][]byte)}
}

func (p *memoryPersistence) Get(_ context.Context, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data[key], nil
}

func (p *memoryPersistence) Set(_ context.Context, key string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.sets++
	p.data[key] = data
	return nil
}

var signedIn = fakeAuth{user: &models.User{ID: "u1", Email: "ash@example.com"}}

type fixture struct {
	store   *store.MemoryStore
	persist *memoryPersistence
	manager *Manager
}

func newFixture(t *testing.T, auth Authenticator) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	p := newMemoryPersistence()
	return &fixture{
		store:   s,
		persist: p,
		manager: NewManager(auth, p, s, zaptest.NewLogger(t)),
	}
}

func (f *fixture) product(t *testing.T, category string, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name:          category + " " + price,
		Category:      category,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
	require.NoError(t, f.store.SaveProduct(context.Background(), &p))
	return p
}

func (f *fixture) open(t *testing.T, key string) *Cart {
	t.Helper()
	c, err := f.manager.Open(context.Background(), key)
	require.NoError(t, err)
	return c
}

func TestAddItemTwiceMergesLine(t *testing.T) {
	f := newFixture(t, signedIn)
	p := f.product(t, "booster", "100", 2)
	c := f.open(t, "s1")
	ctx := context.Background()

	assert.Equal(t, StateEmpty, c.State())
	require.NoError(t, c.AddItem(ctx, p))
	require.NoError(t, c.AddItem(ctx, p))

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, StatePopulated, c.State())
}

func TestAddItemRequiresAuthentication(t *testing.T) {
	ctx := context.Background()

	for name, auth := range map[string]fakeAuth{
		"anonyme":       {},
		"auth en panne": {err: errors.New("token store down")},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, auth)
			p := f.product(t, "single", "10", 5)
			c := f.open(t, "s1")

			assert.ErrorIs(t, c.AddItem(ctx, p), errs.ErrAuthenticationRequired)
			assert.Zero(t, c.Len())
			assert.Zero(t, f.persist.sets)
		})
	}
}

func TestAddItemOutOfStock(t *testing.T) {
	f := newFixture(t, signedIn)
	p := f.product(t, "booster", "100", 0)
	c := f.open(t, "s1")

	assert.ErrorIs(t, c.AddItem(context.Background(), p), errs.ErrOutOfStock)
	assert.Zero(t, c.Len())
	assert.Equal(t, StateEmpty, c.State())
}

func TestAddItemStockLimitReached(t *testing.T) {
	f := newFixture(t, signedIn)
	p := f.product(t, "booster", "100", 1)
	c := f.open(t, "s1")
	ctx := context.Background()

	require.NoError(t, c.AddItem(ctx, p))
	assert.ErrorIs(t, c.AddItem(ctx, p), errs.ErrStockLimitReached)
	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestAddQuantityRejectsWithoutClamping(t *testing.T) {
	f := newFixture(t, signedIn)
	p := f.product(t, "booster", "100", 2)
	c := f.open(t, "s1")
	ctx := context.Background()

	assert.ErrorIs(t, c.AddQuantity(ctx, p, 3), errs.ErrStockLimitReached)
	assert.Zero(t, c.Len())

	assert.ErrorIs(t, c.AddQuantity(ctx, p, 0), errs.ErrInvalidQuantity)

	require.NoError(t, c.AddQuantity(ctx, p, 2))
	assert.Equal(t, 2, c.Items()[0].Quantity)
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t, signedIn)
	p := f.product(t, "booster", "100", 4)
	other := f.product(t, "single", "15", 9)
	c := f.open(t, "s1")
	ctx := context.Background()

	require.NoError(t, c.AddItem(ctx, p))
	require.NoError(t, c.AddItem(ctx, other))

	applied, err := c.UpdateQuantity(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, applied)

	applied, err = c.UpdateQuantity(ctx, p.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, applied, "borné au stock")
	assert.Equal(t, 4, c.Items()[0].Quantity)

	applied, err = c.UpdateQuantity(ctx, "absent", 2)
	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.Equal(t, 2, c.Len())

	_, err = c.UpdateQuantity(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, c.Items(), 1)
	assert.Equal(t, other.ID, c.Items()[0].ProductID)
}

func TestUpdateQuantityRemovesLineWhenStockGone(t *testing.T) {
	f := newFixture(t, signedIn)
	p := f.product(t, "booster", "100", 2)
	c := f.open(t, "s1")
	ctx := context.Background()

	require.NoError(t, c.AddItem(ctx, p))
	_, err := f.store.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)

	applied, err := c.UpdateQuantity(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.Equal(t, StateEmpty, c.State())
}

func TestRemoveItemAndClear(t *testing.T) {
	f := newFixture(t, signedIn)
	a := f.product(t, "booster", "100", 3)
	b := f.product(t, "single", "20", 3)
	c := f.open(t, "s1")
	ctx := context.Background()

	require.NoError(t, c.AddItem(ctx, a))
	require.NoError(t, c.AddItem(ctx, b))

	require.NoError(t, c.RemoveItem(ctx, a.ID))
	require.NoError(t, c.RemoveItem(ctx, a.ID), "idempotent")
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.RemoveItem(ctx, b.ID))
	assert.Equal(t, StateEmpty, c.State())

	require.NoError(t, c.AddItem(ctx, a))
	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, c.Len())
}

func TestPersistenceFailureLeavesCartUntouched(t *testing.T) {
	f := newFixture(t, signedIn)
	p := f.product(t, "booster", "100", 5)
	c := f.open(t, "s1")
	ctx := context.Background()

	require.NoError(t, c.AddItem(ctx, p))

	f.persist.fail = errors.New("redis down")
	assert.Error(t, c.AddItem(ctx, p))
	assert.Error(t, c.Clear(ctx))
	_, err := c.UpdateQuantity(ctx, p.ID, 4)
	assert.Error(t, err)

	require.Len(t, c.Items(), 1)
	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestCartSurvivesReopen(t *testing.T) {
	f := newFixture(t, signedIn)
	p := f.product(t, "booster", "100", 5)
	ctx := context.Background()

	first := f.open(t, "session-abc")
	require.NoError(t, first.AddQuantity(ctx, p, 3))

	again := f.open(t, "session-abc")
	require.Len(t, again.Items(), 1)
	assert.Equal(t, 3, again.Items()[0].Quantity)
	assert.True(t, again.Items()[0].UnitPrice.Equal(decimal.NewFromInt(100)))

	other := f.open(t, "session-xyz")
	assert.Zero(t, other.Len())
}

func TestOpenIgnoresCorruptPayload(t *testing.T) {
	f := newFixture(t, signedIn)
	f.persist.data["broken"] = []byte("{not json")

	c := f.open(t, "broken")
	assert.Equal(t, StateEmpty, c.State())
}

func TestTotalAndSummaryUsePricing(t *testing.T) {
	f := newFixture(t, signedIn)
	p := f.product(t, "booster", "100", 5)
	c := f.open(t, "s1")
	ctx := context.Background()

	assert.True(t, c.Total(models.PaymentMethodOnline).IsZero())
	assert.Equal(t, "200", c.Total(models.PaymentMethodCOD).String())

	require.NoError(t, c.AddQuantity(ctx, p, 5))

	summary := c.Summary(models.PaymentMethodCOD)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, "425", summary.Lines[0].NetTotal.String())
	assert.Equal(t, "75", summary.Savings.String())
	assert.True(t, c.Total(models.PaymentMethodCOD).Equal(decimal.NewFromInt(625)))
}
