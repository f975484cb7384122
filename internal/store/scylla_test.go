package store

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"pokestore_back_end/internal/database"
	"pokestore_back_end/internal/errs"
	"pokestore_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

const testKeyspace = "pokestore_it"

// scyllaTestSession : cluster de SCYLLA_TEST_HOSTS s'il est défini, sinon un conteneur ScyllaDB
func scyllaTestSession(t *testing.T) *gocql.Session {
	t.Helper()
	if testing.Short() {
		t.Skip("ScyllaDB ignoré en mode -short")
	}

	ctx := context.Background()
	cluster := gocql.NewCluster()
	if hosts := os.Getenv("SCYLLA_TEST_HOSTS"); hosts != "" {
		cluster.Hosts = []string{hosts}
	} else {
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "scylladb/scylla:5.4",
				ExposedPorts: []string{"9042/tcp"},
				Cmd:          []string{"--smp", "1", "--memory", "512M", "--overprovisioned", "1", "--developer-mode", "1"},
				WaitingFor: wait.ForAll(
					wait.ForLog("Starting listening for CQL clients").WithStartupTimeout(3*time.Minute),
					wait.ForListeningPort("9042/tcp").WithStartupTimeout(3*time.Minute),
				),
			},
			Started: true,
		})
		if err != nil {
			t.Skipf("conteneur ScyllaDB indisponible: %v", err)
		}
		t.Cleanup(func() { _ = container.Terminate(ctx) })

		host, err := container.Host(ctx)
		require.NoError(t, err)
		port, err := container.MappedPort(ctx, "9042/tcp")
		require.NoError(t, err)

		cluster.Hosts = []string{host}
		cluster.Port = port.Int()
		// le nœud annonce son IP interne au conteneur
		cluster.DisableInitialHostLookup = true
	}
	cluster.Consistency = gocql.One
	cluster.Timeout = 15 * time.Second
	cluster.ConnectTimeout = 15 * time.Second

	admin, err := cluster.CreateSession()
	require.NoError(t, err)
	err = admin.Query(`CREATE KEYSPACE IF NOT EXISTS ` + testKeyspace +
		` WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`).WithContext(ctx).Exec()
	admin.Close()
	require.NoError(t, err)

	cluster.Keyspace = testKeyspace
	session, err := cluster.CreateSession()
	require.NoError(t, err)
	t.Cleanup(session.Close)

	schema := append(append([]string{}, database.ProductsSchema...), database.OrdersSchema...)
	require.NoError(t, database.CreateSchema(ctx, session, schema))
	return session
}

func TestScyllaStores(t *testing.T) {
	session := scyllaTestSession(t)
	ctx := context.Background()

	products := NewScyllaProductStore(session, zaptest.NewLogger(t))
	orders := NewScyllaOrderStore(session, zaptest.NewLogger(t))

	newProduct := func(t *testing.T, stock int) models.Product {
		t.Helper()
		p := models.Product{
			Name:          "Booster Écarlate et Violet",
			Category:      "booster",
			Price:         decimal.RequireFromString("349.99"),
			StockQuantity: stock,
		}
		require.NoError(t, products.SaveProduct(ctx, &p))
		return p
	}

	t.Run("last unit decremented once", func(t *testing.T) {
		p := newProduct(t, 1)

		var wg sync.WaitGroup
		results := make([]error, 2)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, results[i] = products.DecrementStock(ctx, p.ID, 1)
			}()
		}
		wg.Wait()

		var succeeded int
		for _, err := range results {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, errs.ErrInsufficientStock)
			var stockErr *errs.StockError
			require.True(t, errors.As(err, &stockErr))
			assert.Equal(t, 0, stockErr.Available)
		}
		assert.Equal(t, 1, succeeded)

		got, err := products.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.StockQuantity)
		assert.True(t, got.Price.Equal(p.Price))
	})

	t.Run("contention exhausts attempts", func(t *testing.T) {
		p := newProduct(t, 10)
		uid, err := gocql.ParseUUID(p.ID)
		require.NoError(t, err)

		contended := NewScyllaProductStore(session, zaptest.NewLogger(t))
		// un autre écrivain modifie le stock juste avant chaque CAS
		contended.beforeCAS = func(attempt int) {
			err := session.Query(`UPDATE products SET stock = ? WHERE product_id = ? IF EXISTS`, 50+attempt, uid).
				WithContext(ctx).SerialConsistency(gocql.Serial).Exec()
			require.NoError(t, err)
		}

		_, err = contended.DecrementStock(ctx, p.ID, 1)
		assert.ErrorIs(t, err, errs.ErrStockContention)

		got, err := products.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 50+maxCASAttempts, got.StockQuantity, "aucun décrément appliqué")
	})

	t.Run("stock movement recorded", func(t *testing.T) {
		p := newProduct(t, 3)
		remaining, err := products.DecrementStock(ctx, p.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, remaining)

		require.NoError(t, products.StockMoved(ctx, models.StockMovement{
			ProductID: p.ID,
			Type:      models.StockMovementSale,
			Quantity:  2,
			PrevStock: 3,
			NewStock:  1,
			OrderID:   "order-1",
			CreatedAt: time.Now(),
		}))

		pid, err := gocql.ParseUUID(p.ID)
		require.NoError(t, err)
		var newStock int
		err = session.Query(`SELECT new_stock FROM stock_movements WHERE product_id = ? LIMIT 1`, pid).
			WithContext(ctx).Scan(&newStock)
		require.NoError(t, err)
		assert.Equal(t, 1, newStock)
	})

	t.Run("orders batch and user index", func(t *testing.T) {
		p := newProduct(t, 5)
		userID := uuid.NewString()

		place := func(qty int) *models.Order {
			o := &models.Order{
				UserID:        userID,
				Items:         []models.CartItem{models.NewCartItem(p, qty)},
				Total:         p.Price.Mul(decimal.NewFromInt(int64(qty))),
				CustomerInfo:  models.CustomerInfo{Name: "Ash", Email: "ash@pallet.town", City: "Pallet"},
				Status:        models.OrderStatusPending,
				PaymentMethod: models.PaymentMethodOnline,
			}
			_, err := orders.CreateOrder(ctx, o)
			require.NoError(t, err)
			return o
		}
		first := place(1)
		time.Sleep(5 * time.Millisecond)
		second := place(2)

		mine, err := orders.ListOrdersByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, second.ID, mine[0].ID, "plus récente en premier")
		assert.Equal(t, first.ID, mine[1].ID)
		assert.True(t, mine[0].Total.Equal(second.Total))
		require.Len(t, mine[0].Items, 1)
		assert.Equal(t, 2, mine[0].Items[0].Quantity)
		assert.Equal(t, "Pallet", mine[0].CustomerInfo.City)

		require.NoError(t, orders.UpdateOrderStatus(ctx, first.ID, models.OrderStatusPending, models.OrderStatusConfirmed))
		err = orders.UpdateOrderStatus(ctx, first.ID, models.OrderStatusPending, models.OrderStatusCancelled)
		assert.ErrorIs(t, err, errs.ErrInvalidStatusTransition)

		got, err := orders.GetOrder(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusConfirmed, got.Status)

		oid, err := gocql.ParseUUID(first.ID)
		require.NoError(t, err)
		var indexed string
		err = session.Query(`SELECT status FROM orders_by_user WHERE user_id = ? AND order_id = ?`,
			userID, oid).WithContext(ctx).Scan(&indexed)
		require.NoError(t, err)
		assert.Equal(t, string(models.OrderStatusConfirmed), indexed)

		_, err = orders.GetOrder(ctx, uuid.NewString())
		assert.ErrorIs(t, err, errs.ErrOrderNotFound)
	})
}

func TestScanProductRejectsCorruptPrice(t *testing.T) {
	id := gocql.TimeUUID()
	scan := func(price string) func(dest ...interface{}) error {
		return func(dest ...interface{}) error {
			*dest[0].(*gocql.UUID) = id
			*dest[1].(*string) = "Pikachu ex"
			*dest[3].(*string) = price
			*dest[6].(*int) = 4
			return nil
		}
	}

	_, err := scanProduct(scan("not-a-price"))
	require.Error(t, err, "un prix illisible ne devient pas 0")

	p, err := scanProduct(scan("120.50"))
	require.NoError(t, err)
	assert.Equal(t, id.String(), p.ID)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("120.5")))
	assert.Equal(t, 4, p.StockQuantity)
}
