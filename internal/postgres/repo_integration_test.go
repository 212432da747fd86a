package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-organic-store/internal/orders"
)

func openTestRepo(t *testing.T) *orders.Repo {
	t.Helper()
	_ = godotenv.Load("../../.env")
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set; skipping Postgres integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return &orders.Repo{DB: pool}
}

func TestRepoCartAndOrderFlow(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	userID := uuid.NewString()
	require.NoError(t, repo.CreateUser(ctx, orders.User{
		ID: userID, Email: userID + "@example.com", Name: "Integration", Role: orders.RoleCustomer, CreatedAt: time.Now().UTC(),
	}, "hash"))
	err := repo.CreateUser(ctx, orders.User{ID: uuid.NewString(), Email: userID + "@example.com", Role: orders.RoleCustomer, CreatedAt: time.Now().UTC()}, "hash")
	assert.ErrorIs(t, err, orders.ErrEmailTaken)

	p := orders.Product{
		ID: uuid.NewString(), Name: "Organic Ghee", Price: 650, CategoryID: "dairy",
		StockQuantity: 2, OrganicCertification: true, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateProduct(ctx, p))

	_, err = repo.AddToCart(ctx, userID, p.ID, 1)
	require.NoError(t, err)
	merged, err := repo.AddToCart(ctx, userID, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, merged.Quantity)
	_, err = repo.AddToCart(ctx, userID, p.ID, 1)
	assert.ErrorIs(t, err, orders.ErrInsufficientStock)

	o, err := repo.CreateOrder(ctx, userID, orders.OrderInput{
		Items: []orders.ItemInput{{ProductID: p.ID, Quantity: 2}}, DeliveryAddress: "x", PaymentMethod: "cod",
	})
	require.NoError(t, err)
	assert.InDelta(t, 1300.0, o.TotalAmount, 1e-9)

	cart, err := repo.ListCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cart)

	updated, err := repo.UpdateOrderStatus(ctx, o.ID, orders.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusDelivered, updated.Status)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "Organic Ghee", updated.Items[0].ProductName)
}
