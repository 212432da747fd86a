// Package apitest runs the real API router over an in-memory store for
// client-side tests.
package apitest

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-organic-store/internal/auth"
	"github.com/ariefcatur/go-organic-store/internal/httpx"
	"github.com/ariefcatur/go-organic-store/internal/logging"
	"github.com/ariefcatur/go-organic-store/internal/orders"
	"github.com/ariefcatur/go-organic-store/internal/seed"
)

type Backend struct {
	Server *httptest.Server
	Store  *orders.MemoryStore
}

// URL is the API base, including the /api prefix.
func (b *Backend) URL() string { return b.Server.URL + "/api" }

func New(t testing.TB) *Backend {
	t.Helper()
	log := logging.Discard()
	store := orders.NewMemoryStore()
	h := &httpx.Handler{
		Store:   store,
		Tokens:  auth.NewIssuer("apitest-secret", time.Hour),
		Service: "apitest",
		Log:     log,
	}
	r := httpx.NewRouter(log)
	h.Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &Backend{Server: srv, Store: store}
}

// Seeded returns a backend already holding the sample catalog and admin.
func Seeded(t testing.TB) *Backend {
	t.Helper()
	b := New(t)
	_, err := seed.Run(context.Background(), b.Store)
	require.NoError(t, err)
	return b
}

// AddProduct inserts a product directly, bypassing the admin API.
func (b *Backend) AddProduct(t testing.TB, name string, price float64, stock int) orders.Product {
	t.Helper()
	cats, err := b.Store.ListCategories(context.Background())
	require.NoError(t, err)
	catID := ""
	if len(cats) > 0 {
		catID = cats[0].ID
	}
	p := orders.Product{
		ID:                   name + "-id",
		Name:                 name,
		Price:                price,
		CategoryID:           catID,
		StockQuantity:        stock,
		OrganicCertification: true,
		CreatedAt:            time.Now().UTC(),
	}
	require.NoError(t, b.Store.CreateProduct(context.Background(), p))
	return p
}
