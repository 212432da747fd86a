// Package admin is the store operator's console: unfiltered reads and order
// status changes.
package admin

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-organic-store/internal/api"
	"github.com/ariefcatur/go-organic-store/internal/orders"
)

type Backend interface {
	AdminOrders(ctx context.Context, cred api.Credential) ([]orders.Order, error)
	AdminUsers(ctx context.Context, cred api.Credential) ([]orders.User, error)
	Products(ctx context.Context, categoryID string) ([]orders.Product, error)
	SetOrderStatus(ctx context.Context, cred api.Credential, id string, status orders.Status) error
	CreateCategory(ctx context.Context, cred api.Credential, in orders.NewCategory) (orders.Category, error)
	CreateProduct(ctx context.Context, cred api.Credential, in orders.NewProduct) (orders.Product, error)
}

type Credentials interface {
	Credential() api.Credential
}

type Console struct {
	backend Backend
	creds   Credentials
}

func NewConsole(backend Backend, creds Credentials) *Console {
	return &Console{backend: backend, creds: creds}
}

func (c *Console) Orders(ctx context.Context) ([]orders.Order, error) {
	return c.backend.AdminOrders(ctx, c.creds.Credential())
}

func (c *Console) Users(ctx context.Context) ([]orders.User, error) {
	return c.backend.AdminUsers(ctx, c.creds.Credential())
}

func (c *Console) Products(ctx context.Context) ([]orders.Product, error) {
	return c.backend.Products(ctx, "")
}

// SetOrderStatus accepts any known status regardless of the current one. On
// success it returns the refetched order list.
func (c *Console) SetOrderStatus(ctx context.Context, orderID, status string) ([]orders.Order, error) {
	s, err := orders.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("set order status: %w", err)
	}
	if err := c.backend.SetOrderStatus(ctx, c.creds.Credential(), orderID, s); err != nil {
		return nil, err
	}
	return c.Orders(ctx)
}

func (c *Console) CreateCategory(ctx context.Context, in orders.NewCategory) (orders.Category, error) {
	return c.backend.CreateCategory(ctx, c.creds.Credential(), in)
}

func (c *Console) CreateProduct(ctx context.Context, in orders.NewProduct) (orders.Product, error) {
	return c.backend.CreateProduct(ctx, c.creds.Credential(), in)
}
