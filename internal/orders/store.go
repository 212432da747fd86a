package orders

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInvalidTransition = errors.New("status change not allowed")
)

type Store interface {
	CreateUser(ctx context.Context, u User, passwordHash string) error
	UserByEmail(ctx context.Context, email string) (User, string, error)
	UserByID(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)

	CountCategories(ctx context.Context) (int, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c Category) error

	ListProducts(ctx context.Context, categoryID string) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	CreateProduct(ctx context.Context, p Product) error

	ListCart(ctx context.Context, userID string) ([]CartItem, error)
	// AddToCart merges into the user's existing row for the product.
	AddToCart(ctx context.Context, userID, productID string, qty int) (CartItem, error)
	RemoveCartItem(ctx context.Context, userID, itemID string) error

	CreateOrder(ctx context.Context, userID string, in OrderInput) (Order, error)
	ListOrders(ctx context.Context, userID string) ([]Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (Order, error)
	ListAllOrders(ctx context.Context) ([]Order, error)
	// UpdateOrderStatus applies CanTransition to the stored status.
	UpdateOrderStatus(ctx context.Context, orderID string, status Status) (Order, error)
}
