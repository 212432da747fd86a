// Package cart keeps the client's view of the signed-in user's cart. The
// view only changes by refetching; mutations never patch it locally.
package cart

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-organic-store/internal/api"
	"github.com/ariefcatur/go-organic-store/internal/orders"
)

var ErrOutOfStock = errors.New("out of stock")

type Backend interface {
	Cart(ctx context.Context, cred api.Credential) ([]orders.CartItem, error)
	AddToCart(ctx context.Context, cred api.Credential, productID string, qty int) (orders.CartItem, error)
	RemoveFromCart(ctx context.Context, cred api.Credential, itemID string) error
	Product(ctx context.Context, id string) (orders.Product, error)
}

// Credentials is satisfied by *session.Store.
type Credentials interface {
	Credential() api.Credential
}

// hydrateLimit caps concurrent product lookups during Refresh.
const hydrateLimit = 8

type Manager struct {
	backend     Backend
	creds       Credentials
	deliveryFee orders.Cents

	mu       sync.RWMutex
	seq      uint64
	items    []orders.CartItem
	products map[string]orders.Product
}

func NewManager(backend Backend, creds Credentials, deliveryFee orders.Cents) *Manager {
	return &Manager{backend: backend, creds: creds, deliveryFee: deliveryFee, products: map[string]orders.Product{}}
}

// Refresh refetches the cart and the details of every product in it. A
// product the backend no longer knows is left out of the product map. When a
// newer Refresh has started meanwhile, this one's result is discarded.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	cred := m.creds.Credential()
	items, err := m.backend.Cart(ctx, cred)
	if err != nil {
		return err
	}

	ids := distinctProducts(items)
	var (
		pmu      sync.Mutex
		products = make(map[string]orders.Product, len(ids))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateLimit)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			p, err := m.backend.Product(gctx, id)
			if api.IsKind(err, api.KindNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			pmu.Lock()
			products[id] = p
			pmu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.seq {
		return nil
	}
	m.items = items
	m.products = products
	return nil
}

func distinctProducts(items []orders.CartItem) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			out = append(out, it.ProductID)
		}
	}
	return out
}

// CanAdd is a display hint; the backend makes the real stock check.
func CanAdd(p orders.Product) bool { return p.StockQuantity > 0 }

func (m *Manager) Add(ctx context.Context, p orders.Product) (orders.CartItem, error) {
	if !CanAdd(p) {
		return orders.CartItem{}, ErrOutOfStock
	}
	return m.AddByID(ctx, p.ID)
}

// AddByID adds one unit. The view is left as it was either way; call
// Refresh to see the result.
func (m *Manager) AddByID(ctx context.Context, productID string) (orders.CartItem, error) {
	return m.backend.AddToCart(ctx, m.creds.Credential(), productID, 1)
}

// Remove deletes a cart item and then refetches, whether or not the delete
// succeeded.
func (m *Manager) Remove(ctx context.Context, itemID string) error {
	delErr := m.backend.RemoveFromCart(ctx, m.creds.Credential(), itemID)
	return errors.Join(delErr, m.Refresh(ctx))
}

// ComputeTotal sums price x quantity over items whose product is known.
func ComputeTotal(items []orders.CartItem, products map[string]orders.Product) orders.Cents {
	var total orders.Cents
	for _, it := range items {
		if p, ok := products[it.ProductID]; ok {
			total += orders.LineTotal(p.Price, it.Quantity)
		}
	}
	return total
}

func (m *Manager) Total() orders.Cents {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ComputeTotal(m.items, m.products)
}

// DisplayTotal adds the delivery fee. It is never sent to the backend.
func (m *Manager) DisplayTotal() orders.Cents { return m.Total() + m.deliveryFee }

func (m *Manager) DeliveryFee() orders.Cents { return m.deliveryFee }

func (m *Manager) Items() []orders.CartItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]orders.CartItem(nil), m.items...)
}

type Line struct {
	Item     orders.CartItem
	Product  orders.Product
	Subtotal orders.Cents
}

// Lines joins items with their products; unresolvable items are omitted.
func (m *Manager) Lines() []Line {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Line, 0, len(m.items))
	for _, it := range m.items {
		p, ok := m.products[it.ProductID]
		if !ok {
			continue
		}
		out = append(out, Line{Item: it, Product: p, Subtotal: orders.LineTotal(p.Price, it.Quantity)})
	}
	return out
}
