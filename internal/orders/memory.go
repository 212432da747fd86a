package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. Slices preserve insertion
// order, matching what the Postgres queries return.
type MemoryStore struct {
	mu sync.RWMutex

	users      []User
	hashes     map[string]string // user id -> password hash
	categories []Category
	products   []Product
	cart       []CartItem
	orders     []Order
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hashes: map[string]string{}}
}

func (m *MemoryStore) CreateUser(_ context.Context, u User, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	m.users = append(m.users, u)
	m.hashes[u.ID] = passwordHash
	return nil
}

func (m *MemoryStore) UserByEmail(_ context.Context, email string) (User, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, m.hashes[u.ID], nil
		}
	}
	return User{}, "", ErrNotFound
}

func (m *MemoryStore) UserByID(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]User{}, m.users...), nil
}

func (m *MemoryStore) CountCategories(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.categories), nil
}

func (m *MemoryStore) ListCategories(_ context.Context) ([]Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Category{}, m.categories...), nil
}

func (m *MemoryStore) CreateCategory(_ context.Context, c Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = append(m.categories, c)
	return nil
}

func (m *MemoryStore) ListProducts(_ context.Context, categoryID string) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Product{}
	for _, p := range m.products {
		if categoryID == "" || p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetProduct(_ context.Context, id string) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.productIndex(id); i >= 0 {
		return m.products[i], nil
	}
	return Product{}, ErrNotFound
}

func (m *MemoryStore) CreateProduct(_ context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, p)
	return nil
}

// DeleteProduct has no HTTP route; tests use it to simulate a product that
// disappeared while still referenced by a cart.
func (m *MemoryStore) DeleteProduct(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.productIndex(id); i >= 0 {
		m.products = append(m.products[:i], m.products[i+1:]...)
	}
}

func (m *MemoryStore) productIndex(id string) int {
	for i, p := range m.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) ListCart(_ context.Context, userID string) ([]CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []CartItem{}
	for _, it := range m.cart {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *MemoryStore) AddToCart(_ context.Context, userID, productID string, qty int) (CartItem, error) {
	if qty <= 0 {
		return CartItem{}, ErrInvalidQuantity
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	pi := m.productIndex(productID)
	if pi < 0 {
		return CartItem{}, ErrNotFound
	}
	stock := m.products[pi].StockQuantity

	for i, it := range m.cart {
		if it.UserID == userID && it.ProductID == productID {
			if it.Quantity+qty > stock {
				return CartItem{}, ErrInsufficientStock
			}
			m.cart[i].Quantity += qty
			return m.cart[i], nil
		}
	}
	if qty > stock {
		return CartItem{}, ErrInsufficientStock
	}
	it := CartItem{ID: uuid.NewString(), UserID: userID, ProductID: productID, Quantity: qty, CreatedAt: time.Now().UTC()}
	m.cart = append(m.cart, it)
	return it, nil
}

func (m *MemoryStore) RemoveCartItem(_ context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, it := range m.cart {
		if it.ID == itemID && it.UserID == userID {
			m.cart = append(m.cart[:i], m.cart[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) CreateOrder(_ context.Context, userID string, in OrderInput) (Order, error) {
	required, err := requiredQuantities(in.Items)
	if err != nil {
		return Order{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for pid, qty := range required {
		i := m.productIndex(pid)
		if i < 0 {
			return Order{}, fmt.Errorf("product %s: %w", pid, ErrNotFound)
		}
		if m.products[i].StockQuantity < qty {
			return Order{}, fmt.Errorf("product %s: %w", pid, ErrInsufficientStock)
		}
	}

	now := time.Now().UTC()
	o := Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Status:          StatusPending,
		DeliveryAddress: in.DeliveryAddress,
		PaymentMethod:   in.PaymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	var total Cents
	for _, it := range in.Items {
		p := m.products[m.productIndex(it.ProductID)]
		o.Items = append(o.Items, OrderItem{ProductID: p.ID, ProductName: p.Name, Price: p.Price, Quantity: it.Quantity})
		total += LineTotal(p.Price, it.Quantity)
	}
	o.TotalAmount = total.Float()

	for pid, qty := range required {
		m.products[m.productIndex(pid)].StockQuantity -= qty
	}
	kept := m.cart[:0]
	for _, it := range m.cart {
		if it.UserID != userID {
			kept = append(kept, it)
		}
	}
	m.cart = kept
	m.orders = append(m.orders, o)
	return cloneOrder(o), nil
}

func cloneOrder(o Order) Order {
	o.Items = append([]OrderItem{}, o.Items...)
	return o
}

// newestFirst matches the ORDER BY created_at DESC of the Postgres queries.
func newestFirst(list []Order) []Order {
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

func (m *MemoryStore) ListOrders(_ context.Context, userID string) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	return newestFirst(out), nil
}

func (m *MemoryStore) ListAllOrders(_ context.Context) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, cloneOrder(o))
	}
	return newestFirst(out), nil
}

func (m *MemoryStore) GetOrder(_ context.Context, userID, orderID string) (Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, o := range m.orders {
		if o.ID == orderID && o.UserID == userID {
			return cloneOrder(o), nil
		}
	}
	return Order{}, ErrNotFound
}

func (m *MemoryStore) UpdateOrderStatus(_ context.Context, orderID string, status Status) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, o := range m.orders {
		if o.ID == orderID {
			if !CanTransition(o.Status, status) {
				return Order{}, fmt.Errorf("%s -> %s: %w", o.Status, status, ErrInvalidTransition)
			}
			m.orders[i].Status = status
			m.orders[i].UpdatedAt = time.Now().UTC()
			return cloneOrder(m.orders[i]), nil
		}
	}
	return Order{}, ErrNotFound
}
