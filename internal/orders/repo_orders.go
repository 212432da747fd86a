package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateOrder snapshots name and price from the products table (never from
// the request), decrements stock and clears the user's cart in one tx.
func (r *Repo) CreateOrder(ctx context.Context, userID string, in OrderInput) (Order, error) {
	required, err := requiredQuantities(in.Items)
	if err != nil {
		return Order{}, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	type priced struct {
		name  string
		price float64
		stock int
	}
	// lock rows in a stable order so concurrent orders cannot deadlock
	pids := make([]string, 0, len(required))
	for pid := range required {
		pids = append(pids, pid)
	}
	sort.Strings(pids)

	catalog := make(map[string]priced, len(required))
	for _, pid := range pids {
		qty := required[pid]
		var p priced
		err := tx.QueryRow(ctx, `SELECT name, price, stock_quantity FROM products WHERE id=$1 FOR UPDATE`, pid).
			Scan(&p.name, &p.price, &p.stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, fmt.Errorf("product %s: %w", pid, ErrNotFound)
		}
		if err != nil {
			return Order{}, err
		}
		if p.stock < qty {
			return Order{}, fmt.Errorf("product %s: %w", pid, ErrInsufficientStock)
		}
		catalog[pid] = p
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
		p := catalog[it.ProductID]
		o.Items = append(o.Items, OrderItem{ProductID: it.ProductID, ProductName: p.name, Price: p.price, Quantity: it.Quantity})
		total += LineTotal(p.price, it.Quantity)
	}
	o.TotalAmount = total.Float()

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, total_amount, status, delivery_address, payment_method, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		o.ID, o.UserID, o.TotalAmount, string(o.Status), o.DeliveryAddress, o.PaymentMethod, o.CreatedAt, o.UpdatedAt); err != nil {
		return Order{}, err
	}
	for i, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, position, product_id, product_name, price, quantity)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.ID, i, it.ProductID, it.ProductName, it.Price, it.Quantity); err != nil {
			return Order{}, err
		}
	}
	for _, pid := range pids {
		if _, err := tx.Exec(ctx, `UPDATE products SET stock_quantity = stock_quantity - $2 WHERE id=$1`, pid, required[pid]); err != nil {
			return Order{}, err
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID); err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

// requiredQuantities validates the input lines and sums quantities per product.
func requiredQuantities(items []ItemInput) (map[string]int, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	out := make(map[string]int, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, ErrInvalidQuantity)
		}
		out[it.ProductID] += it.Quantity
	}
	return out, nil
}

const orderCols = `id, user_id, total_amount, status, delivery_address, payment_method, created_at, updated_at`

func (r *Repo) queryOrders(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	ids := []string{}
	for rows.Next() {
		var o Order
		var status string
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &status, &o.DeliveryAddress,
			&o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Status = Status(status)
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	items, err := r.DB.Query(ctx, `
		SELECT order_id, product_id, product_name, price, quantity
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, err
	}
	defer items.Close()

	byOrder := map[string][]OrderItem{}
	for items.Next() {
		var oid string
		var it OrderItem
		if err := items.Scan(&oid, &it.ProductID, &it.ProductName, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		byOrder[oid] = append(byOrder[oid], it)
	}
	if err := items.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = byOrder[out[i].ID]
		if out[i].Items == nil {
			out[i].Items = []OrderItem{}
		}
	}
	return out, nil
}

func (r *Repo) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderCols+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *Repo) ListAllOrders(ctx context.Context) ([]Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC`)
}

func (r *Repo) GetOrder(ctx context.Context, userID, orderID string) (Order, error) {
	list, err := r.queryOrders(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1 AND user_id=$2`, orderID, userID)
	if err != nil {
		return Order{}, err
	}
	if len(list) == 0 {
		return Order{}, ErrNotFound
	}
	return list[0], nil
}

func (r *Repo) UpdateOrderStatus(ctx context.Context, orderID string, status Status) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(Status(cur), status) {
		return Order{}, fmt.Errorf("%s -> %s: %w", cur, status, ErrInvalidTransition)
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`,
		orderID, string(status), time.Now().UTC()); err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}

	list, err := r.queryOrders(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, orderID)
	if err != nil {
		return Order{}, err
	}
	if len(list) == 0 {
		return Order{}, ErrNotFound
	}
	return list[0], nil
}
