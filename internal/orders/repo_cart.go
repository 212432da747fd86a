package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (r *Repo) ListCart(ctx context.Context, userID string) ([]CartItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, product_id, quantity, created_at
		FROM cart_items WHERE user_id=$1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CartItem{}
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// AddToCart locks the product row so the stock check and the merge happen
// against the same counter value.
func (r *Repo) AddToCart(ctx context.Context, userID, productID string, qty int) (CartItem, error) {
	if qty <= 0 {
		return CartItem{}, ErrInvalidQuantity
	}
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return CartItem{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stock int
	err = tx.QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return CartItem{}, ErrNotFound
	}
	if err != nil {
		return CartItem{}, err
	}

	var it CartItem
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, product_id, quantity, created_at
		FROM cart_items WHERE user_id=$1 AND product_id=$2`, userID, productID).
		Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		it = CartItem{ID: uuid.NewString(), UserID: userID, ProductID: productID, CreatedAt: time.Now().UTC()}
	case err != nil:
		return CartItem{}, err
	}

	if it.Quantity+qty > stock {
		return CartItem{}, ErrInsufficientStock
	}
	it.Quantity += qty

	if _, err := tx.Exec(ctx, `
		INSERT INTO cart_items(id, user_id, product_id, quantity, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		it.ID, it.UserID, it.ProductID, it.Quantity, it.CreatedAt); err != nil {
		return CartItem{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return CartItem{}, err
	}
	return it, nil
}

func (r *Repo) RemoveCartItem(ctx context.Context, userID, itemID string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE id=$1 AND user_id=$2`, itemID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
