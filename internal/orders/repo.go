package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the Postgres implementation of Store.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const uniqueViolation = "23505"

func (r *Repo) CreateUser(ctx context.Context, u User, passwordHash string) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO users(id, email, name, role, phone, address, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		u.ID, u.Email, u.Name, string(u.Role), u.Phone, u.Address, passwordHash, u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}

const userCols = `id, email, name, role, phone, address, created_at`

func scanUser(row pgx.Row, extra ...any) (User, error) {
	var u User
	var role string
	dest := append([]any{&u.ID, &u.Email, &u.Name, &role, &u.Phone, &u.Address, &u.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	parsed, err := ParseRole(role)
	if err != nil {
		return User{}, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.Role = parsed
	return u, nil
}

func (r *Repo) UserByEmail(ctx context.Context, email string) (User, string, error) {
	var hash string
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userCols+`, password_hash FROM users WHERE email=$1`, email), &hash)
	if err != nil {
		return User{}, "", err
	}
	return u, hash, nil
}

func (r *Repo) UserByID(ctx context.Context, id string) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
}

func (r *Repo) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userCols+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) CountCategories(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n)
	return n, err
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, description, image_url, created_at
                                FROM categories ORDER BY created_at, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) CreateCategory(ctx context.Context, c Category) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO categories(id, name, description, image_url, created_at)
		VALUES ($1,$2,$3,$4,$5)`, c.ID, c.Name, c.Description, c.ImageURL, c.CreatedAt)
	return err
}

const productCols = `id, name, description, price, category_id, image_url, stock_quantity,
	organic_certification, farm_origin, created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CategoryID, &p.ImageURL,
		&p.StockQuantity, &p.OrganicCertification, &p.FarmOrigin, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) ListProducts(ctx context.Context, categoryID string) ([]Product, error) {
	q := `SELECT ` + productCols + ` FROM products`
	var args []any
	if categoryID != "" {
		q += ` WHERE category_id=$1`
		args = append(args, categoryID)
	}
	rows, err := r.DB.Query(ctx, q+` ORDER BY created_at, name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetProduct(ctx context.Context, id string) (Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
}

func (r *Repo) CreateProduct(ctx context.Context, p Product) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, name, description, price, category_id, image_url, stock_quantity,
		                     organic_certification, farm_origin, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.Name, p.Description, p.Price, p.CategoryID, p.ImageURL, p.StockQuantity,
		p.OrganicCertification, p.FarmOrigin, p.CreatedAt)
	return err
}
