// Package api is the storefront's REST client. Every call takes the caller's
// Credential explicitly; the client holds no session state.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ariefcatur/go-organic-store/internal/orders"
)

// Credential is a bearer token. The zero value sends no Authorization header.
type Credential string

const Anonymous Credential = ""

type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for baseURL (".../api"). timeout <= 0 means requests
// may wait indefinitely.
func New(baseURL string, timeout time.Duration) *Client {
	hc := &http.Client{}
	if timeout > 0 {
		hc.Timeout = timeout
	}
	return NewWithHTTPClient(baseURL, hc)
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) do(ctx context.Context, cred Credential, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Kind: KindTransport, Op: method + " " + path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred != Anonymous {
		req.Header.Set("Authorization", "Bearer "+string(cred))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindTransport, Op: method + " " + path, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= 300 {
		return newStatusError(method+" "+path, resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindServer, Op: method + " " + path, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

type RegisterInput struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
}

type LoginResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        orders.User `json:"user"`
}

type InitResult struct {
	Message string `json:"message"`
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (orders.User, error) {
	var u orders.User
	err := c.do(ctx, Anonymous, http.MethodPost, "/auth/register", in, &u)
	return u, err
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, Anonymous, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &res)
	return res, err
}

func (c *Client) Me(ctx context.Context, cred Credential) (orders.User, error) {
	var u orders.User
	err := c.do(ctx, cred, http.MethodGet, "/auth/me", nil, &u)
	return u, err
}

func (c *Client) Categories(ctx context.Context) ([]orders.Category, error) {
	var out []orders.Category
	err := c.do(ctx, Anonymous, http.MethodGet, "/categories", nil, &out)
	return out, err
}

// Products lists the catalog; an empty categoryID lists everything.
func (c *Client) Products(ctx context.Context, categoryID string) ([]orders.Product, error) {
	path := "/products"
	if categoryID != "" {
		path += "?category_id=" + url.QueryEscape(categoryID)
	}
	var out []orders.Product
	err := c.do(ctx, Anonymous, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Product(ctx context.Context, id string) (orders.Product, error) {
	var p orders.Product
	err := c.do(ctx, Anonymous, http.MethodGet, "/products/"+url.PathEscape(id), nil, &p)
	return p, err
}

func (c *Client) AddToCart(ctx context.Context, cred Credential, productID string, qty int) (orders.CartItem, error) {
	var it orders.CartItem
	err := c.do(ctx, cred, http.MethodPost, "/cart", orders.ItemInput{ProductID: productID, Quantity: qty}, &it)
	return it, err
}

func (c *Client) Cart(ctx context.Context, cred Credential) ([]orders.CartItem, error) {
	var out []orders.CartItem
	err := c.do(ctx, cred, http.MethodGet, "/cart", nil, &out)
	return out, err
}

func (c *Client) RemoveFromCart(ctx context.Context, cred Credential, itemID string) error {
	return c.do(ctx, cred, http.MethodDelete, "/cart/"+url.PathEscape(itemID), nil, nil)
}

func (c *Client) Orders(ctx context.Context, cred Credential) ([]orders.Order, error) {
	var out []orders.Order
	err := c.do(ctx, cred, http.MethodGet, "/orders", nil, &out)
	return out, err
}

func (c *Client) Order(ctx context.Context, cred Credential, id string) (orders.Order, error) {
	var o orders.Order
	err := c.do(ctx, cred, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &o)
	return o, err
}

func (c *Client) AdminOrders(ctx context.Context, cred Credential) ([]orders.Order, error) {
	var out []orders.Order
	err := c.do(ctx, cred, http.MethodGet, "/admin/orders", nil, &out)
	return out, err
}

func (c *Client) AdminUsers(ctx context.Context, cred Credential) ([]orders.User, error) {
	var out []orders.User
	err := c.do(ctx, cred, http.MethodGet, "/admin/users", nil, &out)
	return out, err
}

func (c *Client) SetOrderStatus(ctx context.Context, cred Credential, id string, status orders.Status) error {
	path := "/admin/orders/" + url.PathEscape(id) + "/status?status=" + url.QueryEscape(string(status))
	return c.do(ctx, cred, http.MethodPut, path, nil, nil)
}

func (c *Client) CreateCategory(ctx context.Context, cred Credential, in orders.NewCategory) (orders.Category, error) {
	var out orders.Category
	err := c.do(ctx, cred, http.MethodPost, "/categories", in, &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, cred Credential, in orders.NewProduct) (orders.Product, error) {
	var out orders.Product
	err := c.do(ctx, cred, http.MethodPost, "/products", in, &out)
	return out, err
}

// InitData asks the backend to seed sample data; it is idempotent.
func (c *Client) InitData(ctx context.Context) (InitResult, error) {
	var m InitResult
	err := c.do(ctx, Anonymous, http.MethodPost, "/init-data", nil, &m)
	return m, err
}
