package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-organic-store/internal/auth"
	"github.com/ariefcatur/go-organic-store/internal/logging"
	"github.com/ariefcatur/go-organic-store/internal/orders"
	"github.com/ariefcatur/go-organic-store/internal/seed"
)

type capturePublisher struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (c *capturePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, kafkago.Message{Key: key, Value: value, Headers: headers})
}

func (c *capturePublisher) envelopes(t *testing.T) []orders.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]orders.Envelope, 0, len(c.msgs))
	for _, m := range c.msgs {
		var env orders.Envelope
		require.NoError(t, json.Unmarshal(m.Value, &env))
		out = append(out, env)
	}
	return out
}

type testAPI struct {
	srv     *httptest.Server
	store   *orders.MemoryStore
	placed  *capturePublisher
	changed *capturePublisher
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := logging.Discard()
	ta := &testAPI{
		store:   orders.NewMemoryStore(),
		placed:  &capturePublisher{},
		changed: &capturePublisher{},
	}
	h := &Handler{
		Store:        ta.store,
		Tokens:       auth.NewIssuer("test-secret", time.Hour),
		Placed:       ta.placed,
		Changed:      ta.changed,
		Service:      "test",
		Log:          log,
		LoginLimiter: NewRateLimiter(100, 100),
	}
	r := NewRouter(log)
	h.Register(r)
	ta.srv = httptest.NewServer(r)
	t.Cleanup(ta.srv.Close)
	return ta
}

func (ta *testAPI) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ta.srv.URL+"/api"+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ta.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

func (ta *testAPI) seed(t *testing.T) {
	t.Helper()
	code, _ := ta.do(t, http.MethodPost, "/init-data", "", nil)
	require.Equal(t, http.StatusOK, code)
}

func (ta *testAPI) login(t *testing.T, email, password string) string {
	t.Helper()
	code, body := ta.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, code, string(body))
	var tr tokenResp
	require.NoError(t, json.Unmarshal(body, &tr))
	return tr.AccessToken
}

func (ta *testAPI) customer(t *testing.T, email string) string {
	t.Helper()
	code, body := ta.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "pw", "name": "Asha",
	})
	require.Equal(t, http.StatusOK, code, string(body))
	return ta.login(t, email, "pw")
}

func detail(t *testing.T, body []byte) string {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Detail
}

func decodeInto[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestRegisterLoginMe(t *testing.T) {
	ta := newTestAPI(t)
	tok := ta.customer(t, "asha@example.com")

	code, body := ta.do(t, http.MethodGet, "/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, code)
	u := decodeInto[orders.User](t, body)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.Equal(t, orders.RoleCustomer, u.Role)

	code, body = ta.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "asha@example.com", "password": "x", "name": "Dup",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Email already registered", detail(t, body))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ta := newTestAPI(t)
	ta.customer(t, "asha@example.com")

	code, body := ta.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "asha@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", detail(t, body))

	code, _ = ta.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestMeRequiresValidToken(t *testing.T) {
	ta := newTestAPI(t)

	code, _ := ta.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := ta.do(t, http.MethodGet, "/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid token", detail(t, body))

	ghost, err := auth.NewIssuer("test-secret", time.Hour).Issue(orders.User{ID: "missing", Role: orders.RoleCustomer})
	require.NoError(t, err)
	code, body = ta.do(t, http.MethodGet, "/auth/me", ghost, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "User not found", detail(t, body))
}

func TestLoginRateLimited(t *testing.T) {
	ta := newTestAPI(t)
	h := &Handler{Store: ta.store, Tokens: auth.NewIssuer("s", time.Hour), Log: logging.Discard(), LoginLimiter: NewRateLimiter(1, 2)}
	r := NewRouter(logging.Discard())
	h.Register(r)

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"a@b.c","password":"x"}`))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestLoginRateLimitIgnoresForwardedFor(t *testing.T) {
	ta := newTestAPI(t)
	h := &Handler{Store: ta.store, Tokens: auth.NewIssuer("s", time.Hour), Log: logging.Discard(), LoginLimiter: NewRateLimiter(1, 1)}
	r := NewRouter(logging.Discard())
	h.Register(r)

	limited := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"a@b.c","password":"x"}`))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("1.2.3.%d", i))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.GreaterOrEqual(t, limited, 18)
}

func TestClientKey(t *testing.T) {
	cases := map[string]string{
		"1.2.3.4:5":         "1.2.3.4",
		"[2001:db8::1]:443": "2001:db8::1",
		"2001:db8::1":       "2001:db8::1",
		"2001:db8::2":       "2001:db8::2",
		"10.0.0.7":          "10.0.0.7",
	}
	for addr, want := range cases {
		assert.Equal(t, want, clientKey(addr), addr)
	}
}

func TestInitDataSeedsOnce(t *testing.T) {
	ta := newTestAPI(t)

	code, body := ta.do(t, http.MethodPost, "/init-data", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Initial data created successfully", decodeInto[messageBody](t, body).Message)

	code, body = ta.do(t, http.MethodPost, "/init-data", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Data already initialized", decodeInto[messageBody](t, body).Message)

	_, body = ta.do(t, http.MethodGet, "/categories", "", nil)
	assert.Len(t, decodeInto[[]orders.Category](t, body), 4)
	_, body = ta.do(t, http.MethodGet, "/products", "", nil)
	assert.Len(t, decodeInto[[]orders.Product](t, body), 17)

	ta.login(t, seed.AdminEmail, seed.AdminPassword)
}

func TestProductsFilterAndLookup(t *testing.T) {
	ta := newTestAPI(t)
	ta.seed(t)

	_, body := ta.do(t, http.MethodGet, "/categories", "", nil)
	cats := decodeInto[[]orders.Category](t, body)
	_, body = ta.do(t, http.MethodGet, "/products?category_id="+cats[0].ID, "", nil)
	ps := decodeInto[[]orders.Product](t, body)
	require.NotEmpty(t, ps)
	for _, p := range ps {
		assert.Equal(t, cats[0].ID, p.CategoryID)
	}

	code, body := ta.do(t, http.MethodGet, "/products/"+ps[0].ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, ps[0].Name, decodeInto[orders.Product](t, body).Name)

	code, body = ta.do(t, http.MethodGet, "/products/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Product not found", detail(t, body))
}

func TestAdminCatalogWrites(t *testing.T) {
	ta := newTestAPI(t)
	ta.seed(t)
	admin := ta.login(t, seed.AdminEmail, seed.AdminPassword)
	cust := ta.customer(t, "c@example.com")

	code, body := ta.do(t, http.MethodPost, "/categories", cust, orders.NewCategory{Name: "Tea"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Admin access required", detail(t, body))

	code, body = ta.do(t, http.MethodPost, "/categories", admin, orders.NewCategory{Name: "Tea"})
	require.Equal(t, http.StatusOK, code)
	cat := decodeInto[orders.Category](t, body)

	code, _ = ta.do(t, http.MethodPost, "/products", admin, orders.NewProduct{Name: "Green tea", Price: 0, CategoryID: cat.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, body = ta.do(t, http.MethodPost, "/products", admin, orders.NewProduct{Name: "Green tea", Price: 120, CategoryID: "missing"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Category not found", detail(t, body))

	code, body = ta.do(t, http.MethodPost, "/products", admin, orders.NewProduct{Name: "Green tea", Price: 120, CategoryID: cat.ID, StockQuantity: 5})
	require.Equal(t, http.StatusOK, code)
	p := decodeInto[orders.Product](t, body)
	assert.True(t, p.OrganicCertification)
	assert.Equal(t, 5, p.StockQuantity)
}

func TestCartAddMergeAndRemove(t *testing.T) {
	ta := newTestAPI(t)
	ta.seed(t)
	tok := ta.customer(t, "c@example.com")
	_, body := ta.do(t, http.MethodGet, "/products", "", nil)
	p := decodeInto[[]orders.Product](t, body)[0]

	for i := 0; i < 2; i++ {
		code, body := ta.do(t, http.MethodPost, "/cart", tok, map[string]any{"product_id": p.ID, "quantity": 1})
		require.Equal(t, http.StatusOK, code, string(body))
	}
	_, body = ta.do(t, http.MethodGet, "/cart", tok, nil)
	items := decodeInto[[]orders.CartItem](t, body)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	code, body := ta.do(t, http.MethodPost, "/cart", tok, map[string]any{"product_id": p.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Quantity must be at least 1", detail(t, body))

	code, body = ta.do(t, http.MethodPost, "/cart", tok, map[string]any{"product_id": p.ID, "quantity": p.StockQuantity})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Insufficient stock", detail(t, body))

	code, _ = ta.do(t, http.MethodPost, "/cart", tok, map[string]any{"product_id": "missing", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, code)

	other := ta.customer(t, "other@example.com")
	code, body = ta.do(t, http.MethodDelete, "/cart/"+items[0].ID, other, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Cart item not found", detail(t, body))

	code, _ = ta.do(t, http.MethodDelete, "/cart/"+items[0].ID, tok, nil)
	assert.Equal(t, http.StatusOK, code)
	_, body = ta.do(t, http.MethodGet, "/cart", tok, nil)
	assert.Empty(t, decodeInto[[]orders.CartItem](t, body))
}

func TestCartRequiresAuth(t *testing.T) {
	ta := newTestAPI(t)
	code, _ := ta.do(t, http.MethodGet, "/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCreateOrderSnapshotsAndPublishes(t *testing.T) {
	ta := newTestAPI(t)
	ta.seed(t)
	tok := ta.customer(t, "c@example.com")
	_, body := ta.do(t, http.MethodGet, "/products", "", nil)
	ps := decodeInto[[]orders.Product](t, body)

	_, _ = ta.do(t, http.MethodPost, "/cart", tok, map[string]any{"product_id": ps[0].ID, "quantity": 1})
	code, body := ta.do(t, http.MethodPost, "/orders", tok, orders.OrderInput{
		Items:           []orders.ItemInput{{ProductID: ps[0].ID, Quantity: 2}, {ProductID: ps[1].ID, Quantity: 1}},
		DeliveryAddress: "12 Farm Lane",
		PaymentMethod:   "cod",
	})
	require.Equal(t, http.StatusOK, code, string(body))
	o := decodeInto[orders.Order](t, body)
	assert.Equal(t, orders.StatusPending, o.Status)
	want := orders.LineTotal(ps[0].Price, 2) + orders.LineTotal(ps[1].Price, 1)
	assert.Equal(t, want.Float(), o.TotalAmount)
	assert.Equal(t, ps[0].Name, o.Items[0].ProductName)

	_, body = ta.do(t, http.MethodGet, "/cart", tok, nil)
	assert.Empty(t, decodeInto[[]orders.CartItem](t, body))

	_, body = ta.do(t, http.MethodGet, "/products/"+ps[0].ID, "", nil)
	assert.Equal(t, ps[0].StockQuantity-2, decodeInto[orders.Product](t, body).StockQuantity)

	evs := ta.placed.envelopes(t)
	require.Len(t, evs, 1)
	assert.Equal(t, orders.EventOrderPlaced, evs[0].EventType)
	assert.Equal(t, o.ID, evs[0].CorrelationID)

	code, body = ta.do(t, http.MethodGet, "/orders/"+o.ID+"/status", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, orders.StatusPending, decodeInto[orders.StatusView](t, body).Status)

	other := ta.customer(t, "o@example.com")
	code, _ = ta.do(t, http.MethodGet, "/orders/"+o.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreateOrderValidation(t *testing.T) {
	ta := newTestAPI(t)
	ta.seed(t)
	tok := ta.customer(t, "c@example.com")

	code, body := ta.do(t, http.MethodPost, "/orders", tok, orders.OrderInput{DeliveryAddress: "x", PaymentMethod: "cod"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, detail(t, body), "items")

	_, body = ta.do(t, http.MethodGet, "/products", "", nil)
	p := decodeInto[[]orders.Product](t, body)[0]
	code, body = ta.do(t, http.MethodPost, "/orders", tok, orders.OrderInput{
		Items:           []orders.ItemInput{{ProductID: p.ID, Quantity: p.StockQuantity + 1}},
		DeliveryAddress: "x", PaymentMethod: "cod",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Insufficient stock", detail(t, body))
}

func TestAdminOrderStatus(t *testing.T) {
	ta := newTestAPI(t)
	ta.seed(t)
	admin := ta.login(t, seed.AdminEmail, seed.AdminPassword)
	tok := ta.customer(t, "c@example.com")
	_, body := ta.do(t, http.MethodGet, "/products", "", nil)
	p := decodeInto[[]orders.Product](t, body)[0]
	_, body = ta.do(t, http.MethodPost, "/orders", tok, orders.OrderInput{
		Items: []orders.ItemInput{{ProductID: p.ID, Quantity: 1}}, DeliveryAddress: "x", PaymentMethod: "cod",
	})
	o := decodeInto[orders.Order](t, body)

	code, _ := ta.do(t, http.MethodGet, "/admin/orders", tok, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = ta.do(t, http.MethodPut, "/admin/orders/"+o.ID+"/status?status=teleported", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid status", detail(t, body))

	code, _ = ta.do(t, http.MethodPut, "/admin/orders/missing/status?status=shipped", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	// any known status is accepted, even going backwards
	for _, s := range []orders.Status{orders.StatusDelivered, orders.StatusPending} {
		code, body = ta.do(t, http.MethodPut, "/admin/orders/"+o.ID+"/status?status="+string(s), admin, nil)
		require.Equal(t, http.StatusOK, code, string(body))
	}

	_, body = ta.do(t, http.MethodGet, "/admin/orders", admin, nil)
	all := decodeInto[[]orders.Order](t, body)
	require.Len(t, all, 1)
	assert.Equal(t, orders.StatusPending, all[0].Status)

	evs := ta.changed.envelopes(t)
	require.Len(t, evs, 2)
	assert.Equal(t, orders.EventOrderStatusChanged, evs[1].EventType)

	_, body = ta.do(t, http.MethodGet, "/admin/users", admin, nil)
	assert.Len(t, decodeInto[[]orders.User](t, body), 2)
}

func TestHealthz(t *testing.T) {
	ta := newTestAPI(t)
	resp, err := ta.srv.Client().Get(ta.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
