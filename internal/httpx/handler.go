package httpx

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-organic-store/internal/auth"
	"github.com/ariefcatur/go-organic-store/internal/orders"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Handler serves the storefront REST API. Redis and both publishers are
// optional; a nil value disables the cache or the event.
type Handler struct {
	Store   orders.Store
	Tokens  *auth.Issuer
	Redis   *redis.Client
	Placed  Publisher
	Changed Publisher
	Service string
	Log     *logrus.Entry

	// LoginLimiter throttles POST /auth/login when set.
	LoginLimiter *RateLimiter

	seedMu sync.Mutex
}

// Register mounts every API route under /api.
func (h *Handler) Register(r chi.Router) {
	if h.Log == nil {
		h.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.With(h.loginLimit).Post("/login", h.login)
			r.With(h.requireUser).Get("/me", h.me)
		})

		r.Get("/categories", h.listCategories)
		r.With(h.requireUser, requireAdmin).Post("/categories", h.createCategory)

		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.With(h.requireUser, requireAdmin).Post("/products", h.createProduct)

		r.Post("/init-data", h.initData)

		r.Group(func(r chi.Router) {
			r.Use(h.requireUser)

			r.Get("/cart", h.getCart)
			r.Post("/cart", h.addToCart)
			r.Delete("/cart/{id}", h.removeFromCart)

			r.Get("/orders", h.listOrders)
			r.Post("/orders", h.createOrder)
			r.Get("/orders/{id}", h.getOrder)
			r.Get("/orders/{id}/status", h.getOrderStatus)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireUser, requireAdmin)
			r.Get("/orders", h.adminOrders)
			r.Get("/users", h.adminUsers)
			r.Put("/orders/{id}/status", h.setOrderStatus)
		})
	})
}

func (h *Handler) loginLimit(next http.Handler) http.Handler {
	if h.LoginLimiter == nil {
		return next
	}
	return h.LoginLimiter.Handler(next)
}
