// Package catalog reads categories and products for display.
package catalog

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-organic-store/internal/api"
	"github.com/ariefcatur/go-organic-store/internal/orders"
)

// PlaceholderImage is shown when a product has no image or it fails to load.
const PlaceholderImage = "https://via.placeholder.com/300x200?text=Organic+Product"

type Backend interface {
	Categories(ctx context.Context) ([]orders.Category, error)
	Products(ctx context.Context, categoryID string) ([]orders.Product, error)
	Product(ctx context.Context, id string) (orders.Product, error)
	InitData(ctx context.Context) (api.InitResult, error)
}

type Reader struct {
	backend Backend
	log     *logrus.Entry
	seed    sync.Once
}

func NewReader(backend Backend, log *logrus.Entry) *Reader {
	return &Reader{backend: backend, log: log}
}

// Open is called on the first catalog view. It asks the backend to seed
// sample data once per reader; the outcome never affects the view.
func (r *Reader) Open(ctx context.Context) {
	r.seed.Do(func() {
		res, err := r.backend.InitData(ctx)
		if err != nil {
			r.log.WithError(err).Debug("init-data ignored")
			return
		}
		r.log.WithField("message", res.Message).Debug("init-data")
	})
}

func (r *Reader) Categories(ctx context.Context) ([]orders.Category, error) {
	return r.backend.Categories(ctx)
}

// Products lists products in categoryID, or all products when it is empty.
func (r *Reader) Products(ctx context.Context, categoryID string) ([]orders.Product, error) {
	return r.backend.Products(ctx, categoryID)
}

func (r *Reader) Product(ctx context.Context, id string) (orders.Product, error) {
	return r.backend.Product(ctx, id)
}

func ImageSource(p orders.Product, loadFailed bool) string {
	if loadFailed || p.ImageURL == "" {
		return PlaceholderImage
	}
	return p.ImageURL
}
