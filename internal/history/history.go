// Package history shows the signed-in user's past orders. Lines are the
// snapshot taken at order time and are never re-joined with the catalog.
package history

import (
	"context"

	"github.com/ariefcatur/go-organic-store/internal/api"
	"github.com/ariefcatur/go-organic-store/internal/orders"
)

type Backend interface {
	Orders(ctx context.Context, cred api.Credential) ([]orders.Order, error)
	Order(ctx context.Context, cred api.Credential, id string) (orders.Order, error)
}

type Credentials interface {
	Credential() api.Credential
}

type Viewer struct {
	backend Backend
	creds   Credentials
}

func NewViewer(backend Backend, creds Credentials) *Viewer {
	return &Viewer{backend: backend, creds: creds}
}

func (v *Viewer) List(ctx context.Context) ([]orders.Order, error) {
	return v.backend.Orders(ctx, v.creds.Credential())
}

func (v *Viewer) Get(ctx context.Context, id string) (orders.Order, error) {
	return v.backend.Order(ctx, v.creds.Credential(), id)
}
