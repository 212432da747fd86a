// Package gate decides whether a route may render for the current identity.
// It is advisory: the backend enforces access on its own.
package gate

import (
	"fmt"
	"sync"

	"github.com/ariefcatur/go-organic-store/internal/orders"
)

type Capability int

const (
	Public Capability = iota
	Authenticated
	Admin
)

type Decision int

const (
	Render Decision = iota
	RedirectLogin
	RedirectDefault
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDefault:
		return "redirect_default"
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

type Identity struct {
	Authenticated bool
	Role          orders.Role
}

func Anonymous() Identity { return Identity{} }

func Signed(role orders.Role) Identity { return Identity{Authenticated: true, Role: role} }

// Decide applies the access rule. An unknown role is treated as having no
// admin rights.
func Decide(id Identity, c Capability) Decision {
	switch c {
	case Public:
		return Render
	case Authenticated:
		if !id.Authenticated {
			return RedirectLogin
		}
		return Render
	case Admin:
		if !id.Authenticated {
			return RedirectLogin
		}
		switch id.Role {
		case orders.RoleAdmin:
			return Render
		case orders.RoleCustomer:
			return RedirectDefault
		}
	}
	return RedirectDefault
}

const (
	RouteLogin    = "/login"
	RouteDefault  = "/products"
	RouteCart     = "/cart"
	RouteOrders   = "/orders"
	RouteAdmin    = "/admin"
	RouteRegister = "/register"
	RouteAccount  = "/account"
)

// Routes maps each known route to its required capability.
var Routes = map[string]Capability{
	RouteLogin:    Public,
	RouteRegister: Public,
	RouteDefault:  Public,
	RouteCart:     Authenticated,
	RouteOrders:   Authenticated,
	RouteAccount:  Authenticated,
	RouteAdmin:    Admin,
}

// Navigator resolves routes and remembers where a login redirect came from.
type Navigator struct {
	mu       sync.Mutex
	intended string
}

// Visit returns the route to show for the requested one. Unknown routes need
// authentication.
func (n *Navigator) Visit(id Identity, route string) (string, Decision) {
	capability, ok := Routes[route]
	if !ok {
		capability = Authenticated
	}
	d := Decide(id, capability)
	switch d {
	case RedirectLogin:
		n.mu.Lock()
		n.intended = route
		n.mu.Unlock()
		return RouteLogin, d
	case RedirectDefault:
		return RouteDefault, d
	}
	return route, d
}

// AfterLogin returns the route that bounced to login, or the default route,
// and forgets it.
func (n *Navigator) AfterLogin() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	r := n.intended
	n.intended = ""
	if r == "" {
		return RouteDefault
	}
	return r
}
