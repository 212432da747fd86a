package httpx

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-organic-store/internal/auth"
	"github.com/ariefcatur/go-organic-store/internal/orders"
)

type registerReq struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResp struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        orders.User `json:"user"`
}

// register always creates a customer; admins come from seeding only.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if !decode(w, r, &req) {
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Log.WithError(err).Error("hash password")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	u := orders.User{
		ID:        uuid.NewString(),
		Email:     strings.TrimSpace(req.Email),
		Name:      req.Name,
		Role:      orders.RoleCustomer,
		Phone:     req.Phone,
		Address:   req.Address,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.CreateUser(r.Context(), u, hash); err != nil {
		h.storeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !decode(w, r, &req) {
		return
	}
	u, hash, err := h.Store.UserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if errors.Is(err, orders.ErrNotFound) || (err == nil && !auth.CheckPassword(hash, req.Password)) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		h.storeError(w, err, "")
		return
	}
	tok, err := h.Tokens.Issue(u)
	if err != nil {
		h.Log.WithError(err).Error("issue token")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, tokenResp{AccessToken: tok, TokenType: "bearer", User: u})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()))
}

// storeError logs unexpected failures before mapping them.
func (h *Handler) storeError(w http.ResponseWriter, err error, notFound string) {
	if !isKnownStoreError(err) {
		h.Log.WithError(err).Error("store")
	}
	writeStoreError(w, err, notFound)
}

func isKnownStoreError(err error) bool {
	for _, target := range []error{
		orders.ErrNotFound, orders.ErrEmailTaken, orders.ErrInsufficientStock,
		orders.ErrInvalidQuantity, orders.ErrEmptyOrder, orders.ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
