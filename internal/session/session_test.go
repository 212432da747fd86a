package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-organic-store/internal/api"
	"github.com/ariefcatur/go-organic-store/internal/apitest"
	"github.com/ariefcatur/go-organic-store/internal/logging"
	"github.com/ariefcatur/go-organic-store/internal/orders"
	"github.com/ariefcatur/go-organic-store/internal/seed"
)

func newStore(t *testing.T, tokens TokenStore) (*Store, *api.Client) {
	t.Helper()
	b := apitest.Seeded(t)
	c := api.New(b.URL(), 0)
	return New(c, tokens, logging.Discard()), c
}

func TestLoginIdentityMatchesMe(t *testing.T) {
	s, c := newStore(t, &MemoryTokenStore{})
	ctx := context.Background()

	u, err := s.Login(ctx, seed.AdminEmail, seed.AdminPassword)
	require.NoError(t, err)
	assert.Equal(t, orders.RoleAdmin, u.Role)

	me, err := c.Me(ctx, s.Credential())
	require.NoError(t, err)
	cur, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, me, cur)
}

func TestLoginFailureLeavesSignedOut(t *testing.T) {
	tokens := &MemoryTokenStore{}
	s, _ := newStore(t, tokens)

	_, err := s.Login(context.Background(), seed.AdminEmail, "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", api.MessageOf(err))
	assert.False(t, s.Authenticated())
	assert.Equal(t, api.Anonymous, s.Credential())
	tok, _ := tokens.Load()
	assert.Empty(t, tok)
}

func TestRegisterDoesNotSignIn(t *testing.T) {
	s, _ := newStore(t, &MemoryTokenStore{})
	u, err := s.Register(context.Background(), api.RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, orders.RoleCustomer, u.Role)
	assert.False(t, s.Authenticated())
}

func TestLogoutClearsEverything(t *testing.T) {
	tokens := &MemoryTokenStore{}
	s, _ := newStore(t, tokens)
	_, err := s.Login(context.Background(), seed.AdminEmail, seed.AdminPassword)
	require.NoError(t, err)

	s.Logout()
	assert.False(t, s.Authenticated())
	assert.Equal(t, api.Anonymous, s.Credential())
	tok, _ := tokens.Load()
	assert.Empty(t, tok)
}

func TestRestoreValidToken(t *testing.T) {
	tokens := &MemoryTokenStore{}
	s, c := newStore(t, tokens)
	res, err := c.Login(context.Background(), seed.AdminEmail, seed.AdminPassword)
	require.NoError(t, err)
	require.NoError(t, tokens.Save(res.AccessToken))

	assert.Equal(t, api.Anonymous, s.Credential(), "nothing installed before restore")
	require.True(t, s.Restore(context.Background()))
	u, _ := s.User()
	assert.Equal(t, res.User.ID, u.ID)
	assert.Equal(t, api.Credential(res.AccessToken), s.Credential())
}

func TestRestoreInvalidTokenLogsOut(t *testing.T) {
	tokens := &MemoryTokenStore{}
	require.NoError(t, tokens.Save("expired-or-forged"))
	s, _ := newStore(t, tokens)

	assert.False(t, s.Restore(context.Background()))
	assert.False(t, s.Authenticated())
	tok, _ := tokens.Load()
	assert.Empty(t, tok, "durable token cleared")
}

func TestRestoreWithoutToken(t *testing.T) {
	s, _ := newStore(t, &MemoryTokenStore{})
	assert.False(t, s.Restore(context.Background()))
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := FileTokenStore{Path: path}

	tok, err := fs.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, fs.Save("abc"))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"abc"}`, string(raw))

	tok, err = fs.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())
	tok, err = fs.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestRestoreCorruptFileLogsOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	s, _ := newStore(t, FileTokenStore{Path: path})

	assert.False(t, s.Restore(context.Background()))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

// heldMe blocks the first Me call until release is closed.
type heldMe struct {
	Backend
	entered chan struct{}
	release chan struct{}
}

func newHeldMe(b Backend) *heldMe {
	return &heldMe{Backend: b, entered: make(chan struct{}), release: make(chan struct{})}
}

func (h *heldMe) Me(ctx context.Context, cred api.Credential) (orders.User, error) {
	close(h.entered)
	<-h.release
	return h.Backend.Me(ctx, cred)
}

func TestLoginDuringRejectedRestoreSurvives(t *testing.T) {
	b := apitest.Seeded(t)
	c := api.New(b.URL(), 0)
	tokens := &MemoryTokenStore{}
	require.NoError(t, tokens.Save("stale-token"))
	held := newHeldMe(c)
	s := New(held, tokens, logging.Discard())
	ctx := context.Background()

	done := make(chan bool, 1)
	go func() { done <- s.Restore(ctx) }()
	<-held.entered

	_, err := s.Login(ctx, seed.AdminEmail, seed.AdminPassword)
	require.NoError(t, err)
	fresh := s.Credential()
	close(held.release)

	assert.True(t, <-done)
	assert.True(t, s.Authenticated())
	assert.Equal(t, fresh, s.Credential())
	stored, _ := tokens.Load()
	assert.Equal(t, string(fresh), stored)
}

func TestLoginDuringAcceptedRestoreSurvives(t *testing.T) {
	b := apitest.Seeded(t)
	c := api.New(b.URL(), 0)
	ctx := context.Background()
	_, err := c.Register(ctx, api.RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "pw"})
	require.NoError(t, err)
	old, err := c.Login(ctx, "asha@example.com", "pw")
	require.NoError(t, err)

	tokens := &MemoryTokenStore{}
	require.NoError(t, tokens.Save(old.AccessToken))
	held := newHeldMe(c)
	s := New(held, tokens, logging.Discard())

	done := make(chan bool, 1)
	go func() { done <- s.Restore(ctx) }()
	<-held.entered

	_, err = s.Login(ctx, seed.AdminEmail, seed.AdminPassword)
	require.NoError(t, err)
	close(held.release)
	<-done

	u, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, orders.RoleAdmin, u.Role)
	assert.NotEqual(t, api.Credential(old.AccessToken), s.Credential())
}

func TestLogoutDuringRestoreWins(t *testing.T) {
	b := apitest.Seeded(t)
	c := api.New(b.URL(), 0)
	ctx := context.Background()
	res, err := c.Login(ctx, seed.AdminEmail, seed.AdminPassword)
	require.NoError(t, err)

	tokens := &MemoryTokenStore{}
	require.NoError(t, tokens.Save(res.AccessToken))
	held := newHeldMe(c)
	s := New(held, tokens, logging.Discard())

	done := make(chan bool, 1)
	go func() { done <- s.Restore(ctx) }()
	<-held.entered
	s.Logout()
	close(held.release)

	assert.False(t, <-done)
	assert.False(t, s.Authenticated())
}
