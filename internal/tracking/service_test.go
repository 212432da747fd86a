package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/ariefcatur/go-organic-store/internal/kafka"
	"github.com/ariefcatur/go-organic-store/internal/logging"
	"github.com/ariefcatur/go-organic-store/internal/orders"
)

type fakeCache struct {
	mu       sync.Mutex
	seen     map[string]bool
	statuses map[string]orders.StatusView
	putErr   error
}

func newFakeCache() *fakeCache {
	return &fakeCache{seen: map[string]bool{}, statuses: map[string]orders.StatusView{}}
}

func (f *fakeCache) Seen(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[id], nil
}

func (f *fakeCache) MarkSeen(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[id] = true
	return nil
}

func (f *fakeCache) Status(_ context.Context, id string) (orders.StatusView, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.statuses[id]
	return v, ok, nil
}

func (f *fakeCache) PutStatus(_ context.Context, v orders.StatusView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.statuses[v.OrderID] = v
	return nil
}

func statusMessage(t *testing.T, orderID string, status orders.Status, at time.Time) (kafkago.Message, orders.Envelope) {
	t.Helper()
	env, err := orders.NewEnvelope(orders.EventOrderStatusChanged, "test", orderID, "", orders.OrderStatusChangedPayload{
		OrderID: orderID, UserID: "u1", Status: status, ChangedBy: "admin", ChangedAt: at,
	})
	require.NoError(t, err)
	return kafkago.Message{Key: orders.PartitionKey(orderID), Value: kafkax.MustMarshal(env)}, env
}

func TestHandleStatusChangedWritesCache(t *testing.T) {
	cache := newFakeCache()
	svc := &Service{Cache: cache, Log: logging.Discard()}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	m, env := statusMessage(t, "o1", orders.StatusShipped, at)
	require.NoError(t, svc.HandleStatusChanged(context.Background(), m))

	v, ok, _ := cache.Status(context.Background(), "o1")
	require.True(t, ok)
	assert.Equal(t, orders.StatusShipped, v.Status)
	assert.Equal(t, "u1", v.UserID)
	assert.True(t, v.UpdatedAt.Equal(at))
	assert.True(t, cache.seen[env.EventID])
}

func TestHandleStatusChangedSkipsDuplicates(t *testing.T) {
	cache := newFakeCache()
	svc := &Service{Cache: cache, Log: logging.Discard()}
	m, env := statusMessage(t, "o1", orders.StatusShipped, time.Now())
	cache.seen[env.EventID] = true

	require.NoError(t, svc.HandleStatusChanged(context.Background(), m))
	_, ok, _ := cache.Status(context.Background(), "o1")
	assert.False(t, ok)
}

func TestHandleStatusChangedKeepsNewerStatus(t *testing.T) {
	cache := newFakeCache()
	svc := &Service{Cache: cache, Log: logging.Discard()}
	now := time.Now().UTC()
	cache.statuses["o1"] = orders.StatusView{OrderID: "o1", Status: orders.StatusDelivered, UpdatedAt: now}

	m, _ := statusMessage(t, "o1", orders.StatusShipped, now.Add(-time.Minute))
	require.NoError(t, svc.HandleStatusChanged(context.Background(), m))
	v, _, _ := cache.Status(context.Background(), "o1")
	assert.Equal(t, orders.StatusDelivered, v.Status)
}

func TestHandleStatusChangedIgnoresOtherEvents(t *testing.T) {
	cache := newFakeCache()
	svc := &Service{Cache: cache, Log: logging.Discard()}
	env, err := orders.NewEnvelope(orders.EventOrderPlaced, "test", "o1", "", orders.OrderPlacedPayload{OrderID: "o1"})
	require.NoError(t, err)

	require.NoError(t, svc.HandleStatusChanged(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)}))
	require.NoError(t, svc.HandleStatusChanged(context.Background(), kafkago.Message{Value: []byte("{not json")}))
	assert.Empty(t, cache.statuses)
	assert.Empty(t, cache.seen)
}

func TestHandleStatusChangedFailureIsRetryable(t *testing.T) {
	cache := newFakeCache()
	cache.putErr = errors.New("redis down")
	svc := &Service{Cache: cache, Log: logging.Discard()}
	m, env := statusMessage(t, "o1", orders.StatusConfirmed, time.Now())

	require.Error(t, svc.HandleStatusChanged(context.Background(), m))
	assert.False(t, cache.seen[env.EventID], "failed event must not be marked seen")
}

func TestNewRedisCacheRequiresClient(t *testing.T) {
	_, err := NewRedisCache(nil, "svc")
	assert.Error(t, err)
}
