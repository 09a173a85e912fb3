package idempotency

import (
	"context"
	"testing"
	"time"

	redisadapter "github.com/robertarktes/show-seat-booking/internal/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	data map[string]redisadapter.StoredResponse
	ttl  time.Duration
}

func (m *mapStore) Get(ctx context.Context, key string) (*redisadapter.StoredResponse, error) {
	r, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *mapStore) Set(ctx context.Context, key string, resp redisadapter.StoredResponse, ttl time.Duration) error {
	m.data[key] = resp
	m.ttl = ttl
	return nil
}

func TestIdempotency_RoundTrip(t *testing.T) {
	store := &mapStore{data: map[string]redisadapter.StoredResponse{}}
	idemp := NewIdempotency(store, time.Hour)
	ctx := context.Background()

	got, err := idemp.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, idemp.Set(ctx, "k1", Response{Status: 201, Body: []byte(`{"id":1}`)}))
	assert.Equal(t, time.Hour, store.ttl)

	got, err = idemp.Get(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 201, got.Status)
	assert.JSONEq(t, `{"id":1}`, string(got.Body))
}

func TestIdempotency_EmptyKeyIsIgnored(t *testing.T) {
	store := &mapStore{data: map[string]redisadapter.StoredResponse{}}
	idemp := NewIdempotency(store, time.Hour)

	require.NoError(t, idemp.Set(context.Background(), "", Response{Status: 200}))
	assert.Empty(t, store.data)
	assert.Equal(t, "", Scoped("", "alice"))
	assert.Equal(t, "alice:abc", Scoped("abc", "alice"))
}

func TestScoped_SeparatesOperations(t *testing.T) {
	book := Scoped("k", "alice", "POST", "/v1/shows/{showID}/bookings", "1")
	cancel := Scoped("k", "alice", "POST", "/v1/shows/{showID}/cancel", "1")
	otherShow := Scoped("k", "alice", "POST", "/v1/shows/{showID}/bookings", "2")

	assert.NotEqual(t, book, cancel)
	assert.NotEqual(t, book, otherShow)
	assert.Equal(t, book, Scoped("k", "alice", "POST", "/v1/shows/{showID}/bookings", "1"))
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint("9"), Fingerprint("9"))
	assert.NotEqual(t, Fingerprint("9"), Fingerprint("10"))
	assert.Len(t, Fingerprint(""), 64)
}

func TestIdempotency_KeepsFingerprint(t *testing.T) {
	store := &mapStore{data: map[string]redisadapter.StoredResponse{}}
	idemp := NewIdempotency(store, time.Hour)
	ctx := context.Background()

	require.NoError(t, idemp.Set(ctx, "k1", Response{Status: 201, Body: []byte(`{}`), Fingerprint: Fingerprint("9")}))
	got, err := idemp.Get(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, Fingerprint("9"), got.Fingerprint)
}
