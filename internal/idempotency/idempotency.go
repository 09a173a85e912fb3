package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	redisadapter "github.com/robertarktes/show-seat-booking/internal/adapters/redis"
)

// Store persists replayable responses. The redis adapter satisfies it.
type Store interface {
	Get(ctx context.Context, key string) (*redisadapter.StoredResponse, error)
	Set(ctx context.Context, key string, resp redisadapter.StoredResponse, ttl time.Duration) error
}

type Idempotency struct {
	store Store
	ttl   time.Duration
}

func NewIdempotency(store Store, ttl time.Duration) *Idempotency {
	return &Idempotency{store: store, ttl: ttl}
}

type Response struct {
	Status      int
	Body        []byte
	Fingerprint string
}

// Get returns the response stored for key, or nil. Empty keys never match.
func (i *Idempotency) Get(ctx context.Context, key string) (*Response, error) {
	if i == nil || key == "" || i.store == nil {
		return nil, nil
	}
	stored, err := i.store.Get(ctx, key)
	if err != nil || stored == nil {
		return nil, err
	}
	return &Response{Status: stored.Status, Body: stored.Body, Fingerprint: stored.Fingerprint}, nil
}

func (i *Idempotency) Set(ctx context.Context, key string, resp Response) error {
	if i == nil || key == "" || i.store == nil {
		return nil
	}
	return i.store.Set(ctx, key, redisadapter.StoredResponse{Status: resp.Status, Body: resp.Body, Fingerprint: resp.Fingerprint}, i.ttl)
}

// Scoped namespaces a client key by the given parts (caller, method, route,
// show) so a key never replays a response of another user or operation.
func Scoped(key string, parts ...string) string {
	if key == "" {
		return ""
	}
	return strings.Join(append(parts, key), ":")
}

// Fingerprint digests the request parameters a stored response was produced
// for.
func Fingerprint(params ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(params, "\x00")))
	return hex.EncodeToString(sum[:])
}
