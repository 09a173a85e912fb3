package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

const responseKeyPrefix = "idemp:"

// StoredResponse is a booking response kept for replay under an
// Idempotency-Key.
type StoredResponse struct {
	Status      int    `json:"status"`
	Body        []byte `json:"body"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// ResponseStore keeps the first response written for a key until its TTL ends.
type ResponseStore struct {
	client *redis.Client
}

func NewResponseStore(client *redis.Client) *ResponseStore {
	return &ResponseStore{client: client}
}

func (s *ResponseStore) Get(ctx context.Context, key string) (*StoredResponse, error) {
	val, err := s.client.Get(ctx, responseKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read stored response")
	}
	var resp StoredResponse
	if err := json.Unmarshal(val, &resp); err != nil {
		return nil, errors.Wrapf(err, "decode stored response %q", key)
	}
	return &resp, nil
}

// Set stores resp unless a concurrent request already stored one under key.
func (s *ResponseStore) Set(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return errors.Wrap(err, "encode stored response")
	}
	if err := s.client.SetNX(ctx, responseKeyPrefix+key, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "write stored response")
	}
	return nil
}
