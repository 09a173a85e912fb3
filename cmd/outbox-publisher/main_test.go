package main

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestWatchConnection(t *testing.T) {
	t.Run("broker error", func(t *testing.T) {
		closed := make(chan *amqp.Error, 1)
		closed <- &amqp.Error{Code: amqp.ConnectionForced, Reason: "shutdown"}
		err := watchConnection(context.Background(), closed)
		assert.ErrorContains(t, err, "shutdown")
	})

	t.Run("clean close", func(t *testing.T) {
		closed := make(chan *amqp.Error)
		close(closed)
		err := watchConnection(context.Background(), closed)
		assert.Error(t, err)
	})

	t.Run("context done", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.NoError(t, watchConnection(ctx, make(chan *amqp.Error)))
	})
}
