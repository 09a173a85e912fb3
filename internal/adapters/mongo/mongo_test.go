package mongo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongoadapter "github.com/robertarktes/show-seat-booking/internal/adapters/mongo"
	"github.com/robertarktes/show-seat-booking/internal/domain"
	"github.com/robertarktes/show-seat-booking/internal/observability"
)

func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Mongo container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mongoContainer.Terminate(ctx) })

	host, err := mongoContainer.Host(ctx)
	require.NoError(t, err)
	port, err := mongoContainer.MappedPort(ctx, "27017")
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fmt.Sprintf("mongodb://%s:%s", host, port.Port())))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })
	return client.Database("booking_test")
}

func TestCatalogRepository(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	catalog := mongoadapter.NewCatalogRepository(db, observability.NopLogger())

	require.NoError(t, catalog.CreateShow(ctx, mongoadapter.ShowDoc{
		ID:         1,
		MovieTitle: "Metropolis",
		ScreenName: "Screen 2",
		StartsAt:   time.Now().Add(24 * time.Hour).UTC(),
		TotalSeats: 98,
	}))

	total, err := catalog.TotalSeats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 98, total)

	show, err := catalog.GetShow(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Metropolis", show.MovieTitle)
	assert.False(t, show.CreatedAt.IsZero())

	_, err = catalog.TotalSeats(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrShowNotFound)
	_, err = catalog.GetShow(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrShowNotFound)

	assert.Error(t, catalog.CreateShow(ctx, mongoadapter.ShowDoc{ID: 3, TotalSeats: -1}))
	assert.Error(t, catalog.CreateShow(ctx, mongoadapter.ShowDoc{ID: 1, TotalSeats: 10}), "duplicate id")
}

func TestAuditLogger(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	audit := mongoadapter.NewAuditLogger(db, observability.NopLogger())

	b := domain.NewBooking(1, 5, "alice", time.Now())
	created := domain.NewBookingEvent(domain.EventBookingCreated, b, time.Now().Add(-time.Minute))
	cancelled := domain.NewBookingEvent(domain.EventBookingCancelled, b.Cancelled(time.Now()), time.Now())

	require.NoError(t, audit.LogBookingEvent(ctx, created))
	require.NoError(t, audit.LogBookingEvent(ctx, created), "redelivery is a no-op")
	require.NoError(t, audit.LogBookingEvent(ctx, cancelled))
	require.NoError(t, audit.LogBookingEvent(ctx, domain.NewBookingEvent(domain.EventBookingCreated,
		domain.Booking{ID: uuid.New(), ShowID: 1, SeatNumber: 6, UserID: "bob", Status: domain.BookingActive}, time.Now())))

	history, err := audit.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.EventBookingCreated, history[0].Action)
	assert.Equal(t, domain.EventBookingCancelled, history[1].Action)
	assert.Equal(t, b.ID.String(), history[0].Data["booking_id"])
	assert.Equal(t, string(domain.BookingCancelled), history[1].Data["status"])
}
