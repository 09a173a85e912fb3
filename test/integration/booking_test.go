package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/robertarktes/show-seat-booking/internal/adapters/crdb"
	mongoadapter "github.com/robertarktes/show-seat-booking/internal/adapters/mongo"
	"github.com/robertarktes/show-seat-booking/internal/adapters/rabbit"
	redisadapter "github.com/robertarktes/show-seat-booking/internal/adapters/redis"
	"github.com/robertarktes/show-seat-booking/internal/audit"
	"github.com/robertarktes/show-seat-booking/internal/booking"
	httphandler "github.com/robertarktes/show-seat-booking/internal/http"
	"github.com/robertarktes/show-seat-booking/internal/idempotency"
	"github.com/robertarktes/show-seat-booking/internal/observability"
	"github.com/robertarktes/show-seat-booking/internal/outbox"
	"github.com/robertarktes/show-seat-booking/internal/rateLimit"
)

func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return host + ":" + mapped.Port()
}

func TestIntegration_BookCancelAudit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	crdbAddr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "cockroachdb/cockroach:v24.1.1",
		Cmd:          []string{"start-single-node", "--insecure"},
		ExposedPorts: []string{"26257/tcp", "8080/tcp"},
		WaitingFor:   wait.ForHTTP("/health?ready=1").WithPort("8080"),
	}, "26257")
	mongoAddr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections"),
	}, "27017")
	redisAddr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}, "6379")
	rabbitAddr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "rabbitmq:3.13-management",
		ExposedPorts: []string{"5672/tcp", "15672/tcp"},
		WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(2 * time.Minute),
	}, "5672")

	logger := observability.NopLogger()

	pool, err := pgxpool.New(ctx, "postgresql://root@"+crdbAddr+"/defaultdb?sslmode=disable")
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, crdb.CreateSchema(ctx, pool))
	repo := crdb.NewRepository(pool)

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://"+mongoAddr))
	require.NoError(t, err)
	defer mongoClient.Disconnect(ctx)
	mongoDB := mongoClient.Database("booking")
	catalog := mongoadapter.NewCatalogRepository(mongoDB, logger)
	require.NoError(t, catalog.CreateShow(ctx, mongoadapter.ShowDoc{
		ID:         1,
		MovieTitle: "Stalker",
		ScreenName: "Hall 1",
		StartsAt:   time.Now().Add(48 * time.Hour).UTC(),
		TotalSeats: 98,
	}))

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: redisAddr})
	defer redisClient.Close()

	rabbitConn, err := amqp.Dial("amqp://guest:guest@" + rabbitAddr + "/")
	require.NoError(t, err)
	defer rabbitConn.Close()
	pub, err := rabbit.NewPublisher(rabbitConn)
	require.NoError(t, err)
	defer pub.Close()
	consumer, err := rabbit.NewConsumer(rabbitConn, "booking.audit.test", "booking.#", 10)
	require.NoError(t, err)
	defer consumer.Close()

	inventory := redisadapter.NewInventoryCache(redisClient, catalog, time.Minute, logger)
	ctrl := booking.NewController(inventory, repo)
	idemp := idempotency.NewIdempotency(redisadapter.NewResponseStore(redisClient), time.Hour)
	rl := rateLimit.NewRateLimiter(redisadapter.NewCounter(redisClient))
	h := httphandler.NewHandlers(ctrl, catalog, idemp, logger, nil)
	srv := httptest.NewServer(httphandler.SetupRouter(h, logger, rl, httphandler.RouterConfig{RateLimitPerMinute: 100}))
	defer srv.Close()

	post := func(path, user, body, key string) (int, map[string]any) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", user)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var out map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return resp.StatusCode, out
	}

	resp, err := srv.Client().Get(srv.URL + "/v1/shows/1")
	require.NoError(t, err)
	var show map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&show))
	resp.Body.Close()
	assert.Equal(t, "Stalker", show["movie_title"])
	assert.Equal(t, float64(98), show["total_seats"])

	status, booked := post("/v1/shows/1/bookings", "alice", `{"seat_number": 42}`, "booking-key-000000001")
	require.Equal(t, http.StatusCreated, status)
	status, replay := post("/v1/shows/1/bookings", "alice", `{"seat_number": 42}`, "booking-key-000000001")
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, booked["id"], replay["id"])

	status, _ = post("/v1/shows/1/bookings", "bob", `{"seat_number": 42}`, "")
	assert.Equal(t, http.StatusConflict, status)
	status, _ = post("/v1/shows/1/bookings", "bob", `{"seat_number": 99}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = post("/v1/shows/2/bookings", "bob", `{"seat_number": 1}`, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = post("/v1/shows/1/cancel", "bob", `{"seat_number": 42}`, "")
	assert.Equal(t, http.StatusNotFound, status)
	status, cancelled := post("/v1/shows/1/cancel", "alice", `{"seat_number": 42}`, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "CANCELLED", cancelled["status"])

	status, rebooked := post("/v1/shows/1/bookings", "bob", `{"seat_number": 42}`, "")
	require.Equal(t, http.StatusCreated, status)
	assert.NotEqual(t, booked["id"], rebooked["id"])

	relay := outbox.NewPublisher(repo, pub, 10, logger)
	n, err := relay.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	deliveries, err := consumer.Consume(ctx)
	require.NoError(t, err)
	auditLog := mongoadapter.NewAuditLogger(mongoDB, logger)
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go audit.NewWorker(auditLog, logger).Run(workerCtx, deliveries)

	require.Eventually(t, func() bool {
		history, err := auditLog.History(ctx, "alice")
		return err == nil && len(history) == 2
	}, 30*time.Second, 200*time.Millisecond)

	history, err := auditLog.History(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "booking.created", history[0].Action)
	assert.Equal(t, "booking.cancelled", history[1].Action)
	assert.Equal(t, fmt.Sprint(booked["id"]), history[0].Data["booking_id"])
}
