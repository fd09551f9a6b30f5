//go:build integration

// Package containers starts throwaway backing services for integration tests.
// Every container is terminated through t.Cleanup.
package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"

	"provenance/internal/storage/postgres"
)

const startTimeout = 2 * time.Minute

func terminate(t *testing.T, c testcontainers.Container) {
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(c); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
}

// Postgres is a migrated database ready for the postgres store.
type Postgres struct {
	URL string
	DB  *sql.DB
}

// NewPostgres starts Postgres and applies the provenance schema.
func NewPostgres(t *testing.T) *Postgres {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("provenance"),
		tcpostgres.WithUsername("provenance"),
		tcpostgres.WithPassword("provenance"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	terminate(t, container)

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	db, err := postgres.Open(ctx, url, 10)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate postgres: %v", err)
	}
	return &Postgres{URL: url, DB: db}
}

// Truncate empties every table between tests.
func (p *Postgres) Truncate(t *testing.T) {
	t.Helper()
	_, err := p.DB.Exec(`TRUNCATE deal_items, deals, ownership_history, status_history, assets, brands, categories, accounts CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

// Redis is a reachable cache instance.
type Redis struct {
	URL    string
	Client *redis.Client
}

// NewRedis starts Redis and returns a connected client.
func NewRedis(t *testing.T) *Redis {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	terminate(t, container)

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis connection string: %v", err)
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	return &Redis{URL: url, Client: client}
}

// Kafka is a single-node Redpanda broker speaking the Kafka protocol.
type Kafka struct {
	Brokers []string
}

// NewKafka starts Redpanda. Topic auto-creation stays off, so tests create
// their topics with kadm.
func NewKafka(t *testing.T) *Kafka {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	container, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.2.7")
	if err != nil {
		t.Fatalf("start redpanda container: %v", err)
	}
	terminate(t, container)

	broker, err := container.KafkaSeedBroker(ctx)
	if err != nil {
		t.Fatalf("redpanda seed broker: %v", err)
	}
	return &Kafka{Brokers: []string{broker}}
}
