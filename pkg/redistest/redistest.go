// Package redistest contains utilities for unit tests with Redis.
package redistest

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Redis is a Redis server in a Docker container and a client connected to it.
type Redis struct {
	Resource *dockertest.Resource
	Client   *redis.Client
}

// NewRedis starts an ephemeral Redis server and returns a client.
// It skips the test in short mode or if Docker is unreachable.
func NewRedis(ctx context.Context, t testing.TB) *Redis {
	if testing.Short() {
		t.Skip("redistest: skipping in short mode")
	}
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skip("redistest: Docker unavailable:", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skip("redistest: Docker unavailable:", err)
	}
	pool.MaxWait = 30 * time.Second
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "6.2-alpine",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Creating Redis")
	client := redis.NewClient(&redis.Options{
		Network: "tcp",
		Addr:    "localhost:" + resource.GetPort("6379/tcp"),
	})
	require.NoError(t, pool.Retry(func() error {
		return client.Ping(ctx).Err()
	}), "Connection to Redis")
	t.Log("redistest: Redis is up")
	return &Redis{
		Resource: resource,
		Client:   client,
	}
}

// Close shuts down the client and removes the container.
func (r *Redis) Close(t testing.TB) {
	assert.NoError(t, r.Client.Close(), "Closing client")
	assert.NoError(t, r.Resource.Close(), "Removing container")
}
