package providers

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ConnectTimeout bounds the time spent waiting for dependencies at startup.
var ConnectTimeout = 30 * time.Second

// retryConnect calls ping with exponential backoff until it succeeds or ConnectTimeout passes.
func retryConnect(ctx context.Context, log *zap.Logger, name string, ping func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = ConnectTimeout
	return backoff.RetryNotify(func() error {
		return ping(ctx)
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		log.Warn("Connection failed, retrying",
			zap.String("target", name),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
}
