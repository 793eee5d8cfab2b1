package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ListenUnix is a wrapper over unix socket listeners with proper cleanup.
func ListenUnix(path string) (net.Listener, error) {
	stat, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		return net.Listen("unix", path)
	} else if statErr != nil {
		return nil, statErr
	}
	// Socket still exists, clean up.
	if stat.Mode()&os.ModeSocket == 0 {
		return nil, fmt.Errorf("existing file is not a socket: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return nil, fmt.Errorf("failed to remove socket: %w", err)
	}
	return net.Listen("unix", path)
}

// Listen is a wrapper over net.Listen with better unix socket support.
func Listen(network, address string) (net.Listener, error) {
	switch network {
	case "unix":
		return ListenUnix(address)
	default:
		return net.Listen(network, address)
	}
}

// LifecycleServeHTTP runs an HTTP server on the provided fx.Lifecycle.
// The listener is opened on start.
func LifecycleServeHTTP(log *zap.Logger, lc fx.Lifecycle, network, address string, hs *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			opts := []zap.Field{
				zap.String("listen.net", network),
				zap.String("listen.addr", address),
			}
			sock, err := Listen(network, address)
			if err != nil {
				log.Error("Listener failed", append(opts, zap.Error(err))...)
				return err
			}
			log.Info("Starting server", opts...)
			go func() {
				if err := hs.Serve(sock); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("Server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: hs.Shutdown,
	})
}
