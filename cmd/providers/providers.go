package providers

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric/global"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Log is the global logger.
var Log *zap.Logger

// Providers holds constructors for shared components.
var Providers = []interface{}{
	// authgw.go
	NewAuthgwBackend,
	NewAuthgwFilter,
	NewAuthgwErrorWriter,
	// providers.go
	NewContext,
}

func baseOptions(cmd *cobra.Command) []fx.Option {
	return []fx.Option{
		fx.Provide(Providers...),
		fx.Supply(cmd),
		fx.Supply(Log),
		fx.Logger(zap.NewStdLog(Log)),
		fx.Supply(global.GetMeterProvider().Meter(cmd.Name())),
	}
}

// NewApp builds a long-running application.
func NewApp(cmd *cobra.Command, opts ...fx.Option) *fx.App {
	return fx.New(append(baseOptions(cmd), opts...)...)
}

// NewCmd returns a cobra handler running invoke once,
// then stopping the application. Errors of invoke exit the process with status 1.
func NewCmd(invoke interface{}) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		opts := append(baseOptions(cmd),
			fx.Supply(args),
			fx.Invoke(invoke))
		app := fx.New(opts...)
		if err := app.Err(); err != nil {
			Log.Error("Command failed", zap.Error(err))
			os.Exit(1)
		}
		ctx := context.Background()
		if err := app.Start(ctx); err != nil {
			Log.Fatal("Failed to start", zap.Error(err))
		}
		if err := app.Stop(ctx); err != nil {
			Log.Fatal("Failed to stop", zap.Error(err))
		}
	}
}

// NewContext returns a context cancelled when the application stops.
func NewContext(lc fx.Lifecycle) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
	return ctx
}
