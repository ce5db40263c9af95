package telemetry

import (
	"context"

	"github.com/robalyx/slashcore/internal/setup/config"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.uber.org/zap"
)

// SetupTracing configures the global OpenTelemetry providers to export to Uptrace.
// The returned function flushes pending spans. Without a DSN tracing stays on the
// no-op providers and the returned function does nothing.
func SetupTracing(cfg *config.Telemetry, version string, logger *zap.Logger) func(context.Context) error {
	if cfg.UptraceDSN == "" {
		logger.Debug("Tracing disabled, no Uptrace DSN configured")
		return func(context.Context) error { return nil }
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(version),
		uptrace.WithDeploymentEnvironment(cfg.Environment),
	)

	logger.Info("Tracing enabled",
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment))

	return uptrace.Shutdown
}
