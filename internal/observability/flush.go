package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FlushTelemetry flushes telemetry before process exit: metrics go to the textfile when
// a path is configured, then logs are synced.
func FlushTelemetry(ctx context.Context, logger *zap.Logger, metricsPath string) error {
	if metricsPath != "" {
		if err := WriteTextfile(metricsPath); err != nil {
			return fmt.Errorf("write metrics textfile: %w", err)
		}
	}
	if logger != nil {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("flush logs: %w", err)
		}
	}
	return nil
}
