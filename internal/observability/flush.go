package observability

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"
)

// FlushTelemetry syncs buffered log output before process exit. Prometheus is
// pull-based, so only logs need flushing. Call after in-flight requests drain.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("flush logs: %w", err)
	}
	if err := logger.Sync(); err != nil && !isStdioSyncError(err) {
		return fmt.Errorf("flush logs: %w", err)
	}
	return nil
}

// isStdioSyncError reports the fsync failures stdout/stderr return when attached to a terminal or pipe.
func isStdioSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}
