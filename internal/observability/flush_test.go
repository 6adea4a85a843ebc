package observability

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

// TestFlushTelemetry verifies nil loggers are a no-op, a live logger flushes,
// and a cancelled context is reported.
func TestFlushTelemetry(t *testing.T) {
	if err := FlushTelemetry(context.Background(), nil); err != nil {
		t.Errorf("FlushTelemetry(nil) error = %v", err)
	}
	if err := FlushTelemetry(context.Background(), zap.NewNop()); err != nil {
		t.Errorf("FlushTelemetry(nop) error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := FlushTelemetry(ctx, zap.NewNop()); !errors.Is(err, context.Canceled) {
		t.Errorf("FlushTelemetry(cancelled) error = %v, want context.Canceled", err)
	}
}
