package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledInstallsNoop(t *testing.T) {
	t.Setenv("REVIEW_MINER_OTEL", "")

	require.NoError(t, Init(context.Background(), "review-miner", "test"))
	assert.False(t, Enabled())

	_, span := Tracer("").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	counter, err := Meter("").Int64Counter("noop.counter")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	Shutdown(context.Background())
}

func TestEnabled(t *testing.T) {
	t.Setenv("REVIEW_MINER_OTEL", "true")
	assert.True(t, Enabled())
}
