package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/essexfb/backend/logger"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	got := logger.FromContext(context.Background())
	require.NotNil(t, got)
	assert.Equal(t, slog.Default(), got)
}

func TestWithLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	stored := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := logger.WithLogger(context.Background(), stored)
	got := logger.FromContext(ctx)
	require.Same(t, stored, got)

	got.Info("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestWithRequestIDAttachesAttribute(t *testing.T) {
	var buf bytes.Buffer
	ctx := logger.WithLogger(context.Background(),
		slog.New(slog.NewTextHandler(&buf, nil)))
	ctx = logger.WithRequestID(ctx, "req-42")

	logger.FromContext(ctx).Info("handled")
	assert.Contains(t, buf.String(), "request_id=req-42")
}
