package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.NotNil(t, logger.zap)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"

	_, err := NewLogger(cfg)
	require.Error(t, err)
}

func TestLogger_ContextFields(t *testing.T) {
	core, observed := observer.New(zap.DebugLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}

	ctx := WithClientID(context.Background(), "client-1")
	ctx = WithRequestID(ctx, float64(42))
	ctx = WithMethod(ctx, "health.ping")

	logger.Info(ctx, "handled request")

	entries := observed.All()
	require.Len(t, entries, 1)

	fieldMap := entries[0].ContextMap()
	assert.Equal(t, "client-1", fieldMap["client.id"])
	assert.Equal(t, "health.ping", fieldMap["rpc.method"])
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	// Should not panic even without a logger attached.
	logger.Info(context.Background(), "noop")
}
