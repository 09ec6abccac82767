package registry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txc0ld/godagent/internal/jsonrpc"
)

func pingHandler(ctx context.Context, params json.RawMessage) (any, *jsonrpc.Error) {
	return "pong", nil
}

func TestRegistry_RegisterAndDispatch(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register("health", "ping", pingHandler))

	resp := r.Dispatch(context.Background(), &jsonrpc.Request{JSONRPC: jsonrpc.Version, ID: float64(1), Method: "health.ping"})
	require.NotNil(t, resp)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "pong", resp.Result)
}

func TestRegistry_DuplicateRegistrationRejected(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register("health", "ping", pingHandler))
	err := r.Register("HEALTH", "PING", pingHandler)
	assert.ErrorIs(t, err, ErrDuplicateMethod)
}

func TestRegistry_UnknownMethodReturnsMethodNotFound(t *testing.T) {
	r := NewRegistry(nil)
	resp := r.Dispatch(context.Background(), &jsonrpc.Request{JSONRPC: jsonrpc.Version, ID: float64(1), Method: "health.ping"})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeMethodNotFound, resp.Error.Code)
}

func TestRegistry_MalformedMethodNameRejected(t *testing.T) {
	r := NewRegistry(nil)
	resp := r.Dispatch(context.Background(), &jsonrpc.Request{JSONRPC: jsonrpc.Version, ID: float64(1), Method: "noservice"})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeMethodNotFound, resp.Error.Code)
}

func TestRegistry_NotificationNeverProducesResponse(t *testing.T) {
	r := NewRegistry(nil)
	resp := r.Dispatch(context.Background(), &jsonrpc.Request{JSONRPC: jsonrpc.Version, Method: "health.ping"})
	assert.Nil(t, resp)
}

func TestRegistry_StatsTrackCallsAndErrors(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register("health", "ping", pingHandler))
	failing := func(ctx context.Context, params json.RawMessage) (any, *jsonrpc.Error) {
		return nil, jsonrpc.NewError(jsonrpc.CodeInternalError, "boom")
	}
	require.NoError(t, r.Register("health", "fail", failing))

	r.Dispatch(context.Background(), &jsonrpc.Request{JSONRPC: jsonrpc.Version, ID: float64(1), Method: "health.ping"})
	r.Dispatch(context.Background(), &jsonrpc.Request{JSONRPC: jsonrpc.Version, ID: float64(2), Method: "health.fail"})

	stats, ok := r.Stats("health", "ping")
	require.True(t, ok)
	assert.Equal(t, uint64(1), stats.Calls)
	assert.Equal(t, uint64(0), stats.Errors)

	failStats, ok := r.Stats("health", "fail")
	require.True(t, ok)
	assert.Equal(t, uint64(1), failStats.Calls)
	assert.Equal(t, uint64(1), failStats.Errors)
}

func TestRegistry_UnregisterAndClear(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register("health", "ping", pingHandler))

	r.Unregister("health", "ping")
	_, ok := r.Stats("health", "ping")
	assert.False(t, ok)

	require.NoError(t, r.Register("health", "ping", pingHandler))
	r.Clear()
	assert.Empty(t, r.List())
}
