// Package registry provides two related name-keyed tables used by the
// daemon: a ServiceRegistry that dispatches "service.method" JSON-RPC
// calls to registered handlers, and a NamespaceRegistry that tracks which
// root memory namespaces have been used (see namespace.go).
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/txc0ld/godagent/internal/jsonrpc"
	"github.com/txc0ld/godagent/internal/telemetry"
)

// Handler processes a single method call's raw JSON params and returns
// either a result (to be marshaled into Response.Result) or a JSON-RPC
// error.
type Handler func(ctx context.Context, params json.RawMessage) (any, *jsonrpc.Error)

// ErrDuplicateMethod is returned by Register when the service.method pair
// is already registered.
var ErrDuplicateMethod = errors.New("method already registered")

// ErrUnknownService is returned when no service is registered under the
// requested name.
var ErrUnknownService = errors.New("unknown service")

// ErrUnknownMethod is returned when the service exists but the method does
// not.
var ErrUnknownMethod = errors.New("unknown method")

// MethodStats captures per-method call counters, exposed by health.status.
type MethodStats struct {
	Calls           uint64    `json:"calls"`
	Errors          uint64    `json:"errors"`
	TotalDurationMs uint64    `json:"total_duration_ms"`
	LastCalledAt    time.Time `json:"last_called_at,omitempty"`
}

type methodEntry struct {
	handler Handler

	calls           atomic.Uint64
	errors          atomic.Uint64
	totalDurationMs atomic.Uint64
	lastCalledAtUnixNano atomic.Int64
}

func (m *methodEntry) stats() MethodStats {
	s := MethodStats{
		Calls:           m.calls.Load(),
		Errors:          m.errors.Load(),
		TotalDurationMs: m.totalDurationMs.Load(),
	}
	if nanos := m.lastCalledAtUnixNano.Load(); nanos != 0 {
		s.LastCalledAt = time.Unix(0, nanos).UTC()
	}
	return s
}

// Registry is a service.method dispatch table. It is safe for concurrent
// use: registration normally happens once at startup, while Dispatch is
// called concurrently from every client connection's goroutine.
type Registry struct {
	mu       sync.RWMutex
	services map[string]map[string]*methodEntry
	metrics  *telemetry.Metrics
}

// NewRegistry creates an empty registry. metrics may be nil, in which case
// per-call Prometheus observations are skipped.
func NewRegistry(metrics *telemetry.Metrics) *Registry {
	return &Registry{
		services: make(map[string]map[string]*methodEntry),
		metrics:  metrics,
	}
}

// Register adds a handler for service.method. Names are lower-cased so
// "Memory.Store" and "memory.store" collide. Re-registering the same pair
// returns ErrDuplicateMethod; callers that need to replace a handler must
// Unregister it first.
func (r *Registry) Register(service, method string, h Handler) error {
	service = strings.ToLower(service)
	method = strings.ToLower(method)
	if service == "" || method == "" {
		return fmt.Errorf("service and method must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	methods, ok := r.services[service]
	if !ok {
		methods = make(map[string]*methodEntry)
		r.services[service] = methods
	}
	if _, exists := methods[method]; exists {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateMethod, service, method)
	}
	methods[method] = &methodEntry{handler: h}
	return nil
}

// Unregister removes a single method, or an entire service if method is
// empty.
func (r *Registry) Unregister(service, method string) {
	service = strings.ToLower(service)
	method = strings.ToLower(method)

	r.mu.Lock()
	defer r.mu.Unlock()

	if method == "" {
		delete(r.services, service)
		return
	}
	if methods, ok := r.services[service]; ok {
		delete(methods, method)
		if len(methods) == 0 {
			delete(r.services, service)
		}
	}
}

// Clear removes every registered service.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services = make(map[string]map[string]*methodEntry)
}

// List returns the registered method names keyed by service, sorted
// within each service.
func (r *Registry) List() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.services))
	for service, methods := range r.services {
		names := make([]string, 0, len(methods))
		for m := range methods {
			names = append(names, m)
		}
		sort.Strings(names)
		out[service] = names
	}
	return out
}

// Stats returns the call counters for a single service.method, if known.
func (r *Registry) Stats(service, method string) (MethodStats, bool) {
	service = strings.ToLower(service)
	method = strings.ToLower(method)

	r.mu.RLock()
	defer r.mu.RUnlock()

	methods, ok := r.services[service]
	if !ok {
		return MethodStats{}, false
	}
	entry, ok := methods[method]
	if !ok {
		return MethodStats{}, false
	}
	return entry.stats(), true
}

// Call looks up and invokes service.method directly, bypassing JSON-RPC
// framing, for callers that want to invoke a handler without
// round-tripping through Dispatch.
func (r *Registry) Call(ctx context.Context, service, method string, params json.RawMessage) (any, *jsonrpc.Error) {
	entry, err := r.lookup(service, method)
	if err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, err.Error())
	}
	return r.invoke(ctx, service+"."+method, entry, params)
}

func (r *Registry) lookup(service, method string) (*methodEntry, error) {
	service = strings.ToLower(service)
	method = strings.ToLower(method)

	r.mu.RLock()
	defer r.mu.RUnlock()

	methods, ok := r.services[service]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, service)
	}
	entry, ok := methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, service, method)
	}
	return entry, nil
}

func (r *Registry) invoke(ctx context.Context, fullMethod string, entry *methodEntry, params json.RawMessage) (any, *jsonrpc.Error) {
	start := time.Now()
	result, rpcErr := entry.handler(ctx, params)
	elapsed := time.Since(start)

	entry.calls.Add(1)
	entry.totalDurationMs.Add(uint64(elapsed.Milliseconds()))
	entry.lastCalledAtUnixNano.Store(start.UnixNano())
	if rpcErr != nil {
		entry.errors.Add(1)
	}

	if r.metrics != nil {
		r.metrics.ObserveRPC(fullMethod, elapsed.Seconds(), rpcErr != nil)
	}

	return result, rpcErr
}

// Dispatch implements jsonrpc.Dispatcher. It splits "service.method" on
// the first dot, looks up the handler, and maps lookup/handler failures
// to JSON-RPC error codes.
func (r *Registry) Dispatch(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	service, method, ok := splitMethod(req.Method)
	if !ok {
		if req.IsNotification() {
			return nil
		}
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.CodeMethodNotFound,
			fmt.Sprintf("method must be of the form service.method, got %q", req.Method)))
	}

	entry, err := r.lookup(service, method)
	if err != nil {
		if req.IsNotification() {
			return nil
		}
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, err.Error()))
	}

	result, rpcErr := r.invoke(ctx, req.Method, entry, req.Params)
	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		return jsonrpc.NewErrorResponse(req.ID, rpcErr)
	}
	return jsonrpc.NewResponse(req.ID, result)
}

func splitMethod(full string) (service, method string, ok bool) {
	idx := strings.IndexByte(full, '.')
	if idx <= 0 || idx == len(full)-1 {
		return "", "", false
	}
	return full[:idx], full[idx+1:], true
}
