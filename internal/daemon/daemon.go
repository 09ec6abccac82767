// Package daemon owns the Unix-socket listener lifecycle: accepting
// clients up to a configured cap, idle-timing out individual connections,
// and draining in-flight calls on a bounded graceful shutdown — the same
// accept-loop-plus-context-cancellation shape the teacher uses for its
// HTTP server, adapted to a socket listener instead of net/http.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/txc0ld/godagent/internal/config"
	"github.com/txc0ld/godagent/internal/jsonrpc"
	"github.com/txc0ld/godagent/internal/logging"
	"github.com/txc0ld/godagent/internal/registry"
	"github.com/txc0ld/godagent/internal/telemetry"
	"go.uber.org/zap"
)

// State is the daemon's lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// EventKind enumerates the internal lifecycle events the daemon emits.
type EventKind string

const (
	EventStart            EventKind = "start"
	EventStop             EventKind = "stop"
	EventClientConnect    EventKind = "client_connect"
	EventClientDisconnect EventKind = "client_disconnect"
	EventClientRejected   EventKind = "client_rejected"
	EventError            EventKind = "error"
)

// Event is a single lifecycle notification, delivered to an optional
// subscriber (e.g. a future admin/introspection surface). Emission always
// happens after any internal lock is released, mirroring the teacher's
// folding.BudgetTracker event-emission-after-unlock pattern to avoid
// deadlocking a listener that calls back into the daemon.
type Event struct {
	Kind      EventKind
	ClientID  string
	Err       error
	Timestamp time.Time
}

// EventEmitter receives daemon lifecycle events.
type EventEmitter interface {
	Emit(Event)
}

// EventEmitterFunc adapts a plain function to EventEmitter.
type EventEmitterFunc func(Event)

func (f EventEmitterFunc) Emit(e Event) { f(e) }

// Daemon manages the Unix-socket listener and its client connections.
type Daemon struct {
	cfg      *config.ServerConfig
	registry *registry.Registry
	logger   *logging.Logger
	metrics  *telemetry.Metrics
	emitter  EventEmitter

	mu       sync.Mutex
	state    State
	listener net.Listener
	clients  map[string]net.Conn
	nextID   atomic.Uint64

	wg        sync.WaitGroup
	shutdown  chan struct{}
	startedAt time.Time
}

// New constructs a Daemon. emitter may be nil (events are dropped).
func New(cfg *config.ServerConfig, reg *registry.Registry, logger *logging.Logger, metrics *telemetry.Metrics, emitter EventEmitter) *Daemon {
	if emitter == nil {
		emitter = EventEmitterFunc(func(Event) {})
	}
	d := &Daemon{
		cfg:      cfg,
		registry: reg,
		logger:   logger,
		metrics:  metrics,
		emitter:  emitter,
		clients:  make(map[string]net.Conn),
	}
	d.registerBuiltins()
	return d
}

// State returns the current lifecycle state.
func (d *Daemon) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start binds the Unix socket and begins accepting clients. It returns
// once the listener is bound; the accept loop runs in the background
// until Stop is called or the listener errors out.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.state != StateStopped {
		d.mu.Unlock()
		return fmt.Errorf("daemon: cannot start from state %s", d.state)
	}
	d.state = StateStarting
	d.mu.Unlock()

	if err := os.RemoveAll(d.cfg.SocketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("daemon: failed to clear stale socket: %w", err)
	}

	listener, err := net.Listen("unix", d.cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("daemon: failed to bind socket %s: %w", d.cfg.SocketPath, err)
	}
	if err := os.Chmod(d.cfg.SocketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("daemon: failed to set socket permissions: %w", err)
	}

	d.mu.Lock()
	d.listener = listener
	d.state = StateRunning
	d.shutdown = make(chan struct{})
	d.startedAt = time.Now()
	d.mu.Unlock()

	d.emitter.Emit(Event{Kind: EventStart, Timestamp: time.Now()})
	d.logger.Info(ctx, "daemon started", zap.String("socket_path", d.cfg.SocketPath))

	d.wg.Add(1)
	go d.acceptLoop(ctx)

	return nil
}

// Stop closes the listener, waits up to cfg.ShutdownDrain for in-flight
// clients to finish, then forcibly closes any stragglers.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.state != StateRunning {
		d.mu.Unlock()
		return nil
	}
	d.state = StateStopping
	listener := d.listener
	shutdown := d.shutdown
	d.mu.Unlock()

	close(shutdown)
	if listener != nil {
		_ = listener.Close()
	}

	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(d.cfg.ShutdownDrain.Duration()):
		d.closeAllClients()
	}

	d.mu.Lock()
	d.state = StateStopped
	d.mu.Unlock()

	_ = os.RemoveAll(d.cfg.SocketPath)
	d.emitter.Emit(Event{Kind: EventStop, Timestamp: time.Now()})
	d.logger.Info(ctx, "daemon stopped")
	return nil
}

func (d *Daemon) acceptLoop(ctx context.Context) {
	defer d.wg.Done()
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.shutdown:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			d.emitter.Emit(Event{Kind: EventError, Err: err, Timestamp: time.Now()})
			d.logger.Error(ctx, "accept error", zap.Error(err))
			continue
		}

		d.mu.Lock()
		tooMany := len(d.clients) >= d.cfg.MaxClients
		d.mu.Unlock()

		if tooMany {
			if d.metrics != nil {
				d.metrics.ClientsRejected.Inc()
			}
			d.emitter.Emit(Event{Kind: EventClientRejected, Timestamp: time.Now()})
			_ = conn.Close()
			continue
		}

		clientID := fmt.Sprintf("client-%d", d.nextID.Add(1))
		d.mu.Lock()
		d.clients[clientID] = conn
		d.mu.Unlock()
		if d.metrics != nil {
			d.metrics.ClientsConnected.Set(float64(len(d.clients)))
		}

		d.wg.Add(1)
		go d.handleClient(ctx, clientID, conn)
	}
}

func (d *Daemon) handleClient(ctx context.Context, clientID string, conn net.Conn) {
	defer d.wg.Done()
	defer func() {
		_ = conn.Close()
		d.mu.Lock()
		delete(d.clients, clientID)
		remaining := len(d.clients)
		d.mu.Unlock()
		if d.metrics != nil {
			d.metrics.ClientsConnected.Set(float64(remaining))
		}
		d.emitter.Emit(Event{Kind: EventClientDisconnect, ClientID: clientID, Timestamp: time.Now()})
	}()

	d.emitter.Emit(Event{Kind: EventClientConnect, ClientID: clientID, Timestamp: time.Now()})
	clientCtx := logging.WithClientID(ctx, clientID)

	var reader io.Reader = conn
	idle := d.cfg.IdleTimeout.Duration()
	if idle > 0 {
		reader = idleReader{r: conn, extend: func() { _ = conn.SetDeadline(time.Now().Add(idle)) }}
	}

	rpcConn := jsonrpc.NewConn(reader, conn, d.cfg.MaxMessageBytes)
	if err := jsonrpc.Serve(clientCtx, rpcConn, d.registry); err != nil {
		d.logger.Debug(clientCtx, "client connection closed", zap.String("reason", err.Error()))
	}
}

// idleReader pushes the connection deadline out by the idle timeout
// before every read, so any inbound data keeps the connection open.
type idleReader struct {
	r      io.Reader
	extend func()
}

func (ir idleReader) Read(p []byte) (int, error) {
	ir.extend()
	return ir.r.Read(p)
}

func (d *Daemon) closeAllClients() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, conn := range d.clients {
		_ = conn.Close()
		delete(d.clients, id)
	}
}

// ConnectedClients returns the current client count, for health.status.
func (d *Daemon) ConnectedClients() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients)
}
