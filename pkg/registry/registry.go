package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/fleetglue/fleetglue-go/pkg/device"
	"github.com/fleetglue/fleetglue-go/pkg/discovery"
	"github.com/fleetglue/fleetglue-go/pkg/store"
	"github.com/fleetglue/fleetglue-go/pkg/transport"
)

// Registry errors.
var (
	// ErrDuplicateDevice indicates a device with the same name was
	// already added. Device names are wire identifiers, so this is a
	// configuration error.
	ErrDuplicateDevice = errors.New("duplicate device name")

	// ErrAlreadyRunning indicates Start was called on a running registry.
	ErrAlreadyRunning = errors.New("registry already running")
)

// State represents the registry lifecycle state.
type State int

const (
	StateNotSetup State = iota
	StateSetup
	StateRunning
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotSetup:
		return "NOT_SETUP"
	case StateSetup:
		return "SETUP"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Registry.
type Config struct {
	// Namespace is the namespace URI registers live under.
	Namespace string

	// Listen is the TCP listen address (default ":4840").
	Listen string

	// Advertise enables mDNS advertisement of the server.
	Advertise bool

	// Instance is the mDNS instance name (defaults to "fleetglue").
	Instance string

	// Logger receives lifecycle and request logs.
	Logger *slog.Logger
}

// Registry supervises devices and serves their registers.
type Registry struct {
	config Config
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	ns      *store.Namespace
	devices []device.Device
	names   map[string]struct{}
	server  *transport.Server
	handler *Handler

	advCancel context.CancelFunc
}

// New creates a registry from config. Setup is deferred until the
// first AddDevice or Start call.
func New(config Config) *Registry {
	if config.Namespace == "" {
		config.Namespace = "http://fleetglue.dev/registers"
	}
	if config.Listen == "" {
		config.Listen = fmt.Sprintf(":%d", transport.DefaultPort)
	}
	if config.Instance == "" {
		config.Instance = "fleetglue"
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		config: config,
		logger: logger,
		names:  make(map[string]struct{}),
	}
}

// State returns the current lifecycle state.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Namespace returns the register namespace. Nil before Setup.
func (r *Registry) Namespace() *store.Namespace {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ns
}

// Addr returns the server listen address, or nil when not Running.
func (r *Registry) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.server == nil {
		return nil
	}
	return r.server.Addr()
}

// Setup creates the namespace and the transport server. Idempotent;
// AddDevice and Start call it lazily.
func (r *Registry) Setup() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setupLocked()
}

func (r *Registry) setupLocked() error {
	if r.ns != nil {
		return nil
	}

	r.ns = store.NewNamespace(r.config.Namespace)
	r.handler = NewHandler(r.ns, r.logger)

	server, err := transport.NewServer(transport.ServerConfig{
		Address: r.config.Listen,
		Logger:  r.logger,
		OnMessage: func(conn *transport.ServerConn, msg []byte) {
			resp := r.handler.Handle(msg)
			if err := conn.Send(resp); err != nil {
				r.logger.Warn("failed to send response", "conn", conn.ConnID(), "err", err)
			}
		},
		OnError: func(conn *transport.ServerConn, err error) {
			if errors.Is(err, transport.ErrConnectionClosed) {
				return
			}
			r.logger.Debug("transport error", "err", err)
		},
	})
	if err != nil {
		r.ns = nil
		r.handler = nil
		return fmt.Errorf("setting up server: %w", err)
	}
	r.server = server

	r.state = StateSetup
	r.logger.Debug("registry setup complete", "namespace", r.config.Namespace)
	return nil
}

// AddDevice registers a device and initializes its registers. When the
// registry is already Running the device is started immediately, so a
// late addition never sits idle.
func (r *Registry) AddDevice(d device.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.setupLocked(); err != nil {
		return err
	}

	name := d.Name()
	if _, exists := r.names[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDevice, name)
	}

	if err := d.Initialize(r.ns); err != nil {
		return fmt.Errorf("adding device %s: %w", name, err)
	}

	r.names[name] = struct{}{}
	r.devices = append(r.devices, d)
	r.logger.Info("device added", "device", name, "type", d.Type())

	if r.state == StateRunning {
		if err := d.Start(); err != nil {
			return fmt.Errorf("starting late-added device %s: %w", name, err)
		}
		r.logger.Info("late-added device started", "device", name)
	}
	return nil
}

// Devices returns the device names in addition order.
func (r *Registry) Devices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.devices))
	for _, d := range r.devices {
		names = append(names, d.Name())
	}
	return names
}

// Start brings up the transport listener, the optional mDNS
// advertisement, and every device in addition order. A second Start
// on a running registry fails; there is never a second set of update
// loops.
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRunning {
		return ErrAlreadyRunning
	}
	if err := r.setupLocked(); err != nil {
		return err
	}

	if err := r.server.Start(ctx); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	if r.config.Advertise {
		if err := r.startAdvertiseLocked(ctx); err != nil {
			// Advertisement is best-effort; the server still serves.
			r.logger.Warn("mDNS advertise failed", "err", err)
		}
	}

	for _, d := range r.devices {
		if err := d.Start(); err != nil {
			r.logger.Error("failed to start device", "device", d.Name(), "err", err)
			continue
		}
	}

	r.state = StateRunning
	r.logger.Info("registry running", "address", r.server.Addr().String(), "devices", len(r.devices))
	return nil
}

func (r *Registry) startAdvertiseLocked(ctx context.Context) error {
	addr := r.server.Addr()
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return fmt.Errorf("unexpected listener address type %T", addr)
	}

	advCtx, cancel := context.WithCancel(ctx)
	err := discovery.Advertise(advCtx, r.config.Instance, tcpAddr.Port, []string{
		"namespace=" + r.config.Namespace,
		"devices=" + strconv.Itoa(len(r.devices)),
	})
	if err != nil {
		cancel()
		return err
	}
	r.advCancel = cancel
	r.logger.Info("mDNS advertisement up", "instance", r.config.Instance, "port", tcpAddr.Port)
	return nil
}

// Stop shuts down devices in addition order, then the advertiser and
// the transport. Idempotent; stopping a registry that is not Running
// is a no-op. A device loop that outlives its stop timeout is logged
// and skipped, never escalated.
func (r *Registry) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRunning {
		return nil
	}
	r.state = StateStopped

	for _, d := range r.devices {
		if err := d.Stop(); err != nil {
			r.logger.Error("failed to stop device", "device", d.Name(), "err", err)
		}
	}

	if r.advCancel != nil {
		r.advCancel()
		r.advCancel = nil
	}

	if err := r.server.Stop(); err != nil {
		r.logger.Error("failed to stop server", "err", err)
	}

	r.logger.Info("registry stopped")
	return nil
}
