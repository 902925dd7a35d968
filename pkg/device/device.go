package device

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fleetglue/fleetglue-go/pkg/store"
)

// Canonical register names. One schema for all devices; legacy servers
// with historical names are handled by the client's name mapping.
const (
	RegState      = "State"
	RegCount      = "Count"
	RegType       = "Type"
	RegVirtual    = "Virtual"
	RegPin        = "Pin"
	RegLastChange = "LastStateChange"
)

// StopTimeout bounds how long Stop waits for an update loop to exit.
const StopTimeout = 2 * time.Second

// Device errors.
var (
	ErrAlreadyInitialized = errors.New("device already initialized")
	ErrNotInitialized     = errors.New("device not initialized")
	ErrAlreadyRunning     = errors.New("device already running")
)

// LifecycleState tracks a device through one start/stop cycle.
type LifecycleState uint8

const (
	StateIdle LifecycleState = iota
	StateRunning
	StateStopped
)

// String returns the lifecycle state name.
func (s LifecycleState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Device is a simulated field device with a fixed register schema and an
// independent lifecycle.
type Device interface {
	// Name returns the unique device name within the namespace.
	Name() string

	// Type returns the device type string ("Switch", "Button").
	Type() string

	// Initialize allocates the device's registers under its name.
	// Calling it on an already-initialized device is a caller error and
	// fails with ErrAlreadyInitialized.
	Initialize(ns *store.Namespace) error

	// Start transitions the device to Running. Devices implementing
	// Updater get exactly one update goroutine; others just change state.
	// Fails with ErrAlreadyRunning while Running.
	Start() error

	// Stop signals the update loop to exit and waits up to StopTimeout.
	// Always returns nil once the device is not Running; a loop that
	// missed the deadline exits on its next context check.
	Stop() error

	// State returns the current lifecycle state.
	State() LifecycleState
}

// Updater is the optional autonomous-update capability. Start launches
// Run in its own goroutine; Run must return promptly after ctx is done.
type Updater interface {
	Run(ctx context.Context)
}

// base carries the lifecycle machinery shared by all device variants.
type base struct {
	name     string
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	state  LifecycleState
	obj    *store.Object
	cancel context.CancelFunc
	done   chan struct{}
}

func newBase(name string, interval time.Duration, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{
		name:     name,
		interval: interval,
		logger:   logger,
	}
}

// Name returns the device name.
func (b *base) Name() string { return b.name }

// UpdateInterval returns the configured update interval.
func (b *base) UpdateInterval() time.Duration { return b.interval }

// State returns the current lifecycle state.
func (b *base) State() LifecycleState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// start performs the Idle/Stopped -> Running transition. A non-nil run
// function is launched as the device's single update goroutine.
func (b *base) start(run func(ctx context.Context)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.obj == nil {
		return ErrNotInitialized
	}
	if b.state == StateRunning {
		return ErrAlreadyRunning
	}
	b.state = StateRunning

	if run == nil {
		b.cancel = nil
		b.done = nil
		b.logger.Info("device started", "device", b.name)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	b.cancel = cancel
	b.done = done

	go func() {
		defer close(done)
		run(ctx)
	}()

	b.logger.Info("device started", "device", b.name, "interval", b.interval)
	return nil
}

// stop performs the Running -> Stopped transition with a bounded wait.
// Idempotent; stopping an Idle or Stopped device is a no-op.
func (b *base) stop() error {
	b.mu.Lock()
	if b.state != StateRunning {
		b.mu.Unlock()
		return nil
	}
	b.state = StateStopped
	cancel := b.cancel
	done := b.done
	b.cancel = nil
	b.done = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(StopTimeout):
			b.logger.Warn("update loop did not exit within timeout", "device", b.name, "timeout", StopTimeout)
		}
	}

	b.logger.Info("device stopped", "device", b.name)
	return nil
}

// setObject records the store object during Initialize.
// Fails if Initialize already ran.
func (b *base) setObject(obj *store.Object) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.obj != nil {
		return ErrAlreadyInitialized
	}
	b.obj = obj
	return nil
}

func (b *base) initialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.obj != nil
}

// unixNow returns the current time as unix seconds, the canonical
// timestamp representation for LastStateChange registers.
func unixNow() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
