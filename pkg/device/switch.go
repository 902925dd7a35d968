package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fleetglue/fleetglue-go/pkg/store"
)

// Switch is a two-state device toggled on demand. Registers: State,
// LastStateChange, Count, plus Type/Virtual metadata. The manual Switch
// has no update loop; use NewAutoSwitch for the self-toggling variant.
type Switch struct {
	base

	state *store.Variable
	ts    *store.Variable
	count *store.Variable

	// opMu orders the three register writes of one toggle
	// (state, then timestamp, then count).
	opMu sync.Mutex
}

// SwitchOption configures a Switch.
type SwitchOption func(*Switch)

// WithSwitchLogger sets the switch's logger.
func WithSwitchLogger(logger *slog.Logger) SwitchOption {
	return func(s *Switch) { s.logger = logger }
}

// NewSwitch creates a manually-toggled virtual switch.
func NewSwitch(name string, opts ...SwitchOption) *Switch {
	s := &Switch{
		base: newBase(name, 0, nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Type returns "Switch".
func (s *Switch) Type() string { return "Switch" }

// Initialize allocates the switch's registers.
func (s *Switch) Initialize(ns *store.Namespace) error {
	if s.initialized() {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, s.name)
	}

	obj, err := ns.CreateObject(s.name)
	if err != nil {
		return fmt.Errorf("initializing %s: %w", s.name, err)
	}

	if s.state, err = obj.DeclareVariable(RegState, false, true); err != nil {
		return err
	}
	if s.ts, err = obj.DeclareVariable(RegLastChange, 0.0, true); err != nil {
		return err
	}
	if s.count, err = obj.DeclareVariable(RegCount, int64(0), true); err != nil {
		return err
	}

	// Metadata, write-once.
	if _, err = obj.DeclareVariable(RegType, s.Type(), false); err != nil {
		return err
	}
	if _, err = obj.DeclareVariable(RegVirtual, true, false); err != nil {
		return err
	}

	if err := s.setObject(obj); err != nil {
		return err
	}
	s.logger.Debug("switch initialized", "device", s.name)
	return nil
}

// Start transitions the switch to Running. The manual switch has no
// update loop; its state changes only through Toggle.
func (s *Switch) Start() error { return s.start(nil) }

// Stop transitions the switch out of Running.
func (s *Switch) Stop() error { return s.stop() }

// Toggle inverts State, stamps LastStateChange and increments Count.
// The writes land in that order; Toggle calls on the same switch are
// serialized against each other, but not against writers going through
// the store directly.
func (s *Switch) Toggle() (bool, error) {
	if !s.initialized() {
		return false, fmt.Errorf("%w: %s", ErrNotInitialized, s.name)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	current := s.state.Bool()
	next := !current
	if err := s.state.SetValueInternal(next); err != nil {
		return false, err
	}
	if err := s.ts.SetValueInternal(unixNow()); err != nil {
		return false, err
	}
	if err := s.count.SetValueInternal(s.count.Int() + 1); err != nil {
		return false, err
	}

	s.logger.Info("switch toggled", "device", s.name, "state", next, "count", s.count.Int())
	return next, nil
}

// CountValue returns the current Count register value.
func (s *Switch) CountValue() int64 {
	if s.count == nil {
		return 0
	}
	return s.count.Int()
}

// LastChange returns the LastStateChange register value (unix seconds).
func (s *Switch) LastChange() float64 {
	if s.ts == nil {
		return 0
	}
	return s.ts.Float()
}

// AutoSwitch is a Switch that toggles itself every update interval.
type AutoSwitch struct {
	Switch
}

// NewAutoSwitch creates a self-toggling virtual switch.
// A nonpositive interval falls back to one second.
func NewAutoSwitch(name string, interval time.Duration, opts ...SwitchOption) *AutoSwitch {
	if interval <= 0 {
		interval = time.Second
	}
	a := &AutoSwitch{}
	a.base = newBase(name, interval, nil)
	for _, opt := range opts {
		opt(&a.Switch)
	}
	return a
}

// Start launches the toggle loop.
func (a *AutoSwitch) Start() error { return a.start(a.Run) }

// Run toggles the switch once per interval until ctx is done.
func (a *AutoSwitch) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Toggle(); err != nil {
				a.logger.Error("auto toggle failed", "device", a.name, "error", err)
			}
		}
	}
}

// Compile-time checks.
var (
	_ Device  = (*Switch)(nil)
	_ Device  = (*AutoSwitch)(nil)
	_ Updater = (*AutoSwitch)(nil)
)
