package device

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/fleetglue/fleetglue-go/pkg/store"
)

// Button is a momentary device. Registers: State (pressed), LastStateChange,
// Count (press count), plus Type/Virtual/Pin metadata. Count increments on
// Press and PressAndRelease, never on Release.
type Button struct {
	base

	pin int // -1 when unassigned

	state *store.Variable
	ts    *store.Variable
	count *store.Variable

	opMu sync.Mutex
}

// ButtonOption configures a Button.
type ButtonOption func(*Button)

// WithPin records the GPIO pin the button stands in for.
func WithPin(pin int) ButtonOption {
	return func(b *Button) { b.pin = pin }
}

// WithButtonLogger sets the button's logger.
func WithButtonLogger(logger *slog.Logger) ButtonOption {
	return func(b *Button) { b.logger = logger }
}

// NewButton creates a manually-operated virtual button.
func NewButton(name string, opts ...ButtonOption) *Button {
	b := &Button{
		base: newBase(name, 0, nil),
		pin:  -1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Type returns "Button".
func (b *Button) Type() string { return "Button" }

// Initialize allocates the button's registers.
func (b *Button) Initialize(ns *store.Namespace) error {
	if b.initialized() {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, b.name)
	}

	obj, err := ns.CreateObject(b.name)
	if err != nil {
		return fmt.Errorf("initializing %s: %w", b.name, err)
	}

	if b.state, err = obj.DeclareVariable(RegState, false, true); err != nil {
		return err
	}
	if b.ts, err = obj.DeclareVariable(RegLastChange, 0.0, true); err != nil {
		return err
	}
	if b.count, err = obj.DeclareVariable(RegCount, int64(0), true); err != nil {
		return err
	}

	// Metadata, write-once. Pin reads "None" when unassigned.
	if _, err = obj.DeclareVariable(RegType, b.Type(), false); err != nil {
		return err
	}
	if _, err = obj.DeclareVariable(RegVirtual, true, false); err != nil {
		return err
	}
	pin := "None"
	if b.pin >= 0 {
		pin = strconv.Itoa(b.pin)
	}
	if _, err = obj.DeclareVariable(RegPin, pin, false); err != nil {
		return err
	}

	if err := b.setObject(obj); err != nil {
		return err
	}
	b.logger.Debug("button initialized", "device", b.name, "pin", pin)
	return nil
}

// Start transitions the button to Running. The manual button has no
// update loop; its state changes only through Press/Release.
func (b *Button) Start() error { return b.start(nil) }

// Stop transitions the button out of Running.
func (b *Button) Stop() error { return b.stop() }

// Press sets State=true, stamps LastStateChange and increments Count.
func (b *Button) Press() error {
	if !b.initialized() {
		return fmt.Errorf("%w: %s", ErrNotInitialized, b.name)
	}

	b.opMu.Lock()
	defer b.opMu.Unlock()
	if err := b.press(); err != nil {
		return err
	}
	b.logger.Info("button pressed", "device", b.name, "count", b.count.Int())
	return nil
}

// Release sets State=false and stamps LastStateChange. Count is unchanged.
func (b *Button) Release() error {
	if !b.initialized() {
		return fmt.Errorf("%w: %s", ErrNotInitialized, b.name)
	}

	b.opMu.Lock()
	defer b.opMu.Unlock()
	if err := b.release(); err != nil {
		return err
	}
	b.logger.Info("button released", "device", b.name)
	return nil
}

// PressAndRelease performs a press immediately followed by a release as
// one device-side action. Count increments exactly once.
func (b *Button) PressAndRelease() error {
	if !b.initialized() {
		return fmt.Errorf("%w: %s", ErrNotInitialized, b.name)
	}

	b.opMu.Lock()
	defer b.opMu.Unlock()
	if err := b.press(); err != nil {
		return err
	}
	if err := b.release(); err != nil {
		return err
	}
	b.logger.Info("button pressed and released", "device", b.name, "count", b.count.Int())
	return nil
}

func (b *Button) press() error {
	if err := b.state.SetValueInternal(true); err != nil {
		return err
	}
	if err := b.ts.SetValueInternal(unixNow()); err != nil {
		return err
	}
	return b.count.SetValueInternal(b.count.Int() + 1)
}

func (b *Button) release() error {
	if err := b.state.SetValueInternal(false); err != nil {
		return err
	}
	return b.ts.SetValueInternal(unixNow())
}

// CountValue returns the current Count register value.
func (b *Button) CountValue() int64 {
	if b.count == nil {
		return 0
	}
	return b.count.Int()
}

// LastChange returns the LastStateChange register value (unix seconds).
func (b *Button) LastChange() float64 {
	if b.ts == nil {
		return 0
	}
	return b.ts.Float()
}

// DefaultFlipChance is the per-tick probability a simulated button
// changes state.
const DefaultFlipChance = 0.05

// SimButton is a Button whose update loop flips State at random,
// standing in for a physical button wired to GPIO. Count increments
// only on the false->true edge, so a held press counts once no matter
// how many ticks it spans.
type SimButton struct {
	Button

	flipChance float64

	// randFloat is swappable for deterministic tests.
	randFloat func() float64
}

// NewSimButton creates a randomly self-pressing virtual button.
func NewSimButton(name string, interval time.Duration, flipChance float64, opts ...ButtonOption) *SimButton {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	if flipChance <= 0 {
		flipChance = DefaultFlipChance
	}
	s := &SimButton{
		flipChance: flipChance,
		randFloat:  rand.Float64,
	}
	s.base = newBase(name, interval, nil)
	s.pin = -1
	for _, opt := range opts {
		opt(&s.Button)
	}
	return s
}

// Start launches the simulation loop.
func (s *SimButton) Start() error { return s.start(s.Run) }

// Run flips the button state with probability flipChance per tick until
// ctx is done, counting rising edges only.
func (s *SimButton) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := s.state.Bool()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.randFloat() >= s.flipChance {
				continue
			}
			next := !last
			s.opMu.Lock()
			if err := s.state.SetValueInternal(next); err != nil {
				s.opMu.Unlock()
				s.logger.Error("simulated press failed", "device", s.name, "error", err)
				continue
			}
			_ = s.ts.SetValueInternal(unixNow())
			if next && !last {
				_ = s.count.SetValueInternal(s.count.Int() + 1)
				s.logger.Debug("simulated press", "device", s.name, "count", s.count.Int())
			}
			s.opMu.Unlock()
			last = next
		}
	}
}

// Compile-time checks.
var (
	_ Device  = (*Button)(nil)
	_ Device  = (*SimButton)(nil)
	_ Updater = (*SimButton)(nil)
)
