package client

import (
	"sync"
	"testing"
	"time"

	"github.com/fleetglue/fleetglue-go/pkg/device"
	"github.com/fleetglue/fleetglue-go/pkg/store"
)

// recordingStore logs every operation so tests can assert the exact
// register sequence a composite op issues.
type recordingStore struct {
	store.Store
	mu  sync.Mutex
	ops []string
}

func (r *recordingStore) Read(object, variable string) (any, error) {
	r.record("read " + object + "/" + variable)
	return r.Store.Read(object, variable)
}

func (r *recordingStore) Write(object, variable string, value any) error {
	r.record("write " + object + "/" + variable)
	return r.Store.Write(object, variable, value)
}

func (r *recordingStore) record(op string) {
	r.mu.Lock()
	r.ops = append(r.ops, op)
	r.mu.Unlock()
}

func newButtonStore(t *testing.T) *store.Namespace {
	t.Helper()
	ns := store.NewNamespace("http://example.org/fleetglue")
	b := device.NewButton("Button1")
	if err := b.Initialize(ns); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return ns
}

func newSwitchStore(t *testing.T) *store.Namespace {
	t.Helper()
	ns := store.NewNamespace("http://example.org/fleetglue")
	sw := device.NewSwitch("VirtualSwitch")
	if err := sw.Initialize(ns); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return ns
}

func TestPressButtonSequence(t *testing.T) {
	rec := &recordingStore{Store: newButtonStore(t)}
	c := New(rec)

	if err := c.PressButton("Button1"); err != nil {
		t.Fatalf("PressButton failed: %v", err)
	}

	want := []string{
		"write Button1/State",
		"write Button1/LastStateChange",
		"read Button1/Count",
		"write Button1/Count",
	}
	if len(rec.ops) != len(want) {
		t.Fatalf("got %d ops %v, want %d", len(rec.ops), rec.ops, len(want))
	}
	for i, op := range want {
		if rec.ops[i] != op {
			t.Errorf("op %d = %q, want %q", i, rec.ops[i], op)
		}
	}

	state, _ := rec.Read("Button1", "State")
	if state != true {
		t.Errorf("State = %v after press, want true", state)
	}
	count, err := c.GetCount("Button1")
	if err != nil {
		t.Fatalf("GetCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}

func TestReleaseButtonKeepsCount(t *testing.T) {
	ns := newButtonStore(t)
	c := New(ns)

	if err := c.PressButton("Button1"); err != nil {
		t.Fatalf("PressButton failed: %v", err)
	}
	if err := c.ReleaseButton("Button1"); err != nil {
		t.Fatalf("ReleaseButton failed: %v", err)
	}

	count, err := c.GetCount("Button1")
	if err != nil {
		t.Fatalf("GetCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count = %d after release, want 1", count)
	}
	state, _ := ns.Read("Button1", "State")
	if state != false {
		t.Errorf("State = %v after release, want false", state)
	}
}

func TestPressAndRelease(t *testing.T) {
	ns := newButtonStore(t)
	c := New(ns)

	const n = 3
	for i := 0; i < n; i++ {
		if err := c.PressAndRelease("Button1"); err != nil {
			t.Fatalf("PressAndRelease failed: %v", err)
		}
	}

	count, err := c.GetCount("Button1")
	if err != nil {
		t.Fatalf("GetCount failed: %v", err)
	}
	if count != n {
		t.Errorf("Count = %d after %d cycles, want %d", count, n, n)
	}
}

func TestToggleSwitch(t *testing.T) {
	ns := newSwitchStore(t)
	c := New(ns)

	on, err := c.ToggleSwitch("VirtualSwitch")
	if err != nil {
		t.Fatalf("ToggleSwitch failed: %v", err)
	}
	if !on {
		t.Error("first toggle should turn the switch on")
	}

	off, err := c.ToggleSwitch("VirtualSwitch")
	if err != nil {
		t.Fatalf("ToggleSwitch failed: %v", err)
	}
	if off {
		t.Error("second toggle should turn the switch off")
	}

	count, err := c.GetCount("VirtualSwitch")
	if err != nil {
		t.Fatalf("GetCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Count = %d after two toggles, want 2", count)
	}

	ts, err := c.GetLastChange("VirtualSwitch")
	if err != nil {
		t.Fatalf("GetLastChange failed: %v", err)
	}
	if ts <= 0 {
		t.Error("timestamp not stamped")
	}
}

func TestGetDevicesAndInfo(t *testing.T) {
	ns := newButtonStore(t)
	c := New(ns)

	devices, err := c.GetDevices()
	if err != nil {
		t.Fatalf("GetDevices failed: %v", err)
	}
	if len(devices) != 1 || devices[0] != "Button1" {
		t.Errorf("GetDevices = %v", devices)
	}

	info, err := c.GetDeviceInfo("Button1")
	if err != nil {
		t.Fatalf("GetDeviceInfo failed: %v", err)
	}
	if len(info) != 6 {
		t.Fatalf("got %d registers, want 6", len(info))
	}
	if info[0].Name != "State" || !info[0].Writable {
		t.Errorf("first register = %+v", info[0])
	}

	if _, err := c.GetDeviceInfo("Button9"); err == nil {
		t.Error("expected error for unknown device")
	}
	if _, err := c.GetRegisterValue("Button1", "Bogus"); err == nil {
		t.Error("expected error for unknown register")
	}
}

func TestLegacySchema(t *testing.T) {
	ns := store.NewNamespace("http://example.org/fleetglue")
	obj, err := ns.CreateObject("OldButton")
	if err != nil {
		t.Fatal(err)
	}
	// Registers as an old deployment names them.
	if _, err := obj.DeclareVariable("Pressed", false, true); err != nil {
		t.Fatal(err)
	}
	if _, err := obj.DeclareVariable("PressCount", int64(0), true); err != nil {
		t.Fatal(err)
	}
	if _, err := obj.DeclareVariable("LastToggleTime", 0.0, true); err != nil {
		t.Fatal(err)
	}

	c := New(ns, WithSchema(LegacySchema))

	if err := c.PressAndRelease("OldButton"); err != nil {
		t.Fatalf("PressAndRelease failed: %v", err)
	}
	count, err := c.GetCount("OldButton")
	if err != nil {
		t.Fatalf("GetCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("PressCount = %d, want 1", count)
	}

	// The default schema must not see legacy registers.
	if err := New(ns).PressButton("OldButton"); err == nil {
		t.Error("default schema against legacy registers should fail")
	}
}

func TestPartialSchemaFilled(t *testing.T) {
	c := New(newButtonStore(t), WithSchema(Schema{Count: "Count"}))
	if c.schema.State != "State" || c.schema.Time != "LastStateChange" {
		t.Errorf("partial schema not filled: %+v", c.schema)
	}
}

// Client increments and the device's own Press calls interleave on the
// same registers. Counts may be lost but never exceed the attempts,
// and the store stays consistent.
func TestConcurrentCountIsBounded(t *testing.T) {
	ns := store.NewNamespace("http://example.org/fleetglue")
	b := device.NewButton("Button1")
	if err := b.Initialize(ns); err != nil {
		t.Fatal(err)
	}
	c := New(ns)

	const perSide = 25
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			if err := c.PressAndRelease("Button1"); err != nil {
				t.Errorf("client press failed: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			if err := b.PressAndRelease(); err != nil {
				t.Errorf("device press failed: %v", err)
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	wg.Wait()

	count, err := c.GetCount("Button1")
	if err != nil {
		t.Fatalf("GetCount failed: %v", err)
	}
	if count < 1 || count > 2*perSide {
		t.Errorf("Count = %d, want within [1, %d]", count, 2*perSide)
	}
}
