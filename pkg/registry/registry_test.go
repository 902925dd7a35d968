package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetglue/fleetglue-go/pkg/device"
	"github.com/fleetglue/fleetglue-go/pkg/transport"
	"github.com/fleetglue/fleetglue-go/pkg/wire"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New(Config{Listen: "127.0.0.1:0"})
	t.Cleanup(func() { r.Stop() })
	return r
}

func TestAddDeviceDuplicate(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.AddDevice(device.NewButton("Button1")))

	err := r.AddDevice(device.NewButton("Button1"))
	assert.ErrorIs(t, err, ErrDuplicateDevice)

	// A different name is fine.
	require.NoError(t, r.AddDevice(device.NewButton("Button2")))
	assert.Equal(t, []string{"Button1", "Button2"}, r.Devices())
}

func TestSetupIdempotent(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.Setup())
	ns := r.Namespace()
	require.NotNil(t, ns)

	require.NoError(t, r.Setup())
	assert.Same(t, ns, r.Namespace())
	assert.Equal(t, StateSetup, r.State())
}

func TestStartStopLifecycle(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddDevice(device.NewAutoSwitch("VirtualSwitch", 10*time.Millisecond)))

	assert.Equal(t, StateNotSetup, r.State())

	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, StateRunning, r.State())

	// Second Start must not spawn a second set of loops.
	err := r.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, r.Stop())
	assert.Equal(t, StateStopped, r.State())

	// Idempotent.
	require.NoError(t, r.Stop())
}

func TestAddDeviceWhileRunning(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Start(context.Background()))

	sw := device.NewAutoSwitch("LateSwitch", 10*time.Millisecond)
	require.NoError(t, r.AddDevice(sw))

	// The late addition must be running, not idle.
	assert.Equal(t, device.StateRunning, sw.State())

	assert.Eventually(t, func() bool {
		return sw.CountValue() > 0
	}, 2*time.Second, 20*time.Millisecond, "late-added device loop never ran")
}

func TestHandlerDispatch(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddDevice(device.NewButton("Button1", device.WithPin(17))))
	require.NoError(t, r.Setup())

	h := NewHandler(r.Namespace(), nil)

	roundTrip := func(req *wire.Request) *wire.Response {
		t.Helper()
		data, err := wire.EncodeRequest(req)
		require.NoError(t, err)
		resp, err := wire.DecodeResponse(h.Handle(data))
		require.NoError(t, err)
		return resp
	}

	t.Run("browse root", func(t *testing.T) {
		resp := roundTrip(&wire.Request{MessageID: 1, Operation: wire.OpBrowse})
		require.True(t, resp.IsSuccess())
		entries, err := wire.ExtractBrowsePayload(resp.Payload)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Button1", entries[0].Name)
	})

	t.Run("browse device", func(t *testing.T) {
		resp := roundTrip(&wire.Request{MessageID: 2, Operation: wire.OpBrowse, Object: "Button1"})
		require.True(t, resp.IsSuccess())
		entries, err := wire.ExtractBrowsePayload(resp.Payload)
		require.NoError(t, err)
		assert.Len(t, entries, 6)
	})

	t.Run("read", func(t *testing.T) {
		resp := roundTrip(&wire.Request{MessageID: 3, Operation: wire.OpRead, Object: "Button1", Variable: "Type"})
		require.True(t, resp.IsSuccess())
		assert.Equal(t, "Button", resp.Payload)
	})

	t.Run("write and read back", func(t *testing.T) {
		resp := roundTrip(&wire.Request{MessageID: 4, Operation: wire.OpWrite, Object: "Button1", Variable: "State", Value: true})
		require.True(t, resp.IsSuccess())

		resp = roundTrip(&wire.Request{MessageID: 5, Operation: wire.OpRead, Object: "Button1", Variable: "State"})
		require.True(t, resp.IsSuccess())
		assert.Equal(t, true, resp.Payload)
	})

	t.Run("unknown object", func(t *testing.T) {
		resp := roundTrip(&wire.Request{MessageID: 6, Operation: wire.OpRead, Object: "Button9", Variable: "State"})
		assert.Equal(t, wire.StatusNotFoundObject, resp.Status)
		assert.NotEmpty(t, wire.ExtractErrorMessage(resp.Payload))
	})

	t.Run("unknown register", func(t *testing.T) {
		resp := roundTrip(&wire.Request{MessageID: 7, Operation: wire.OpRead, Object: "Button1", Variable: "Bogus"})
		assert.Equal(t, wire.StatusNotFoundVariable, resp.Status)
	})

	t.Run("read-only register", func(t *testing.T) {
		resp := roundTrip(&wire.Request{MessageID: 8, Operation: wire.OpWrite, Object: "Button1", Variable: "Type", Value: "Switch"})
		assert.Equal(t, wire.StatusReadOnly, resp.Status)
	})

	t.Run("type mismatch", func(t *testing.T) {
		resp := roundTrip(&wire.Request{MessageID: 9, Operation: wire.OpWrite, Object: "Button1", Variable: "State", Value: "yes"})
		assert.Equal(t, wire.StatusTypeMismatch, resp.Status)
	})

	t.Run("malformed bytes", func(t *testing.T) {
		resp, err := wire.DecodeResponse(h.Handle([]byte{0xff, 0x00}))
		require.NoError(t, err)
		assert.Equal(t, wire.StatusBadRequest, resp.Status)
	})
}

func TestEndToEndOverTCP(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddDevice(device.NewButton("Button1", device.WithPin(17))))
	require.NoError(t, r.Start(context.Background()))

	client := transport.NewClient(transport.ClientConfig{})
	conn, err := client.Connect(context.Background(), r.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	var msgID uint32
	exchange := func(op wire.Operation, object, variable string, value any) *wire.Response {
		t.Helper()
		msgID++
		data, err := wire.EncodeRequest(&wire.Request{
			MessageID: msgID,
			Operation: op,
			Object:    object,
			Variable:  variable,
			Value:     value,
		})
		require.NoError(t, err)
		raw, err := conn.RoundTrip(data, 2*time.Second)
		require.NoError(t, err)
		resp, err := wire.DecodeResponse(raw)
		require.NoError(t, err)
		require.Equal(t, msgID, resp.MessageID)
		return resp
	}

	// Discovery: the server exposes exactly one device.
	resp := exchange(wire.OpBrowse, "", "", nil)
	require.True(t, resp.IsSuccess())
	entries, err := wire.ExtractBrowsePayload(resp.Payload)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Button1", entries[0].Name)

	// Press: State=true, timestamp, Count+1 as the remote client does it.
	require.True(t, exchange(wire.OpWrite, "Button1", "State", true).IsSuccess())
	require.True(t, exchange(wire.OpWrite, "Button1", "LastStateChange", 1724680000.0).IsSuccess())
	resp = exchange(wire.OpRead, "Button1", "Count", nil)
	require.True(t, resp.IsSuccess())
	count, ok := wire.NormalizeValue(resp.Payload).(int64)
	require.True(t, ok, "Count payload type %T", resp.Payload)
	require.True(t, exchange(wire.OpWrite, "Button1", "Count", count+1).IsSuccess())

	resp = exchange(wire.OpRead, "Button1", "Count", nil)
	require.True(t, resp.IsSuccess())
	assert.Equal(t, int64(1), wire.NormalizeValue(resp.Payload))

	// Release writes State and timestamp only; Count is untouched.
	require.True(t, exchange(wire.OpWrite, "Button1", "State", false).IsSuccess())
	require.True(t, exchange(wire.OpWrite, "Button1", "LastStateChange", 1724680001.0).IsSuccess())

	resp = exchange(wire.OpRead, "Button1", "Count", nil)
	require.True(t, resp.IsSuccess())
	assert.Equal(t, int64(1), wire.NormalizeValue(resp.Payload))

	require.NoError(t, r.Stop())

	_, err = conn.RoundTrip([]byte{0x01}, time.Second)
	assert.Error(t, err, "connection should be closed after registry stop")
}

func TestStopFromSignalGoroutine(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddDevice(device.NewAutoSwitch("VirtualSwitch", 10*time.Millisecond)))
	require.NoError(t, r.Start(context.Background()))

	// Concurrent stops, as a signal handler racing a shutdown path would
	// issue. All must return nil and leave the registry Stopped.
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { errs <- r.Stop() }()
	}
	for i := 0; i < 2; i++ {
		assert.NoError(t, <-errs)
	}
	assert.Equal(t, StateStopped, r.State())
}

func TestAddDeviceInitializeFailure(t *testing.T) {
	r := newTestRegistry(t)

	b := device.NewButton("Button1")
	require.NoError(t, r.AddDevice(b))

	// A device that already holds registers elsewhere cannot be added.
	other := New(Config{Listen: "127.0.0.1:0"})
	err := other.AddDevice(b)
	assert.ErrorIs(t, err, device.ErrAlreadyInitialized)
	assert.Empty(t, other.Devices())
	assert.False(t, errors.Is(err, ErrDuplicateDevice))
}
