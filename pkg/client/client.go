package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fleetglue/fleetglue-go/pkg/store"
	"github.com/fleetglue/fleetglue-go/pkg/transport"
)

// RegisterValue is one register with its current value, as reported by
// GetDeviceInfo.
type RegisterValue struct {
	Name     string
	Value    any
	Writable bool
}

// Client drives device registers through a store.
type Client struct {
	st     store.Store
	schema Schema
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithSchema selects the register name mapping.
func WithSchema(s Schema) Option {
	return func(c *Client) { c.schema = s.orDefault() }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client over an existing store. The store may be a
// local *store.Namespace or a *NetStore.
func New(st store.Store, opts ...Option) *Client {
	c := &Client{
		st:     st,
		schema: DefaultSchema,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to a register server and returns a client over the
// connection. Closing the client closes the connection.
func Dial(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	tc := transport.NewClient(transport.ClientConfig{})
	conn, err := tc.Connect(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", endpoint, err)
	}
	return New(NewNetStore(conn), opts...), nil
}

// Close releases the underlying store when it holds a connection.
func (c *Client) Close() error {
	if closer, ok := c.st.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// GetDevices returns the device names on the server.
func (c *Client) GetDevices() ([]string, error) {
	return c.st.ListObjects()
}

// GetDeviceInfo returns all registers of a device with their values.
func (c *Client) GetDeviceInfo(name string) ([]RegisterValue, error) {
	children, err := c.st.ListChildren(name)
	if err != nil {
		return nil, err
	}
	values := make([]RegisterValue, 0, len(children))
	for _, child := range children {
		values = append(values, RegisterValue{
			Name:     child.Name,
			Value:    child.Value,
			Writable: child.Writable,
		})
	}
	return values, nil
}

// GetRegisterValue reads one register by its server-side name.
func (c *Client) GetRegisterValue(device, register string) (any, error) {
	return c.st.Read(device, register)
}

// GetCount returns the device's activation counter.
func (c *Client) GetCount(name string) (int64, error) {
	v, err := c.st.Read(name, c.schema.Count)
	if err != nil {
		return 0, err
	}
	count, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%s/%s holds %T, expected int64", name, c.schema.Count, v)
	}
	return count, nil
}

// GetLastChange returns the last-state-change timestamp in unix
// seconds.
func (c *Client) GetLastChange(name string) (float64, error) {
	v, err := c.st.Read(name, c.schema.Time)
	if err != nil {
		return 0, err
	}
	ts, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%s/%s holds %T, expected float64", name, c.schema.Time, v)
	}
	return ts, nil
}

// PressButton drives the press sequence: State=true, timestamp, then
// read-increment-write of Count. Three independent exchanges; the
// device's own loop may interleave, so an increment can be lost.
func (c *Client) PressButton(name string) error {
	if err := c.st.Write(name, c.schema.State, true); err != nil {
		return fmt.Errorf("pressing %s: %w", name, err)
	}
	if err := c.st.Write(name, c.schema.Time, unixNow()); err != nil {
		return fmt.Errorf("pressing %s: %w", name, err)
	}
	if err := c.incrementCount(name); err != nil {
		return fmt.Errorf("pressing %s: %w", name, err)
	}
	c.logger.Debug("button pressed", "device", name)
	return nil
}

// ReleaseButton drives the release sequence: State=false and
// timestamp. Count is not touched.
func (c *Client) ReleaseButton(name string) error {
	if err := c.st.Write(name, c.schema.State, false); err != nil {
		return fmt.Errorf("releasing %s: %w", name, err)
	}
	if err := c.st.Write(name, c.schema.Time, unixNow()); err != nil {
		return fmt.Errorf("releasing %s: %w", name, err)
	}
	c.logger.Debug("button released", "device", name)
	return nil
}

// PressAndRelease performs a full press-and-release cycle. The counter
// moves once, on the press.
func (c *Client) PressAndRelease(name string) error {
	if err := c.PressButton(name); err != nil {
		return err
	}
	return c.ReleaseButton(name)
}

// ToggleSwitch inverts the switch state and returns the new state.
// Sequence: read State, write the inverse, write the timestamp,
// read-increment-write Count.
func (c *Client) ToggleSwitch(name string) (bool, error) {
	v, err := c.st.Read(name, c.schema.State)
	if err != nil {
		return false, fmt.Errorf("toggling %s: %w", name, err)
	}
	current, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("toggling %s: %s holds %T, expected bool", name, c.schema.State, v)
	}

	next := !current
	if err := c.st.Write(name, c.schema.State, next); err != nil {
		return false, fmt.Errorf("toggling %s: %w", name, err)
	}
	if err := c.st.Write(name, c.schema.Time, unixNow()); err != nil {
		return false, fmt.Errorf("toggling %s: %w", name, err)
	}
	if err := c.incrementCount(name); err != nil {
		return false, fmt.Errorf("toggling %s: %w", name, err)
	}

	c.logger.Debug("switch toggled", "device", name, "state", next)
	return next, nil
}

// incrementCount performs the read-increment-write on the counter
// register. Not atomic across the two exchanges.
func (c *Client) incrementCount(name string) error {
	count, err := c.GetCount(name)
	if err != nil {
		return err
	}
	return c.st.Write(name, c.schema.Count, count+1)
}

func unixNow() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
