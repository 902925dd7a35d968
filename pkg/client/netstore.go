package client

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fleetglue/fleetglue-go/pkg/store"
	"github.com/fleetglue/fleetglue-go/pkg/transport"
	"github.com/fleetglue/fleetglue-go/pkg/wire"
)

// DefaultRequestTimeout bounds each request/response exchange.
const DefaultRequestTimeout = 10 * time.Second

// NetStore implements store.Store over a transport connection, so the
// Client works identically against a remote server and an in-process
// namespace.
type NetStore struct {
	conn    *transport.ClientConn
	timeout time.Duration
	msgID   atomic.Uint32
}

// NewNetStore wraps an established connection.
func NewNetStore(conn *transport.ClientConn) *NetStore {
	return &NetStore{
		conn:    conn,
		timeout: DefaultRequestTimeout,
	}
}

// SetTimeout overrides the per-request timeout.
func (n *NetStore) SetTimeout(d time.Duration) {
	n.timeout = d
}

// Close closes the underlying connection.
func (n *NetStore) Close() error {
	return n.conn.Close()
}

func (n *NetStore) nextID() uint32 {
	id := n.msgID.Add(1)
	if id == wire.ReservedMessageID {
		id = n.msgID.Add(1)
	}
	return id
}

func (n *NetStore) exchange(req *wire.Request) (*wire.Response, error) {
	req.MessageID = n.nextID()

	data, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	raw, err := n.conn.RoundTrip(data, n.timeout)
	if err != nil {
		return nil, err
	}
	resp, err := wire.DecodeResponse(raw)
	if err != nil {
		return nil, err
	}
	if resp.MessageID != req.MessageID {
		return nil, fmt.Errorf("response id %d does not match request id %d", resp.MessageID, req.MessageID)
	}
	if resp.Status.IsError() {
		return nil, statusToError(resp)
	}
	return resp, nil
}

// ListObjects returns the device names on the server.
func (n *NetStore) ListObjects() ([]string, error) {
	entries, err := n.browse("")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

// ListChildren returns a device's registers with current values.
func (n *NetStore) ListChildren(object string) ([]store.EntryInfo, error) {
	entries, err := n.browse(object)
	if err != nil {
		return nil, err
	}
	infos := make([]store.EntryInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, store.EntryInfo{
			Name:     e.Name,
			Value:    e.Value,
			Writable: e.Writable,
		})
	}
	return infos, nil
}

func (n *NetStore) browse(object string) ([]wire.Entry, error) {
	resp, err := n.exchange(&wire.Request{
		Operation: wire.OpBrowse,
		Object:    object,
	})
	if err != nil {
		return nil, err
	}
	return wire.ExtractBrowsePayload(resp.Payload)
}

// Read returns a register's current value.
func (n *NetStore) Read(object, variable string) (any, error) {
	resp, err := n.exchange(&wire.Request{
		Operation: wire.OpRead,
		Object:    object,
		Variable:  variable,
	})
	if err != nil {
		return nil, err
	}
	return wire.NormalizeValue(resp.Payload), nil
}

// Write sets a register's value.
func (n *NetStore) Write(object, variable string, value any) error {
	_, err := n.exchange(&wire.Request{
		Operation: wire.OpWrite,
		Object:    object,
		Variable:  variable,
		Value:     value,
	})
	return err
}

// statusToError maps wire status codes back to store errors, so error
// handling is uniform across local and remote stores.
func statusToError(resp *wire.Response) error {
	var base error
	switch resp.Status {
	case wire.StatusNotFoundObject:
		base = store.ErrObjectNotFound
	case wire.StatusNotFoundVariable:
		base = store.ErrVariableNotFound
	case wire.StatusReadOnly:
		base = store.ErrNotWritable
	case wire.StatusTypeMismatch:
		base = store.ErrTypeMismatch
	default:
		base = fmt.Errorf("server error %s", resp.Status)
	}

	if msg := wire.ExtractErrorMessage(resp.Payload); msg != "" {
		return fmt.Errorf("%w: %s", base, msg)
	}
	return base
}

var _ store.Store = (*NetStore)(nil)
