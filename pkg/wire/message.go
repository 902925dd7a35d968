package wire

import (
	"fmt"
)

// CBOR map keys for message encoding.
const (
	KeyMessageID  = 1
	KeyOpOrStatus = 2 // Operation (request) or Status (response)
	KeyObject     = 3
	KeyVariable   = 4
	KeyPayload    = 5 // request value; in responses the payload is key 3
)

// MessageID 0 is reserved for future unsolicited messages; requests
// must use a nonzero id.
const ReservedMessageID uint32 = 0

// Request represents a request message from client to server.
//
// CBOR encoding:
//
//	{
//	  1: messageId,  // uint32, nonzero
//	  2: operation,  // uint8: 1=Browse, 2=Read, 3=Write
//	  3: object,     // string: device name ("" browses the root)
//	  4: variable,   // string: register name (Read/Write only)
//	  5: value       // Write only: the value to set
//	}
type Request struct {
	MessageID uint32    `cbor:"1,keyasint"`
	Operation Operation `cbor:"2,keyasint"`
	Object    string    `cbor:"3,keyasint,omitempty"`
	Variable  string    `cbor:"4,keyasint,omitempty"`
	Value     any       `cbor:"5,keyasint,omitempty"`
}

// Validate checks if the request is well formed.
func (r *Request) Validate() error {
	if r.MessageID == ReservedMessageID {
		return fmt.Errorf("messageId 0 is reserved")
	}
	if !r.Operation.IsValid() {
		return fmt.Errorf("invalid operation: %d", r.Operation)
	}
	switch r.Operation {
	case OpRead, OpWrite:
		if r.Object == "" {
			return fmt.Errorf("%s requires an object name", r.Operation)
		}
		if r.Variable == "" {
			return fmt.Errorf("%s requires a variable name", r.Operation)
		}
	}
	return nil
}

// Response represents a response message from server to client.
//
// CBOR encoding:
//
//	{
//	  1: messageId,  // uint32: matches the request
//	  2: status,     // uint8: 0=success, or error code
//	  3: payload     // operation-specific data (if success)
//	}
type Response struct {
	MessageID uint32 `cbor:"1,keyasint"`
	Status    Status `cbor:"2,keyasint"`
	Payload   any    `cbor:"3,keyasint,omitempty"`
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// Entry describes one browse result: a register with its current value,
// or a device (Value nil, Writable false) at the root.
//
// CBOR encoding:
//
//	{
//	  1: name,      // string
//	  2: value,     // register value (absent for devices)
//	  3: writable   // bool
//	}
type Entry struct {
	Name     string `cbor:"1,keyasint"`
	Value    any    `cbor:"2,keyasint,omitempty"`
	Writable bool   `cbor:"3,keyasint,omitempty"`
}

// BrowsePayload is the payload of a successful Browse response.
type BrowsePayload struct {
	Entries []Entry `cbor:"1,keyasint"`
}

// NormalizeValue collapses the raw types produced by CBOR decoding
// into the canonical register value types. CBOR integers decode as
// uint64 or int64 depending on sign; registers carry int64.
func NormalizeValue(v any) any {
	switch n := v.(type) {
	case uint64:
		return int64(n)
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint32:
		return int64(n)
	case float32:
		return float64(n)
	}
	return v
}

// ExtractBrowsePayload extracts browse entries from a decoded response
// payload. After a CBOR round-trip the payload is a raw map
// (map[any]any with uint64 keys), not *BrowsePayload, so both forms
// are handled.
func ExtractBrowsePayload(payload any) ([]Entry, error) {
	if payload == nil {
		return nil, nil
	}

	// Typed form (used before encoding)
	if bp, ok := payload.(*BrowsePayload); ok {
		return bp.Entries, nil
	}

	// Raw CBOR map: {uint64(1): []any{map[any]any{...}, ...}}
	var arr []any
	switch m := payload.(type) {
	case map[any]any:
		if v, ok := m[uint64(1)]; ok {
			arr, _ = v.([]any)
		}
	case map[uint64]any:
		if v, ok := m[uint64(1)]; ok {
			arr, _ = v.([]any)
		}
	default:
		return nil, fmt.Errorf("unexpected browse payload type %T", payload)
	}

	entries := make([]Entry, 0, len(arr))
	for _, item := range arr {
		raw, ok := item.(map[any]any)
		if !ok {
			return nil, fmt.Errorf("unexpected browse entry type %T", item)
		}
		var e Entry
		if v, ok := raw[uint64(1)].(string); ok {
			e.Name = v
		}
		if v, ok := raw[uint64(2)]; ok {
			e.Value = NormalizeValue(v)
		}
		if v, ok := raw[uint64(3)].(bool); ok {
			e.Writable = v
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ErrorPayload carries additional error information in a response.
//
// CBOR encoding:
//
//	{
//	  1: message  // string: human-readable error message
//	}
type ErrorPayload struct {
	Message string `cbor:"1,keyasint,omitempty"`
}

// ExtractErrorMessage extracts the error message from a decoded
// response payload, if one is present.
func ExtractErrorMessage(payload any) string {
	if payload == nil {
		return ""
	}
	if ep, ok := payload.(*ErrorPayload); ok {
		return ep.Message
	}
	switch m := payload.(type) {
	case map[any]any:
		if v, ok := m[uint64(1)].(string); ok {
			return v
		}
	case map[uint64]any:
		if v, ok := m[1].(string); ok {
			return v
		}
	}
	return ""
}
