package store

import (
	"fmt"
	"sync"
)

// Kind represents the value kind a variable holds.
// The kind is fixed at declaration time and inferred from the initial value.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Normalize converts a value into the store's canonical representation:
// bool, int64, float64 or string. Integer widths collapse to int64 and
// float32 widens to float64 so that values survive a codec round trip
// unchanged. Returns ErrUnsupportedKind for anything else.
func Normalize(value any) (any, Kind, error) {
	switch v := value.(type) {
	case bool:
		return v, KindBool, nil
	case int:
		return int64(v), KindInt, nil
	case int8:
		return int64(v), KindInt, nil
	case int16:
		return int64(v), KindInt, nil
	case int32:
		return int64(v), KindInt, nil
	case int64:
		return v, KindInt, nil
	case uint:
		return int64(v), KindInt, nil
	case uint8:
		return int64(v), KindInt, nil
	case uint16:
		return int64(v), KindInt, nil
	case uint32:
		return int64(v), KindInt, nil
	case uint64:
		return int64(v), KindInt, nil
	case float32:
		return float64(v), KindFloat, nil
	case float64:
		return v, KindFloat, nil
	case string:
		return v, KindString, nil
	default:
		return nil, 0, fmt.Errorf("%w: %T", ErrUnsupportedKind, value)
	}
}

// Variable is a named, typed slot belonging to one object.
// Reads and writes are individually atomic.
type Variable struct {
	name     string
	kind     Kind
	writable bool

	mu    sync.RWMutex
	value any
}

func newVariable(name string, initial any, writable bool) (*Variable, error) {
	value, kind, err := Normalize(initial)
	if err != nil {
		return nil, err
	}
	return &Variable{
		name:     name,
		kind:     kind,
		writable: writable,
		value:    value,
	}, nil
}

// Name returns the variable name.
func (v *Variable) Name() string { return v.name }

// Kind returns the value kind fixed at declaration.
func (v *Variable) Kind() Kind { return v.kind }

// Writable reports whether external writers may set the variable.
func (v *Variable) Writable() bool { return v.writable }

// Value returns the current value.
func (v *Variable) Value() any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Bool returns the value as a bool, or false if the kind differs.
func (v *Variable) Bool() bool {
	b, _ := v.Value().(bool)
	return b
}

// Int returns the value as an int64, or 0 if the kind differs.
func (v *Variable) Int() int64 {
	n, _ := v.Value().(int64)
	return n
}

// Float returns the value as a float64, or 0 if the kind differs.
func (v *Variable) Float() float64 {
	f, _ := v.Value().(float64)
	return f
}

// SetValue sets the value on behalf of an external writer.
// Returns ErrNotWritable for variables declared read-only at setup
// (metadata registers) and ErrTypeMismatch if the value kind differs
// from the declared kind.
func (v *Variable) SetValue(value any) error {
	if !v.writable {
		return fmt.Errorf("%w: %s", ErrNotWritable, v.name)
	}
	return v.setValue(value)
}

// SetValueInternal sets the value without the writable check.
// Used by the device that owns the variable.
func (v *Variable) SetValueInternal(value any) error {
	return v.setValue(value)
}

func (v *Variable) setValue(value any) error {
	norm, kind, err := Normalize(value)
	if err != nil {
		return err
	}
	if kind != v.kind {
		return fmt.Errorf("%w: %s holds %s, got %s", ErrTypeMismatch, v.name, v.kind, kind)
	}

	v.mu.Lock()
	v.value = norm
	v.mu.Unlock()
	return nil
}
