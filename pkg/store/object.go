package store

import (
	"fmt"
	"sync"
)

// EntryInfo describes one variable of an object for enumeration.
type EntryInfo struct {
	Name     string
	Value    any
	Writable bool
}

// Object is a named container of variables, one per device.
// Variables enumerate in declaration order.
type Object struct {
	name string

	mu    sync.RWMutex
	vars  map[string]*Variable
	order []string
}

func newObject(name string) *Object {
	return &Object{
		name: name,
		vars: make(map[string]*Variable),
	}
}

// Name returns the object name.
func (o *Object) Name() string { return o.name }

// DeclareVariable allocates a new variable under the object.
// The kind is inferred from initial; writable=false makes the variable
// write-once (the initial value is final).
func (o *Object) DeclareVariable(name string, initial any, writable bool) (*Variable, error) {
	v, err := newVariable(name, initial, writable)
	if err != nil {
		return nil, fmt.Errorf("declaring %s/%s: %w", o.name, name, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.vars[name]; exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateVariable, o.name, name)
	}
	o.vars[name] = v
	o.order = append(o.order, name)
	return v, nil
}

// Variable returns a variable by name.
func (o *Object) Variable(name string) (*Variable, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	v, exists := o.vars[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrVariableNotFound, o.name, name)
	}
	return v, nil
}

// Variables returns all variables in declaration order.
func (o *Object) Variables() []*Variable {
	o.mu.RLock()
	defer o.mu.RUnlock()

	result := make([]*Variable, 0, len(o.order))
	for _, name := range o.order {
		result = append(result, o.vars[name])
	}
	return result
}

// Children enumerates the object's variables with their current values,
// in declaration order.
func (o *Object) Children() []EntryInfo {
	vars := o.Variables()
	result := make([]EntryInfo, 0, len(vars))
	for _, v := range vars {
		result = append(result, EntryInfo{
			Name:     v.Name(),
			Value:    v.Value(),
			Writable: v.Writable(),
		})
	}
	return result
}

// VariableCount returns the number of declared variables.
func (o *Object) VariableCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.vars)
}
