package store

import (
	"fmt"
	"strings"
	"sync"
)

// Namespace is the root of the register store: an ordered set of objects
// addressed by name, plus path resolution down to individual variables.
type Namespace struct {
	uri string

	mu      sync.RWMutex
	objects map[string]*Object
	order   []string
}

// NewNamespace creates an empty namespace identified by uri.
func NewNamespace(uri string) *Namespace {
	return &Namespace{
		uri:     uri,
		objects: make(map[string]*Object),
	}
}

// URI returns the namespace identifier.
func (n *Namespace) URI() string { return n.uri }

// CreateObject allocates a new object under the namespace root.
// Returns ErrDuplicateObject if the name is taken.
func (n *Namespace) CreateObject(name string) (*Object, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.objects[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateObject, name)
	}
	obj := newObject(name)
	n.objects[name] = obj
	n.order = append(n.order, name)
	return obj, nil
}

// Object returns an object by name.
func (n *Namespace) Object(name string) (*Object, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	obj, exists := n.objects[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, name)
	}
	return obj, nil
}

// Objects returns all objects in creation order.
func (n *Namespace) Objects() []*Object {
	n.mu.RLock()
	defer n.mu.RUnlock()

	result := make([]*Object, 0, len(n.order))
	for _, name := range n.order {
		result = append(result, n.objects[name])
	}
	return result
}

// ResolveChild resolves an "object/variable" path to a variable.
func (n *Namespace) ResolveChild(path string) (*Variable, error) {
	objName, varName, ok := strings.Cut(path, "/")
	if !ok || objName == "" || varName == "" {
		return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
	}

	obj, err := n.Object(objName)
	if err != nil {
		return nil, err
	}
	return obj.Variable(varName)
}

// Store capability implementation. The same surface is provided remotely
// by the client's network adapter; consumers depending on Store work
// against either.

// ListObjects returns object names in creation order.
func (n *Namespace) ListObjects() ([]string, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	names := make([]string, len(n.order))
	copy(names, n.order)
	return names, nil
}

// ListChildren enumerates the variables of an object with current values.
func (n *Namespace) ListChildren(object string) ([]EntryInfo, error) {
	obj, err := n.Object(object)
	if err != nil {
		return nil, err
	}
	return obj.Children(), nil
}

// Read returns the current value of object/variable.
func (n *Namespace) Read(object, variable string) (any, error) {
	obj, err := n.Object(object)
	if err != nil {
		return nil, err
	}
	v, err := obj.Variable(variable)
	if err != nil {
		return nil, err
	}
	return v.Value(), nil
}

// Write sets the value of object/variable, honoring the writable flag.
func (n *Namespace) Write(object, variable string, value any) error {
	obj, err := n.Object(object)
	if err != nil {
		return err
	}
	v, err := obj.Variable(variable)
	if err != nil {
		return err
	}
	return v.SetValue(value)
}
