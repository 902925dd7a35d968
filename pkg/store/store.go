package store

// Store is the register store capability consumed by devices and clients:
// typed get/set of a named value under an object, plus child enumeration.
// Implemented in-process by *Namespace and remotely by the client's
// network adapter.
type Store interface {
	// ListObjects returns the object names under the root.
	ListObjects() ([]string, error)

	// ListChildren enumerates an object's variables with current values.
	ListChildren(object string) ([]EntryInfo, error)

	// Read returns the current value of object/variable.
	Read(object, variable string) (any, error)

	// Write sets the value of object/variable.
	// Writes to read-only variables fail with ErrNotWritable.
	Write(object, variable string, value any) error
}

// Compile-time check: *Namespace implements Store.
var _ Store = (*Namespace)(nil)
