package store

import "errors"

// Store errors.
var (
	// ErrDuplicateObject indicates an object with the same name exists.
	ErrDuplicateObject = errors.New("duplicate object name")

	// ErrDuplicateVariable indicates a variable with the same name exists.
	ErrDuplicateVariable = errors.New("duplicate variable name")

	// ErrObjectNotFound indicates the named object does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrVariableNotFound indicates the named variable does not exist.
	ErrVariableNotFound = errors.New("variable not found")

	// ErrNotWritable indicates a write to a variable declared read-only.
	ErrNotWritable = errors.New("variable is not writable")

	// ErrTypeMismatch indicates a value of the wrong kind for the variable.
	ErrTypeMismatch = errors.New("value kind mismatch")

	// ErrBadPath indicates a malformed child path.
	ErrBadPath = errors.New("malformed path")

	// ErrUnsupportedKind indicates a value kind the store cannot hold.
	ErrUnsupportedKind = errors.New("unsupported value kind")
)
