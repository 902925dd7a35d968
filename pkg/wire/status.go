package wire

// Status represents a response status code.
type Status uint8

const (
	// StatusSuccess indicates the operation completed successfully.
	StatusSuccess Status = 0

	// StatusNotFoundObject indicates the named object doesn't exist.
	StatusNotFoundObject Status = 1

	// StatusNotFoundVariable indicates the named register doesn't exist
	// on the object.
	StatusNotFoundVariable Status = 2

	// StatusReadOnly indicates an attempt to write a read-only register.
	StatusReadOnly Status = 3

	// StatusTypeMismatch indicates a write value of the wrong type.
	StatusTypeMismatch Status = 4

	// StatusBadRequest indicates a malformed or unsupported request.
	StatusBadRequest Status = 5
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusNotFoundObject:
		return "NOT_FOUND_OBJECT"
	case StatusNotFoundVariable:
		return "NOT_FOUND_VARIABLE"
	case StatusReadOnly:
		return "READ_ONLY"
	case StatusTypeMismatch:
		return "TYPE_MISMATCH"
	case StatusBadRequest:
		return "BAD_REQUEST"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusSuccess
}
