package wire

// Operation represents a protocol operation.
type Operation uint8

const (
	// OpBrowse lists the children of an object, or the objects
	// themselves when the object name is empty.
	OpBrowse Operation = 1

	// OpRead gets the current value of a single register.
	OpRead Operation = 2

	// OpWrite sets the value of a single register.
	OpWrite Operation = 3
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpBrowse:
		return "Browse"
	case OpRead:
		return "Read"
	case OpWrite:
		return "Write"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the operation is a known protocol operation.
func (o Operation) IsValid() bool {
	return o >= OpBrowse && o <= OpWrite
}
