package client

// Schema maps the client's logical register roles to the register
// names a server actually exposes. Servers built from older firmware
// use different names for the same roles.
type Schema struct {
	// State is the on/pressed register.
	State string

	// Count is the activation counter register.
	Count string

	// Time is the last-state-change timestamp register.
	Time string
}

// DefaultSchema matches the canonical register names.
var DefaultSchema = Schema{
	State: "State",
	Count: "Count",
	Time:  "LastStateChange",
}

// LegacySchema matches the names used by older deployments.
var LegacySchema = Schema{
	State: "Pressed",
	Count: "PressCount",
	Time:  "LastToggleTime",
}

// orDefault fills empty fields from DefaultSchema so a partially
// specified schema stays usable.
func (s Schema) orDefault() Schema {
	if s.State == "" {
		s.State = DefaultSchema.State
	}
	if s.Count == "" {
		s.Count = DefaultSchema.Count
	}
	if s.Time == "" {
		s.Time = DefaultSchema.Time
	}
	return s
}
