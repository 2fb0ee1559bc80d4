package coordinator

import "fmt"

// State is where a module is in the registration pipeline.
type State int

const (
	// StateUnknown: the module was never seen.
	StateUnknown State = iota
	StateDiscovered
	StateScanning
	StateRegistering
	StateRegistered
	// StateRejected: the loaded value was not an extension, had no identity
	// or failed while registering.
	StateRejected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateDiscovered:
		return "discovered"
	case StateScanning:
		return "scanning"
	case StateRegistering:
		return "registering"
	case StateRegistered:
		return "registered"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
