package core

import "fmt"

var (
	// ErrAgentNotFound is returned by registry lookups when no agent with the
	// given name has been registered. Calling Execute with an unknown agent is
	// a programmer-contract violation, not a routing failure.
	ErrAgentNotFound = fmt.Errorf("agent not found")

	// ErrFunctionNotFound is returned when an agent exists but does not expose
	// the named data function.
	ErrFunctionNotFound = fmt.Errorf("function not found")
)

// ValidationError reports a malformed Message at construction time. It is the
// only failure in this module that surfaces as a raised error during normal
// operation; everything that happens after construction is reported as a
// returned error-kind Message or a no-match result.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid message: %s: %s", e.Field, e.Reason)
}
