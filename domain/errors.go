package domain

import "fmt"

// ValidationError reports user input that was rejected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// InvalidColumnError is returned for column identifiers outside the closed set.
type InvalidColumnError struct {
	Value string
}

func (e *InvalidColumnError) Error() string {
	return fmt.Sprintf("invalid column %q", e.Value)
}

// InvalidCommandError is returned when a wire command cannot be decoded into
// one of the typed commands.
type InvalidCommandError struct {
	Type   string
	Reason string
}

func (e *InvalidCommandError) Error() string {
	if e.Type == "" {
		return "invalid command: " + e.Reason
	}
	return fmt.Sprintf("invalid %s command: %s", e.Type, e.Reason)
}
