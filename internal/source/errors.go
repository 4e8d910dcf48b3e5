package source

import "fmt"

// MalformedInputError reports a file the row reader could not parse.
type MalformedInputError struct {
	Path string
	Line int // 0 when the failure is not tied to a line
	Err  error
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed input %s (line %d): %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("malformed input %s: %v", e.Path, e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// DependencyUnavailableError reports a format whose reader is not compiled in.
type DependencyUnavailableError struct {
	Capability string
	Hint       string
}

func (e *DependencyUnavailableError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("dependency unavailable: %s support is not built in", e.Capability)
	}
	return fmt.Sprintf("dependency unavailable: %s support is not built in (%s)", e.Capability, e.Hint)
}
