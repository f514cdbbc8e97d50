package normalize

import "fmt"

// ParseError reports a malformed document. It is fatal: normalization
// stops at the first one and no model is returned.
type ParseError struct {
	Location string // document location, e.g. "paths./orders.get.parameters[0]"
	Reason   string
}

func (e *ParseError) Error() string {
	if e.Location == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Location, e.Reason)
}

// ReferenceResolutionError is the ParseError raised for a dangling or
// circular internal reference. errors.As with *ParseError matches it.
type ReferenceResolutionError struct {
	ParseError
	Ref string // the $ref value that failed to resolve
}

func (e *ReferenceResolutionError) Error() string {
	return fmt.Sprintf("%s: reference %q: %s", e.Location, e.Ref, e.Reason)
}

func (e *ReferenceResolutionError) Unwrap() error {
	return &e.ParseError
}

func parseErrorf(location, format string, args ...any) *ParseError {
	return &ParseError{Location: location, Reason: fmt.Sprintf(format, args...)}
}

func refErrorf(location, ref, format string, args ...any) *ReferenceResolutionError {
	return &ReferenceResolutionError{
		ParseError: ParseError{Location: location, Reason: fmt.Sprintf(format, args...)},
		Ref:        ref,
	}
}
