package template

import (
	"errors"
	"fmt"
)

// Sentinel error kinds reported while loading, parsing, or compiling a
// template. Wrapped errors carry source locations; match the kind with
// [errors.Is].
var (
	// ErrCyclicInclude reports an include chain that returns to a file
	// already being spliced.
	ErrCyclicInclude = errors.New("tshader: cyclic include")

	// ErrUnresolvedInclude reports an include whose target cannot be
	// resolved against the including file or any include directory.
	ErrUnresolvedInclude = errors.New("tshader: unresolved include")

	// ErrDirectiveSyntax reports a malformed directive line, expression,
	// counter spec, or annotation marker.
	ErrDirectiveSyntax = errors.New("tshader: directive syntax error")

	// ErrUnbalancedConditional reports a conditional directive without a
	// matching opener, or an if left open at end of document.
	ErrUnbalancedConditional = errors.New("tshader: unbalanced conditional")

	// ErrUnknownScope reports a placeholder or annotation marker that
	// names a scope with no counter-backed declaration in scope.
	ErrUnknownScope = errors.New("tshader: unknown scope reference")

	// ErrCounterSpecConflict reports a scope redeclared with a different
	// counter specification.
	ErrCounterSpecConflict = errors.New("tshader: counter spec conflict")

	// ErrDuplicateSlot reports the same numeric slot resolved twice in
	// one scope. Slot counters only move forward, so this indicates an
	// internal invariant violation rather than a template mistake.
	ErrDuplicateSlot = errors.New("tshader: duplicate slot assignment")
)

// Error is a template processing error tied to a source location.
// The location names the spliced file and its 1-based line number,
// so errors inside included files point at the included file itself.
type Error struct {
	Kind   error  // one of the sentinel kinds above
	Path   string // file the error occurred in
	Line   int    // 1-based line number within Path, 0 if unknown
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path == "" {
		return e.Detail
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Detail)
}

// Unwrap returns the sentinel kind, making the kind matchable with
// errors.Is through any number of outer wrappings.
func (e *Error) Unwrap() error { return e.Kind }

// errorf builds an *Error at the given location.
func errorf(kind error, path string, line int, format string, args ...any) *Error {
	return &Error{
		Kind:   kind,
		Path:   path,
		Line:   line,
		Detail: fmt.Sprintf(format, args...),
	}
}
