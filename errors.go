package loom

import (
	"errors"
	"fmt"
)

// Catalog errors
var (
	// ErrFunctionNotFound is wrapped by FunctionNotFoundError. Use errors.Is
	// to test for it without caring about the missing name.
	ErrFunctionNotFound = errors.New("function not found in catalog")

	// ErrAmbiguousFunction is wrapped by AmbiguousFunctionError.
	ErrAmbiguousFunction = errors.New("bare function name is ambiguous")

	// ErrDuplicateFunction is wrapped by DuplicateFunctionError.
	ErrDuplicateFunction = errors.New("function already registered")
)

// FunctionNotFoundError reports a function reference that resolved to nothing,
// either during template rendering or during function-call dispatch.
type FunctionNotFoundError struct {
	// Name is the reference as written by the caller or the model,
	// e.g. "search" or "web-search".
	Name string
}

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("function %q not found in catalog", e.Name)
}

// Unwrap makes errors.Is(err, ErrFunctionNotFound) work.
func (e *FunctionNotFoundError) Unwrap() error { return ErrFunctionNotFound }

// AmbiguousFunctionError reports a bare (unqualified) function name that
// matches entries in more than one plugin. The caller must qualify the
// reference with a plugin name.
type AmbiguousFunctionError struct {
	Name    string
	Plugins []string // plugins that define a function with this name
}

func (e *AmbiguousFunctionError) Error() string {
	return fmt.Sprintf(
		"function %q is ambiguous: defined by plugins %v, qualify the name",
		e.Name, e.Plugins,
	)
}

func (e *AmbiguousFunctionError) Unwrap() error { return ErrAmbiguousFunction }

// DuplicateFunctionError reports a registration conflict: two catalog entries
// with the same (plugin, function) pair. This is a setup-time error.
type DuplicateFunctionError struct {
	Plugin   string
	Function string
}

func (e *DuplicateFunctionError) Error() string {
	return fmt.Sprintf(
		"function %s.%s is already registered", e.Plugin, e.Function,
	)
}

func (e *DuplicateFunctionError) Unwrap() error { return ErrDuplicateFunction }
