package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMethod is returned when no intrinsic or declared method matches a call.
	ErrNoMethod = errors.New("no such method")
	// ErrArity is returned when a call site has the wrong number of parameters.
	ErrArity = errors.New("wrong number of arguments")
	// ErrUnknownType is returned when a type name cannot be resolved.
	ErrUnknownType = errors.New("unknown type")
)

// requireParams guards handlers against call sites the caller failed to
// match against the intrinsic's signature.
func requireParams(call *CallSite, n int) error {
	if len(call.Params) != n {
		return fmt.Errorf("%w: %s takes %d, got %d", ErrArity, call.Name, n, len(call.Params))
	}
	return nil
}
