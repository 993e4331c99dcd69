package compiler

import (
	"errors"
	"fmt"

	"github.com/funvibe/duby/internal/ast"
)

var (
	ErrUndefinedLocal = errors.New("undefined local")
	ErrVoidValue      = errors.New("void value used as an expression")
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrMissingReturn  = errors.New("missing return")
	ErrUnknownNode    = errors.New("unsupported node")
)

// CompileError reports the node whose compilation failed.
type CompileError struct {
	Node ast.Node
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compiling %s: %v", e.Node, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// wrap attaches n to err unless an inner node already claimed it.
func wrap(n ast.Node, err error) error {
	if err == nil {
		return nil
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		return err
	}
	return &CompileError{Node: n, Err: err}
}
