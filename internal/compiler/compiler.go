// Package compiler lowers typed ast nodes to JVM bytecode. Calls are
// resolved against the target type's intrinsics first and fall back to
// ordinary method invocations.
package compiler

import (
	"fmt"

	"github.com/funvibe/duby/internal/ast"
	"github.com/funvibe/duby/internal/bytecode"
	"github.com/funvibe/duby/internal/types"
)

// Local is a named local variable slot.
type Local struct {
	Name string
	Type types.Type
	Slot int
}

// Compiler compiles one method body at a time. Every body shares the
// compiler's constant pool. A Compiler is not safe for concurrent use.
type Compiler struct {
	universe *types.Universe
	pool     *bytecode.Pool
	builder  *bytecode.Builder

	locals   []Local
	nextSlot int
	returns  types.Type

	// Resolved call targets, keyed by call node. Resolution depends only on
	// the local types in scope, which do not change within a body.
	calls map[*ast.Call]*resolution
}

// New creates a compiler for types of u.
func New(u *types.Universe) *Compiler {
	c := &Compiler{
		universe: u,
		pool:     bytecode.NewPool(),
	}
	c.reset()
	return c
}

func (c *Compiler) reset() {
	c.builder = bytecode.NewBuilderWithPool(c.pool)
	c.locals = c.locals[:0]
	c.nextSlot = 0
	c.returns = c.universe.Void
	c.calls = make(map[*ast.Call]*resolution)
}

// Universe returns the types the compiler resolves against.
func (c *Compiler) Universe() *types.Universe { return c.universe }

// Pool returns the constant pool shared by every compiled body.
func (c *Compiler) Pool() *bytecode.Pool { return c.pool }

// Builder returns the body currently being emitted.
func (c *Compiler) Builder() *bytecode.Builder { return c.builder }

// Declare adds a local of type t in the next free slot and returns the
// slot. Redeclaring a name shadows the earlier local.
func (c *Compiler) Declare(name string, t types.Type) int {
	slot := c.nextSlot
	c.locals = append(c.locals, Local{Name: name, Type: t, Slot: slot})
	c.nextSlot += types.Size(t)
	c.builder.ReserveLocals(c.nextSlot)
	return slot
}

// Resolve looks up a local by name, innermost declaration first.
func (c *Compiler) Resolve(name string) (Local, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return c.locals[i], true
		}
	}
	return Local{}, false
}

// Locals returns the declared locals in declaration order.
func (c *Compiler) Locals() []Local {
	return append([]Local(nil), c.locals...)
}

func expressionOf(n types.Node) (ast.Expression, error) {
	e, ok := n.(ast.Expression)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknownNode, n)
	}
	return e, nil
}

func nodes(exprs []ast.Expression) []types.Node {
	out := make([]types.Node, len(exprs))
	for i, e := range exprs {
		out[i] = e
	}
	return out
}
