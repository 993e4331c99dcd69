package compiler

import (
	"fmt"

	"github.com/funvibe/duby/internal/ast"
	"github.com/funvibe/duby/internal/types"
)

// Compile emits n into the current body. With expression set, n's value is
// left on the stack; otherwise only its effects are compiled. A call whose
// intrinsic leaves a value in statement context is not popped.
func (c *Compiler) Compile(n types.Node, expression bool) error {
	e, err := expressionOf(n)
	if err != nil {
		return err
	}
	return wrap(e, c.compileExpression(e, expression))
}

func (c *Compiler) compileExpression(expr ast.Expression, expression bool) error {
	b := c.builder
	switch e := expr.(type) {
	case *ast.Local:
		l, ok := c.Resolve(e.Name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUndefinedLocal, e.Name)
		}
		if expression {
			l.Type.Load(b, l.Slot)
		}
		return nil

	case *ast.NullLiteral:
		if expression {
			b.PushNull()
		}
		return nil

	case *ast.IntLiteral:
		if expression {
			b.PushInt(e.Value)
		}
		return nil

	case *ast.BoolLiteral:
		if expression {
			b.PushBool(e.Value)
		}
		return nil

	case *ast.StringLiteral:
		if expression {
			b.PushString(e.Value)
		}
		return nil

	case *ast.Call:
		return c.compileCall(e, expression)

	case *ast.Assign:
		return c.compileAssign(e, expression)

	case *ast.Return:
		return c.compileReturn(e)

	case *ast.Block:
		return c.compileBlock(e, expression)
	}
	return fmt.Errorf("%w: %T", ErrUnknownNode, expr)
}

// compileAssign stores into an existing local, widening the value to the
// local's type, or declares a new local of the value's type.
func (c *Compiler) compileAssign(e *ast.Assign, expression bool) error {
	l, ok := c.Resolve(e.Name)
	if !ok {
		t, err := c.valueType(e.Value)
		if err != nil {
			return err
		}
		if err := c.Compile(e.Value, true); err != nil {
			return err
		}
		l = Local{Name: e.Name, Type: t, Slot: c.Declare(e.Name, t)}
	} else if err := c.convert(e.Value, l.Type); err != nil {
		return err
	}

	if expression {
		c.builder.Dup(types.Size(l.Type))
	}
	l.Type.Store(c.builder, l.Slot)
	return nil
}

func (c *Compiler) compileReturn(e *ast.Return) error {
	if c.returns == c.universe.Void {
		if e.Value != nil {
			return fmt.Errorf("%w: void method returns %s", ErrTypeMismatch, e.Value)
		}
		c.returns.Return(c.builder)
		return nil
	}
	if e.Value == nil {
		return fmt.Errorf("%w: want %s", ErrMissingReturn, c.returns.Name())
	}
	if err := c.convert(e.Value, c.returns); err != nil {
		return err
	}
	c.returns.Return(c.builder)
	return nil
}

// compileBlock compiles every expression but the last in statement context.
func (c *Compiler) compileBlock(e *ast.Block, expression bool) error {
	if len(e.Body) == 0 {
		if expression {
			return ErrVoidValue
		}
		return nil
	}
	last := len(e.Body) - 1
	for _, s := range e.Body[:last] {
		if err := c.Compile(s, false); err != nil {
			return err
		}
	}
	return c.Compile(e.Body[last], expression)
}
