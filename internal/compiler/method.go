package compiler

import (
	"fmt"

	"github.com/funvibe/duby/internal/ast"
	"github.com/funvibe/duby/internal/bytecode"
	"github.com/funvibe/duby/internal/config"
	"github.com/funvibe/duby/internal/types"
)

// CompileMethod compiles decl into a fresh body. The method is declared on
// its owner first, so the body may call itself. An instance method's
// receiver is the local self in slot 0; parameters follow, long and
// double taking two slots each.
//
// A non-void body that does not end in return returns the value of its
// last expression. A void body gets an implicit return when its end is
// reachable.
func (c *Compiler) CompileMethod(decl *ast.MethodDecl) (*bytecode.Code, error) {
	c.reset()

	params := make([]types.Type, len(decl.Params))
	for i, p := range decl.Params {
		t, err := c.universe.Parse(p.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %s: %w", decl, p.Name, err)
		}
		if t == c.universe.Void {
			return nil, fmt.Errorf("%s: parameter %s: %w", decl, p.Name, ErrVoidValue)
		}
		params[i] = t
	}
	ret := types.Type(c.universe.Void)
	if decl.Returns != "" {
		t, err := c.universe.Parse(decl.Returns)
		if err != nil {
			return nil, fmt.Errorf("%s: return type: %w", decl, err)
		}
		ret = t
	}
	c.returns = ret

	if decl.Owner != "" {
		owner, err := c.universe.Parse(decl.Owner)
		if err != nil {
			return nil, fmt.Errorf("%s: owner: %w", decl, err)
		}
		if owner.IsPrimitive() {
			return nil, fmt.Errorf("%s: owner %s is not a class", decl, owner.Name())
		}
		c.universe.AddMethod(owner, decl.Name, params, ret, decl.Static)
		if !decl.Static {
			c.Declare(config.SelfName, owner)
		}
	} else if !decl.Static {
		return nil, fmt.Errorf("%s: instance method without an owner", decl)
	}
	for i, p := range decl.Params {
		c.Declare(p.Name, params[i])
	}

	if err := c.compileBody(decl.Body); err != nil {
		return nil, err
	}
	return c.builder.Finish()
}

func (c *Compiler) compileBody(body *ast.Block) error {
	if body == nil {
		body = &ast.Block{}
	}
	if c.returns == c.universe.Void {
		if err := c.Compile(body, false); err != nil {
			return err
		}
		if c.builder.Reachable() {
			c.returns.Return(c.builder)
		}
		return nil
	}

	if err := c.compileTail(body); err != nil {
		return err
	}
	if c.builder.Reachable() {
		return wrap(body, fmt.Errorf("%w: want %s", ErrMissingReturn, c.returns.Name()))
	}
	return nil
}

// compileTail compiles e as the end of a non-void body, returning the
// value of its last expression.
func (c *Compiler) compileTail(e ast.Expression) error {
	switch e := e.(type) {
	case *ast.Block:
		if len(e.Body) == 0 {
			return nil
		}
		last := len(e.Body) - 1
		for _, s := range e.Body[:last] {
			if err := c.Compile(s, false); err != nil {
				return err
			}
		}
		return c.compileTail(e.Body[last])
	case *ast.Return:
		return c.Compile(e, false)
	}
	return c.Compile(&ast.Return{Value: e}, false)
}
