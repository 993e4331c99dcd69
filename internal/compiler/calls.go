package compiler

import (
	"fmt"
	"strings"

	"github.com/funvibe/duby/internal/ast"
	"github.com/funvibe/duby/internal/types"
)

// resolution is the target a call site compiles to: exactly one of
// intrinsic and method is set.
type resolution struct {
	intrinsic *types.Intrinsic
	method    *types.Method
}

func (r *resolution) returns() types.Type {
	if r.intrinsic != nil {
		return r.intrinsic.Return
	}
	return r.method.Return
}

func (r *resolution) String() string {
	if r.intrinsic != nil {
		return "intrinsic " + r.intrinsic.String()
	}
	return "method " + r.method.String()
}

// TypeOf returns the static type of e.
func (c *Compiler) TypeOf(e ast.Expression) (types.Type, error) {
	u := c.universe
	switch e := e.(type) {
	case *ast.Local:
		l, ok := c.Resolve(e.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUndefinedLocal, e.Name)
		}
		return l.Type, nil
	case *ast.NullLiteral:
		return u.Object, nil
	case *ast.IntLiteral:
		return u.Int, nil
	case *ast.BoolLiteral:
		return u.Boolean, nil
	case *ast.StringLiteral:
		return u.String, nil
	case *ast.Call:
		r, err := c.resolve(e)
		if err != nil {
			return nil, err
		}
		return r.returns(), nil
	case *ast.Assign:
		if l, ok := c.Resolve(e.Name); ok {
			return l.Type, nil
		}
		return c.valueType(e.Value)
	case *ast.Return:
		return u.Void, nil
	case *ast.Block:
		return c.blockType(e)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownNode, e)
}

// blockType types the last expression of b with the locals that b's
// leading assignments declare in scope. Those locals are only visible
// while typing; compiling the block declares them for real.
func (c *Compiler) blockType(b *ast.Block) (types.Type, error) {
	if len(b.Body) == 0 {
		return c.universe.Void, nil
	}
	mark := len(c.locals)
	defer func() { c.locals = c.locals[:mark] }()

	last := len(b.Body) - 1
	for _, s := range b.Body[:last] {
		a, ok := s.(*ast.Assign)
		if !ok {
			continue
		}
		if _, ok := c.Resolve(a.Name); ok {
			continue
		}
		t, err := c.valueType(a.Value)
		if err != nil {
			return nil, err
		}
		c.locals = append(c.locals, Local{Name: a.Name, Type: t, Slot: -1})
	}
	return c.TypeOf(b.Body[last])
}

// valueType is TypeOf for expressions whose value is consumed.
func (c *Compiler) valueType(e ast.Expression) (types.Type, error) {
	t, err := c.TypeOf(e)
	if err != nil {
		return nil, err
	}
	if t == c.universe.Void {
		return nil, fmt.Errorf("%w: %s", ErrVoidValue, e)
	}
	return t, nil
}

// accepts reports whether e, of static type from, may be passed where to
// is declared. The null literal fits every reference type.
func accepts(e ast.Expression, from, to types.Type) bool {
	if _, ok := e.(*ast.NullLiteral); ok {
		return !to.IsPrimitive()
	}
	return types.Assignable(from, to)
}

func acceptsAll(params []ast.Expression, have, want []types.Type) bool {
	if len(have) != len(want) {
		return false
	}
	for i := range have {
		if !accepts(params[i], have[i], want[i]) {
			return false
		}
	}
	return true
}

// resolve picks the intrinsic or method a call compiles to. Intrinsics win
// over declared methods; exact signatures win over assignable ones.
func (c *Compiler) resolve(call *ast.Call) (*resolution, error) {
	if r, ok := c.calls[call]; ok {
		return r, nil
	}

	target, err := c.valueType(call.Target)
	if err != nil {
		return nil, wrap(call.Target, err)
	}
	params := make([]types.Type, len(call.Params))
	for i, p := range call.Params {
		if params[i], err = c.valueType(p); err != nil {
			return nil, wrap(p, err)
		}
	}

	r, err := lookup(target, call, params)
	if err != nil {
		return nil, err
	}
	c.calls[call] = r
	return r, nil
}

func lookup(target types.Type, call *ast.Call, params []types.Type) (*resolution, error) {
	reg := target.Intrinsics()
	if in, ok := reg.Lookup(call.Name, params...); ok {
		return &resolution{intrinsic: in}, nil
	}
	for _, in := range reg.Candidates(call.Name) {
		if acceptsAll(call.Params, params, in.Params) {
			return &resolution{intrinsic: in}, nil
		}
	}
	if m, ok := target.Method(call.Name, params...); ok {
		return &resolution{method: m}, nil
	}
	for _, m := range target.Methods(call.Name) {
		if acceptsAll(call.Params, params, m.Params) {
			return &resolution{method: m}, nil
		}
	}

	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name()
	}
	return nil, fmt.Errorf("%w: %s.%s(%s)", types.ErrNoMethod, target.Name(), call.Name, strings.Join(names, ", "))
}

func (c *Compiler) compileCall(call *ast.Call, expression bool) error {
	r, err := c.resolve(call)
	if err != nil {
		return err
	}
	if expression && r.returns() == c.universe.Void {
		return fmt.Errorf("%w: %s", ErrVoidValue, r)
	}
	site := &types.CallSite{
		Target: call.Target,
		Name:   call.Name,
		Params: nodes(call.Params),
	}
	if r.intrinsic != nil {
		return r.intrinsic.Call(c, site, expression)
	}
	return r.method.Call(c, site, expression)
}

// ConvertArgs compiles each parameter and widens it to the declared type.
func (c *Compiler) ConvertArgs(params []types.Node, want []types.Type) error {
	if len(params) != len(want) {
		return fmt.Errorf("%w: want %d, got %d", types.ErrArity, len(want), len(params))
	}
	for i, n := range params {
		e, err := expressionOf(n)
		if err != nil {
			return err
		}
		if err := c.convert(e, want[i]); err != nil {
			return err
		}
	}
	return nil
}

// convert compiles e for its value and widens it to want.
func (c *Compiler) convert(e ast.Expression, want types.Type) error {
	have, err := c.valueType(e)
	if err != nil {
		return wrap(e, err)
	}
	if !accepts(e, have, want) {
		return wrap(e, fmt.Errorf("%w: %s is not assignable to %s", ErrTypeMismatch, have.Name(), want.Name()))
	}
	if err := c.Compile(e, true); err != nil {
		return err
	}
	for _, op := range types.WideningOps(have, want) {
		c.builder.Emit(op)
	}
	return nil
}
