package types

import (
	"github.com/funvibe/duby/internal/bytecode"
	"github.com/funvibe/duby/internal/config"
)

func contributeArray(r *Registry, t *ArrayType) {
	u := t.universe
	r.Register(config.IndexName, []Type{u.Int}, t.component, t.index)
	r.Register(config.IndexAssignName, []Type{u.Int, t.component}, t.component, t.indexAssign)
	r.Register(config.LengthName, nil, u.Int, t.length)
}

// elementFamily picks the element opcodes: primitive components use their
// own family, every reference component shares aaload/aastore.
func (t *ArrayType) elementFamily() bytecode.Family {
	if t.component.IsPrimitive() {
		return bytecode.FamilyOf(t.component.Kind())
	}
	return bytecode.FamilyOf(bytecode.KindReference)
}

// index always leaves the element on the stack, even in statement context.
func (t *ArrayType) index(c Compiler, call *CallSite, expression bool) error {
	if err := requireParams(call, 1); err != nil {
		return err
	}
	if err := c.Compile(call.Target, true); err != nil {
		return err
	}
	if err := c.Compile(call.Params[0], true); err != nil {
		return err
	}
	c.Builder().Emit(t.elementFamily().ArrayLoad)
	return nil
}

// indexAssign yields the assigned value by compiling the value parameter a
// second time after the store, so its side effects happen twice. Both
// copies are widened to the component type.
func (t *ArrayType) indexAssign(c Compiler, call *CallSite, expression bool) error {
	if err := requireParams(call, 2); err != nil {
		return err
	}
	if err := c.Compile(call.Target, true); err != nil {
		return err
	}
	if err := c.ConvertArgs(call.Params, []Type{t.universe.Int, t.component}); err != nil {
		return err
	}
	c.Builder().Emit(t.elementFamily().ArrayStore)
	if expression {
		return c.ConvertArgs(call.Params[1:], []Type{t.component})
	}
	return nil
}

func (t *ArrayType) length(c Compiler, call *CallSite, expression bool) error {
	if err := c.Compile(call.Target, true); err != nil {
		return err
	}
	c.Builder().Emit(bytecode.OP_ARRAYLENGTH)
	return nil
}
