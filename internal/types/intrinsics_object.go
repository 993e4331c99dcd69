package types

import (
	"github.com/funvibe/duby/internal/bytecode"
	"github.com/funvibe/duby/internal/config"
)

// contributeObject registers the intrinsics shared by every reference type.
func contributeObject(r *Registry, u *Universe) {
	r.Register(config.NilTestName, nil, u.Boolean, nilTest)
	r.Register(config.EqualsName, []Type{u.Object}, u.Boolean, referenceEqual)
	r.Register(config.NotEqualsName, []Type{u.Object}, u.Boolean, referenceNotEqual)
}

// The comparison intrinsics compile nothing in statement context, so side
// effects of the target or parameter are dropped with the result.

func nilTest(c Compiler, call *CallSite, expression bool) error {
	if !expression {
		return nil
	}
	if err := c.Compile(call.Target, true); err != nil {
		return err
	}
	BranchBool(c.Builder(), bytecode.OP_IFNULL)
	return nil
}

func referenceEqual(c Compiler, call *CallSite, expression bool) error {
	return compareReferences(c, call, expression, bytecode.OP_IF_ACMPEQ)
}

func referenceNotEqual(c Compiler, call *CallSite, expression bool) error {
	return compareReferences(c, call, expression, bytecode.OP_IF_ACMPNE)
}

func compareReferences(c Compiler, call *CallSite, expression bool, op bytecode.Opcode) error {
	if !expression {
		return nil
	}
	if err := requireParams(call, 1); err != nil {
		return err
	}
	if err := c.Compile(call.Target, true); err != nil {
		return err
	}
	if err := c.Compile(call.Params[0], true); err != nil {
		return err
	}
	BranchBool(c.Builder(), op)
	return nil
}
