package compiler

import (
	"errors"
	"testing"

	"github.com/funvibe/duby/internal/ast"
	"github.com/funvibe/duby/internal/bytecode"
	"github.com/funvibe/duby/internal/config"
	"github.com/funvibe/duby/internal/types"
)

func ops(ins []bytecode.Instruction) []bytecode.Opcode {
	var out []bytecode.Opcode
	for _, in := range ins {
		out = append(out, in.Op)
	}
	return out
}

func assertOps(t *testing.T, ins []bytecode.Instruction, want ...bytecode.Opcode) {
	t.Helper()
	got := ops(ins)
	if len(got) != len(want) {
		t.Fatalf("emitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("emitted %v, want %v", got, want)
		}
	}
}

func local(name string) *ast.Local { return &ast.Local{Name: name} }

func call(target ast.Expression, name string, params ...ast.Expression) *ast.Call {
	return &ast.Call{Target: target, Name: name, Params: params}
}

func compile(t *testing.T, c *Compiler, e ast.Expression, expression bool) []bytecode.Instruction {
	t.Helper()
	if err := c.Compile(e, expression); err != nil {
		t.Fatalf("Compile(%s): %v", e, err)
	}
	return c.Builder().Instructions()
}

func TestReferenceComparison(t *testing.T) {
	tests := []struct {
		name  string
		other func(u *types.Universe) types.Type
		op    string
		jump  bytecode.Opcode
	}{
		{"exact", func(u *types.Universe) types.Type { return u.Object }, config.EqualsName, bytecode.OP_IF_ACMPEQ},
		{"assignable", func(u *types.Universe) types.Type { return u.String }, config.EqualsName, bytecode.OP_IF_ACMPEQ},
		{"array", func(u *types.Universe) types.Type { return u.ArrayOf(u.Int) }, config.NotEqualsName, bytecode.OP_IF_ACMPNE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := types.NewUniverse()
			c := New(u)
			c.Declare("a", u.String)
			c.Declare("b", tt.other(u))

			ins := compile(t, c, call(local("a"), tt.op, local("b")), true)
			assertOps(t, ins,
				bytecode.OP_ALOAD, bytecode.OP_ALOAD, tt.jump,
				bytecode.OP_ICONST_0, bytecode.OP_GOTO, bytecode.OP_ICONST_1)
			if ins[0].Operand != 0 || ins[1].Operand != 1 {
				t.Errorf("loaded slots %d, %d", ins[0].Operand, ins[1].Operand)
			}
			if c.Builder().Depth() != 1 || c.Builder().MaxStack() != 2 {
				t.Errorf("depth=%d max=%d", c.Builder().Depth(), c.Builder().MaxStack())
			}
		})
	}
}

func TestNilTestAgainstNullLiteral(t *testing.T) {
	u := types.NewUniverse()
	c := New(u)
	c.Declare("s", u.String)

	ins := compile(t, c, call(local("s"), config.EqualsName, &ast.NullLiteral{}), true)
	assertOps(t, ins,
		bytecode.OP_ALOAD, bytecode.OP_ACONST_NULL, bytecode.OP_IF_ACMPEQ,
		bytecode.OP_ICONST_0, bytecode.OP_GOTO, bytecode.OP_ICONST_1)

	c = New(u)
	c.Declare("s", u.String)
	ins = compile(t, c, call(local("s"), config.NilTestName), true)
	assertOps(t, ins,
		bytecode.OP_ALOAD, bytecode.OP_IFNULL,
		bytecode.OP_ICONST_0, bytecode.OP_GOTO, bytecode.OP_ICONST_1)
}

func TestStatementContextSuppression(t *testing.T) {
	u := types.NewUniverse()
	for _, e := range []ast.Expression{
		call(local("s"), config.NilTestName),
		call(local("s"), config.EqualsName, local("s")),
		call(local("s"), config.NotEqualsName, &ast.NullLiteral{}),
		call(local("s"), config.ConcatName, local("s")),
	} {
		c := New(u)
		c.Declare("s", u.String)
		if ins := compile(t, c, e, false); len(ins) != 0 {
			t.Errorf("%s in statement context emitted %v", e, ops(ins))
		}
	}
}

func TestArrayIndexLeavesValueInStatementContext(t *testing.T) {
	u := types.NewUniverse()
	c := New(u)
	c.Declare("arr", u.ArrayOf(u.Long))
	c.Declare("i", u.Int)

	ins := compile(t, c, call(local("arr"), config.IndexName, local("i")), false)
	assertOps(t, ins, bytecode.OP_ALOAD, bytecode.OP_ILOAD, bytecode.OP_LALOAD)
	if c.Builder().Depth() != 2 {
		t.Errorf("depth = %d, want the long left on the stack", c.Builder().Depth())
	}
}

func TestArrayIndexAssign(t *testing.T) {
	u := types.NewUniverse()

	c := New(u)
	c.Declare("arr", u.ArrayOf(u.Int))
	ins := compile(t, c, call(local("arr"), config.IndexAssignName, &ast.IntLiteral{Value: 0}, &ast.IntLiteral{Value: 7}), true)
	assertOps(t, ins,
		bytecode.OP_ALOAD, bytecode.OP_ICONST_0, bytecode.OP_BIPUSH, bytecode.OP_IASTORE, bytecode.OP_BIPUSH)

	// An int value widens to the component before the store.
	c = New(u)
	c.Declare("arr", u.ArrayOf(u.Long))
	ins = compile(t, c, call(local("arr"), config.IndexAssignName, &ast.IntLiteral{Value: 1}, &ast.IntLiteral{Value: 2}), false)
	assertOps(t, ins,
		bytecode.OP_ALOAD, bytecode.OP_ICONST_1, bytecode.OP_ICONST_2, bytecode.OP_I2L, bytecode.OP_LASTORE)

	c = New(u)
	c.Declare("arr", u.ArrayOf(u.Object))
	ins = compile(t, c, call(local("arr"), config.IndexAssignName, &ast.IntLiteral{Value: 0}, &ast.StringLiteral{Value: "x"}), false)
	assertOps(t, ins,
		bytecode.OP_ALOAD, bytecode.OP_ICONST_0, bytecode.OP_LDC, bytecode.OP_AASTORE)
}

func TestArrayIndexAssignValueWidened(t *testing.T) {
	u := types.NewUniverse()
	c := New(u)
	code, err := c.CompileMethod(&ast.MethodDecl{
		Name:    "fill",
		Static:  true,
		Params:  []ast.Param{{Name: "arr", Type: "long[]"}},
		Returns: "long",
		Body: &ast.Block{Body: []ast.Expression{
			&ast.Return{Value: call(local("arr"), config.IndexAssignName, &ast.IntLiteral{Value: 0}, &ast.IntLiteral{Value: 1})},
		}},
	})
	if err != nil {
		t.Fatalf("CompileMethod: %v", err)
	}
	assertOps(t, code.Instructions,
		bytecode.OP_ALOAD, bytecode.OP_ICONST_0, bytecode.OP_ICONST_1, bytecode.OP_I2L, bytecode.OP_LASTORE,
		bytecode.OP_ICONST_1, bytecode.OP_I2L, bytecode.OP_LRETURN)

	c = New(u)
	c.Declare("arr", u.ArrayOf(u.Double))
	ins := compile(t, c, &ast.Assign{
		Name:  "x",
		Value: call(local("arr"), config.IndexAssignName, &ast.IntLiteral{Value: 0}, &ast.IntLiteral{Value: 2}),
	}, true)
	assertOps(t, ins,
		bytecode.OP_ALOAD, bytecode.OP_ICONST_0, bytecode.OP_ICONST_2, bytecode.OP_I2D, bytecode.OP_DASTORE,
		bytecode.OP_ICONST_2, bytecode.OP_I2D, bytecode.OP_DUP2, bytecode.OP_DSTORE)
	if c.Builder().Err() != nil || c.Builder().Depth() != 2 {
		t.Errorf("depth=%d err=%v", c.Builder().Depth(), c.Builder().Err())
	}
}

func TestArrayLength(t *testing.T) {
	u := types.NewUniverse()
	c := New(u)
	c.Declare("arr", u.ArrayOf(u.ArrayOf(u.Char)))
	ins := compile(t, c, call(local("arr"), config.LengthName), true)
	assertOps(t, ins, bytecode.OP_ALOAD, bytecode.OP_ARRAYLENGTH)
}

func TestBlockTargetDeclaresLocals(t *testing.T) {
	u := types.NewUniverse()
	c := New(u)
	c.Declare("x", u.ArrayOf(u.Int))
	block := &ast.Block{Body: []ast.Expression{
		&ast.Assign{Name: "b", Value: local("x")},
		local("b"),
	}}

	typ, err := c.TypeOf(block)
	if err != nil || typ != u.ArrayOf(u.Int) {
		t.Fatalf("TypeOf = %v, %v", typ, err)
	}
	if _, ok := c.Resolve("b"); ok {
		t.Errorf("typing the block declared b")
	}

	ins := compile(t, c, call(block, config.LengthName), true)
	assertOps(t, ins, bytecode.OP_ALOAD, bytecode.OP_ASTORE, bytecode.OP_ALOAD, bytecode.OP_ARRAYLENGTH)
	if ins[1].Operand != 1 || ins[2].Operand != 1 {
		t.Errorf("b stored in %d, loaded from %d", ins[1].Operand, ins[2].Operand)
	}
}

func TestStringConcat(t *testing.T) {
	u := types.NewUniverse()
	c := New(u)
	c.Declare("a", u.String)
	ins := compile(t, c, call(local("a"), config.ConcatName, &ast.StringLiteral{Value: "!"}), true)
	assertOps(t, ins, bytecode.OP_ALOAD, bytecode.OP_LDC, bytecode.OP_INVOKEVIRTUAL)
	ref := ins[2].Ref
	if ref.Owner != "java/lang/String" || ref.Name != "concat" || ref.Descriptor != "(Ljava/lang/String;)Ljava/lang/String;" {
		t.Errorf("invoked %s", ref)
	}
}

func TestMethodFallback(t *testing.T) {
	u := types.NewUniverse()
	c := New(u)
	c.Declare("s", u.String)

	ins := compile(t, c, call(local("s"), config.LengthMethodName), false)
	assertOps(t, ins, bytecode.OP_ALOAD, bytecode.OP_INVOKEVIRTUAL, bytecode.OP_POP)
	if ins[1].Ref.String() != "java/lang/String.length()I" {
		t.Errorf("invoked %s", ins[1].Ref)
	}

	// Inherited from java.lang.Object, with a String argument for an
	// Object parameter.
	c = New(u)
	c.Declare("s", u.String)
	ins = compile(t, c, call(local("s"), config.EqualsMethodName, local("s")), true)
	assertOps(t, ins, bytecode.OP_ALOAD, bytecode.OP_ALOAD, bytecode.OP_INVOKEVIRTUAL)
	if ins[2].Ref.Owner != "java/lang/Object" {
		t.Errorf("invoked %s", ins[2].Ref)
	}
}

func TestMethodArgumentWidening(t *testing.T) {
	u := types.NewUniverse()
	box, err := u.Class("com.example.Box")
	if err != nil {
		t.Fatalf("Class: %v", err)
	}
	u.AddMethod(box, "put", []types.Type{u.Long, u.Double}, u.Void, false)

	c := New(u)
	c.Declare("b", box)
	c.Declare("i", u.Int)
	ins := compile(t, c, call(local("b"), "put", local("i"), &ast.IntLiteral{Value: 3}), false)
	assertOps(t, ins,
		bytecode.OP_ALOAD, bytecode.OP_ILOAD, bytecode.OP_I2L,
		bytecode.OP_ICONST_3, bytecode.OP_I2D, bytecode.OP_INVOKEVIRTUAL)
	if c.Builder().Depth() != 0 {
		t.Errorf("depth = %d after void call", c.Builder().Depth())
	}
}

func TestIntrinsicsWinOverMethods(t *testing.T) {
	u := types.NewUniverse()
	u.AddMethod(u.String, config.ConcatName, []types.Type{u.String}, u.String, false)
	c := New(u)
	c.Declare("a", u.String)
	// The intrinsic is suppressed in statement context; a method call would
	// have emitted an invocation and a pop.
	if ins := compile(t, c, call(local("a"), config.ConcatName, local("a")), false); len(ins) != 0 {
		t.Errorf("emitted %v", ops(ins))
	}
}

func TestAssign(t *testing.T) {
	u := types.NewUniverse()
	c := New(u)
	c.Declare("n", u.Long)

	ins := compile(t, c, &ast.Assign{Name: "n", Value: &ast.IntLiteral{Value: 1}}, true)
	assertOps(t, ins, bytecode.OP_ICONST_1, bytecode.OP_I2L, bytecode.OP_DUP2, bytecode.OP_LSTORE)

	ins = compile(t, c, &ast.Assign{Name: "s", Value: &ast.StringLiteral{Value: "x"}}, false)
	assertOps(t, ins[4:], bytecode.OP_LDC, bytecode.OP_ASTORE)
	l, ok := c.Resolve("s")
	if !ok || l.Type != u.String || l.Slot != 2 {
		t.Errorf("declared %+v", l)
	}
	if ins[5].Operand != 2 {
		t.Errorf("stored slot %d, want 2", ins[5].Operand)
	}

	err := c.Compile(&ast.Assign{Name: "n", Value: &ast.StringLiteral{Value: "x"}}, false)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("err = %v, want ErrTypeMismatch", err)
	}
}

func TestCompileErrors(t *testing.T) {
	u := types.NewUniverse()
	tests := []struct {
		name string
		expr ast.Expression
		want error
	}{
		{"undefined local", call(local("missing"), config.NilTestName), ErrUndefinedLocal},
		{"primitive target", call(local("i"), config.EqualsName, &ast.NullLiteral{}), types.ErrNoMethod},
		{"wrong arity", call(local("s"), config.EqualsName), types.ErrNoMethod},
		{"index with string", call(local("arr"), config.IndexName, local("s")), types.ErrNoMethod},
		{"empty block value", &ast.Block{}, ErrVoidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(u)
			c.Declare("i", u.Int)
			c.Declare("s", u.String)
			c.Declare("arr", u.ArrayOf(u.Int))

			err := c.Compile(tt.expr, true)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %T, want *CompileError", err)
			}
		})
	}
}

func TestCompileErrorNamesInnermostNode(t *testing.T) {
	u := types.NewUniverse()
	c := New(u)
	c.Declare("arr", u.ArrayOf(u.Int))
	inner := call(local("nope"), config.LengthName)
	err := c.Compile(&ast.Block{Body: []ast.Expression{call(local("arr"), config.IndexName, inner)}}, false)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v", err)
	}
	if ce.Node != ast.Node(inner.Target) && ce.Node != ast.Node(inner) {
		t.Errorf("error names %s", ce.Node)
	}
}

func TestCompileMethod(t *testing.T) {
	u := types.NewUniverse()
	if _, err := u.Class("com.example.Box"); err != nil {
		t.Fatalf("Class: %v", err)
	}
	c := New(u)

	code, err := c.CompileMethod(&ast.MethodDecl{
		Owner:   "com.example.Box",
		Name:    "count",
		Params:  []ast.Param{{Name: "seed", Type: "long"}, {Name: "items", Type: "int[]"}},
		Returns: "int",
		Body:    &ast.Block{Body: []ast.Expression{call(local("items"), config.LengthName)}},
	})
	if err != nil {
		t.Fatalf("CompileMethod: %v", err)
	}
	assertOps(t, code.Instructions, bytecode.OP_ALOAD, bytecode.OP_ARRAYLENGTH, bytecode.OP_IRETURN)
	if code.Instructions[0].Operand != 3 {
		t.Errorf("items loaded from slot %d, want 3", code.Instructions[0].Operand)
	}
	if code.MaxLocals != 4 || code.MaxStack != 1 {
		t.Errorf("max_locals=%d max_stack=%d", code.MaxLocals, code.MaxStack)
	}

	box, _ := u.Parse("com.example.Box")
	if m, ok := box.Method("count", u.Long, u.ArrayOf(u.Int)); !ok || m.Return != u.Int {
		t.Errorf("method not declared on owner: %v", m)
	}
}

func TestCompileMethodReturns(t *testing.T) {
	u := types.NewUniverse()
	c := New(u)

	code, err := c.CompileMethod(&ast.MethodDecl{
		Name:   "touch",
		Static: true,
		Params: []ast.Param{{Name: "s", Type: "String"}},
		Body:   &ast.Block{Body: []ast.Expression{call(local("s"), config.HashCodeMethodName)}},
	})
	if err != nil {
		t.Fatalf("CompileMethod: %v", err)
	}
	assertOps(t, code.Instructions, bytecode.OP_ALOAD, bytecode.OP_INVOKEVIRTUAL, bytecode.OP_POP, bytecode.OP_RETURN)

	code, err = c.CompileMethod(&ast.MethodDecl{
		Name:   "early",
		Static: true,
		Body:   &ast.Block{Body: []ast.Expression{&ast.Return{}}},
	})
	if err != nil {
		t.Fatalf("CompileMethod: %v", err)
	}
	assertOps(t, code.Instructions, bytecode.OP_RETURN)

	code, err = c.CompileMethod(&ast.MethodDecl{
		Name:    "wide",
		Static:  true,
		Returns: "long",
		Body:    &ast.Block{Body: []ast.Expression{&ast.Return{Value: &ast.IntLiteral{Value: 4}}}},
	})
	if err != nil {
		t.Fatalf("CompileMethod: %v", err)
	}
	assertOps(t, code.Instructions, bytecode.OP_ICONST_4, bytecode.OP_I2L, bytecode.OP_LRETURN)

	_, err = c.CompileMethod(&ast.MethodDecl{Name: "none", Static: true, Returns: "int", Body: &ast.Block{}})
	if !errors.Is(err, ErrMissingReturn) {
		t.Errorf("err = %v, want ErrMissingReturn", err)
	}

	_, err = c.CompileMethod(&ast.MethodDecl{
		Name:   "bad",
		Static: true,
		Body:   &ast.Block{Body: []ast.Expression{&ast.Return{Value: &ast.IntLiteral{Value: 1}}}},
	})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("err = %v, want ErrTypeMismatch", err)
	}

	if _, err = c.CompileMethod(&ast.MethodDecl{Name: "orphan", Body: &ast.Block{}}); err == nil {
		t.Errorf("instance method without owner compiled")
	}
}

func TestCompiledMethodAssembles(t *testing.T) {
	u := types.NewUniverse()
	c := New(u)
	code, err := c.CompileMethod(&ast.MethodDecl{
		Name:    "same",
		Static:  true,
		Params:  []ast.Param{{Name: "a", Type: "String[]"}, {Name: "b", Type: "Object"}},
		Returns: "boolean",
		Body: &ast.Block{Body: []ast.Expression{
			&ast.Assign{Name: "first", Value: call(local("a"), config.IndexName, &ast.IntLiteral{Value: 0})},
			call(local("first"), config.EqualsName, local("b")),
		}},
	})
	if err != nil {
		t.Fatalf("CompileMethod: %v", err)
	}
	raw, err := bytecode.Assemble(code)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	// aload_0 iconst_0 aaload astore_2 aload_2 aload_1 if_acmpeq iconst_0 goto iconst_1 ireturn
	if len(raw) != 2+1+1+2+2+2+3+1+3+1+1 {
		t.Errorf("assembled %d bytes: % x", len(raw), raw)
	}
	if code.MaxLocals != 3 || code.MaxStack != 2 {
		t.Errorf("max_locals=%d max_stack=%d", code.MaxLocals, code.MaxStack)
	}
}

func TestPoolSharedAcrossMethods(t *testing.T) {
	u := types.NewUniverse()
	c := New(u)
	decl := func(name string) *ast.MethodDecl {
		return &ast.MethodDecl{
			Name:    name,
			Static:  true,
			Params:  []ast.Param{{Name: "s", Type: "String"}},
			Returns: "String",
			Body: &ast.Block{Body: []ast.Expression{
				call(local("s"), config.ConcatName, &ast.StringLiteral{Value: "-"}),
			}},
		}
	}
	first, err := c.CompileMethod(decl("a"))
	if err != nil {
		t.Fatalf("a: %v", err)
	}
	n := c.Pool().Len()
	second, err := c.CompileMethod(decl("b"))
	if err != nil {
		t.Fatalf("b: %v", err)
	}
	if first.Pool != second.Pool || c.Pool().Len() != n {
		t.Errorf("pool grew from %d to %d", n, c.Pool().Len())
	}
}
