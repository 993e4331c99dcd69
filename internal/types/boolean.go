package types

import "github.com/funvibe/duby/internal/bytecode"

// MaterializeBool turns a conditional jump into a 0/1 value on the stack.
// jump must emit a branch to its argument that is taken when the result is
// true. Whichever way the branch goes, exactly one int is pushed.
func MaterializeBool(b *bytecode.Builder, jump func(target *bytecode.Label)) {
	isTrue := b.NewLabel()
	done := b.NewLabel()

	jump(isTrue)
	b.PushBool(false)
	b.Goto(done)
	b.Mark(isTrue)
	b.PushBool(true)
	b.Mark(done)
}

// BranchBool materializes the outcome of a single branch opcode.
func BranchBool(b *bytecode.Builder, op bytecode.Opcode) {
	MaterializeBool(b, func(target *bytecode.Label) {
		b.Branch(op, target)
	})
}
