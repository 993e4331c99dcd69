package bytecode

import (
	"errors"
	"fmt"
	"math"
)

// Label is a branch target inside one method body.
type Label struct {
	id         int
	pos        int // instruction index, -1 while unbound
	depth      int
	depthKnown bool
}

// ID returns the label's number within its builder.
func (l *Label) ID() int { return l.id }

// Bound reports whether the label has been marked.
func (l *Label) Bound() bool { return l.pos >= 0 }

// Pos returns the index of the instruction the label is bound to.
func (l *Label) Pos() int { return l.pos }

// Instruction is one emitted instruction. Operand holds the local slot,
// immediate value or constant pool index depending on the opcode.
type Instruction struct {
	Op      Opcode
	Operand int
	Target  *Label
	Ref     *MethodRef
}

func (in Instruction) String() string {
	switch {
	case in.Target != nil:
		return fmt.Sprintf("%s L%d", in.Op, in.Target.id)
	case in.Ref != nil:
		return fmt.Sprintf("%s %s", in.Op, in.Ref)
	case Opcodes[in.Op].Operand != OperandNone:
		return fmt.Sprintf("%s %d", in.Op, in.Operand)
	}
	return in.Op.String()
}

var (
	ErrStackUnderflow = errors.New("operand stack underflow")
	ErrStackMismatch  = errors.New("inconsistent stack depth at label")
	ErrUnboundLabel   = errors.New("label never bound")
	ErrLabelRebound   = errors.New("label bound twice")
)

// Builder accumulates the instructions of one method body. It tracks the
// operand stack depth across labels so that MaxStack can be reported
// without a separate flow pass. A Builder is not safe for concurrent use.
type Builder struct {
	code      []Instruction
	labels    []*Label
	pool      *Pool
	depth     int
	maxStack  int
	maxLocals int
	reachable bool
	err       error
}

// NewBuilder creates a builder with its own constant pool.
func NewBuilder() *Builder {
	return NewBuilderWithPool(NewPool())
}

// NewBuilderWithPool creates a builder that shares pool with other methods
// of the same class.
func NewBuilderWithPool(pool *Pool) *Builder {
	return &Builder{pool: pool, reachable: true}
}

// Pool returns the constant pool instructions refer to.
func (b *Builder) Pool() *Pool { return b.pool }

// Instructions returns the instructions emitted so far.
func (b *Builder) Instructions() []Instruction { return b.code }

// Len returns the number of instructions emitted so far.
func (b *Builder) Len() int { return len(b.code) }

// Depth returns the current operand stack depth in words.
func (b *Builder) Depth() int { return b.depth }

// MaxStack returns the deepest operand stack seen so far.
func (b *Builder) MaxStack() int { return b.maxStack }

// ReserveLocals records that the method uses at least n local slots.
func (b *Builder) ReserveLocals(n int) {
	if n > b.maxLocals {
		b.maxLocals = n
	}
}

// Reachable reports whether the next instruction can be reached by falling
// through from the previous one.
func (b *Builder) Reachable() bool { return b.reachable }

// Err returns the first error recorded while emitting.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) adjust(pops, pushes int) {
	if !b.reachable {
		return
	}
	if b.depth < pops {
		b.fail(fmt.Errorf("%w: instruction %d pops %d with depth %d", ErrStackUnderflow, len(b.code), pops, b.depth))
		b.depth = 0
	} else {
		b.depth -= pops
	}
	b.depth += pushes
	if b.depth > b.maxStack {
		b.maxStack = b.depth
	}
}

func (b *Builder) append(in Instruction, pops, pushes int) {
	b.code = append(b.code, in)
	b.adjust(pops, pushes)
	if in.Op.IsTerminal() {
		b.reachable = false
	}
}

// NewLabel allocates an unbound label.
func (b *Builder) NewLabel() *Label {
	l := &Label{id: len(b.labels), pos: -1}
	b.labels = append(b.labels, l)
	return l
}

func (b *Builder) merge(l *Label) {
	if !b.reachable {
		return
	}
	if !l.depthKnown {
		l.depth = b.depth
		l.depthKnown = true
		return
	}
	if l.depth != b.depth {
		b.fail(fmt.Errorf("%w: L%d expects %d, got %d", ErrStackMismatch, l.id, l.depth, b.depth))
	}
}

// Mark binds l to the next instruction.
func (b *Builder) Mark(l *Label) {
	if l.pos >= 0 {
		b.fail(fmt.Errorf("%w: L%d", ErrLabelRebound, l.id))
		return
	}
	l.pos = len(b.code)
	if b.reachable {
		b.merge(l)
		return
	}
	b.reachable = true
	if l.depthKnown {
		b.depth = l.depth
	} else {
		b.depth = 0
		l.depth = 0
		l.depthKnown = true
	}
}

// Emit appends an instruction without operands.
func (b *Builder) Emit(op Opcode) {
	info, ok := Opcodes[op]
	if !ok || info.Operand != OperandNone {
		b.fail(fmt.Errorf("opcode %s cannot be emitted without an operand", op))
		return
	}
	b.append(Instruction{Op: op}, info.Pops, info.Pushes)
}

// EmitVar appends a local variable load or store.
func (b *Builder) EmitVar(op Opcode, slot int) {
	info := Opcodes[op]
	if info.Operand != OperandVar {
		b.fail(fmt.Errorf("opcode %s does not take a local slot", op))
		return
	}
	if slot < 0 || slot > math.MaxUint16 {
		b.fail(fmt.Errorf("local slot %d out of range", slot))
		return
	}
	b.append(Instruction{Op: op, Operand: slot}, info.Pops, info.Pushes)
}

// Branch appends a conditional or unconditional jump to l.
func (b *Builder) Branch(op Opcode, l *Label) {
	info := Opcodes[op]
	if info.Operand != OperandBranch {
		b.fail(fmt.Errorf("opcode %s is not a branch", op))
		return
	}
	b.code = append(b.code, Instruction{Op: op, Target: l})
	b.adjust(info.Pops, info.Pushes)
	b.merge(l)
	if op == OP_GOTO {
		b.reachable = false
	}
}

// Goto appends an unconditional jump to l.
func (b *Builder) Goto(l *Label) { b.Branch(OP_GOTO, l) }

// PushNull pushes the null reference.
func (b *Builder) PushNull() { b.Emit(OP_ACONST_NULL) }

// PushBool pushes 1 for true and 0 for false.
func (b *Builder) PushBool(v bool) {
	if v {
		b.Emit(OP_ICONST_1)
	} else {
		b.Emit(OP_ICONST_0)
	}
}

// PushInt pushes an int constant using the shortest encoding.
func (b *Builder) PushInt(v int32) {
	switch {
	case v >= -1 && v <= 5:
		b.Emit(Opcode(int(OP_ICONST_0) + int(v)))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		b.append(Instruction{Op: OP_BIPUSH, Operand: int(v)}, 0, 1)
	case v >= math.MinInt16 && v <= math.MaxInt16:
		b.append(Instruction{Op: OP_SIPUSH, Operand: int(v)}, 0, 1)
	default:
		b.ldc(b.pool.AddInt(v))
	}
}

// PushString pushes a string constant from the pool.
func (b *Builder) PushString(s string) {
	b.ldc(b.pool.AddString(s))
}

func (b *Builder) ldc(idx int) {
	op := OP_LDC
	if idx > math.MaxUint8 {
		op = OP_LDC_W
	}
	b.append(Instruction{Op: op, Operand: idx}, 0, 1)
}

// Invoke appends a method invocation. The stack effect is derived from the
// descriptor; non-static invocations also consume the receiver.
func (b *Builder) Invoke(op Opcode, ref *MethodRef) {
	if !op.IsInvoke() {
		b.fail(fmt.Errorf("opcode %s is not an invocation", op))
		return
	}
	args, ret, err := DescriptorWords(ref.Descriptor)
	if err != nil {
		b.fail(err)
		return
	}
	if op != OP_INVOKESTATIC {
		args++
	}
	idx := b.pool.AddMethod(ref)
	b.append(Instruction{Op: op, Operand: idx, Ref: ref}, args, ret)
}

// Pop discards a value of the given size in words.
func (b *Builder) Pop(words int) {
	switch words {
	case 0:
	case 1:
		b.Emit(OP_POP)
	case 2:
		b.Emit(OP_POP2)
	default:
		b.fail(fmt.Errorf("cannot pop %d words", words))
	}
}

// Dup duplicates a value of the given size in words.
func (b *Builder) Dup(words int) {
	switch words {
	case 1:
		b.Emit(OP_DUP)
	case 2:
		b.Emit(OP_DUP2)
	default:
		b.fail(fmt.Errorf("cannot dup %d words", words))
	}
}

// Code is a finished method body.
type Code struct {
	Instructions []Instruction
	Labels       []*Label
	Pool         *Pool
	MaxStack     int
	MaxLocals    int
}

// Finish validates the body and returns it. Every allocated label must be
// bound.
func (b *Builder) Finish() (*Code, error) {
	if b.err != nil {
		return nil, b.err
	}
	for _, l := range b.labels {
		if l.pos < 0 {
			return nil, fmt.Errorf("%w: L%d", ErrUnboundLabel, l.id)
		}
	}
	return &Code{
		Instructions: b.code,
		Labels:       b.labels,
		Pool:         b.pool,
		MaxStack:     b.maxStack,
		MaxLocals:    b.maxLocals,
	}, nil
}
