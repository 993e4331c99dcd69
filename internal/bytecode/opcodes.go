// Package bytecode implements the subset of the JVM instruction set emitted
// by the duby compiler: opcodes, the kind → opcode family table, a method
// builder with labels, an assembler and a disassembler.
package bytecode

// Opcode represents a single JVM instruction. Values are the real JVM encodings.
type Opcode byte

const (
	OP_NOP         Opcode = 0x00
	OP_ACONST_NULL Opcode = 0x01
	OP_ICONST_M1   Opcode = 0x02
	OP_ICONST_0    Opcode = 0x03
	OP_ICONST_1    Opcode = 0x04
	OP_ICONST_2    Opcode = 0x05
	OP_ICONST_3    Opcode = 0x06
	OP_ICONST_4    Opcode = 0x07
	OP_ICONST_5    Opcode = 0x08
	OP_LCONST_0    Opcode = 0x09
	OP_LCONST_1    Opcode = 0x0a
	OP_FCONST_0    Opcode = 0x0b
	OP_FCONST_1    Opcode = 0x0c
	OP_FCONST_2    Opcode = 0x0d
	OP_DCONST_0    Opcode = 0x0e
	OP_DCONST_1    Opcode = 0x0f
	OP_BIPUSH      Opcode = 0x10
	OP_SIPUSH      Opcode = 0x11
	OP_LDC         Opcode = 0x12
	OP_LDC_W       Opcode = 0x13

	// Local variable loads
	OP_ILOAD Opcode = 0x15
	OP_LLOAD Opcode = 0x16
	OP_FLOAD Opcode = 0x17
	OP_DLOAD Opcode = 0x18
	OP_ALOAD Opcode = 0x19

	// Array element loads
	OP_IALOAD Opcode = 0x2e
	OP_LALOAD Opcode = 0x2f
	OP_FALOAD Opcode = 0x30
	OP_DALOAD Opcode = 0x31
	OP_AALOAD Opcode = 0x32
	OP_BALOAD Opcode = 0x33
	OP_CALOAD Opcode = 0x34
	OP_SALOAD Opcode = 0x35

	// Local variable stores
	OP_ISTORE Opcode = 0x36
	OP_LSTORE Opcode = 0x37
	OP_FSTORE Opcode = 0x38
	OP_DSTORE Opcode = 0x39
	OP_ASTORE Opcode = 0x3a

	// Array element stores
	OP_IASTORE Opcode = 0x4f
	OP_LASTORE Opcode = 0x50
	OP_FASTORE Opcode = 0x51
	OP_DASTORE Opcode = 0x52
	OP_AASTORE Opcode = 0x53
	OP_BASTORE Opcode = 0x54
	OP_CASTORE Opcode = 0x55
	OP_SASTORE Opcode = 0x56

	// Stack manipulation
	OP_POP  Opcode = 0x57
	OP_POP2 Opcode = 0x58
	OP_DUP  Opcode = 0x59
	OP_DUP2 Opcode = 0x5c

	// Widening conversions
	OP_I2L Opcode = 0x85
	OP_I2F Opcode = 0x86
	OP_I2D Opcode = 0x87
	OP_L2F Opcode = 0x89
	OP_L2D Opcode = 0x8a
	OP_F2D Opcode = 0x8d

	// Branches
	OP_IFEQ      Opcode = 0x99
	OP_IFNE      Opcode = 0x9a
	OP_IF_ACMPEQ Opcode = 0xa5
	OP_IF_ACMPNE Opcode = 0xa6
	OP_GOTO      Opcode = 0xa7

	// Returns
	OP_IRETURN Opcode = 0xac
	OP_LRETURN Opcode = 0xad
	OP_FRETURN Opcode = 0xae
	OP_DRETURN Opcode = 0xaf
	OP_ARETURN Opcode = 0xb0
	OP_RETURN  Opcode = 0xb1

	// Invocation
	OP_INVOKEVIRTUAL Opcode = 0xb6
	OP_INVOKESPECIAL Opcode = 0xb7
	OP_INVOKESTATIC  Opcode = 0xb8

	OP_ARRAYLENGTH Opcode = 0xbe
	OP_WIDE        Opcode = 0xc4
	OP_IFNULL      Opcode = 0xc6
	OP_IFNONNULL   Opcode = 0xc7
)

// OperandShape describes the bytes that follow an opcode.
type OperandShape int

const (
	OperandNone   OperandShape = iota
	OperandVar                 // local slot, 1 byte (or 2 after WIDE)
	OperandByte                // signed immediate byte
	OperandShort               // signed immediate short
	OperandPool1               // 1-byte constant pool index
	OperandPool2               // 2-byte constant pool index
	OperandBranch              // signed 16-bit offset relative to the opcode
)

// OpcodeInfo describes how an opcode is encoded and how it moves the operand
// stack. Pops and Pushes are in JVM words; invocations are computed from the
// method reference instead.
type OpcodeInfo struct {
	Name    string
	Operand OperandShape
	Pops    int
	Pushes  int
}

// Opcodes maps every supported opcode to its info.
var Opcodes = map[Opcode]OpcodeInfo{
	OP_NOP:         {"nop", OperandNone, 0, 0},
	OP_ACONST_NULL: {"aconst_null", OperandNone, 0, 1},
	OP_ICONST_M1:   {"iconst_m1", OperandNone, 0, 1},
	OP_ICONST_0:    {"iconst_0", OperandNone, 0, 1},
	OP_ICONST_1:    {"iconst_1", OperandNone, 0, 1},
	OP_ICONST_2:    {"iconst_2", OperandNone, 0, 1},
	OP_ICONST_3:    {"iconst_3", OperandNone, 0, 1},
	OP_ICONST_4:    {"iconst_4", OperandNone, 0, 1},
	OP_ICONST_5:    {"iconst_5", OperandNone, 0, 1},
	OP_LCONST_0:    {"lconst_0", OperandNone, 0, 2},
	OP_LCONST_1:    {"lconst_1", OperandNone, 0, 2},
	OP_FCONST_0:    {"fconst_0", OperandNone, 0, 1},
	OP_FCONST_1:    {"fconst_1", OperandNone, 0, 1},
	OP_FCONST_2:    {"fconst_2", OperandNone, 0, 1},
	OP_DCONST_0:    {"dconst_0", OperandNone, 0, 2},
	OP_DCONST_1:    {"dconst_1", OperandNone, 0, 2},
	OP_BIPUSH:      {"bipush", OperandByte, 0, 1},
	OP_SIPUSH:      {"sipush", OperandShort, 0, 1},
	OP_LDC:         {"ldc", OperandPool1, 0, 1},
	OP_LDC_W:       {"ldc_w", OperandPool2, 0, 1},

	OP_ILOAD: {"iload", OperandVar, 0, 1},
	OP_LLOAD: {"lload", OperandVar, 0, 2},
	OP_FLOAD: {"fload", OperandVar, 0, 1},
	OP_DLOAD: {"dload", OperandVar, 0, 2},
	OP_ALOAD: {"aload", OperandVar, 0, 1},

	OP_IALOAD: {"iaload", OperandNone, 2, 1},
	OP_LALOAD: {"laload", OperandNone, 2, 2},
	OP_FALOAD: {"faload", OperandNone, 2, 1},
	OP_DALOAD: {"daload", OperandNone, 2, 2},
	OP_AALOAD: {"aaload", OperandNone, 2, 1},
	OP_BALOAD: {"baload", OperandNone, 2, 1},
	OP_CALOAD: {"caload", OperandNone, 2, 1},
	OP_SALOAD: {"saload", OperandNone, 2, 1},

	OP_ISTORE: {"istore", OperandVar, 1, 0},
	OP_LSTORE: {"lstore", OperandVar, 2, 0},
	OP_FSTORE: {"fstore", OperandVar, 1, 0},
	OP_DSTORE: {"dstore", OperandVar, 2, 0},
	OP_ASTORE: {"astore", OperandVar, 1, 0},

	OP_IASTORE: {"iastore", OperandNone, 3, 0},
	OP_LASTORE: {"lastore", OperandNone, 4, 0},
	OP_FASTORE: {"fastore", OperandNone, 3, 0},
	OP_DASTORE: {"dastore", OperandNone, 4, 0},
	OP_AASTORE: {"aastore", OperandNone, 3, 0},
	OP_BASTORE: {"bastore", OperandNone, 3, 0},
	OP_CASTORE: {"castore", OperandNone, 3, 0},
	OP_SASTORE: {"sastore", OperandNone, 3, 0},

	OP_POP:  {"pop", OperandNone, 1, 0},
	OP_POP2: {"pop2", OperandNone, 2, 0},
	OP_DUP:  {"dup", OperandNone, 1, 2},
	OP_DUP2: {"dup2", OperandNone, 2, 4},

	OP_I2L: {"i2l", OperandNone, 1, 2},
	OP_I2F: {"i2f", OperandNone, 1, 1},
	OP_I2D: {"i2d", OperandNone, 1, 2},
	OP_L2F: {"l2f", OperandNone, 2, 1},
	OP_L2D: {"l2d", OperandNone, 2, 2},
	OP_F2D: {"f2d", OperandNone, 1, 2},

	OP_IFEQ:      {"ifeq", OperandBranch, 1, 0},
	OP_IFNE:      {"ifne", OperandBranch, 1, 0},
	OP_IF_ACMPEQ: {"if_acmpeq", OperandBranch, 2, 0},
	OP_IF_ACMPNE: {"if_acmpne", OperandBranch, 2, 0},
	OP_GOTO:      {"goto", OperandBranch, 0, 0},
	OP_IFNULL:    {"ifnull", OperandBranch, 1, 0},
	OP_IFNONNULL: {"ifnonnull", OperandBranch, 1, 0},

	OP_IRETURN: {"ireturn", OperandNone, 1, 0},
	OP_LRETURN: {"lreturn", OperandNone, 2, 0},
	OP_FRETURN: {"freturn", OperandNone, 1, 0},
	OP_DRETURN: {"dreturn", OperandNone, 2, 0},
	OP_ARETURN: {"areturn", OperandNone, 1, 0},
	OP_RETURN:  {"return", OperandNone, 0, 0},

	OP_INVOKEVIRTUAL: {"invokevirtual", OperandPool2, 0, 0},
	OP_INVOKESPECIAL: {"invokespecial", OperandPool2, 0, 0},
	OP_INVOKESTATIC:  {"invokestatic", OperandPool2, 0, 0},

	OP_ARRAYLENGTH: {"arraylength", OperandNone, 1, 1},
	OP_WIDE:        {"wide", OperandNone, 0, 0},
}

// String returns the JVM mnemonic of the opcode.
func (op Opcode) String() string {
	if info, ok := Opcodes[op]; ok {
		return info.Name
	}
	return "UNKNOWN"
}

// IsBranch reports whether the opcode takes a branch offset operand.
func (op Opcode) IsBranch() bool {
	return Opcodes[op].Operand == OperandBranch
}

// IsInvoke reports whether the opcode is a method invocation.
func (op Opcode) IsInvoke() bool {
	return op == OP_INVOKEVIRTUAL || op == OP_INVOKESPECIAL || op == OP_INVOKESTATIC
}

// IsTerminal reports whether control never falls through the opcode.
func (op Opcode) IsTerminal() bool {
	switch op {
	case OP_GOTO, OP_IRETURN, OP_LRETURN, OP_FRETURN, OP_DRETURN, OP_ARETURN, OP_RETURN:
		return true
	}
	return false
}
