package bytecode

import "fmt"

// Kind classifies a type by the opcode family that loads, stores and
// returns its values.
type Kind int

const (
	KindReference Kind = iota
	KindBoolean
	KindByte
	KindChar
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindVoid
)

var kindNames = [...]string{
	KindReference: "reference",
	KindBoolean:   "boolean",
	KindByte:      "byte",
	KindChar:      "char",
	KindShort:     "short",
	KindInt:       "int",
	KindLong:      "long",
	KindFloat:     "float",
	KindDouble:    "double",
	KindVoid:      "void",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Size returns the number of operand stack words (and local slots) a value
// of this kind occupies.
func (k Kind) Size() int {
	switch k {
	case KindLong, KindDouble:
		return 2
	case KindVoid:
		return 0
	}
	return 1
}

// Family is the set of opcodes used to move values of one kind.
// Opcodes that do not exist for a kind are OP_NOP.
type Family struct {
	Load       Opcode
	Store      Opcode
	Return     Opcode
	ArrayLoad  Opcode
	ArrayStore Opcode
}

// The sub-int kinds share the int family for locals and returns but have
// their own array element opcodes.
var families = map[Kind]Family{
	KindReference: {OP_ALOAD, OP_ASTORE, OP_ARETURN, OP_AALOAD, OP_AASTORE},
	KindBoolean:   {OP_ILOAD, OP_ISTORE, OP_IRETURN, OP_BALOAD, OP_BASTORE},
	KindByte:      {OP_ILOAD, OP_ISTORE, OP_IRETURN, OP_BALOAD, OP_BASTORE},
	KindChar:      {OP_ILOAD, OP_ISTORE, OP_IRETURN, OP_CALOAD, OP_CASTORE},
	KindShort:     {OP_ILOAD, OP_ISTORE, OP_IRETURN, OP_SALOAD, OP_SASTORE},
	KindInt:       {OP_ILOAD, OP_ISTORE, OP_IRETURN, OP_IALOAD, OP_IASTORE},
	KindLong:      {OP_LLOAD, OP_LSTORE, OP_LRETURN, OP_LALOAD, OP_LASTORE},
	KindFloat:     {OP_FLOAD, OP_FSTORE, OP_FRETURN, OP_FALOAD, OP_FASTORE},
	KindDouble:    {OP_DLOAD, OP_DSTORE, OP_DRETURN, OP_DALOAD, OP_DASTORE},
	KindVoid:      {OP_NOP, OP_NOP, OP_RETURN, OP_NOP, OP_NOP},
}

// FamilyOf returns the opcode family for k. An unknown kind is a bug in the
// type hierarchy and panics.
func FamilyOf(k Kind) Family {
	f, ok := families[k]
	if !ok {
		panic(fmt.Sprintf("no opcode family for %s", k))
	}
	return f
}
