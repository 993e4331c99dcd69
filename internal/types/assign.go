package types

import "github.com/funvibe/duby/internal/bytecode"

// widening lists, for each primitive kind, the kinds it widens to.
var widening = map[bytecode.Kind][]bytecode.Kind{
	bytecode.KindByte:  {bytecode.KindShort, bytecode.KindInt, bytecode.KindLong, bytecode.KindFloat, bytecode.KindDouble},
	bytecode.KindShort: {bytecode.KindInt, bytecode.KindLong, bytecode.KindFloat, bytecode.KindDouble},
	bytecode.KindChar:  {bytecode.KindInt, bytecode.KindLong, bytecode.KindFloat, bytecode.KindDouble},
	bytecode.KindInt:   {bytecode.KindLong, bytecode.KindFloat, bytecode.KindDouble},
	bytecode.KindLong:  {bytecode.KindFloat, bytecode.KindDouble},
	bytecode.KindFloat: {bytecode.KindDouble},
}

// Assignable reports whether a value of type from can be passed where to
// is declared, without an explicit cast.
func Assignable(from, to Type) bool {
	if from == to {
		return true
	}
	if from.IsPrimitive() || to.IsPrimitive() {
		if !from.IsPrimitive() || !to.IsPrimitive() {
			return false
		}
		for _, k := range widening[from.Kind()] {
			if k == to.Kind() {
				return true
			}
		}
		return false
	}
	if fa, ok := from.(*ArrayType); ok {
		if ta, ok := to.(*ArrayType); ok {
			if fa.component.IsPrimitive() || ta.component.IsPrimitive() {
				return false
			}
			return Assignable(fa.component, ta.component)
		}
	}
	for cur := from.Superclass(); cur != nil; cur = cur.Superclass() {
		if cur == to {
			return true
		}
	}
	return false
}

// WideningOps returns the conversion opcodes that turn a from value into a
// to value. It is empty when no conversion instruction is needed.
func WideningOps(from, to Type) []bytecode.Opcode {
	if from == to || !from.IsPrimitive() || !to.IsPrimitive() {
		return nil
	}
	src := from.Kind()
	if src != bytecode.KindLong && src != bytecode.KindFloat && src != bytecode.KindDouble {
		src = bytecode.KindInt
	}
	switch src {
	case bytecode.KindInt:
		switch to.Kind() {
		case bytecode.KindLong:
			return []bytecode.Opcode{bytecode.OP_I2L}
		case bytecode.KindFloat:
			return []bytecode.Opcode{bytecode.OP_I2F}
		case bytecode.KindDouble:
			return []bytecode.Opcode{bytecode.OP_I2D}
		}
	case bytecode.KindLong:
		switch to.Kind() {
		case bytecode.KindFloat:
			return []bytecode.Opcode{bytecode.OP_L2F}
		case bytecode.KindDouble:
			return []bytecode.Opcode{bytecode.OP_L2D}
		}
	case bytecode.KindFloat:
		if to.Kind() == bytecode.KindDouble {
			return []bytecode.Opcode{bytecode.OP_F2D}
		}
	}
	return nil
}
