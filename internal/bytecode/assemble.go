package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrJumpTooFar = errors.New("jump too far")
	ErrPoolIndex  = errors.New("constant pool index out of range")
)

// MaxCodeLength is the largest method body the class file format allows.
const MaxCodeLength = math.MaxUint16

func (in Instruction) size() int {
	switch Opcodes[in.Op].Operand {
	case OperandVar:
		if in.Operand > math.MaxUint8 {
			return 4
		}
		return 2
	case OperandByte, OperandPool1:
		return 2
	case OperandShort, OperandPool2, OperandBranch:
		return 3
	}
	return 1
}

// Offsets returns the byte offset of every instruction, plus one trailing
// entry holding the total code length.
func Offsets(code *Code) []int {
	offsets := make([]int, len(code.Instructions)+1)
	pc := 0
	for i, in := range code.Instructions {
		offsets[i] = pc
		pc += in.size()
	}
	offsets[len(code.Instructions)] = pc
	return offsets
}

// Assemble encodes the body into JVM bytecode, resolving branch offsets.
func Assemble(code *Code) ([]byte, error) {
	offsets := Offsets(code)
	total := offsets[len(offsets)-1]
	if total > MaxCodeLength {
		return nil, fmt.Errorf("method body is %d bytes, limit is %d", total, MaxCodeLength)
	}

	out := make([]byte, 0, total)
	for i, in := range code.Instructions {
		info, ok := Opcodes[in.Op]
		if !ok {
			return nil, fmt.Errorf("instruction %d: unknown opcode 0x%02x", i, byte(in.Op))
		}
		switch info.Operand {
		case OperandNone:
			out = append(out, byte(in.Op))
		case OperandVar:
			if in.Operand > math.MaxUint8 {
				out = append(out, byte(OP_WIDE), byte(in.Op))
				out = binary.BigEndian.AppendUint16(out, uint16(in.Operand))
			} else {
				out = append(out, byte(in.Op), byte(in.Operand))
			}
		case OperandByte:
			out = append(out, byte(in.Op), byte(int8(in.Operand)))
		case OperandShort:
			out = append(out, byte(in.Op))
			out = binary.BigEndian.AppendUint16(out, uint16(int16(in.Operand)))
		case OperandPool1:
			if in.Operand < 1 || in.Operand > math.MaxUint8 {
				return nil, fmt.Errorf("instruction %d: %s: %w (%d)", i, in.Op, ErrPoolIndex, in.Operand)
			}
			out = append(out, byte(in.Op), byte(in.Operand))
		case OperandPool2:
			if in.Operand < 1 || in.Operand > math.MaxUint16 {
				return nil, fmt.Errorf("instruction %d: %s: %w (%d)", i, in.Op, ErrPoolIndex, in.Operand)
			}
			out = append(out, byte(in.Op))
			out = binary.BigEndian.AppendUint16(out, uint16(in.Operand))
		case OperandBranch:
			if in.Target == nil || in.Target.pos < 0 {
				return nil, fmt.Errorf("instruction %d: %w", i, ErrUnboundLabel)
			}
			jump := offsets[in.Target.pos] - offsets[i]
			if jump < math.MinInt16 || jump > math.MaxInt16 {
				return nil, fmt.Errorf("instruction %d: %w (%d bytes)", i, ErrJumpTooFar, jump)
			}
			out = append(out, byte(in.Op))
			out = binary.BigEndian.AppendUint16(out, uint16(int16(jump)))
		}
	}
	return out, nil
}
