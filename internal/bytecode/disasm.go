package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Disassemble returns a human-readable representation of the method body
func Disassemble(code *Code, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))
	sb.WriteString(fmt.Sprintf("; max_stack=%d max_locals=%d\n", code.MaxStack, code.MaxLocals))

	marks := make(map[int][]*Label)
	for _, l := range code.Labels {
		if l.pos >= 0 {
			marks[l.pos] = append(marks[l.pos], l)
		}
	}

	offsets := Offsets(code)
	for i, in := range code.Instructions {
		writeMarks(&sb, marks[i])
		var line strings.Builder
		line.WriteString(fmt.Sprintf("%04d ", offsets[i]))
		disassembleInstruction(&line, code, in, offsets)
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteByte('\n')
	}
	writeMarks(&sb, marks[len(code.Instructions)])

	return sb.String()
}

func writeMarks(sb *strings.Builder, labels []*Label) {
	for _, l := range labels {
		sb.WriteString(fmt.Sprintf("L%d:\n", l.id))
	}
}

func disassembleInstruction(sb *strings.Builder, code *Code, in Instruction, offsets []int) {
	info := Opcodes[in.Op]
	sb.WriteString(fmt.Sprintf("%-14s", info.Name))

	switch info.Operand {
	case OperandVar, OperandByte, OperandShort:
		sb.WriteString(strconv.Itoa(in.Operand))
	case OperandPool1, OperandPool2:
		sb.WriteString(fmt.Sprintf("#%d", in.Operand))
		if c, ok := code.Pool.Get(in.Operand); ok {
			sb.WriteString(" ; ")
			sb.WriteString(constantString(c))
		}
	case OperandBranch:
		if in.Target != nil && in.Target.pos >= 0 {
			sb.WriteString(fmt.Sprintf("L%d (%04d)", in.Target.id, offsets[in.Target.pos]))
		} else if in.Target != nil {
			sb.WriteString(fmt.Sprintf("L%d (unbound)", in.Target.id))
		}
	}
}

func constantString(c Constant) string {
	switch c.Tag {
	case TagString:
		return strconv.Quote(c.String)
	case TagInteger:
		return strconv.Itoa(int(c.Int))
	default:
		return c.Method.String()
	}
}
