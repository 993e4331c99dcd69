package types

import (
	"strings"

	"github.com/funvibe/duby/internal/bytecode"
)

// Method is an ordinary method compiled as a JVM invocation.
type Method struct {
	Owner  Type
	Name   string
	Params []Type
	Return Type
	Static bool
}

// Descriptor returns the JVM method descriptor.
func (m *Method) Descriptor() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range m.Params {
		sb.WriteString(p.Descriptor())
	}
	sb.WriteByte(')')
	sb.WriteString(m.Return.Descriptor())
	return sb.String()
}

// Ref returns the method reference used by invoke instructions.
func (m *Method) Ref() *bytecode.MethodRef {
	return &bytecode.MethodRef{
		Owner:      m.Owner.InternalName(),
		Name:       m.Name,
		Descriptor: m.Descriptor(),
	}
}

func (m *Method) String() string {
	return m.Owner.Name() + "." + m.Name + signatureString(m.Params) + ":" + m.Return.Name()
}

// Call compiles an ordinary call: the receiver (unless static), the
// converted arguments, the invocation, and a pop of the result when the
// call is in statement context.
func (m *Method) Call(c Compiler, call *CallSite, expression bool) error {
	if err := requireParams(call, len(m.Params)); err != nil {
		return err
	}
	op := bytecode.OP_INVOKEVIRTUAL
	if m.Static {
		op = bytecode.OP_INVOKESTATIC
	} else if err := c.Compile(call.Target, true); err != nil {
		return err
	}
	if err := c.ConvertArgs(call.Params, m.Params); err != nil {
		return err
	}
	b := c.Builder()
	b.Invoke(op, m.Ref())
	if !expression {
		b.Pop(Size(m.Return))
	}
	return nil
}
