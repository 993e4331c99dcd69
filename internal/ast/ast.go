// Package ast holds the typed tree the compiler lowers to bytecode. Parsing
// and type inference happen elsewhere; nodes here only name their types.
package ast

import (
	"strconv"
	"strings"
)

// Node is the base interface for all AST nodes.
type Node interface {
	String() string
}

// Expression is a Node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Local reads a parameter or local variable.
type Local struct {
	Name string
}

func (l *Local) expressionNode() {}
func (l *Local) String() string  { return l.Name }

// NullLiteral is the null reference.
type NullLiteral struct{}

func (n *NullLiteral) expressionNode() {}
func (n *NullLiteral) String() string  { return "nil" }

// IntLiteral is an int constant.
type IntLiteral struct {
	Value int32
}

func (i *IntLiteral) expressionNode() {}
func (i *IntLiteral) String() string  { return strconv.Itoa(int(i.Value)) }

// BoolLiteral is a boolean constant.
type BoolLiteral struct {
	Value bool
}

func (b *BoolLiteral) expressionNode() {}
func (b *BoolLiteral) String() string  { return strconv.FormatBool(b.Value) }

// StringLiteral is a string constant.
type StringLiteral struct {
	Value string
}

func (s *StringLiteral) expressionNode() {}
func (s *StringLiteral) String() string  { return strconv.Quote(s.Value) }

// Call invokes Name on Target. Operators and indexing are calls too:
// a == b is Call{Target: a, Name: "==", Params: [b]}.
type Call struct {
	Target Expression
	Name   string
	Params []Expression
}

func (c *Call) expressionNode() {}
func (c *Call) String() string {
	params := make([]string, len(c.Params))
	for i, p := range c.Params {
		params[i] = p.String()
	}
	return c.Target.String() + "." + c.Name + "(" + strings.Join(params, ", ") + ")"
}

// Assign stores Value into a local, declaring it on first assignment.
type Assign struct {
	Name  string
	Value Expression
}

func (a *Assign) expressionNode() {}
func (a *Assign) String() string  { return a.Name + " = " + a.Value.String() }

// Return leaves the method. Value is nil in void methods.
type Return struct {
	Value Expression
}

func (r *Return) expressionNode() {}
func (r *Return) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}

// Block is a sequence of expressions; its value is the last one's.
type Block struct {
	Body []Expression
}

func (b *Block) expressionNode() {}
func (b *Block) String() string {
	parts := make([]string, len(b.Body))
	for i, e := range b.Body {
		parts[i] = e.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

// Param is a method parameter. Type is a type name such as "int[]".
type Param struct {
	Name string
	Type string
}

// MethodDecl is a method to compile. Owner names the declaring class and
// is required for instance methods, whose receiver is the local "self".
type MethodDecl struct {
	Owner   string
	Name    string
	Static  bool
	Params  []Param
	Returns string // empty means void
	Body    *Block
}

func (m *MethodDecl) String() string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Name + " " + p.Type
	}
	ret := m.Returns
	if ret == "" {
		ret = "void"
	}
	return m.Name + "(" + strings.Join(params, ", ") + "):" + ret
}
