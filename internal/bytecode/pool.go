package bytecode

import (
	"fmt"
	"strings"
)

// ConstantTag identifies the type of a constant pool entry.
type ConstantTag int

const (
	TagString ConstantTag = iota
	TagInteger
	TagMethodref
)

// MethodRef names a method for an invoke instruction.
type MethodRef struct {
	Owner      string // internal class name, e.g. java/lang/String
	Name       string
	Descriptor string // e.g. (Ljava/lang/String;)Ljava/lang/String;
}

func (m *MethodRef) String() string {
	return m.Owner + "." + m.Name + m.Descriptor
}

// Constant is a single constant pool entry.
type Constant struct {
	Tag    ConstantTag
	String string
	Int    int32
	Method *MethodRef
}

func (c Constant) key() string {
	switch c.Tag {
	case TagString:
		return "s:" + c.String
	case TagInteger:
		return fmt.Sprintf("i:%d", c.Int)
	default:
		return "m:" + c.Method.String()
	}
}

// Pool is a deduplicating constant pool. Indices are 1-based like the class
// file format.
type Pool struct {
	entries []Constant
	index   map[string]int
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{index: make(map[string]int)}
}

// Add returns the index of c, adding it if it is not yet present.
func (p *Pool) Add(c Constant) int {
	k := c.key()
	if idx, ok := p.index[k]; ok {
		return idx
	}
	p.entries = append(p.entries, c)
	idx := len(p.entries)
	p.index[k] = idx
	return idx
}

// AddString adds a string constant.
func (p *Pool) AddString(s string) int {
	return p.Add(Constant{Tag: TagString, String: s})
}

// AddInt adds an integer constant.
func (p *Pool) AddInt(v int32) int {
	return p.Add(Constant{Tag: TagInteger, Int: v})
}

// AddMethod adds a method reference.
func (p *Pool) AddMethod(m *MethodRef) int {
	return p.Add(Constant{Tag: TagMethodref, Method: m})
}

// Get returns the entry at a 1-based index.
func (p *Pool) Get(idx int) (Constant, bool) {
	if idx < 1 || idx > len(p.entries) {
		return Constant{}, false
	}
	return p.entries[idx-1], true
}

// Len returns the number of entries.
func (p *Pool) Len() int {
	return len(p.entries)
}

// DescriptorWords returns the stack words consumed by the arguments of a
// method descriptor and the words produced by its return value.
func DescriptorWords(desc string) (args int, ret int, err error) {
	if !strings.HasPrefix(desc, "(") {
		return 0, 0, fmt.Errorf("malformed method descriptor %q", desc)
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		size, next, err := fieldWords(desc, i)
		if err != nil {
			return 0, 0, err
		}
		args += size
		i = next
	}
	if i >= len(desc) {
		return 0, 0, fmt.Errorf("malformed method descriptor %q", desc)
	}
	i++
	if i < len(desc) && desc[i] == 'V' {
		if i+1 != len(desc) {
			return 0, 0, fmt.Errorf("malformed method descriptor %q", desc)
		}
		return args, 0, nil
	}
	ret, next, err := fieldWords(desc, i)
	if err != nil {
		return 0, 0, err
	}
	if next != len(desc) {
		return 0, 0, fmt.Errorf("malformed method descriptor %q", desc)
	}
	return args, ret, nil
}

func fieldWords(desc string, i int) (int, int, error) {
	if i >= len(desc) {
		return 0, 0, fmt.Errorf("truncated descriptor %q", desc)
	}
	switch desc[i] {
	case 'J', 'D':
		return 2, i + 1, nil
	case 'Z', 'B', 'C', 'S', 'I', 'F':
		return 1, i + 1, nil
	case 'L':
		end := strings.IndexByte(desc[i:], ';')
		if end < 0 {
			return 0, 0, fmt.Errorf("unterminated class in descriptor %q", desc)
		}
		return 1, i + end + 1, nil
	case '[':
		for i < len(desc) && desc[i] == '[' {
			i++
		}
		_, next, err := fieldWords(desc, i)
		return 1, next, err
	}
	return 0, 0, fmt.Errorf("bad descriptor character %q in %q", desc[i], desc)
}
