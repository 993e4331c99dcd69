package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/funvibe/duby/internal/bytecode"
)

// Node is an expression the surrounding compiler knows how to compile.
type Node interface {
	String() string
}

// CallSite is a call being compiled: a target expression and its ordered
// parameter expressions.
type CallSite struct {
	Target Node
	Name   string
	Params []Node
}

// Compiler is the part of the surrounding compiler intrinsic handlers use.
type Compiler interface {
	// Builder returns the method body being emitted.
	Builder() *bytecode.Builder
	// Compile emits n. With expression set the value is left on the stack.
	Compile(n Node, expression bool) error
	// ConvertArgs compiles params and coerces each one to the matching
	// declared type, leaving the converted values on the stack.
	ConvertArgs(params []Node, want []Type) error
}

// Handler emits the code for one intrinsic at one call site. expression
// reports whether the call's value is consumed.
type Handler func(c Compiler, call *CallSite, expression bool) error

// Intrinsic is a registered built-in operation.
type Intrinsic struct {
	Owner   Type
	Name    string
	Params  []Type
	Return  Type
	Handler Handler
}

// Call runs the intrinsic's handler. An intrinsic registered without a
// handler cannot be compiled and reports ErrNoMethod.
func (in *Intrinsic) Call(c Compiler, call *CallSite, expression bool) error {
	if in.Handler == nil {
		return fmt.Errorf("%w: %s has no handler", ErrNoMethod, in)
	}
	return in.Handler(c, call, expression)
}

func (in *Intrinsic) String() string {
	return in.Owner.Name() + "#" + in.Name + signatureString(in.Params) + ":" + in.Return.Name()
}

// SignatureKey identifies an ordered parameter list. Descriptors are prefix
// free, so their concatenation is unique for a given arity and order.
func SignatureKey(params []Type) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range params {
		sb.WriteString(p.Descriptor())
	}
	sb.WriteByte(')')
	return sb.String()
}

func signatureString(params []Type) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name()
	}
	return "(" + strings.Join(names, ", ") + ")"
}

type group struct {
	order   []string
	entries map[string]*Intrinsic
}

// Registry maps an operation name and exact parameter signature to an
// intrinsic. Registering the same name and signature again replaces the
// previous intrinsic in place. A Registry is safe for concurrent use.
type Registry struct {
	owner Type

	mu     sync.RWMutex
	names  []string
	byName map[string]*group
}

// NewRegistry creates an empty registry for owner.
func NewRegistry(owner Type) *Registry {
	return &Registry{
		owner:  owner,
		byName: make(map[string]*group),
	}
}

// Owner returns the type the registry belongs to.
func (r *Registry) Owner() Type { return r.owner }

// Register adds or replaces the intrinsic for (name, params).
func (r *Registry) Register(name string, params []Type, ret Type, h Handler) *Intrinsic {
	in := &Intrinsic{
		Owner:   r.owner,
		Name:    name,
		Params:  append([]Type(nil), params...),
		Return:  ret,
		Handler: h,
	}
	key := SignatureKey(params)

	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.byName[name]
	if !ok {
		g = &group{entries: make(map[string]*Intrinsic)}
		r.byName[name] = g
		r.names = append(r.names, name)
	}
	if _, exists := g.entries[key]; !exists {
		g.order = append(g.order, key)
	}
	g.entries[key] = in
	return in
}

// Lookup returns the intrinsic registered for exactly (name, params).
func (r *Registry) Lookup(name string, params ...Type) (*Intrinsic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	in, ok := g.entries[SignatureKey(params)]
	return in, ok
}

// Candidates returns every intrinsic registered under name, in
// registration order.
func (r *Registry) Candidates(name string) []*Intrinsic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byName[name]
	if !ok {
		return nil
	}
	out := make([]*Intrinsic, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, g.entries[key])
	}
	return out
}

// ListAll returns every registered intrinsic, grouped by name in
// registration order.
func (r *Registry) ListAll() []*Intrinsic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Intrinsic
	for _, name := range r.names {
		g := r.byName[name]
		for _, key := range g.order {
			out = append(out, g.entries[key])
		}
	}
	return out
}

// Len returns the number of registered (name, signature) pairs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, g := range r.byName {
		n += len(g.entries)
	}
	return n
}
