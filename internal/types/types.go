// Package types defines the compiler's JVM types and the intrinsic
// operations each of them compiles inline instead of through virtual
// dispatch.
package types

import (
	"strings"
	"sync"

	"github.com/funvibe/duby/internal/bytecode"
)

// Type is a compiler-level type. The variants are closed: *ObjectType,
// *ArrayType, *StringType and *PrimitiveType. Types are interned by a
// Universe and compared by identity.
type Type interface {
	// Name is the source-level name, e.g. "int", "java.lang.String", "int[]".
	Name() string
	// Descriptor is the JVM field descriptor, e.g. "I", "[Ljava/lang/Object;".
	Descriptor() string
	// InternalName is the name used as a method owner.
	InternalName() string
	Kind() bytecode.Kind
	IsPrimitive() bool
	// Superclass is nil for java.lang.Object and primitives.
	Superclass() Type

	// Intrinsics returns the type's registry, building it on first use.
	Intrinsics() *Registry
	// Method finds a declared ordinary method by exact signature, searching
	// superclasses.
	Method(name string, params ...Type) (*Method, bool)
	// Methods returns every declared method with the given name, own
	// methods first, then superclass methods.
	Methods(name string) []*Method

	Load(b *bytecode.Builder, slot int)
	Store(b *bytecode.Builder, slot int)
	Return(b *bytecode.Builder)
	InitValue(b *bytecode.Builder)

	info() *typeInfo
	contribute(r *Registry)
}

type typeInfo struct {
	universe   *Universe
	name       string
	descriptor string
	kind       bytecode.Kind

	once     sync.Once
	registry *Registry

	mu      sync.RWMutex
	methods map[string][]*Method
}

func newTypeInfo(u *Universe, name, descriptor string, kind bytecode.Kind) typeInfo {
	return typeInfo{
		universe:   u,
		name:       name,
		descriptor: descriptor,
		kind:       kind,
		methods:    make(map[string][]*Method),
	}
}

func (ti *typeInfo) info() *typeInfo { return ti }

func (ti *typeInfo) Name() string        { return ti.name }
func (ti *typeInfo) String() string      { return ti.name }
func (ti *typeInfo) Descriptor() string  { return ti.descriptor }
func (ti *typeInfo) Kind() bytecode.Kind { return ti.kind }

func (ti *typeInfo) InternalName() string {
	if strings.HasPrefix(ti.descriptor, "L") {
		return ti.descriptor[1 : len(ti.descriptor)-1]
	}
	return ti.descriptor
}

// intrinsics runs the variant's contribution exactly once. sync.Once makes
// the finished registry visible to every caller that returns from Do.
func (ti *typeInfo) intrinsics(t Type) *Registry {
	ti.once.Do(func() {
		r := NewRegistry(t)
		t.contribute(r)
		ti.registry = r
	})
	return ti.registry
}

func (ti *typeInfo) addMethod(m *Method) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	list := ti.methods[m.Name]
	for i, existing := range list {
		if SignatureKey(existing.Params) == SignatureKey(m.Params) {
			list[i] = m
			return
		}
	}
	ti.methods[m.Name] = append(list, m)
}

func (ti *typeInfo) ownMethods(name string) []*Method {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	return append([]*Method(nil), ti.methods[name]...)
}

func (ti *typeInfo) Load(b *bytecode.Builder, slot int) {
	b.EmitVar(bytecode.FamilyOf(ti.kind).Load, slot)
}

func (ti *typeInfo) Store(b *bytecode.Builder, slot int) {
	b.EmitVar(bytecode.FamilyOf(ti.kind).Store, slot)
}

func (ti *typeInfo) Return(b *bytecode.Builder) {
	b.Emit(bytecode.FamilyOf(ti.kind).Return)
}

// InitValue pushes the zero value of the type.
func (ti *typeInfo) InitValue(b *bytecode.Builder) {
	switch ti.kind {
	case bytecode.KindReference:
		b.PushNull()
	case bytecode.KindLong:
		b.Emit(bytecode.OP_LCONST_0)
	case bytecode.KindFloat:
		b.Emit(bytecode.OP_FCONST_0)
	case bytecode.KindDouble:
		b.Emit(bytecode.OP_DCONST_0)
	case bytecode.KindVoid:
	default:
		b.PushInt(0)
	}
}

func findMethod(t Type, name string, params []Type) (*Method, bool) {
	key := SignatureKey(params)
	for cur := t; cur != nil; cur = cur.Superclass() {
		for _, m := range cur.info().ownMethods(name) {
			if SignatureKey(m.Params) == key {
				return m, true
			}
		}
	}
	return nil, false
}

func allMethods(t Type, name string) []*Method {
	var out []*Method
	for cur := t; cur != nil; cur = cur.Superclass() {
		out = append(out, cur.info().ownMethods(name)...)
	}
	return out
}

// ObjectType is a class type other than String. It carries the base
// intrinsics every reference type gets.
type ObjectType struct {
	typeInfo
	super Type
}

func (t *ObjectType) IsPrimitive() bool     { return false }
func (t *ObjectType) Superclass() Type      { return t.super }
func (t *ObjectType) Intrinsics() *Registry { return t.intrinsics(t) }
func (t *ObjectType) Methods(name string) []*Method {
	return allMethods(t, name)
}
func (t *ObjectType) Method(name string, params ...Type) (*Method, bool) {
	return findMethod(t, name, params)
}

func (t *ObjectType) contribute(r *Registry) {
	contributeObject(r, t.universe)
}

// StringType is java.lang.String.
type StringType struct {
	typeInfo
}

func (t *StringType) IsPrimitive() bool     { return false }
func (t *StringType) Superclass() Type      { return t.universe.Object }
func (t *StringType) Intrinsics() *Registry { return t.intrinsics(t) }
func (t *StringType) Methods(name string) []*Method {
	return allMethods(t, name)
}
func (t *StringType) Method(name string, params ...Type) (*Method, bool) {
	return findMethod(t, name, params)
}

func (t *StringType) contribute(r *Registry) {
	contributeObject(r, t.universe)
	contributeString(r, t)
}

// ArrayType is an array of exactly one component type.
type ArrayType struct {
	typeInfo
	component Type
}

// Component returns the element type.
func (t *ArrayType) Component() Type { return t.component }

func (t *ArrayType) IsPrimitive() bool     { return false }
func (t *ArrayType) Superclass() Type      { return t.universe.Object }
func (t *ArrayType) Intrinsics() *Registry { return t.intrinsics(t) }
func (t *ArrayType) Methods(name string) []*Method {
	return allMethods(t, name)
}
func (t *ArrayType) Method(name string, params ...Type) (*Method, bool) {
	return findMethod(t, name, params)
}

func (t *ArrayType) contribute(r *Registry) {
	contributeObject(r, t.universe)
	contributeArray(r, t)
}

// PrimitiveType is one of the JVM primitive types, or void.
type PrimitiveType struct {
	typeInfo
}

func (t *PrimitiveType) IsPrimitive() bool     { return true }
func (t *PrimitiveType) Superclass() Type      { return nil }
func (t *PrimitiveType) Intrinsics() *Registry { return t.intrinsics(t) }
func (t *PrimitiveType) Methods(name string) []*Method {
	return allMethods(t, name)
}
func (t *PrimitiveType) Method(name string, params ...Type) (*Method, bool) {
	return findMethod(t, name, params)
}

// Null tests and reference comparison make no sense on primitive values,
// so primitives skip the object contribution. Arithmetic and comparison
// intrinsics for primitives are registered by their users.
func (t *PrimitiveType) contribute(r *Registry) {}

// Size returns the stack words a value of t occupies.
func Size(t Type) int {
	return t.Kind().Size()
}
