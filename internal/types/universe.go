package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/funvibe/duby/internal/bytecode"
	"github.com/funvibe/duby/internal/config"
)

// Universe interns every type a compilation can see. Types from one
// Universe are compared by identity and must not be mixed with another
// Universe's. A Universe is safe for concurrent use.
type Universe struct {
	Object *ObjectType
	String *StringType

	Boolean *PrimitiveType
	Byte    *PrimitiveType
	Char    *PrimitiveType
	Short   *PrimitiveType
	Int     *PrimitiveType
	Long    *PrimitiveType
	Float   *PrimitiveType
	Double  *PrimitiveType
	Void    *PrimitiveType

	mu      sync.RWMutex
	named   map[string]Type
	classes map[string]*ObjectType
	arrays  map[Type]*ArrayType
}

// NewUniverse creates the built-in types and their declared methods.
func NewUniverse() *Universe {
	u := &Universe{
		named:   make(map[string]Type),
		classes: make(map[string]*ObjectType),
		arrays:  make(map[Type]*ArrayType),
	}

	prim := func(name, desc string, kind bytecode.Kind) *PrimitiveType {
		t := &PrimitiveType{typeInfo: newTypeInfo(u, name, desc, kind)}
		u.named[name] = t
		return t
	}
	u.Boolean = prim("boolean", "Z", bytecode.KindBoolean)
	u.Byte = prim("byte", "B", bytecode.KindByte)
	u.Char = prim("char", "C", bytecode.KindChar)
	u.Short = prim("short", "S", bytecode.KindShort)
	u.Int = prim("int", "I", bytecode.KindInt)
	u.Long = prim("long", "J", bytecode.KindLong)
	u.Float = prim("float", "F", bytecode.KindFloat)
	u.Double = prim("double", "D", bytecode.KindDouble)
	u.Void = prim("void", "V", bytecode.KindVoid)

	u.Object = &ObjectType{typeInfo: newTypeInfo(u, config.ObjectClassName, classDescriptor(config.ObjectClassName), bytecode.KindReference)}
	u.classes[config.ObjectClassName] = u.Object
	u.named[config.ObjectClassName] = u.Object
	u.named[config.ObjectAlias] = u.Object

	u.String = &StringType{typeInfo: newTypeInfo(u, config.StringClassName, classDescriptor(config.StringClassName), bytecode.KindReference)}
	u.named[config.StringClassName] = u.String
	u.named[config.StringAlias] = u.String

	u.AddMethod(u.Object, config.EqualsMethodName, []Type{u.Object}, u.Boolean, false)
	u.AddMethod(u.Object, config.HashCodeMethodName, nil, u.Int, false)
	u.AddMethod(u.Object, config.ToStringMethodName, nil, u.String, false)
	u.AddMethod(u.String, config.ConcatMethodName, []Type{u.String}, u.String, false)
	u.AddMethod(u.String, config.LengthMethodName, nil, u.Int, false)
	u.AddMethod(u.String, config.CharAtMethodName, []Type{u.Int}, u.Char, false)

	return u
}

func classDescriptor(name string) string {
	return "L" + strings.ReplaceAll(name, ".", "/") + ";"
}

// Primitives returns the primitive types, void last.
func (u *Universe) Primitives() []*PrimitiveType {
	return []*PrimitiveType{u.Boolean, u.Byte, u.Char, u.Short, u.Int, u.Long, u.Float, u.Double, u.Void}
}

// ArrayOf returns the interned array type with the given component.
// Arrays of void do not exist; asking for one panics.
func (u *Universe) ArrayOf(component Type) *ArrayType {
	if component.Kind() == bytecode.KindVoid {
		panic("array of void")
	}
	u.mu.RLock()
	t, ok := u.arrays[component]
	u.mu.RUnlock()
	if ok {
		return t
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if t, ok := u.arrays[component]; ok {
		return t
	}
	t = &ArrayType{
		typeInfo:  newTypeInfo(u, component.Name()+config.ArraySuffix, "["+component.Descriptor(), bytecode.KindReference),
		component: component,
	}
	u.arrays[component] = t
	return t
}

// Class returns the interned class with the given name, creating it as a
// direct subclass of java.lang.Object if it does not exist yet.
func (u *Universe) Class(name string) (*ObjectType, error) {
	u.mu.RLock()
	t, ok := u.classes[name]
	u.mu.RUnlock()
	if ok {
		return t, nil
	}
	return u.declareClass(name, nil)
}

func (u *Universe) declareClass(name string, super *ObjectType) (*ObjectType, error) {
	if super == nil {
		super = u.Object
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if t, ok := u.classes[name]; ok {
		if name != config.ObjectClassName && t.super != super {
			return nil, fmt.Errorf("class %s already extends %s", name, t.super.Name())
		}
		return t, nil
	}
	if _, ok := u.named[name]; ok {
		return nil, fmt.Errorf("%s is not a class", name)
	}
	t := &ObjectType{
		typeInfo: newTypeInfo(u, name, classDescriptor(name), bytecode.KindReference),
		super:    super,
	}
	u.classes[name] = t
	u.named[name] = t
	return t, nil
}

// Lookup resolves a non-array type name.
func (u *Universe) Lookup(name string) (Type, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	t, ok := u.named[name]
	return t, ok
}

// Parse resolves a type name, including any number of [] suffixes.
func (u *Universe) Parse(name string) (Type, error) {
	base := strings.TrimSpace(name)
	dims := 0
	for strings.HasSuffix(base, config.ArraySuffix) {
		base = strings.TrimSpace(strings.TrimSuffix(base, config.ArraySuffix))
		dims++
	}
	t, ok := u.Lookup(base)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	if dims > 0 && t.Kind() == bytecode.KindVoid {
		return nil, fmt.Errorf("%w: %q: arrays of void", ErrUnknownType, name)
	}
	for i := 0; i < dims; i++ {
		t = u.ArrayOf(t)
	}
	return t, nil
}

// AddMethod declares an ordinary method on owner. Declaring the same name
// and parameter list again replaces the earlier declaration.
func (u *Universe) AddMethod(owner Type, name string, params []Type, ret Type, static bool) *Method {
	m := &Method{
		Owner:  owner,
		Name:   name,
		Params: append([]Type(nil), params...),
		Return: ret,
		Static: static,
	}
	owner.info().addMethod(m)
	return m
}

// Declare adds the classes and methods of a duby.yaml configuration.
func (u *Universe) Declare(cfg *config.Config) error {
	for _, decl := range cfg.Classes {
		var super *ObjectType
		if decl.Super != "" {
			st, ok := u.Lookup(decl.Super)
			if !ok {
				return fmt.Errorf("class %s: %w: superclass %q", decl.Name, ErrUnknownType, decl.Super)
			}
			super, ok = st.(*ObjectType)
			if !ok {
				return fmt.Errorf("class %s: cannot extend %s", decl.Name, decl.Super)
			}
		}
		cls, err := u.declareClass(decl.Name, super)
		if err != nil {
			return err
		}
		for _, md := range decl.Methods {
			params := make([]Type, len(md.Params))
			for i, p := range md.Params {
				if params[i], err = u.Parse(p); err != nil {
					return fmt.Errorf("%s.%s: %w", decl.Name, md.Name, err)
				}
			}
			ret := Type(u.Void)
			if md.Returns != "" {
				if ret, err = u.Parse(md.Returns); err != nil {
					return fmt.Errorf("%s.%s: %w", decl.Name, md.Name, err)
				}
			}
			u.AddMethod(cls, md.Name, params, ret, md.Static)
		}
	}
	return nil
}

// BuiltinTypes returns the types whose intrinsics are built into the
// compiler, plus one primitive and one reference array as representatives.
func (u *Universe) BuiltinTypes() []Type {
	return []Type{u.Object, u.String, u.Int, u.ArrayOf(u.Int), u.ArrayOf(u.Object)}
}
