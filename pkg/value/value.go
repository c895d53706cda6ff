// Package value implements the runtime value model executed by pkg/vm:
// the variants a smog-script program can produce, their truthiness,
// equality, ordering, and the built-in Map/List container behaviour.
//
// Composite variants (Map, List, Instance, Function, Method, Class) are
// held behind a Go pointer, giving them the shared-mutable-ownership
// semantics the language requires: copying a Value copies the pointer,
// so mutation through any reference is visible through all of them.
// There is no reference count to maintain - Go's garbage collector
// reclaims cycles the same way it reclaims anything else, which is why
// this package carries no Drop/retain bookkeeping.
package value

import (
	"fmt"
	"strings"

	"github.com/kristofer/smog/pkg/bytecode"
)

// Type identifies which variant a Value holds.
type Type int

const (
	TypeInt Type = iota
	TypeFloat
	TypeString
	TypeBool
	TypeNull
	TypeMap
	TypeList
	TypeFunction
	TypeMethod
	TypeNativeMethod
	TypeClass
	TypeInstance
	TypeException
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeString:
		return "String"
	case TypeBool:
		return "Bool"
	case TypeNull:
		return "Null"
	case TypeMap:
		return "Map"
	case TypeList:
		return "List"
	case TypeFunction:
		return "Function"
	case TypeMethod:
		return "Method"
	case TypeNativeMethod:
		return "NativeMethod"
	case TypeClass:
		return "Class"
	case TypeInstance:
		return "Instance"
	case TypeException:
		return "Exception"
	default:
		return "Unknown"
	}
}

// Value is anything that can live on the VM's value stack, in a
// variable slot, or in a composite container.
type Value interface {
	Type() Type
	Inspect() string
}

// Int is a 64-bit signed integer value.
type Int struct{ Value int64 }

func (Int) Type() Type           { return TypeInt }
func (i Int) Inspect() string    { return fmt.Sprintf("%d", i.Value) }

// Float is a 64-bit IEEE-754 value.
type Float struct{ Value float64 }

func (Float) Type() Type        { return TypeFloat }
func (f Float) Inspect() string { return fmt.Sprintf("%g", f.Value) }

// String is a UTF-8 value.
type String struct{ Value string }

func (String) Type() Type         { return TypeString }
func (s String) Inspect() string  { return s.Value }

// Bool is a boolean value.
type Bool struct{ Value bool }

func (Bool) Type() Type        { return TypeBool }
func (b Bool) Inspect() string { return fmt.Sprintf("%t", b.Value) }

// Null is the absence of a value. There is exactly one meaningful
// instance in practice (NullValue), but the zero value works too since
// the type carries no fields.
type Null struct{}

func (Null) Type() Type      { return TypeNull }
func (Null) Inspect() string { return "null" }

// NullValue is the conventional Null instance the compiler/VM push for
// LoadNull and for implicit returns.
var NullValue = Null{}

// MapEntry is one key/value pair of a Map, kept in insertion order.
type MapEntry struct {
	Key   Value
	Value Value
}

// Map is an insertion-ordered mapping whose keys must be primitives
// (Int, Float, String, Bool, Null). Composite keys raise TypeError at
// the call site attempting the insert/lookup, not here - this type
// just reports ErrUnhashable so the VM can wrap it appropriately.
type Map struct {
	ID      int
	entries []MapEntry
	index   map[hashKey]int
}

// NewMap returns an empty map with the given identity id.
func NewMap(id int) *Map {
	return &Map{ID: id, index: make(map[hashKey]int)}
}

func (*Map) Type() Type { return TypeMap }

func (m *Map) Inspect() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Key.Inspect())
		b.WriteString(": ")
		b.WriteString(e.Value.Inspect())
	}
	b.WriteByte('}')
	return b.String()
}

func (m *Map) Len() int      { return len(m.entries) }
func (m *Map) IsEmpty() bool { return len(m.entries) == 0 }

// Insert sets key to val, appending a new entry on first sight of key
// and overwriting the existing one (keeping its original position)
// otherwise. Returns ErrUnhashable if key is not a primitive.
func (m *Map) Insert(key, val Value) error {
	hk, err := hashKeyOf(key)
	if err != nil {
		return err
	}
	if ix, ok := m.index[hk]; ok {
		m.entries[ix].Value = val
		return nil
	}
	m.index[hk] = len(m.entries)
	m.entries = append(m.entries, MapEntry{Key: key, Value: val})
	return nil
}

// Get looks up key, returning (value, true, nil) on a hit, (Null,
// false, nil) on a clean miss, or a non-nil error if key isn't hashable.
func (m *Map) Get(key Value) (Value, bool, error) {
	hk, err := hashKeyOf(key)
	if err != nil {
		return nil, false, err
	}
	ix, ok := m.index[hk]
	if !ok {
		return nil, false, nil
	}
	return m.entries[ix].Value, true, nil
}

// Remove deletes key if present, returning its value. Removing shifts
// every later entry's recorded index down by one to keep the ordered
// slice and the lookup index consistent.
func (m *Map) Remove(key Value) (Value, bool, error) {
	hk, err := hashKeyOf(key)
	if err != nil {
		return nil, false, err
	}
	ix, ok := m.index[hk]
	if !ok {
		return nil, false, nil
	}
	removed := m.entries[ix].Value
	m.entries = append(m.entries[:ix], m.entries[ix+1:]...)
	delete(m.index, hk)
	for k, i := range m.index {
		if i > ix {
			m.index[k] = i - 1
		}
	}
	return removed, true, nil
}

// Keys returns the map's keys in insertion order.
func (m *Map) Keys() []Value {
	keys := make([]Value, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// List is an ordered, mutable sequence of values.
type List struct {
	ID       int
	Elements []Value
}

// NewList returns an empty list with the given identity id.
func NewList(id int) *List {
	return &List{ID: id}
}

func (*List) Type() Type { return TypeList }

func (l *List) Inspect() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range l.Elements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Inspect())
	}
	b.WriteByte(']')
	return b.String()
}

func (l *List) Len() int      { return len(l.Elements) }
func (l *List) IsEmpty() bool { return len(l.Elements) == 0 }

func (l *List) Push(v Value) { l.Elements = append(l.Elements, v) }

// Pop removes and returns the last element.
func (l *List) Pop() (Value, bool) {
	if len(l.Elements) == 0 {
		return nil, false
	}
	last := l.Elements[len(l.Elements)-1]
	l.Elements = l.Elements[:len(l.Elements)-1]
	return last, true
}

// PopAt removes and returns the element at index i.
func (l *List) PopAt(i int) (Value, bool) {
	if i < 0 || i >= len(l.Elements) {
		return nil, false
	}
	v := l.Elements[i]
	l.Elements = append(l.Elements[:i], l.Elements[i+1:]...)
	return v, true
}

func (l *List) Get(i int) (Value, bool) {
	if i < 0 || i >= len(l.Elements) {
		return nil, false
	}
	return l.Elements[i], true
}

// Function is a compiled, unbound callable: parameters and a body
// code object. It implements bytecode.NestedCodeObject so the
// disassembler can recurse into function bodies found in a constant
// pool.
type Function struct {
	ID         int
	Parameters []string
	Body       *bytecode.CodeObject
}

func (*Function) Type() Type                             { return TypeFunction }
func (f *Function) Inspect() string                      { return fmt.Sprintf("<function %d>", f.ID) }
func (f *Function) DisassemblyBody() *bytecode.CodeObject { return f.Body }

// Method is a Function together with the receiver it is bound to, if
// any. Attribute access on an Instance yields a copy of the stored
// Method with Caller set to the instance - the copy is what lets
// binding mutate Caller without disturbing the Method sitting in the
// class body's constant pool.
type Method struct {
	ID       int
	Function *Function
	Caller   Value
}

func (*Method) Type() Type        { return TypeMethod }
func (m *Method) Inspect() string { return fmt.Sprintf("<method %d>", m.ID) }

// Bind returns a copy of m with Caller set to caller.
func (m *Method) Bind(caller Value) *Method {
	bound := *m
	bound.Caller = caller
	return &bound
}

// NativeFn is the signature of a built-in method implementation: given
// the bound caller (the Map/List it was looked up on) and the call's
// arguments, produce a result or an error.
type NativeFn func(caller Value, args []Value) (Value, error)

// NativeMethod is a built-in (Go-implemented) method, such as the
// Map/List container operations dispatched in pkg/vm.
type NativeMethod struct {
	ID     int
	Name   string
	Fn     NativeFn
	Caller Value
}

func (*NativeMethod) Type() Type        { return TypeNativeMethod }
func (n *NativeMethod) Inspect() string { return fmt.Sprintf("<native method %s>", n.Name) }

// Bind returns a copy of n with Caller set to caller.
func (n *NativeMethod) Bind(caller Value) *NativeMethod {
	bound := *n
	bound.Caller = caller
	return &bound
}

// Class is a compiled class: an optional parent and a body code
// object executed once (lazily, by the VM) to populate its members.
type Class struct {
	ID     int
	Name   string
	Parent *Class
	Body   *bytecode.CodeObject
}

func (*Class) Type() Type                              { return TypeClass }
func (c *Class) Inspect() string                       { return fmt.Sprintf("<class %s>", c.Name) }
func (c *Class) DisassemblyBody() *bytecode.CodeObject { return c.Body }

// Instance is an object constructed from a Class: an attribute map
// that shadows, and falls back to, its class's members.
type Instance struct {
	ID         int
	Class      *Class
	Attributes map[string]Value
}

// NewInstance returns a fresh instance of cls with an empty attribute map.
func NewInstance(id int, cls *Class) *Instance {
	return &Instance{ID: id, Class: cls, Attributes: make(map[string]Value)}
}

func (*Instance) Type() Type        { return TypeInstance }
func (i *Instance) Inspect() string { return fmt.Sprintf("<instance of %s>", i.Class.Name) }

// Exception is a raised error value: a Kind tag (one of the error
// kinds in the Kind taxonomy implemented by pkg/vm) and a message.
type Exception struct {
	Kind    string
	Message string
}

func (Exception) Type() Type        { return TypeException }
func (e Exception) Inspect() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// NewException builds an Exception value from a raised error's kind and
// message, for callers (the CLI's top-level reporter) that want to
// present an unwound runtime error as an ordinary value
// rather than a Go error.
func NewException(kind, message string) Exception {
	return Exception{Kind: kind, Message: message}
}

// Truthy implements the language's truthiness rule: Bool is itself;
// numbers are truthy iff nonzero; String/Map/List are truthy iff
// nonempty; Null is always false; everything else (functions, methods,
// classes, instances) is always true.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Bool:
		return x.Value
	case Int:
		return x.Value != 0
	case Float:
		return x.Value != 0
	case String:
		return x.Value != ""
	case Null:
		return false
	case *Map:
		return !x.IsEmpty()
	case *List:
		return !x.IsEmpty()
	default:
		return true
	}
}

// hashKey is a comparable representation of a hashable primitive
// value, used as the key type for Map's lookup index.
type hashKey struct {
	typ Type
	i   int64
	f   float64
	s   string
	b   bool
}

// ErrUnhashable is returned by hashKeyOf for any non-primitive value;
// callers translate it into a runtime TypeError.
var ErrUnhashable = fmt.Errorf("value is not hashable")

func hashKeyOf(v Value) (hashKey, error) {
	switch x := v.(type) {
	case Int:
		return hashKey{typ: TypeInt, i: x.Value}, nil
	case Float:
		return hashKey{typ: TypeFloat, f: x.Value}, nil
	case String:
		return hashKey{typ: TypeString, s: x.Value}, nil
	case Bool:
		return hashKey{typ: TypeBool, b: x.Value}, nil
	case Null:
		return hashKey{typ: TypeNull}, nil
	default:
		return hashKey{}, ErrUnhashable
	}
}
