// Package vm - built-in Map and List methods.
//
// Map and List have no user-visible class or body: attribute access on
// them resolves directly to a fixed table of NativeMethod values bound
// to the receiving container, dispatched here rather than through the
// Instance/Class attribute-chain walk in attribute.go.
package vm

import "github.com/kristofer/smog/pkg/value"

// listMethodTable names every built-in List method. bindListMethod returns
// nil (not found) for anything outside this table.
func bindListMethod(l *value.List, name string) *value.NativeMethod {
	fn, ok := listMethodTable[name]
	if !ok {
		return nil
	}
	return &value.NativeMethod{Name: name, Fn: fn, Caller: l}
}

func bindMapMethod(m *value.Map, name string) *value.NativeMethod {
	fn, ok := mapMethodTable[name]
	if !ok {
		return nil
	}
	return &value.NativeMethod{Name: name, Fn: fn, Caller: m}
}

var listMethodTable = map[string]value.NativeFn{
	// push, pop and remove mutate in place and produce no result (Null) -
	// only pop_at and get hand back the value they touched.
	"push": func(caller value.Value, args []value.Value) (value.Value, error) {
		l, err := asListCaller(caller)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, argumentError("push expects 1 argument, got %d", len(args))
		}
		l.Push(args[0])
		return value.NullValue, nil
	},
	"pop": func(caller value.Value, args []value.Value) (value.Value, error) {
		l, err := asListCaller(caller)
		if err != nil {
			return nil, err
		}
		if len(args) != 0 {
			return nil, argumentError("pop expects 0 arguments, got %d", len(args))
		}
		if _, ok := l.Pop(); !ok {
			return nil, indexError("pop from an empty list")
		}
		return value.NullValue, nil
	},
	"remove": func(caller value.Value, args []value.Value) (value.Value, error) {
		l, err := asListCaller(caller)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, argumentError("remove expects 1 argument, got %d", len(args))
		}
		ix, ok := args[0].(value.Int)
		if !ok {
			return nil, typeError("remove index must be an Int")
		}
		if _, ok := l.PopAt(int(ix.Value)); !ok {
			return nil, indexError("list index out of range: %d", ix.Value)
		}
		return value.NullValue, nil
	},
	"pop_at": func(caller value.Value, args []value.Value) (value.Value, error) {
		l, err := asListCaller(caller)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, argumentError("pop_at expects 1 argument, got %d", len(args))
		}
		ix, ok := args[0].(value.Int)
		if !ok {
			return nil, typeError("pop_at index must be an Int")
		}
		v, ok := l.PopAt(int(ix.Value))
		if !ok {
			return nil, indexError("list index out of range: %d", ix.Value)
		}
		return v, nil
	},
	"get": func(caller value.Value, args []value.Value) (value.Value, error) {
		l, err := asListCaller(caller)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, argumentError("get expects 1 argument, got %d", len(args))
		}
		ix, ok := args[0].(value.Int)
		if !ok {
			return nil, typeError("get index must be an Int")
		}
		v, ok := l.Get(int(ix.Value))
		if !ok {
			return nil, indexError("list index out of range: %d", ix.Value)
		}
		return v, nil
	},
	"len": func(caller value.Value, args []value.Value) (value.Value, error) {
		l, err := asListCaller(caller)
		if err != nil {
			return nil, err
		}
		return value.Int{Value: int64(l.Len())}, nil
	},
	"is_empty": func(caller value.Value, args []value.Value) (value.Value, error) {
		l, err := asListCaller(caller)
		if err != nil {
			return nil, err
		}
		return value.Bool{Value: l.IsEmpty()}, nil
	},
}

var mapMethodTable = map[string]value.NativeFn{
	// insert and remove mutate in place and produce no result (Null) -
	// only get hands back the value it looked up.
	"insert": func(caller value.Value, args []value.Value) (value.Value, error) {
		m, err := asMapCaller(caller)
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, argumentError("insert expects 2 arguments, got %d", len(args))
		}
		if ierr := m.Insert(args[0], args[1]); ierr != nil {
			return nil, typeError("map key is not hashable")
		}
		return value.NullValue, nil
	},
	"get": func(caller value.Value, args []value.Value) (value.Value, error) {
		m, err := asMapCaller(caller)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, argumentError("get expects 1 argument, got %d", len(args))
		}
		v, ok, gerr := m.Get(args[0])
		if gerr != nil {
			return nil, typeError("map key is not hashable")
		}
		if !ok {
			return nil, keyError("key not found")
		}
		return v, nil
	},
	"remove": func(caller value.Value, args []value.Value) (value.Value, error) {
		m, err := asMapCaller(caller)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, argumentError("remove expects 1 argument, got %d", len(args))
		}
		_, ok, rerr := m.Remove(args[0])
		if rerr != nil {
			return nil, typeError("map key is not hashable")
		}
		if !ok {
			return nil, keyError("key not found")
		}
		return value.NullValue, nil
	},
	"len": func(caller value.Value, args []value.Value) (value.Value, error) {
		m, err := asMapCaller(caller)
		if err != nil {
			return nil, err
		}
		return value.Int{Value: int64(m.Len())}, nil
	},
	"is_empty": func(caller value.Value, args []value.Value) (value.Value, error) {
		m, err := asMapCaller(caller)
		if err != nil {
			return nil, err
		}
		return value.Bool{Value: m.IsEmpty()}, nil
	},
}

func asListCaller(v value.Value) (*value.List, error) {
	l, ok := v.(*value.List)
	if !ok {
		return nil, typeError("expected a List receiver")
	}
	return l, nil
}

func asMapCaller(v value.Value) (*value.Map, error) {
	m, ok := v.(*value.Map)
	if !ok {
		return nil, typeError("expected a Map receiver")
	}
	return m, nil
}
