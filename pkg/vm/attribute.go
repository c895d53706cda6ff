package vm

import "github.com/kristofer/smog/pkg/value"

// getAttribute resolves name on v per the attribute-access rules:
// Instance looks at its own attribute map first, then walks its
// class's parent chain (executing each class body exactly once, lazily,
// to populate its members); Map/List dispatch to their fixed built-in
// method tables; a Class resolves members of its own body and its
// ancestors', returned unbound; anything else has no attributes at all.
func (vm *VM) getAttribute(v value.Value, name string) (value.Value, *RuntimeError) {
	switch recv := v.(type) {
	case *value.Instance:
		if attr, ok := recv.Attributes[name]; ok {
			return attr, nil
		}
		member, err := vm.classMember(recv.Class, name)
		if err != nil {
			return nil, err
		}
		if member == nil {
			return nil, attributeError("%s has no attribute %q", recv.Inspect(), name)
		}
		return bindMember(member, recv), nil
	case *value.List:
		if m := bindListMethod(recv, name); m != nil {
			return m, nil
		}
		return nil, attributeError("List has no method %q", name)
	case *value.Map:
		if m := bindMapMethod(recv, name); m != nil {
			return m, nil
		}
		return nil, attributeError("Map has no method %q", name)
	case *value.Class:
		member, err := vm.classMember(recv, name)
		if err != nil {
			return nil, err
		}
		if member == nil {
			return nil, attributeError("%s has no attribute %q", recv.Inspect(), name)
		}
		return member, nil
	default:
		return nil, attributeError("%s has no attribute %q", v.Inspect(), name)
	}
}

// classMember looks up name in cls's own body, then its ancestors,
// executing each class body exactly once (cached in vm.classFrames).
// Returns (nil, nil) if the whole chain has no such member.
func (vm *VM) classMember(cls *value.Class, name string) (value.Value, *RuntimeError) {
	for c := cls; c != nil; c = c.Parent {
		frame, err := vm.classFrame(c)
		if err != nil {
			return nil, err
		}
		if ix, ok := frame.Code.LookupVariable(name); ok {
			return frame.Variables[ix], nil
		}
	}
	return nil, nil
}

// classFrame returns the (lazily executed, memoized) frame produced by
// running cls's body, so every class body executes at most once no
// matter how many instances or subclasses look up its members.
func (vm *VM) classFrame(cls *value.Class) (*Frame, *RuntimeError) {
	if f, ok := vm.classFrames[cls.ID]; ok {
		return f, nil
	}
	f := NewFrame(cls.Body)
	if _, err := vm.execFrame(f); err != nil {
		return nil, err
	}
	vm.classFrames[cls.ID] = f
	return f, nil
}

// setAttribute implements AssignAttribute: only Instances carry a
// mutable attribute map, so assigning into anything else is a TypeError.
func setAttribute(v value.Value, name string, val value.Value) *RuntimeError {
	inst, ok := v.(*value.Instance)
	if !ok {
		return typeError("cannot assign attribute %q on %s", name, v.Inspect())
	}
	inst.Attributes[name] = val
	return nil
}

// bindMember returns member bound to caller if it is a Method, or
// member itself unchanged otherwise (plain attributes, nested classes,
// functions stored as data, etc. are not callable-as-methods).
func bindMember(member value.Value, caller value.Value) value.Value {
	if m, ok := member.(*value.Method); ok {
		return m.Bind(caller)
	}
	return member
}
