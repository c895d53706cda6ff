package vm

import "github.com/kristofer/smog/pkg/value"

// call dispatches OpCall's callee against the call protocol for each
// callable variant. Method calls append the bound caller as the last
// argument rather than the first, matching how the compiler interns a
// method's self slot last (see pkg/compiler's compileFunction).
func (vm *VM) call(callee value.Value, args []value.Value) (value.Value, *RuntimeError) {
	switch fn := callee.(type) {
	case *value.Function:
		return vm.callFunction(fn, args)

	case *value.Method:
		return vm.callFunction(fn.Function, append(append([]value.Value{}, args...), fn.Caller))

	case *value.NativeMethod:
		v, err := fn.Fn(fn.Caller, args)
		if err != nil {
			if rerr, ok := err.(*RuntimeError); ok {
				return nil, rerr
			}
			return nil, typeError("%s", err.Error())
		}
		return v, nil

	case *value.Class:
		return vm.construct(fn, args)

	default:
		return nil, typeError("%s is not callable", callee.Inspect())
	}
}

func (vm *VM) callFunction(fn *value.Function, args []value.Value) (value.Value, *RuntimeError) {
	if len(args) != len(fn.Parameters) {
		return nil, argumentError("expected %d argument(s), got %d", len(fn.Parameters), len(args))
	}
	f := NewFrame(fn.Body)
	copy(f.Variables, args)
	return vm.execFrame(f)
}

// construct builds an Instance of cls, executing cls's (and every
// ancestor's) body exactly once to populate its members, then runs
// init if one is defined - its return value is discarded, since a
// constructor call always yields the instance itself.
func (vm *VM) construct(cls *value.Class, args []value.Value) (value.Value, *RuntimeError) {
	inst := value.NewInstance(vm.nextValueID(), cls)

	init, err := vm.classMember(cls, "init")
	if err != nil {
		return nil, err
	}
	if init == nil {
		if len(args) != 0 {
			return nil, argumentError("expected 0 argument(s), got %d", len(args))
		}
		return inst, nil
	}
	initMethod, ok := init.(*value.Method)
	if !ok {
		return nil, typeError("init is not a method")
	}
	bound := initMethod.Bind(inst)
	if _, err := vm.callFunction(bound.Function, append(append([]value.Value{}, args...), bound.Caller)); err != nil {
		return nil, err
	}
	return inst, nil
}
