// Package vm executes compiled bytecode.CodeObjects against the
// runtime value model in pkg/value.
//
// Execution is synchronous and single-threaded: one VM runs one
// program, one instruction at a time, with no goroutines, timeouts, or
// cancellation in the interpreter loop itself. A call is executed by
// recursing into execFrame, so Go's own call stack mirrors the
// language's frame stack - the same trick the compiler's enclosing-
// scope walk relies on at compile time. This is what makes unwinding on
// error free: a failing execFrame simply returns an error, and every
// enclosing execFrame call (one per active language-level frame)
// returns in turn without any manual frame-teardown bookkeeping.
package vm

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/value"
)

// VM holds everything live across a single program's execution: the
// shared value stack, the active call-frame stack, and the per-code-
// object index that lets LoadScope find the right enclosing frame.
type VM struct {
	stack []value.Value

	// frames is the active call-frame stack, in call order. A frame's
	// position in this slice is what LoadScope/LoadNonlocal exchange.
	frames []*Frame

	// frameByID maps a code object's id to the stack of positions (into
	// frames) where it currently has a live activation - innermost last.
	// A recursive call pushes a second entry; popping only removes the
	// top entry if it is still this frame's position (see popCallFrame).
	frameByID map[int][]int

	// classFrames memoizes each class body's one-time execution, keyed
	// by the Class's id, so repeated instantiation or attribute lookup
	// never re-runs it.
	classFrames map[int]*Frame

	nextID int

	debugger *Debugger

	// maxCallDepth bounds vm.frames, guarding against runaway recursion
	// overflowing the Go call stack that execFrame recurses on. Zero
	// means unbounded.
	maxCallDepth int

	// logger is nil by default - execFrame skips every trace-logging
	// call site entirely rather than logging at a disabled level, the
	// same nil-means-no-overhead shape as the debugger field.
	logger *zerolog.Logger

	// sessionID tags this VM instance for log correlation and the
	// debugger's interactive prompt banner. Generated once at
	// construction, never re-derived.
	sessionID string
}

// SessionID identifies this VM instance, for a host to correlate its
// own logging or prompts with whatever this VM logs.
func (vm *VM) SessionID() string {
	return vm.sessionID
}

// AttachDebugger installs d, enabling execFrame to pause before each
// instruction whenever d.ShouldPause reports true.
func (vm *VM) AttachDebugger(d *Debugger) {
	vm.debugger = d
}

// AttachLogger installs l; execFrame then emits one trace event per
// instruction executed, at debug level. New() leaves the logger nil,
// so logging costs nothing unless a caller opts in.
func (vm *VM) AttachLogger(l zerolog.Logger) {
	vm.logger = &l
}

// SetMaxCallDepth bounds how many nested frames Run will allow before
// raising KindStackOverflow. Zero (the default) means unbounded.
func (vm *VM) SetMaxCallDepth(n int) {
	vm.maxCallDepth = n
}

// New returns a VM ready to Run a program, with no call-depth limit.
func New() *VM {
	return &VM{
		frameByID:   make(map[int][]int),
		classFrames: make(map[int]*Frame),
		sessionID:   uuid.NewString(),
	}
}

// NewWithConfig returns a VM whose value stack is presized to
// stackSize (a performance hint, not a hard bound) and whose recursion
// is capped at maxCallDepth (0 means unbounded).
func NewWithConfig(stackSize, maxCallDepth int) *VM {
	vm := New()
	vm.stack = make([]value.Value, 0, stackSize)
	vm.maxCallDepth = maxCallDepth
	return vm
}

func (vm *VM) nextValueID() int {
	vm.nextID++
	return vm.nextID
}

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) top() value.Value {
	return vm.stack[len(vm.stack)-1]
}

// framePosition is an internal bookkeeping value that rides the shared
// value stack between a LoadScope and its paired LoadNonlocal. It is
// never constructed by the compiler and never observable from script
// code, so it does not need a value.Type variant of its own.
type framePosition int

func (framePosition) Type() value.Type  { return value.TypeInt }
func (p framePosition) Inspect() string { return "<frame position>" }

// pushCallFrame records f as the newest activation of its code object.
func (vm *VM) pushCallFrame(f *Frame) {
	pos := len(vm.frames)
	vm.frames = append(vm.frames, f)
	id := f.Code.ID
	vm.frameByID[id] = append(vm.frameByID[id], pos)
}

// popCallFrame retires the newest frame. It only pops frameByID's top
// entry for that code object if it still points at this frame's
// position - pushes and pops nest strictly, so this is always true in
// practice, but the check keeps the invariant explicit rather than
// assumed.
func (vm *VM) popCallFrame() {
	pos := len(vm.frames) - 1
	f := vm.frames[pos]
	vm.frames = vm.frames[:pos]
	id := f.Code.ID
	stack := vm.frameByID[id]
	if len(stack) > 0 && stack[len(stack)-1] == pos {
		vm.frameByID[id] = stack[:len(stack)-1]
	}
}

// topFramePosition returns the position of the innermost live frame for
// codeObjectID, for OpLoadScope.
func (vm *VM) topFramePosition(codeObjectID int) (framePosition, *RuntimeError) {
	stack := vm.frameByID[codeObjectID]
	if len(stack) == 0 {
		return 0, newRuntimeError(KindTypeError, "no enclosing scope is currently active", nil)
	}
	return framePosition(stack[len(stack)-1]), nil
}

// Run executes co as a fresh top-level module frame and returns the
// value its last expression produced.
func (vm *VM) Run(co *bytecode.CodeObject) (value.Value, error) {
	f := NewFrame(co)
	v, err := vm.execFrame(f)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// trace appends f's current instruction to err's stack trace as it
// unwinds through this frame.
func (vm *VM) trace(err *RuntimeError, f *Frame) *RuntimeError {
	if err == nil {
		return nil
	}
	err.StackTrace = append(err.StackTrace, StackFrame{CodeObjectID: f.Code.ID, IP: f.IP})
	return err
}

// execFrame runs f from its current IP until a RETURN_VALUE instruction
// or it falls off the end of the code object (an implicit Null return),
// recursing into itself for every nested call. It returns the language-
// level value the frame produced, or the first RuntimeError raised.
func (vm *VM) execFrame(f *Frame) (value.Value, *RuntimeError) {
	vm.pushCallFrame(f)
	defer vm.popCallFrame()

	if vm.maxCallDepth > 0 && len(vm.frames) > vm.maxCallDepth {
		return nil, vm.trace(newRuntimeError(KindStackOverflow, "max call depth exceeded", nil), f)
	}

	base := len(vm.stack)
	code := f.Code
	for {
		if f.IP >= len(code.Operations) {
			// No explicit return: per the stack discipline, the last
			// statement's residual value (if any) is this frame's
			// result - nothing pops it between statements, so it is
			// still sitting on top of whatever this frame itself
			// pushed.
			if len(vm.stack) > base {
				v := vm.pop()
				vm.stack = vm.stack[:base]
				return v, nil
			}
			return value.NullValue, nil
		}
		if vm.debugger != nil && vm.debugger.ShouldPause(f) {
			if !vm.debugger.InteractivePrompt(f) {
				return nil, vm.trace(newRuntimeError(KindTypeError, "execution aborted from debugger", nil), f)
			}
		}

		instr := code.Operations[f.IP]

		if vm.logger != nil {
			vm.logger.Debug().
				Str("session", vm.sessionID).
				Int("code_object", code.ID).
				Int("ip", f.IP).
				Str("op", instr.Op.String()).
				Msg("exec")
		}

		f.IP++

		switch instr.Op {
		case bytecode.OpLoadConstant:
			c, ok := code.Constants[instr.Operand].(value.Value)
			if !ok {
				return nil, vm.trace(valueError("malformed constant pool entry at index %d", instr.Operand), f)
			}
			vm.push(c)

		case bytecode.OpLoadLocal:
			vm.push(f.Variables[instr.Operand])

		case bytecode.OpLoadScope:
			pos, err := vm.topFramePosition(int(instr.Operand))
			if err != nil {
				return nil, vm.trace(err, f)
			}
			vm.push(pos)

		case bytecode.OpLoadNonlocal:
			posVal := vm.pop()
			pos, ok := posVal.(framePosition)
			if !ok {
				return nil, vm.trace(newRuntimeError(KindTypeError, "LOAD_NONLOCAL without a matching LOAD_SCOPE", nil), f)
			}
			vm.push(vm.frames[pos].Variables[instr.Operand])

		case bytecode.OpLoadNull:
			vm.push(value.NullValue)

		case bytecode.OpMakeMap:
			n := int(instr.Operand) / 2
			pairs := make([]value.Value, 2*n)
			for i := 2*n - 1; i >= 0; i-- {
				pairs[i] = vm.pop()
			}
			m := value.NewMap(vm.nextValueID())
			for i := 0; i < n; i++ {
				if err := m.Insert(pairs[2*i], pairs[2*i+1]); err != nil {
					return nil, vm.trace(typeError("map key is not hashable"), f)
				}
			}
			vm.push(m)

		case bytecode.OpMakeList:
			n := int(instr.Operand)
			elems := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				elems[i] = vm.pop()
			}
			l := value.NewList(vm.nextValueID())
			l.Elements = elems
			vm.push(l)

		case bytecode.OpMakeClass:
			inherit := instr.Operand == 1
			classVal := vm.pop()
			cls, ok := classVal.(*value.Class)
			if !ok {
				return nil, vm.trace(typeError("MAKE_CLASS target is not a class"), f)
			}
			if inherit {
				parentVal := vm.pop()
				parent, ok := parentVal.(*value.Class)
				if !ok {
					return nil, vm.trace(typeError("superclass expression did not evaluate to a class"), f)
				}
				cls.Parent = parent
			}
			vm.push(cls)

		case bytecode.OpNegate:
			v := vm.pop()
			r, err := arithNegate(v)
			if err != nil {
				return nil, vm.trace(err, f)
			}
			vm.push(r)

		case bytecode.OpNot:
			v := vm.pop()
			vm.push(value.Bool{Value: !value.Truthy(v)})

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv,
			bytecode.OpIntDiv, bytecode.OpMod, bytecode.OpExp:
			b := vm.pop()
			a := vm.pop()
			r, err := vm.applyArith(instr.Op, a, b)
			if err != nil {
				return nil, vm.trace(err, f)
			}
			vm.push(r)

		case bytecode.OpCompare:
			b := vm.pop()
			a := vm.pop()
			r, err := vm.applyCompare(bytecode.CompareOp(instr.Operand), a, b)
			if err != nil {
				return nil, vm.trace(err, f)
			}
			vm.push(r)

		case bytecode.OpLogicalAnd:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool{Value: value.Truthy(a) && value.Truthy(b)})

		case bytecode.OpLogicalOr:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool{Value: value.Truthy(a) || value.Truthy(b)})

		case bytecode.OpBinarySubscribe:
			k := vm.pop()
			c := vm.pop()
			r, err := vm.subscribe(c, k)
			if err != nil {
				return nil, vm.trace(err, f)
			}
			vm.push(r)

		case bytecode.OpAccessAttribute:
			name := vm.pop()
			c := vm.pop()
			nameStr, ok := name.(value.String)
			if !ok {
				return nil, vm.trace(typeError("attribute name must be a String"), f)
			}
			r, err := vm.getAttribute(c, nameStr.Value)
			if err != nil {
				return nil, vm.trace(err, f)
			}
			vm.push(r)

		case bytecode.OpAssign:
			f.Variables[instr.Operand] = vm.top()

		case bytecode.OpAssignSubscribe:
			v := vm.pop()
			k := vm.pop()
			c := vm.pop()
			if err := vm.assignSubscribe(c, k, v); err != nil {
				return nil, vm.trace(err, f)
			}

		case bytecode.OpAssignAttribute:
			v := vm.pop()
			name := vm.pop()
			c := vm.pop()
			nameStr, ok := name.(value.String)
			if !ok {
				return nil, vm.trace(typeError("attribute name must be a String"), f)
			}
			if err := setAttribute(c, nameStr.Value, v); err != nil {
				return nil, vm.trace(err, f)
			}

		case bytecode.OpCall:
			argc := int(instr.Operand)
			args := make([]value.Value, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = vm.pop()
			}
			callee := vm.pop()
			r, err := vm.call(callee, args)
			if err != nil {
				return nil, vm.trace(err, f)
			}
			vm.push(r)

		case bytecode.OpReturnValue:
			var v value.Value = value.NullValue
			if len(vm.stack) > base {
				v = vm.pop()
			}
			vm.stack = vm.stack[:base]
			return v, nil

		case bytecode.OpJump:
			f.IP = int(instr.Operand)

		case bytecode.OpPopJumpIfFalse:
			v := vm.pop()
			if !value.Truthy(v) {
				f.IP = int(instr.Operand)
			}

		default:
			return nil, vm.trace(newRuntimeError(KindTypeError, "unknown opcode", nil), f)
		}
	}
}

func (vm *VM) applyArith(op bytecode.Opcode, a, b value.Value) (value.Value, *RuntimeError) {
	switch op {
	case bytecode.OpAdd:
		return arithAdd(a, b)
	case bytecode.OpSub:
		return arithSub(a, b)
	case bytecode.OpMul:
		return arithMul(a, b)
	case bytecode.OpDiv:
		return arithDiv(a, b)
	case bytecode.OpIntDiv:
		return arithIntDiv(a, b)
	case bytecode.OpMod:
		return arithMod(a, b)
	case bytecode.OpExp:
		return arithExp(a, b)
	default:
		return nil, newRuntimeError(KindTypeError, "unreachable arithmetic opcode", nil)
	}
}

func (vm *VM) applyCompare(op bytecode.CompareOp, a, b value.Value) (value.Value, *RuntimeError) {
	if op == bytecode.CompareEqual {
		return value.Bool{Value: value.Equal(a, b)}, nil
	}
	if op == bytecode.CompareNotEqual {
		return value.Bool{Value: !value.Equal(a, b)}, nil
	}
	c, err := value.Compare(a, b)
	if err != nil {
		return nil, newRuntimeError(KindInvalidOperation, "cannot order these operand types", nil)
	}
	switch op {
	case bytecode.CompareLess:
		return value.Bool{Value: c < 0}, nil
	case bytecode.CompareLessEqual:
		return value.Bool{Value: c <= 0}, nil
	case bytecode.CompareGreater:
		return value.Bool{Value: c > 0}, nil
	case bytecode.CompareGreaterEqual:
		return value.Bool{Value: c >= 0}, nil
	default:
		return nil, newRuntimeError(KindTypeError, "unknown comparator", nil)
	}
}

func (vm *VM) subscribe(c, k value.Value) (value.Value, *RuntimeError) {
	switch container := c.(type) {
	case *value.List:
		ix, ok := k.(value.Int)
		if !ok {
			return nil, typeError("list subscript must be an Int")
		}
		v, ok := container.Get(int(ix.Value))
		if !ok {
			return nil, indexError("list index out of range: %d", ix.Value)
		}
		return v, nil
	case *value.Map:
		v, ok, err := container.Get(k)
		if err != nil {
			return nil, typeError("map key is not hashable")
		}
		if !ok {
			return nil, keyError("key not found: %s", k.Inspect())
		}
		return v, nil
	default:
		return nil, typeError("%s is not subscriptable", c.Inspect())
	}
}

func (vm *VM) assignSubscribe(c, k, v value.Value) *RuntimeError {
	switch container := c.(type) {
	case *value.List:
		ix, ok := k.(value.Int)
		if !ok {
			return typeError("list subscript must be an Int")
		}
		i := int(ix.Value)
		if i < 0 || i >= container.Len() {
			return indexError("list index out of range: %d", ix.Value)
		}
		container.Elements[i] = v
		return nil
	case *value.Map:
		if err := container.Insert(k, v); err != nil {
			return typeError("map key is not hashable")
		}
		return nil
	default:
		return typeError("%s is not subscriptable", c.Inspect())
	}
}
