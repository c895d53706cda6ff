package bytecode

import (
	"strings"
	"testing"
)

// fakeFunction stands in for pkg/value's Function type in these tests,
// implementing NestedCodeObject the same way the real type will.
type fakeFunction struct {
	body *CodeObject
}

func (f *fakeFunction) DisassemblyBody() *CodeObject { return f.body }

func TestDisassemble_SimpleArithmetic(t *testing.T) {
	co := NewCodeObject(1)
	co.InternConstant(1, int64(2))
	co.InternConstant(2, int64(3))
	co.Emit(OpLoadConstant, 0)
	co.Emit(OpLoadConstant, 1)
	co.Emit(OpAdd, 0)
	co.Emit(OpReturnValue, 0)

	out := Disassemble(co)

	if !strings.Contains(out, "LOAD_CONSTANT") {
		t.Fatalf("expected LOAD_CONSTANT in output, got:\n%s", out)
	}
	if !strings.Contains(out, "ADD") {
		t.Fatalf("expected ADD in output, got:\n%s", out)
	}
	if !strings.Contains(out, "RETURN_VALUE") {
		t.Fatalf("expected RETURN_VALUE in output, got:\n%s", out)
	}
}

func TestDisassemble_ResolvesStringConstant(t *testing.T) {
	co := NewCodeObject(1)
	co.InternConstant(1, "hello")
	co.Emit(OpLoadConstant, 0)

	out := Disassemble(co)
	if !strings.Contains(out, `"hello"`) {
		t.Fatalf("expected quoted string constant in output, got:\n%s", out)
	}
}

func TestDisassemble_ResolvesVariableName(t *testing.T) {
	co := NewCodeObject(1)
	ix := co.InternVariable("count")
	co.Emit(OpLoadLocal, uint64(ix))
	co.Emit(OpAssign, uint64(ix))

	out := Disassemble(co)
	if strings.Count(out, "count") != 2 {
		t.Fatalf("expected variable name 'count' to appear twice, got:\n%s", out)
	}
}

func TestDisassemble_AnnotatesCompareOperand(t *testing.T) {
	co := NewCodeObject(1)
	co.Emit(OpCompare, uint64(CompareLessEqual))

	out := Disassemble(co)
	if !strings.Contains(out, "<=") {
		t.Fatalf("expected comparator symbol in output, got:\n%s", out)
	}
}

func TestDisassemble_AnnotatesJumpTargets(t *testing.T) {
	co := NewCodeObject(1)
	co.Emit(OpPopJumpIfFalse, 5)
	co.Emit(OpJump, 1)

	out := Disassemble(co)
	if !strings.Contains(out, "-> 5") {
		t.Fatalf("expected jump target annotation, got:\n%s", out)
	}
}

func TestDisassemble_RecursesIntoNestedCodeObjects(t *testing.T) {
	inner := NewCodeObject(2)
	inner.Emit(OpLoadNull, 0)
	inner.Emit(OpReturnValue, 0)

	outer := NewCodeObject(1)
	outer.InternConstant(1, &fakeFunction{body: inner})
	outer.Emit(OpLoadConstant, 0)

	out := Disassemble(outer)
	if !strings.Contains(out, "code object 1 ") {
		t.Fatalf("expected outer code object header, got:\n%s", out)
	}
	if !strings.Contains(out, "code object 2 ") {
		t.Fatalf("expected nested code object header, got:\n%s", out)
	}
}

func TestDisassemble_EmptyCodeObject(t *testing.T) {
	co := NewCodeObject(1)
	out := Disassemble(co)
	if !strings.Contains(out, "0 instructions") {
		t.Fatalf("expected empty instruction count, got:\n%s", out)
	}
}
