package bytecode

import (
	"fmt"
	"strings"
)

// NestedCodeObject is implemented by constant-pool values that carry
// their own CodeObject (function and class bodies), letting Disassemble
// recurse into them without this package depending on pkg/value.
type NestedCodeObject interface {
	DisassemblyBody() *CodeObject
}

// Disassemble renders a CodeObject as a human-readable instruction
// listing, one line per instruction, with constant and variable
// operands resolved to their literal or name where that's more useful
// than the bare index. Nested function and class bodies found in the
// constant pool are appended below their own listing, indented.
func Disassemble(co *CodeObject) string {
	var b strings.Builder
	disassembleInto(&b, co, "")
	return b.String()
}

func disassembleInto(b *strings.Builder, co *CodeObject, indent string) {
	fmt.Fprintf(b, "%scode object %d (%d instructions, %d constants, %d variables)\n",
		indent, co.ID, len(co.Operations), len(co.Constants), len(co.VariableNames))

	var nested []*CodeObject
	for ip, instr := range co.Operations {
		fmt.Fprintf(b, "%s%4d %-20s", indent, ip, instr.Op.String())
		switch instr.Op {
		case OpLoadConstant:
			fmt.Fprintf(b, " %d %s", instr.Operand, formatConstant(co, instr.Operand))
			if c, ok := nestedConstant(co, instr.Operand); ok {
				nested = append(nested, c)
			}
		case OpLoadLocal, OpLoadNonlocal, OpAssign:
			fmt.Fprintf(b, " %d %s", instr.Operand, formatVariable(co, instr.Operand))
		case OpLoadScope:
			fmt.Fprintf(b, " %d (code object id)", instr.Operand)
		case OpCompare:
			fmt.Fprintf(b, " %d %s", instr.Operand, CompareOp(instr.Operand).String())
		case OpJump, OpPopJumpIfFalse:
			fmt.Fprintf(b, " -> %d", instr.Operand)
		case OpMakeMap, OpMakeList, OpCall:
			fmt.Fprintf(b, " %d", instr.Operand)
		case OpMakeClass:
			if instr.Operand == 1 {
				fmt.Fprint(b, " (with superclass)")
			}
		}
		fmt.Fprintln(b)
	}

	for _, n := range nested {
		disassembleInto(b, n, indent+"  ")
	}
}

func formatConstant(co *CodeObject, ix uint64) string {
	if int(ix) >= len(co.Constants) {
		return "<out of range>"
	}
	c := co.Constants[ix]
	if s, ok := c.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	if n, ok := c.(NestedCodeObject); ok {
		return fmt.Sprintf("<code object %d>", n.DisassemblyBody().ID)
	}
	return fmt.Sprintf("%v", c)
}

func nestedConstant(co *CodeObject, ix uint64) (*CodeObject, bool) {
	if int(ix) >= len(co.Constants) {
		return nil, false
	}
	n, ok := co.Constants[ix].(NestedCodeObject)
	if !ok {
		return nil, false
	}
	return n.DisassemblyBody(), true
}

func formatVariable(co *CodeObject, ix uint64) string {
	if int(ix) >= len(co.VariableNames) {
		return "<out of range>"
	}
	return co.VariableNames[ix]
}
