// Package vm - debugger support
package vm

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kristofer/smog/pkg/bytecode"
)

// breakpointKey identifies a single instruction site: a code object and
// the instruction pointer within it, since the same ip means different
// things in different code objects.
type breakpointKey struct {
	codeObjectID int
	ip           int
}

// Debugger provides interactive debugging capabilities for the VM,
// hooked into execFrame's dispatch loop one instruction at a time.
type Debugger struct {
	vm          *VM
	breakpoints map[breakpointKey]bool
	stepMode    bool
	enabled     bool
}

// NewDebugger creates a new debugger instance for vm.
func NewDebugger(vm *VM) *Debugger {
	return &Debugger{
		vm:          vm,
		breakpoints: make(map[breakpointKey]bool),
	}
}

// Enable activates the debugger.
func (d *Debugger) Enable() {
	d.enabled = true
}

// Disable deactivates the debugger.
func (d *Debugger) Disable() {
	d.enabled = false
}

// SetStepMode enables or disables step mode. In step mode, execution
// pauses before each instruction.
func (d *Debugger) SetStepMode(enabled bool) {
	d.stepMode = enabled
}

// AddBreakpoint adds a breakpoint at the given code object's instruction ip.
func (d *Debugger) AddBreakpoint(codeObjectID, ip int) {
	d.breakpoints[breakpointKey{codeObjectID, ip}] = true
}

// RemoveBreakpoint removes a previously added breakpoint.
func (d *Debugger) RemoveBreakpoint(codeObjectID, ip int) {
	delete(d.breakpoints, breakpointKey{codeObjectID, ip})
}

// ClearBreakpoints removes all breakpoints.
func (d *Debugger) ClearBreakpoints() {
	d.breakpoints = make(map[breakpointKey]bool)
}

// ShouldPause reports whether execution should pause before running
// the instruction at f's current ip.
func (d *Debugger) ShouldPause(f *Frame) bool {
	if !d.enabled {
		return false
	}
	if d.stepMode {
		return true
	}
	return d.breakpoints[breakpointKey{f.Code.ID, f.IP}]
}

// ShowCurrentInstruction prints the instruction about to execute in f.
func (d *Debugger) ShowCurrentInstruction(f *Frame) {
	if f.IP >= len(f.Code.Operations) {
		fmt.Println("no current instruction (frame is past its last instruction)")
		return
	}
	instr := f.Code.Operations[f.IP]
	fmt.Printf("  %4d: %s %d\n", f.IP, instr.Op, instr.Operand)
}

// ShowStack displays the VM's shared value stack, top first.
func (d *Debugger) ShowStack() {
	fmt.Println("stack (top to bottom):")
	if len(d.vm.stack) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for i := len(d.vm.stack) - 1; i >= 0; i-- {
		v := d.vm.stack[i]
		fmt.Printf("  [%d] %s (%s)\n", i, v.Inspect(), v.Type())
	}
}

// ShowLocals displays f's variable slots by name.
func (d *Debugger) ShowLocals(f *Frame) {
	fmt.Println("variables:")
	if len(f.Variables) == 0 {
		fmt.Println("  (none)")
		return
	}
	for i, v := range f.Variables {
		name := "?"
		if i < len(f.Code.VariableNames) {
			name = f.Code.VariableNames[i]
		}
		fmt.Printf("  [%d] %s = %s (%s)\n", i, name, v.Inspect(), v.Type())
	}
}

// ShowCallStack displays the VM's active frames, innermost last.
func (d *Debugger) ShowCallStack() {
	fmt.Println("call stack (outermost first):")
	if len(d.vm.frames) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for i, f := range d.vm.frames {
		fmt.Printf("  #%d code object %d [ip %d]\n", i, f.Code.ID, f.IP)
	}
}

// InteractivePrompt is called when execution pauses at a breakpoint or
// in step mode; it returns whether to resume execution.
func (d *Debugger) InteractivePrompt(f *Frame) (continueExecution bool) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Printf("\n=== paused (session %s) ===\n", d.vm.SessionID())
	d.ShowCurrentInstruction(f)

	for {
		fmt.Print("debug> ")
		if !scanner.Scan() {
			return false
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		command := parts[0]

		switch command {
		case "help", "h", "?":
			d.printHelp()

		case "continue", "c":
			d.SetStepMode(false)
			return true

		case "step", "s", "next", "n":
			d.SetStepMode(true)
			return true

		case "stack", "st":
			d.ShowStack()

		case "locals", "l":
			d.ShowLocals(f)

		case "callstack", "cs":
			d.ShowCallStack()

		case "instruction", "i":
			d.ShowCurrentInstruction(f)

		case "breakpoint", "b":
			if len(parts) < 2 {
				fmt.Println("usage: breakpoint <ip>")
				continue
			}
			ip, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("invalid instruction number")
				continue
			}
			d.AddBreakpoint(f.Code.ID, ip)
			fmt.Printf("breakpoint added at code object %d instruction %d\n", f.Code.ID, ip)

		case "delete", "d":
			if len(parts) < 2 {
				fmt.Println("usage: delete <ip>")
				continue
			}
			ip, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("invalid instruction number")
				continue
			}
			d.RemoveBreakpoint(f.Code.ID, ip)
			fmt.Printf("breakpoint removed at code object %d instruction %d\n", f.Code.ID, ip)

		case "list", "ls":
			fmt.Println(bytecode.Disassemble(f.Code))

		case "quit", "q":
			return false

		default:
			fmt.Printf("unknown command: %s (type 'help' for commands)\n", command)
		}
	}
}

// printHelp displays available debugger commands.
func (d *Debugger) printHelp() {
	fmt.Println("debugger commands:")
	fmt.Println("  help, h, ?        show this help")
	fmt.Println("  continue, c       continue execution")
	fmt.Println("  step, s, next, n  execute one instruction, then pause again")
	fmt.Println("  stack, st         show the value stack")
	fmt.Println("  locals, l         show the current frame's variables")
	fmt.Println("  callstack, cs     show the active call frames")
	fmt.Println("  instruction, i    show the current instruction")
	fmt.Println("  breakpoint <ip>, b    add a breakpoint in the current code object")
	fmt.Println("  delete <ip>, d        remove a breakpoint")
	fmt.Println("  list, ls          disassemble the current code object")
	fmt.Println("  quit, q           abort execution")
}
