// Package compiler walks an AST and emits bytecode.CodeObjects for it:
// one per module, function, and class body, each produced by a
// dedicated code-object builder pass over that body's statements.
package compiler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kristofer/smog/pkg/ast"
	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/value"
)

// Context records why an expression is being compiled, since a bare
// name resolves differently depending on whether it is the target of
// an assignment or merely being read.
type Context int

const (
	CtxNormal Context = iota
	CtxAssignment
	CtxFunction
	CtxClass
)

type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeFunction
	scopeClass
)

// compilerScope is one entry of the compile-time scope stack: the code
// object currently receiving emissions, and what kind of body it is
// (only scopeClass matters, for Method-vs-Function detection).
type compilerScope struct {
	code *bytecode.CodeObject
	kind scopeKind
}

// Compiler holds the state of a single compilation: the scope stack
// and the monotonic id generators for code objects and runtime values.
type Compiler struct {
	scopes     []*compilerScope
	nextCodeID int
	nextValID  int

	// logger is nil by default; AttachLogger opts a caller into one
	// trace event per opcode emitted, mirroring the VM's own
	// nil-means-no-overhead logger field.
	logger *zerolog.Logger
}

// New returns a compiler ready to compile one program.
func New() *Compiler {
	return &Compiler{}
}

// AttachLogger installs l; emit then logs every opcode it writes to
// the current code object's instruction stream.
func (c *Compiler) AttachLogger(l zerolog.Logger) {
	c.logger = &l
}

// Compile compiles a whole program into its root code object.
func (c *Compiler) Compile(program *ast.Program) (*bytecode.CodeObject, error) {
	root := bytecode.NewCodeObject(c.nextCodeObjectID())
	c.pushScope(root, scopeModule)
	defer c.popScope()

	if err := c.compileBody(program.Statements, CtxNormal); err != nil {
		return nil, err
	}
	return root, nil
}

func (c *Compiler) nextCodeObjectID() int {
	id := c.nextCodeID
	c.nextCodeID++
	return id
}

func (c *Compiler) nextValueID() int {
	id := c.nextValID
	c.nextValID++
	return id
}

func (c *Compiler) currentScope() *compilerScope {
	return c.scopes[len(c.scopes)-1]
}

func (c *Compiler) pushScope(co *bytecode.CodeObject, kind scopeKind) {
	c.scopes = append(c.scopes, &compilerScope{code: co, kind: kind})
}

func (c *Compiler) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *Compiler) emit(op bytecode.Opcode, operand uint64) int {
	ip := c.currentScope().code.Emit(op, operand)
	if c.logger != nil {
		c.logger.Debug().
			Int("code_object", c.currentScope().code.ID).
			Int("ip", ip).
			Str("op", op.String()).
			Uint64("operand", operand).
			Msg("emit")
	}
	return ip
}

func (c *Compiler) patch(ip int, operand uint64) {
	c.currentScope().code.Patch(ip, operand)
}

// appendConstant adds v to the current code object's constant pool
// without going through node-id interning, for synthetic constants
// (attribute-name strings) that have no owning AST node to key on.
func (c *Compiler) appendConstant(v value.Value) int {
	co := c.currentScope().code
	ix := len(co.Constants)
	co.Constants = append(co.Constants, v)
	return ix
}

// compileBody compiles each statement of a block in order. Per the
// stack discipline this language uses, no statement's value is
// discarded between siblings - the code object simply accumulates
// whatever each statement leaves on the stack, and only the final
// residual value (the last statement's) is meaningful to a caller.
// This is deliberate, not an oversight: see DESIGN.md.
func (c *Compiler) compileBody(body []ast.Expression, ctx Context) error {
	for _, stmt := range body {
		if err := c.compile(stmt, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compile(e ast.Expression, ctx Context) error {
	switch n := e.(type) {
	case *ast.Int:
		return c.compileLiteral(n.NodeId(), value.Int{Value: n.Value})
	case *ast.Float:
		return c.compileLiteral(n.NodeId(), value.Float{Value: n.Value})
	case *ast.Bool:
		return c.compileLiteral(n.NodeId(), value.Bool{Value: n.Value})
	case *ast.String:
		return c.compileLiteral(n.NodeId(), value.String{Value: n.Value})
	case *ast.Null:
		c.emit(bytecode.OpLoadNull, 0)
		return nil
	case *ast.Name:
		return c.compileName(n, ctx)
	case *ast.Identity:
		return c.compileIdentity(n, ctx)
	case *ast.Call:
		return c.compileCall(n)
	case *ast.Binary:
		return c.compileBinary(n)
	case *ast.Comparison:
		return c.compileComparison(n)
	case *ast.Logical:
		return c.compileLogical(n)
	case *ast.Unary:
		return c.compileUnary(n)
	case *ast.Map:
		return c.compileMap(n)
	case *ast.List:
		return c.compileList(n)
	case *ast.Assign:
		return c.compileAssign(n)
	case *ast.Function:
		return c.compileFunction(n)
	case *ast.Class:
		return c.compileClass(n)
	case *ast.Return:
		return c.compileReturn(n)
	case *ast.If:
		return c.compileIf(n, ctx)
	case *ast.While:
		return c.compileWhile(n, ctx)
	default:
		return fmt.Errorf("compiler: unhandled expression type %T", e)
	}
}

func (c *Compiler) compileLiteral(nodeID int, v value.Value) error {
	ix := c.currentScope().code.InternConstant(nodeID, v)
	c.emit(bytecode.OpLoadConstant, uint64(ix))
	return nil
}

// compileName resolves a bare identifier per the identifier-resolution
// algorithm: in Assignment context it always declares (interns) the
// name in the current code object; otherwise it looks in the current
// code object first, then walks the enclosing scope stack innermost
// to outermost, emitting a LoadScope/LoadNonlocal pair on the first
// hit. An unbound name anywhere else is a compile-time error.
func (c *Compiler) compileName(n *ast.Name, ctx Context) error {
	cur := c.currentScope().code

	if ctx == CtxAssignment {
		slot := cur.InternVariable(n.Value)
		c.emit(bytecode.OpLoadLocal, uint64(slot))
		return nil
	}

	if slot, ok := cur.LookupVariable(n.Value); ok {
		c.emit(bytecode.OpLoadLocal, uint64(slot))
		return nil
	}

	for i := len(c.scopes) - 2; i >= 0; i-- {
		enclosing := c.scopes[i].code
		if slot, ok := enclosing.LookupVariable(n.Value); ok {
			c.emit(bytecode.OpLoadScope, uint64(enclosing.ID))
			c.emit(bytecode.OpLoadNonlocal, uint64(slot))
			return nil
		}
	}

	return fmt.Errorf("compiler: unbound name %q", n.Value)
}

// compileIdentityHead compiles the first link of an identity chain: a
// bare name goes through name resolution (context-sensitive); anything
// else (a parenthesized expression, or a Call that is itself chained
// further) is compiled as an ordinary expression.
func (c *Compiler) compileIdentityHead(head ast.Expression, ctx Context) error {
	if name, ok := head.(*ast.Name); ok {
		return c.compileName(name, ctx)
	}
	return c.compile(head, CtxNormal)
}

func (c *Compiler) compileIdentity(id *ast.Identity, ctx Context) error {
	if err := c.compileIdentityHead(id.Head, ctx); err != nil {
		return err
	}
	for _, part := range id.Parts {
		switch p := part.(type) {
		case ast.AccessAttributePart:
			ix := c.appendConstant(value.String{Value: p.Name})
			c.emit(bytecode.OpLoadConstant, uint64(ix))
			c.emit(bytecode.OpAccessAttribute, 0)
		case ast.BinarySubscribePart:
			if err := c.compile(p.Value, CtxNormal); err != nil {
				return err
			}
			c.emit(bytecode.OpBinarySubscribe, 0)
		case ast.CallPart:
			for _, arg := range p.Arguments {
				if err := c.compile(arg, CtxNormal); err != nil {
					return err
				}
			}
			c.emit(bytecode.OpCall, uint64(len(p.Arguments)))
		default:
			return fmt.Errorf("compiler: unhandled identity part %T", part)
		}
	}
	return nil
}

func (c *Compiler) compileCall(call *ast.Call) error {
	if err := c.compileIdentity(call.Identity, CtxNormal); err != nil {
		return err
	}
	for _, arg := range call.Arguments {
		if err := c.compile(arg, CtxNormal); err != nil {
			return err
		}
	}
	c.emit(bytecode.OpCall, uint64(len(call.Arguments)))
	return nil
}

func (c *Compiler) compileBinary(b *ast.Binary) error {
	if err := c.compile(b.Left, CtxNormal); err != nil {
		return err
	}
	if err := c.compile(b.Right, CtxNormal); err != nil {
		return err
	}
	c.emit(binaryOpcode(b.Op), 0)
	return nil
}

func (c *Compiler) compileComparison(cmp *ast.Comparison) error {
	if err := c.compile(cmp.Left, CtxNormal); err != nil {
		return err
	}
	if err := c.compile(cmp.Right, CtxNormal); err != nil {
		return err
	}
	c.emit(bytecode.OpCompare, uint64(compareOpcode(cmp.Op)))
	return nil
}

func (c *Compiler) compileLogical(l *ast.Logical) error {
	if err := c.compile(l.Left, CtxNormal); err != nil {
		return err
	}
	if err := c.compile(l.Right, CtxNormal); err != nil {
		return err
	}
	if l.Op == ast.OpLogicalAnd {
		c.emit(bytecode.OpLogicalAnd, 0)
	} else {
		c.emit(bytecode.OpLogicalOr, 0)
	}
	return nil
}

func (c *Compiler) compileUnary(u *ast.Unary) error {
	if err := c.compile(u.Operand, CtxNormal); err != nil {
		return err
	}
	if u.Op == ast.OpNegate {
		c.emit(bytecode.OpNegate, 0)
	} else {
		c.emit(bytecode.OpNot, 0)
	}
	return nil
}

// foldConst attempts to build a compile-time constant value.Value for
// an expression made entirely of literals (scalars, and Maps/Lists
// whose entries are themselves foldable). Returns ok=false the moment
// any part of the expression is not a literal.
func (c *Compiler) foldConst(e ast.Expression) (value.Value, bool) {
	switch n := e.(type) {
	case *ast.Int:
		return value.Int{Value: n.Value}, true
	case *ast.Float:
		return value.Float{Value: n.Value}, true
	case *ast.Bool:
		return value.Bool{Value: n.Value}, true
	case *ast.String:
		return value.String{Value: n.Value}, true
	case *ast.Null:
		return value.NullValue, true
	case *ast.Map:
		m := value.NewMap(c.nextValueID())
		for _, entry := range n.Properties {
			k, ok := c.foldConst(entry.Key)
			if !ok {
				return nil, false
			}
			v, ok := c.foldConst(entry.Value)
			if !ok {
				return nil, false
			}
			if err := m.Insert(k, v); err != nil {
				return nil, false
			}
		}
		return m, true
	case *ast.List:
		l := value.NewList(c.nextValueID())
		for _, elem := range n.Elements {
			v, ok := c.foldConst(elem)
			if !ok {
				return nil, false
			}
			l.Push(v)
		}
		return l, true
	default:
		return nil, false
	}
}

func (c *Compiler) compileMap(m *ast.Map) error {
	if v, ok := c.foldConst(m); ok {
		return c.compileLiteral(m.NodeId(), v)
	}
	for _, entry := range m.Properties {
		if err := c.compile(entry.Key, CtxNormal); err != nil {
			return err
		}
		if err := c.compile(entry.Value, CtxNormal); err != nil {
			return err
		}
	}
	c.emit(bytecode.OpMakeMap, uint64(2*len(m.Properties)))
	return nil
}

func (c *Compiler) compileList(l *ast.List) error {
	if v, ok := c.foldConst(l); ok {
		return c.compileLiteral(l.NodeId(), v)
	}
	for _, elem := range l.Elements {
		if err := c.compile(elem, CtxNormal); err != nil {
			return err
		}
	}
	c.emit(bytecode.OpMakeList, uint64(len(l.Elements)))
	return nil
}

// compileAssign implements assignment compilation: the final part of
// the LHS identity is detached, the remaining prefix (if any) is
// compiled in Assignment context so it leaves the target container on
// the stack, and the detached final part decides which of Assign,
// AssignSubscribe, or AssignAttribute gets emitted.
func (c *Compiler) compileAssign(a *ast.Assign) error {
	id := a.Identity

	if len(id.Parts) == 0 {
		name, ok := id.Head.(*ast.Name)
		if !ok {
			return fmt.Errorf("compiler: invalid assignment target %T", id.Head)
		}
		slot := c.currentScope().code.InternVariable(name.Value)
		if err := c.compile(a.Value, CtxNormal); err != nil {
			return err
		}
		c.emit(bytecode.OpAssign, uint64(slot))
		return nil
	}

	lastIx := len(id.Parts) - 1
	prefix := ast.NewIdentity(id.NodeId(), id.Head, id.Parts[:lastIx])
	if err := c.compileIdentity(prefix, CtxAssignment); err != nil {
		return err
	}

	switch last := id.Parts[lastIx].(type) {
	case ast.BinarySubscribePart:
		if err := c.compile(last.Value, CtxNormal); err != nil {
			return err
		}
		if err := c.compile(a.Value, CtxNormal); err != nil {
			return err
		}
		c.emit(bytecode.OpAssignSubscribe, 0)
		return nil
	case ast.AccessAttributePart:
		ix := c.appendConstant(value.String{Value: last.Name})
		c.emit(bytecode.OpLoadConstant, uint64(ix))
		if err := c.compile(a.Value, CtxNormal); err != nil {
			return err
		}
		c.emit(bytecode.OpAssignAttribute, 0)
		return nil
	default:
		return fmt.Errorf("compiler: invalid assignment target part %T", last)
	}
}

// compileFunction compiles a function literal into its own code
// object and wraps it as a constant. When the literal sits directly in
// a class body and its first parameter is named "self", it is wrapped
// as a Method instead of a bare Function, marking it as a bound
// instance method rather than a static helper.
func (c *Compiler) compileFunction(fn *ast.Function) error {
	isMethod := len(fn.Parameters) > 0 && fn.Parameters[0] == "self" &&
		c.currentScope().kind == scopeClass

	// A call to a bound Method appends the caller as the call's last
	// argument (see pkg/vm's call protocol), so self's slot must be
	// interned last even though it is conventionally written first in
	// the source parameter list.
	params := fn.Parameters
	if isMethod {
		params = append(append([]string{}, fn.Parameters[1:]...), "self")
	}

	body := bytecode.NewCodeObject(c.nextCodeObjectID())
	c.pushScope(body, scopeFunction)
	for _, p := range params {
		body.InternVariable(p)
	}
	err := c.compileBody(fn.Body, CtxFunction)
	c.popScope()
	if err != nil {
		return err
	}

	fnVal := &value.Function{ID: c.nextValueID(), Parameters: params, Body: body}
	var v value.Value = fnVal
	if isMethod {
		v = &value.Method{ID: c.nextValueID(), Function: fnVal}
	}
	return c.compileLiteral(fn.NodeId(), v)
}

// compileClass compiles a class literal. If a superclass expression is
// present it is compiled first so the parent value ends up beneath the
// class value on the stack; MakeClass then consumes it.
func (c *Compiler) compileClass(cls *ast.Class) error {
	inheritFlag := uint64(0)
	if cls.Superclass != nil {
		if err := c.compile(cls.Superclass, CtxNormal); err != nil {
			return err
		}
		inheritFlag = 1
	}

	body := bytecode.NewCodeObject(c.nextCodeObjectID())
	c.pushScope(body, scopeClass)
	err := c.compileBody(cls.Body, CtxClass)
	c.popScope()
	if err != nil {
		return err
	}

	classVal := &value.Class{ID: c.nextValueID(), Body: body}
	if err := c.compileLiteral(cls.NodeId(), classVal); err != nil {
		return err
	}
	c.emit(bytecode.OpMakeClass, inheritFlag)
	return nil
}

func (c *Compiler) compileReturn(r *ast.Return) error {
	if r.Value != nil {
		if err := c.compile(r.Value, CtxNormal); err != nil {
			return err
		}
	} else {
		c.emit(bytecode.OpLoadNull, 0)
	}
	c.emit(bytecode.OpReturnValue, 0)
	return nil
}

func (c *Compiler) compileIf(i *ast.If, ctx Context) error {
	if err := c.compile(i.Condition, CtxNormal); err != nil {
		return err
	}
	jumpToElse := c.emit(bytecode.OpPopJumpIfFalse, 0)

	if err := c.compileBody(i.Then, ctx); err != nil {
		return err
	}
	jumpToEnd := c.emit(bytecode.OpJump, 0)

	c.patch(jumpToElse, uint64(c.currentScope().code.Len()))
	if err := c.compileBody(i.Else, ctx); err != nil {
		return err
	}
	c.patch(jumpToEnd, uint64(c.currentScope().code.Len()))
	return nil
}

func (c *Compiler) compileWhile(w *ast.While, ctx Context) error {
	start := c.currentScope().code.Len()
	if err := c.compile(w.Condition, CtxNormal); err != nil {
		return err
	}
	jumpToEnd := c.emit(bytecode.OpPopJumpIfFalse, 0)

	if err := c.compileBody(w.Body, ctx); err != nil {
		return err
	}
	c.emit(bytecode.OpJump, uint64(start))

	c.patch(jumpToEnd, uint64(c.currentScope().code.Len()))
	return nil
}

func binaryOpcode(op ast.BinaryOp) bytecode.Opcode {
	switch op {
	case ast.OpPlus:
		return bytecode.OpAdd
	case ast.OpMinus:
		return bytecode.OpSub
	case ast.OpAsterisk:
		return bytecode.OpMul
	case ast.OpSlash:
		return bytecode.OpDiv
	case ast.OpDoubleSlash:
		return bytecode.OpIntDiv
	case ast.OpModulo:
		return bytecode.OpMod
	case ast.OpExponent:
		return bytecode.OpExp
	default:
		return bytecode.OpAdd
	}
}

func compareOpcode(op ast.CompareOp) bytecode.CompareOp {
	switch op {
	case ast.CmpEqual:
		return bytecode.CompareEqual
	case ast.CmpNotEqual:
		return bytecode.CompareNotEqual
	case ast.CmpLess:
		return bytecode.CompareLess
	case ast.CmpLessEqual:
		return bytecode.CompareLessEqual
	case ast.CmpGreater:
		return bytecode.CompareGreater
	case ast.CmpGreaterEqual:
		return bytecode.CompareGreaterEqual
	default:
		return bytecode.CompareEqual
	}
}
