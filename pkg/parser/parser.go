// Package parser implements the smog language parser.
//
// The parser is responsible for converting a stream of tokens (from the lexer)
// into an Abstract Syntax Tree (AST). It performs syntactic analysis to ensure
// the code follows the grammar rules of the smog language.
//
// Parser Architecture:
//
// The parser is a Pratt parser (operator-precedence parser): every token
// type that can start an expression registers a prefix parse function, and
// every token type that can continue one (a binary or postfix operator)
// registers an infix parse function together with a binding precedence.
// parseExpression repeatedly looks at the precedence of the upcoming
// operator to decide whether to fold the expression built so far into a
// larger one or hand control back to its caller.
//
// Token Management:
//
// The parser maintains two tokens at all times:
//   - curTok: The current token being examined
//   - peekTok: The next token (one token lookahead)
//
// Identity Chains:
//
// Attribute access, subscripting and calling are parsed uniformly as a
// chain of "parts" following a head expression (see pkg/ast's Identity
// type). A chain that ends in a call produces a Call node rather than an
// Identity, since a call result is itself a full expression, not merely a
// reference; a call that is itself chained further (f().attr) becomes the
// Head of a new Identity rather than a trailing part.
//
// Statement Separators:
//
// Statements are separated by `;` or simply by the next statement
// starting; the lexer treats newlines as whitespace, so the parser itself
// never looks for a newline token - it only consumes a semicolon when one
// is present and otherwise relies on the shape of the next token to tell
// it a new statement has begun.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kristofer/smog/pkg/ast"
	"github.com/kristofer/smog/pkg/lexer"
)

// Operator precedence levels, lowest to highest. Parentheses and the
// identity-chain postfix operators (`.`, `[`, `(`) are handled outside
// this table since they bind tighter than any prefix/infix operator and
// are parsed directly as part of primary-expression parsing.
const (
	_ int = iota
	LOWEST
	LOGICAL_OR
	LOGICAL_AND
	EQUALITY
	RELATIONAL
	ADDITIVE
	MULTIPLICATIVE
	EXPONENT
	PREFIX
)

var precedences = map[lexer.TokenType]int{
	lexer.TokenLogicalOr:     LOGICAL_OR,
	lexer.TokenLogicalAnd:    LOGICAL_AND,
	lexer.TokenEquals:        EQUALITY,
	lexer.TokenNotEquals:     EQUALITY,
	lexer.TokenLess:          RELATIONAL,
	lexer.TokenLessEqual:     RELATIONAL,
	lexer.TokenGreater:       RELATIONAL,
	lexer.TokenGreaterEqual:  RELATIONAL,
	lexer.TokenPlus:          ADDITIVE,
	lexer.TokenMinus:         ADDITIVE,
	lexer.TokenAsterisk:      MULTIPLICATIVE,
	lexer.TokenSlash:         MULTIPLICATIVE,
	lexer.TokenDoubleSlash:   MULTIPLICATIVE,
	lexer.TokenModulo:        MULTIPLICATIVE,
	lexer.TokenExponent:      EXPONENT,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser is a stateful, single-use recursive-descent/Pratt parser: create
// a new one for each source file or snippet.
type Parser struct {
	l       *lexer.Lexer
	curTok  lexer.Token
	peekTok lexer.Token
	errors  []string
	nextID  int

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

// New creates a new parser for the given source code.
func New(input string) *Parser {
	p := &Parser{
		l:      lexer.New(input),
		errors: []string{},
		nextID: 1,
	}

	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.TokenInteger, p.parseIntegerLiteral)
	p.registerPrefix(lexer.TokenFloat, p.parseFloatLiteral)
	p.registerPrefix(lexer.TokenString, p.parseStringLiteral)
	p.registerPrefix(lexer.TokenTrue, p.parseBooleanLiteral)
	p.registerPrefix(lexer.TokenFalse, p.parseBooleanLiteral)
	p.registerPrefix(lexer.TokenNull, p.parseNullLiteral)
	p.registerPrefix(lexer.TokenIdentifier, p.parseIdentifier)
	p.registerPrefix(lexer.TokenMinus, p.parsePrefixExpression)
	p.registerPrefix(lexer.TokenNot, p.parsePrefixExpression)
	p.registerPrefix(lexer.TokenLParen, p.parseGroupedExpression)
	p.registerPrefix(lexer.TokenLBracket, p.parseListLiteral)
	p.registerPrefix(lexer.TokenLBrace, p.parseMapLiteral)
	p.registerPrefix(lexer.TokenFn, p.parseFunctionLiteral)
	p.registerPrefix(lexer.TokenClass, p.parseClassLiteral)
	p.registerPrefix(lexer.TokenIf, p.parseIfExpression)
	p.registerPrefix(lexer.TokenWhile, p.parseWhileExpression)
	p.registerPrefix(lexer.TokenReturn, p.parseReturnExpression)

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	for tt := range precedences {
		p.registerInfix(tt, p.parseBinaryLikeExpression)
	}

	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tt lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tt] = fn
}

func (p *Parser) registerInfix(tt lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tt] = fn
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) newID() int {
	id := p.nextID
	p.nextID++
	return id
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("line %d: %s", p.curTok.Line, msg))
}

// Errors returns the accumulated parse errors.
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekTok.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curTok.Type]; ok {
		return pr
	}
	return LOWEST
}

// skipStatementSeparators consumes any run of semicolons between
// statements.
func (p *Parser) skipStatementSeparators() {
	for p.curTok.Type == lexer.TokenSemicolon {
		p.nextToken()
	}
}

// Parse parses the full program and returns its AST, or an error
// aggregating every syntax error encountered. The returned Program is
// non-nil even on error, to allow callers to inspect what was recovered.
func (p *Parser) Parse() (*ast.Program, error) {
	id := p.newID()
	var statements []ast.Expression

	p.skipStatementSeparators()
	for p.curTok.Type != lexer.TokenEOF {
		stmt := p.parseExpressionStatement()
		if stmt != nil {
			statements = append(statements, stmt)
		}
		p.skipStatementSeparators()
	}

	program := ast.NewProgram(id, statements)
	if len(p.errors) > 0 {
		return program, fmt.Errorf("parser errors: %s", strings.Join(p.errors, "; "))
	}
	return program, nil
}

// parseExpressionStatement parses one top-level or block-level
// expression and consumes a single trailing semicolon if present.
func (p *Parser) parseExpressionStatement() ast.Expression {
	expr := p.parseExpression(LOWEST)
	if p.peekTok.Type == lexer.TokenSemicolon {
		p.nextToken()
	}
	p.nextToken()
	return expr
}

// parseBlock parses a brace-delimited sequence of expression statements,
// used for if/else/while/fn/class bodies. curTok must be `{` on entry;
// on return curTok is the matching `}`.
func (p *Parser) parseBlock() []ast.Expression {
	if p.curTok.Type != lexer.TokenLBrace {
		p.addError(fmt.Sprintf("expected '{' to start block, got %s", p.curTok.Type))
		return nil
	}
	p.nextToken()
	p.skipStatementSeparators()

	var body []ast.Expression
	for p.curTok.Type != lexer.TokenRBrace && p.curTok.Type != lexer.TokenEOF {
		stmt := p.parseExpressionStatement()
		if stmt != nil {
			body = append(body, stmt)
		}
		p.skipStatementSeparators()
	}

	if p.curTok.Type != lexer.TokenRBrace {
		p.addError("expected '}' to close block")
	}
	return body
}

// parseExpression is the Pratt-parser core: it parses a prefix
// expression, then folds in trailing infix/postfix operators whose
// precedence is at least `precedence`. Assignment and identity-chain
// suffixes are handled as part of prefix parsing and the dedicated
// chain-folding step below, since both bind differently than a plain
// left-associative binary operator.
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curTok.Type]
	if prefix == nil {
		p.addError(fmt.Sprintf("no prefix parse function for %s", p.curTok.Type))
		return nil
	}
	left := prefix()
	if left == nil {
		return nil
	}

	left = p.parseIdentityChain(left)
	if left == nil {
		return nil
	}

	if p.peekTok.Type == lexer.TokenAssign {
		return p.parseAssign(left)
	}

	for p.peekTok.Type != lexer.TokenSemicolon && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekTok.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
		if left == nil {
			return nil
		}
	}

	return left
}

// parseIdentityChain folds trailing `.name`, `[expr]` and `(args)`
// suffixes onto head. A call that is immediately followed by further
// chaining becomes the Head of a new Identity; a call that ends the
// chain is returned directly as a Call node.
func (p *Parser) parseIdentityChain(head ast.Expression) ast.Expression {
	current := head
	var parts []ast.IdentityPart

	for {
		switch p.peekTok.Type {
		case lexer.TokenPeriod:
			p.nextToken()
			if p.peekTok.Type != lexer.TokenIdentifier {
				p.addError("expected attribute name after '.'")
				return nil
			}
			p.nextToken()
			parts = append(parts, ast.AccessAttributePart{Name: p.curTok.Literal})

		case lexer.TokenLBracket:
			p.nextToken() // consume '['
			p.nextToken()
			idx := p.parseExpression(LOWEST)
			if idx == nil {
				return nil
			}
			if p.peekTok.Type != lexer.TokenRBracket {
				p.addError("expected ']' after subscript expression")
				return nil
			}
			p.nextToken()
			parts = append(parts, ast.BinarySubscribePart{Value: idx})

		case lexer.TokenLParen:
			p.nextToken() // consume '('
			p.nextToken()
			args := p.parseExpressionList(lexer.TokenRParen)
			if args == nil && len(p.errors) > 0 {
				return nil
			}
			identity := ast.NewIdentity(p.newID(), current, parts)
			call := ast.NewCall(p.newID(), identity, args)

			switch p.peekTok.Type {
			case lexer.TokenPeriod, lexer.TokenLBracket, lexer.TokenLParen:
				current = call
				parts = nil
				continue
			default:
				return call
			}

		default:
			if len(parts) == 0 {
				return current
			}
			return ast.NewIdentity(p.newID(), current, parts)
		}
	}
}

// parseExpressionList parses a comma-separated list of expressions up
// to and including the closing token (`)`, `]` or `}`), which must be
// curTok's peek on entry (i.e. curTok is already positioned at the first
// element, or at the closing token for an empty list).
func (p *Parser) parseExpressionList(end lexer.TokenType) []ast.Expression {
	var list []ast.Expression

	if p.curTok.Type == end {
		return list
	}

	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	list = append(list, expr)

	for p.peekTok.Type == lexer.TokenComma {
		p.nextToken()
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		list = append(list, expr)
	}

	if p.peekTok.Type != end {
		p.addError(fmt.Sprintf("expected %s, got %s", end, p.peekTok.Type))
		return nil
	}
	p.nextToken()
	return list
}

// parseAssign handles `lhs = value`. lhs must reduce to a Name or an
// Identity; anything else is not a valid assignment target.
func (p *Parser) parseAssign(lhs ast.Expression) ast.Expression {
	id := p.newID()

	var identity *ast.Identity
	switch t := lhs.(type) {
	case *ast.Name:
		identity = ast.NewIdentity(p.newID(), t, nil)
	case *ast.Identity:
		identity = t
	default:
		p.addError("invalid assignment target")
		return nil
	}

	p.nextToken() // consume '='
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	return ast.NewAssign(id, identity, value, false)
}

func (p *Parser) parseIdentifier() ast.Expression {
	return ast.NewName(p.newID(), p.curTok.Literal)
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	value, err := strconv.ParseInt(p.curTok.Literal, 10, 64)
	if err != nil {
		p.addError(fmt.Sprintf("could not parse %q as integer", p.curTok.Literal))
		return nil
	}
	return ast.NewInt(p.newID(), value)
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	value, err := strconv.ParseFloat(p.curTok.Literal, 64)
	if err != nil {
		p.addError(fmt.Sprintf("could not parse %q as float", p.curTok.Literal))
		return nil
	}
	return ast.NewFloat(p.newID(), value)
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return ast.NewString(p.newID(), p.curTok.Literal)
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return ast.NewBool(p.newID(), p.curTok.Type == lexer.TokenTrue)
}

func (p *Parser) parseNullLiteral() ast.Expression {
	return ast.NewNull(p.newID())
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	if p.peekTok.Type != lexer.TokenRParen {
		p.addError("expected ')' to close grouped expression")
		return nil
	}
	p.nextToken()
	return expr
}

func (p *Parser) parseListLiteral() ast.Expression {
	id := p.newID()
	p.nextToken()
	elems := p.parseExpressionList(lexer.TokenRBracket)
	if elems == nil && len(p.errors) > 0 {
		return nil
	}
	return ast.NewList(id, elems)
}

// parseMapLiteral parses `{key: value, key2: value2, ...}`. Keys are
// full expressions, not restricted to identifiers or strings.
func (p *Parser) parseMapLiteral() ast.Expression {
	id := p.newID()
	var entries []ast.MapEntry

	p.nextToken()
	if p.curTok.Type == lexer.TokenRBrace {
		return ast.NewMap(id, entries)
	}
	for p.curTok.Type != lexer.TokenRBrace {
		key := p.parseExpression(LOWEST)
		if key == nil {
			return nil
		}
		if p.peekTok.Type != lexer.TokenColon {
			p.addError("expected ':' after map key")
			return nil
		}
		p.nextToken() // consume ':'
		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		entries = append(entries, ast.MapEntry{Key: key, Value: value})

		if p.peekTok.Type == lexer.TokenComma {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}

	if p.peekTok.Type != lexer.TokenRBrace {
		p.addError("expected '}' to close map literal")
		return nil
	}
	p.nextToken()
	return ast.NewMap(id, entries)
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	id := p.newID()
	var op ast.UnaryOp
	switch p.curTok.Type {
	case lexer.TokenMinus:
		op = ast.OpNegate
	case lexer.TokenNot:
		op = ast.OpNot
	default:
		p.addError(fmt.Sprintf("unexpected prefix operator %s", p.curTok.Type))
		return nil
	}
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	if operand == nil {
		return nil
	}
	return ast.NewUnary(id, op, operand)
}

// parseBinaryLikeExpression is the shared infix parse function for
// every arithmetic, comparison and logical operator; it dispatches to
// the right AST node shape based on the operator token.
func (p *Parser) parseBinaryLikeExpression(left ast.Expression) ast.Expression {
	id := p.newID()
	opTok := p.curTok
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}

	switch opTok.Type {
	case lexer.TokenPlus:
		return ast.NewBinary(id, ast.OpPlus, left, right)
	case lexer.TokenMinus:
		return ast.NewBinary(id, ast.OpMinus, left, right)
	case lexer.TokenAsterisk:
		return ast.NewBinary(id, ast.OpAsterisk, left, right)
	case lexer.TokenSlash:
		return ast.NewBinary(id, ast.OpSlash, left, right)
	case lexer.TokenDoubleSlash:
		return ast.NewBinary(id, ast.OpDoubleSlash, left, right)
	case lexer.TokenModulo:
		return ast.NewBinary(id, ast.OpModulo, left, right)
	case lexer.TokenExponent:
		return ast.NewBinary(id, ast.OpExponent, left, right)
	case lexer.TokenEquals:
		return ast.NewComparison(id, ast.CmpEqual, left, right)
	case lexer.TokenNotEquals:
		return ast.NewComparison(id, ast.CmpNotEqual, left, right)
	case lexer.TokenLess:
		return ast.NewComparison(id, ast.CmpLess, left, right)
	case lexer.TokenLessEqual:
		return ast.NewComparison(id, ast.CmpLessEqual, left, right)
	case lexer.TokenGreater:
		return ast.NewComparison(id, ast.CmpGreater, left, right)
	case lexer.TokenGreaterEqual:
		return ast.NewComparison(id, ast.CmpGreaterEqual, left, right)
	case lexer.TokenLogicalAnd:
		return ast.NewLogical(id, ast.OpLogicalAnd, left, right)
	case lexer.TokenLogicalOr:
		return ast.NewLogical(id, ast.OpLogicalOr, left, right)
	default:
		p.addError(fmt.Sprintf("unexpected infix operator %s", opTok.Type))
		return nil
	}
}

// parseFunctionLiteral parses both an anonymous function expression
// (`fn(params) { body }`) and the named-function declaration sugar
// (`fn name(params) { body }`, equivalent to `name = fn(params) { body }`).
func (p *Parser) parseFunctionLiteral() ast.Expression {
	id := p.newID()

	var name string
	if p.peekTok.Type == lexer.TokenIdentifier {
		p.nextToken()
		name = p.curTok.Literal
	}

	if p.peekTok.Type != lexer.TokenLParen {
		p.addError("expected '(' after 'fn'")
		return nil
	}
	p.nextToken()

	params := p.parseFunctionParameters()
	if params == nil && len(p.errors) > 0 {
		return nil
	}

	if p.peekTok.Type != lexer.TokenLBrace {
		p.addError("expected '{' to start function body")
		return nil
	}
	p.nextToken()
	body := p.parseBlock()

	fn := ast.NewFunction(id, params, body)
	if name == "" {
		return fn
	}

	identity := ast.NewIdentity(p.newID(), ast.NewName(p.newID(), name), nil)
	return ast.NewAssign(p.newID(), identity, fn, false)
}

func (p *Parser) parseFunctionParameters() []string {
	var params []string

	if p.peekTok.Type == lexer.TokenRParen {
		p.nextToken()
		return params
	}

	p.nextToken()
	if p.curTok.Type != lexer.TokenIdentifier {
		p.addError("expected parameter name")
		return nil
	}
	params = append(params, p.curTok.Literal)

	for p.peekTok.Type == lexer.TokenComma {
		p.nextToken()
		p.nextToken()
		if p.curTok.Type != lexer.TokenIdentifier {
			p.addError("expected parameter name")
			return nil
		}
		params = append(params, p.curTok.Literal)
	}

	if p.peekTok.Type != lexer.TokenRParen {
		p.addError("expected ')' after parameter list")
		return nil
	}
	p.nextToken()
	return params
}

// parseClassLiteral parses both an anonymous class expression
// (`class (Super) { body }` / `class { body }`) and the named-class
// declaration sugar (`class Name(Super) { body }`, equivalent to
// `Name = class (Super) { body }`).
func (p *Parser) parseClassLiteral() ast.Expression {
	id := p.newID()

	var name string
	if p.peekTok.Type == lexer.TokenIdentifier {
		p.nextToken()
		name = p.curTok.Literal
	}

	var superclass ast.Expression
	if p.peekTok.Type == lexer.TokenLParen {
		p.nextToken()
		p.nextToken()
		superclass = p.parseExpression(LOWEST)
		if superclass == nil {
			return nil
		}
		if p.peekTok.Type != lexer.TokenRParen {
			p.addError("expected ')' after superclass expression")
			return nil
		}
		p.nextToken()
	}

	if p.peekTok.Type != lexer.TokenLBrace {
		p.addError("expected '{' to start class body")
		return nil
	}
	p.nextToken()
	body := p.parseBlock()

	class := ast.NewClass(id, superclass, body)
	if name == "" {
		return class
	}

	identity := ast.NewIdentity(p.newID(), ast.NewName(p.newID(), name), nil)
	return ast.NewAssign(p.newID(), identity, class, false)
}

func (p *Parser) parseIfExpression() ast.Expression {
	id := p.newID()
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if cond == nil {
		return nil
	}

	if p.peekTok.Type != lexer.TokenLBrace {
		p.addError("expected '{' after if condition")
		return nil
	}
	p.nextToken()
	thenBody := p.parseBlock()

	var elseBody []ast.Expression
	if p.peekTok.Type == lexer.TokenElse {
		p.nextToken()
		switch p.peekTok.Type {
		case lexer.TokenLBrace:
			p.nextToken()
			elseBody = p.parseBlock()
		case lexer.TokenIf:
			p.nextToken()
			elseBody = []ast.Expression{p.parseIfExpression()}
		default:
			p.addError("expected '{' or 'if' after else")
			return nil
		}
	}

	return ast.NewIf(id, cond, thenBody, elseBody)
}

func (p *Parser) parseWhileExpression() ast.Expression {
	id := p.newID()
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if cond == nil {
		return nil
	}

	if p.peekTok.Type != lexer.TokenLBrace {
		p.addError("expected '{' after while condition")
		return nil
	}
	p.nextToken()
	body := p.parseBlock()

	return ast.NewWhile(id, cond, body)
}

func (p *Parser) parseReturnExpression() ast.Expression {
	id := p.newID()

	switch p.peekTok.Type {
	case lexer.TokenSemicolon, lexer.TokenRBrace, lexer.TokenEOF:
		return ast.NewReturn(id, nil)
	}

	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	return ast.NewReturn(id, value)
}
