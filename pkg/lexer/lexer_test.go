package lexer

import (
	"testing"
)

func TestNextToken_BasicTokens(t *testing.T) {
	input := `. , ; ( ) [ ] { }`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenPeriod, "."},
		{TokenComma, ","},
		{TokenSemicolon, ";"},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBracket, "["},
		{TokenRBracket, "]"},
		{TokenLBrace, "{"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_Colon(t *testing.T) {
	input := `{x: 1}`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenLBrace, "{"},
		{TokenIdentifier, "x"},
		{TokenColon, ":"},
		{TokenInteger, "1"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_Operators(t *testing.T) {
	input := `+ - * / // % ** = == != < <= > >= && || !`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenPlus, "+"},
		{TokenMinus, "-"},
		{TokenAsterisk, "*"},
		{TokenSlash, "/"},
		{TokenDoubleSlash, "//"},
		{TokenModulo, "%"},
		{TokenExponent, "**"},
		{TokenAssign, "="},
		{TokenEquals, "=="},
		{TokenNotEquals, "!="},
		{TokenLess, "<"},
		{TokenLessEqual, "<="},
		{TokenGreater, ">"},
		{TokenGreaterEqual, ">="},
		{TokenLogicalAnd, "&&"},
		{TokenLogicalOr, "||"},
		{TokenNot, "!"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_Numbers(t *testing.T) {
	input := `42 3.14 100`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenInteger, "42"},
		{TokenFloat, "3.14"},
		{TokenInteger, "100"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_NegativeNumberIsMinusThenLiteral(t *testing.T) {
	// Unlike the teacher's lexer, `-` is always its own token: the
	// parser, not the lexer, decides whether it is unary negation.
	input := `-17`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenMinus, "-"},
		{TokenInteger, "17"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_Strings(t *testing.T) {
	input := `"Hello, World!" "test" ""`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenString, "Hello, World!"},
		{TokenString, "test"},
		{TokenString, ""},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_StringEscapes(t *testing.T) {
	input := `"line1\nline2\t\"quoted\""`

	l := New(input)
	tok := l.NextToken()

	if tok.Type != TokenString {
		t.Fatalf("expected STRING, got %q", tok.Type)
	}

	want := "line1\nline2\t\"quoted\""
	if tok.Literal != want {
		t.Fatalf("expected literal %q, got %q", want, tok.Literal)
	}
}

func TestNextToken_Keywords(t *testing.T) {
	input := `true false null fn class if else while return`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenTrue, "true"},
		{TokenFalse, "false"},
		{TokenNull, "null"},
		{TokenFn, "fn"},
		{TokenClass, "class"},
		{TokenIf, "if"},
		{TokenElse, "else"},
		{TokenWhile, "while"},
		{TokenReturn, "return"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_Identifiers(t *testing.T) {
	input := `x count Point println self _private`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenIdentifier, "x"},
		{TokenIdentifier, "count"},
		{TokenIdentifier, "Point"},
		{TokenIdentifier, "println"},
		{TokenIdentifier, "self"},
		{TokenIdentifier, "_private"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_Comments(t *testing.T) {
	input := "x # this is a comment\ny"

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenIdentifier, "x"},
		{TokenIdentifier, "y"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_FunctionDeclaration(t *testing.T) {
	input := `fn add(x, y) { return x + y }`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenFn, "fn"},
		{TokenIdentifier, "add"},
		{TokenLParen, "("},
		{TokenIdentifier, "x"},
		{TokenComma, ","},
		{TokenIdentifier, "y"},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenReturn, "return"},
		{TokenIdentifier, "x"},
		{TokenPlus, "+"},
		{TokenIdentifier, "y"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_Arithmetic(t *testing.T) {
	input := `3 + 4 * 5`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenInteger, "3"},
		{TokenPlus, "+"},
		{TokenInteger, "4"},
		{TokenAsterisk, "*"},
		{TokenInteger, "5"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_AttributeChain(t *testing.T) {
	input := `xs.push(4).len()`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenIdentifier, "xs"},
		{TokenPeriod, "."},
		{TokenIdentifier, "push"},
		{TokenLParen, "("},
		{TokenInteger, "4"},
		{TokenRParen, ")"},
		{TokenPeriod, "."},
		{TokenIdentifier, "len"},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestTokenize_ValidInput(t *testing.T) {
	input := `"Hello" println`

	l := New(input)
	tokens, err := l.Tokenize()

	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}

	if len(tokens) != 3 { // STRING, IDENTIFIER, EOF
		t.Fatalf("Expected 3 tokens, got %d", len(tokens))
	}

	expectedTypes := []TokenType{
		TokenString,
		TokenIdentifier,
		TokenEOF,
	}

	for i, expectedType := range expectedTypes {
		if tokens[i].Type != expectedType {
			t.Fatalf("Token %d: expected type %q, got %q",
				i, expectedType, tokens[i].Type)
		}
	}
}

func TestTokenize_IllegalToken(t *testing.T) {
	input := `x @ y` // @ is illegal

	l := New(input)
	tokens, err := l.Tokenize()

	if err == nil {
		t.Fatal("Expected error for illegal token, got nil")
	}

	// Should still return tokens up to the illegal one
	if len(tokens) < 2 {
		t.Fatalf("Expected at least 2 tokens, got %d", len(tokens))
	}
}

func TestLineAndColumn_Tracking(t *testing.T) {
	input := `x
y
z`

	l := New(input)

	tok1 := l.NextToken()
	if tok1.Line != 1 {
		t.Errorf("Expected token on line 1, got line %d", tok1.Line)
	}

	tok2 := l.NextToken()
	if tok2.Line != 2 {
		t.Errorf("Expected token on line 2, got line %d", tok2.Line)
	}

	tok3 := l.NextToken()
	if tok3.Line != 3 {
		t.Errorf("Expected token on line 3, got line %d", tok3.Line)
	}
}

func TestNextToken_NumberThenAttribute(t *testing.T) {
	input := `42.len`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenInteger, "42"},
		{TokenPeriod, "."},
		{TokenIdentifier, "len"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}
