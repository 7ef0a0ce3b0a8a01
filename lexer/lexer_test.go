package lexer

import (
	"testing"

	"github.com/codeassociates/huec/text"
)

type expectedToken struct {
	typ     TokenType
	literal string
}

func checkTokens(t *testing.T, input string, tests []expectedToken) {
	t.Helper()
	l := New(text.FromString(input))
	for i, tt := range tests {
		tok := l.Next()
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (literal=%q)",
				i, tt.typ, tok.Type, tok.Text.String())
		}
		if tok.Text.String() != tt.literal {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.literal, tok.Text.String())
		}
	}
}

func TestSyntheticLeadingNewLine(t *testing.T) {
	l := New(text.FromString("x"))
	tok := l.Next()
	if tok.Type != NewLine {
		t.Fatalf("expected leading NewLine, got %s", tok.Type)
	}
	if tok.Line != 1 || tok.Column != 0 || tok.Length != 0 {
		t.Errorf("expected NewLine@1:0,0, got @%d:%d,%d", tok.Line, tok.Column, tok.Length)
	}
}

func TestBasicTokens(t *testing.T) {
	checkTokens(t, "x = 5\n", []expectedToken{
		{NewLine, ""},
		{Identifier, "x"},
		{Assignment, ""},
		{IntLiteral, "5"},
		{NewLine, ""},
		{End, ""},
	})
}

func TestKeywords(t *testing.T) {
	checkTokens(t, "if else func extern nil struct MUTABLE Int Float Byte Char Bool", []expectedToken{
		{NewLine, ""},
		{If, ""},
		{Else, ""},
		{Func, ""},
		{External, ""},
		{Nil, ""},
		{Structure, ""},
		{Mutable, ""},
		{IntSymbol, ""},
		{FloatSymbol, ""},
		{Byte, ""},
		{Char, ""},
		{Bool, ""},
		{End, ""},
	})
}

func TestKeywordPrefixIsIdentifier(t *testing.T) {
	checkTokens(t, "iffy elsewhere nilable", []expectedToken{
		{NewLine, ""},
		{Identifier, "iffy"},
		{Identifier, "elsewhere"},
		{Identifier, "nilable"},
		{End, ""},
	})
}

func TestBoolLiterals(t *testing.T) {
	l := New(text.FromString("true false"))
	l.Next() // NewLine
	tok := l.Next()
	if tok.Type != BoolLiteral || tok.Int != 1 {
		t.Fatalf("expected true literal, got %s Int=%d", tok.Type, tok.Int)
	}
	tok = l.Next()
	if tok.Type != BoolLiteral || tok.Int != 0 {
		t.Fatalf("expected false literal, got %s Int=%d", tok.Type, tok.Int)
	}
}

func TestOperators(t *testing.T) {
	checkTokens(t, "+ - * / < > -> <- == != <= >= = : ; , . ? \\ ( ) [ ] { }", []expectedToken{
		{NewLine, ""},
		{BinaryOperator, "+"},
		{BinaryOperator, "-"},
		{BinaryOperator, "*"},
		{BinaryOperator, "/"},
		{BinaryOperator, "<"},
		{BinaryOperator, ">"},
		{RightArrow, ""},
		{LeftArrow, ""},
		{BinaryComparisonOperator, "="},
		{BinaryComparisonOperator, "!"},
		{BinaryComparisonOperator, "<"},
		{BinaryComparisonOperator, ">"},
		{Assignment, ""},
		{Colon, ""},
		{Semicolon, ""},
		{Comma, ""},
		{Stop, ""},
		{Question, ""},
		{Backslash, ""},
		{LeftParen, ""},
		{RightParen, ""},
		{LeftSqBracket, ""},
		{RightSqBracket, ""},
		{MapLiteral, "{"},
		{MapLiteral, "}"},
		{End, ""},
	})
}

func TestIndentationNewLines(t *testing.T) {
	input := "f 1\n  g 2\nh 3\n"
	l := New(text.FromString(input))

	expected := []struct {
		typ    TokenType
		length int
	}{
		{NewLine, 0}, // synthetic
		{Identifier, 1},
		{IntLiteral, 1},
		{NewLine, 2}, // next line indented two spaces
		{Identifier, 1},
		{IntLiteral, 1},
		{NewLine, 0}, // back to column zero
		{Identifier, 1},
		{IntLiteral, 1},
		{NewLine, 0},
		{End, 0},
	}
	for i, tt := range expected {
		tok := l.Next()
		if tok.Type != tt.typ {
			t.Fatalf("tokens[%d]: expected %s, got %s", i, tt.typ, tok.Type)
		}
		if tok.Type == NewLine && tok.Length != tt.length {
			t.Errorf("tokens[%d]: NewLine length expected %d, got %d", i, tt.length, tok.Length)
		}
	}
}

func TestBlankLinesCollapse(t *testing.T) {
	// A whitespace run with several LFs yields one NewLine carrying the
	// indentation after the last LF.
	l := New(text.FromString("a\n\n\n    b"))
	l.Next() // synthetic
	l.Next() // a
	tok := l.Next()
	if tok.Type != NewLine || tok.Length != 4 {
		t.Fatalf("expected NewLine length 4, got %s length %d", tok.Type, tok.Length)
	}
	if tok.Line != 4 {
		t.Errorf("expected line 4, got %d", tok.Line)
	}
}

func TestHexLiteral(t *testing.T) {
	l := New(text.FromString("0xFF_8"))
	l.Next()
	tok := l.Next()
	if tok.Type != IntLiteral {
		t.Fatalf("expected IntLiteral, got %s", tok.Type)
	}
	if tok.Int != 16 {
		t.Errorf("expected radix 16, got %d", tok.Int)
	}
	if tok.Text.String() != "FF8" {
		t.Errorf("expected digits FF8, got %q", tok.Text.String())
	}
}

func TestDecimalAndFloatLiterals(t *testing.T) {
	tests := []struct {
		input   string
		typ     TokenType
		literal string
	}{
		{"42", IntLiteral, "42"},
		{"1_000_000", IntLiteral, "1000000"},
		{"2.5", FloatLiteral, "2.5"},
		{".5", FloatLiteral, ".5"},
		{"1e3", FloatLiteral, "1e3"},
		{"1.5e+3", FloatLiteral, "1.5e+3"},
		{"1E-2", FloatLiteral, "1E-2"},
	}
	for _, tt := range tests {
		l := New(text.FromString(tt.input))
		l.Next()
		tok := l.Next()
		if tok.Type != tt.typ {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.typ, tok.Type)
		}
		if tok.Text.String() != tt.literal {
			t.Errorf("%q: expected literal %q, got %q", tt.input, tt.literal, tok.Text.String())
		}
	}
}

func TestMalformedNumbers(t *testing.T) {
	for _, input := range []string{"1.", "1..2", "1e", "1e+"} {
		l := New(text.FromString(input))
		l.Next()
		tok := l.Next()
		if tok.Type != Error {
			t.Errorf("%q: expected Error token, got %s (%q)", input, tok.Type, tok.Text.String())
		}
	}
}

func TestTextLiteralEscapes(t *testing.T) {
	l := New(text.FromString(`"a\tb\nc\r\\\"\0\u48"`))
	l.Next()
	tok := l.Next()
	if tok.Type != TextLiteral {
		t.Fatalf("expected TextLiteral, got %s (%q)", tok.Type, tok.Text.String())
	}
	expected := "a\tb\nc\r\\\"\x00H"
	if tok.Text.String() != expected {
		t.Errorf("expected %q, got %q", expected, tok.Text.String())
	}
}

func TestTextLiteralLineContinuation(t *testing.T) {
	l := New(text.FromString("\"ab\\\ncd\""))
	l.Next()
	tok := l.Next()
	if tok.Type != TextLiteral {
		t.Fatalf("expected TextLiteral, got %s", tok.Type)
	}
	if tok.Text.String() != "abcd" {
		t.Errorf("expected %q, got %q", "abcd", tok.Text.String())
	}
}

func TestDataLiteral(t *testing.T) {
	l := New(text.FromString(`'ab\xff\0\''`))
	l.Next()
	tok := l.Next()
	if tok.Type != DataLiteral {
		t.Fatalf("expected DataLiteral, got %s (%q)", tok.Type, tok.Text.String())
	}
	bytes := tok.Text.RawBytes()
	expected := []byte{'a', 'b', 0xff, 0, '\''}
	if len(bytes) != len(expected) {
		t.Fatalf("expected %d bytes, got %d", len(expected), len(bytes))
	}
	for i, b := range expected {
		if bytes[i] != b {
			t.Errorf("byte %d: expected %#x, got %#x", i, b, bytes[i])
		}
	}
}

func TestInvalidEscape(t *testing.T) {
	l := New(text.FromString(`"a\qb"`))
	l.Next()
	tok := l.Next()
	if tok.Type != Error {
		t.Fatalf("expected Error, got %s", tok.Type)
	}
}

func TestComment(t *testing.T) {
	l := New(text.FromString("# a comment\nx"))
	l.Next()
	tok := l.Next()
	if tok.Type != Comment {
		t.Fatalf("expected Comment, got %s", tok.Type)
	}
	if tok.Text.String() != "# a comment" {
		t.Errorf("expected comment text, got %q", tok.Text.String())
	}
}

func TestPathIdentifier(t *testing.T) {
	l := New(text.FromString("p:y"))
	l.Next()
	tok := l.Next()
	if tok.Type != Identifier {
		t.Fatalf("expected Identifier, got %s", tok.Type)
	}
	if !tok.IsPath() {
		t.Error("expected path flag")
	}
	if tok.Text.String() != "p:y" {
		t.Errorf("expected p:y, got %q", tok.Text.String())
	}
}

func TestNamespacedIdentifier(t *testing.T) {
	l := New(text.FromString("io/print"))
	l.Next()
	tok := l.Next()
	if tok.Type != Identifier || !tok.IsNamespaced() {
		t.Fatalf("expected namespaced identifier, got %s (flags %d)", tok.Type, tok.Int)
	}
}

func TestUnicodeIdentifier(t *testing.T) {
	l := New(text.FromString("räksmörgås = 1"))
	l.Next()
	tok := l.Next()
	if tok.Type != Identifier {
		t.Fatalf("expected Identifier, got %s", tok.Type)
	}
	if tok.Text.String() != "räksmörgås" {
		t.Errorf("got %q", tok.Text.String())
	}
	if tok.Length != 10 {
		t.Errorf("length counts scalar values, expected 10, got %d", tok.Length)
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	l := New(text.FromString("&"))
	l.Next()
	tok := l.Next()
	if tok.Type != Error {
		t.Fatalf("expected Error, got %s", tok.Type)
	}
	if tok.Text.String() != "Unexpected character: '&'" {
		t.Errorf("got %q", tok.Text.String())
	}
	// The lexer continues past the error.
	if tok := l.Next(); tok.Type != End {
		t.Errorf("expected End after error, got %s", tok.Type)
	}
}

func TestTokenizeTerminates(t *testing.T) {
	tokens := Tokenize(text.FromString("f = func (x Int) Int -> x * 2\nf 3\n"))
	if tokens[len(tokens)-1].Type != End {
		t.Fatalf("expected End terminator")
	}
}
