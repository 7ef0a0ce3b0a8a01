package lexer

import (
	"fmt"

	"github.com/codeassociates/huec/text"
)

type TokenType int

const (
	// Special tokens
	Error TokenType = iota
	Comment
	NewLine
	End

	// Keywords
	Func
	External
	Mutable
	Nil
	If
	Else
	Structure

	Identifier

	// Operators
	BinaryOperator           // + - * / < >
	BinaryComparisonOperator // == != <= >=
	Assignment               // =
	LeftArrow                // <-
	RightArrow               // ->

	// Delimiters
	LeftParen      // (
	RightParen     // )
	LeftSqBracket  // [
	RightSqBracket // ]
	Colon          // :
	Semicolon      // ;
	Comma          // ,
	Stop           // .
	Question       // ?
	Backslash      // \
	MapLiteral     // { or }

	// Literals
	IntLiteral
	FloatLiteral
	BoolLiteral
	DataLiteral
	TextLiteral

	// Built-in type symbols
	IntSymbol
	FloatSymbol
	Byte
	Char
	Bool
)

// Identifier flags stored in Token.Int.
const (
	FlagPath       = 1 << 0 // the identifier contains ':' and names a path
	FlagNamespaced = 1 << 1 // the identifier contains '/'
)

var tokenNames = map[TokenType]string{
	Error:   "Error",
	Comment: "Comment",
	NewLine: "NewLine",
	End:     "End",

	Func:      "func",
	External:  "extern",
	Mutable:   "MUTABLE",
	Nil:       "nil",
	If:        "if",
	Else:      "else",
	Structure: "struct",

	Identifier: "Identifier",

	BinaryOperator:           "BinaryOperator",
	BinaryComparisonOperator: "BinaryComparisonOperator",
	Assignment:               "=",
	LeftArrow:                "<-",
	RightArrow:               "->",

	LeftParen:      "(",
	RightParen:     ")",
	LeftSqBracket:  "[",
	RightSqBracket: "]",
	Colon:          ":",
	Semicolon:      ";",
	Comma:          ",",
	Stop:           ".",
	Question:       "?",
	Backslash:      "\\",
	MapLiteral:     "MapLiteral",

	IntLiteral:   "IntLiteral",
	FloatLiteral: "FloatLiteral",
	BoolLiteral:  "BoolLiteral",
	DataLiteral:  "DataLiteral",
	TextLiteral:  "TextLiteral",

	IntSymbol:   "Int",
	FloatSymbol: "Float",
	Byte:        "Byte",
	Char:        "Char",
	Bool:        "Bool",
}

// The reserved word set. A scanned identifier matching one of these exactly
// (and carrying no path or namespace flags) becomes the keyword token.
var keywords = map[string]TokenType{
	"if":      If,
	"else":    Else,
	"func":    Func,
	"extern":  External,
	"nil":     Nil,
	"struct":  Structure,
	"MUTABLE": Mutable,
	"Int":     IntSymbol,
	"Float":   FloatSymbol,
	"Byte":    Byte,
	"Char":    Char,
	"Bool":    Bool,
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// LookupIdent maps a scanned identifier to its keyword token, or Identifier.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return Identifier
}

// Token is a tagged lexical value. At most one of Text, Int and Float is
// meaningful, depending on Type: Text holds identifier/literal/diagnostic
// text, Int holds a radix, a bool value or identifier flags, Float holds the
// parsed value of a FloatLiteral.
type Token struct {
	Type   TokenType
	Text   text.Text
	Int    uint32
	Float  float64
	Line   int
	Column int
	Length int
}

func (t Token) IsPath() bool       { return t.Type == Identifier && t.Int&FlagPath != 0 }
func (t Token) IsNamespaced() bool { return t.Type == Identifier && t.Int&FlagNamespaced != 0 }

func (t Token) String() string {
	switch t.Type {
	case Identifier, IntLiteral, TextLiteral, DataLiteral, Comment, Error, BinaryOperator, BinaryComparisonOperator:
		return fmt.Sprintf("%s@%d:%d,%d = %q", t.Type, t.Line, t.Column, t.Length, t.Text.String())
	case FloatLiteral:
		return fmt.Sprintf("%s@%d:%d,%d = %s", t.Type, t.Line, t.Column, t.Length, t.Text.String())
	case BoolLiteral:
		return fmt.Sprintf("%s@%d:%d,%d = %d", t.Type, t.Line, t.Column, t.Length, t.Int)
	default:
		return fmt.Sprintf("%s@%d:%d,%d", t.Type, t.Line, t.Column, t.Length)
	}
}
