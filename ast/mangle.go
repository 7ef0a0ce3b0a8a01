package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/codeassociates/huec/text"
)

// Type mangling, used for external linkage symbols and as the canonical
// names of struct types. The letters follow the Itanium builtin-type scheme
// where one exists:
//
//	Float → d   Int → x   Char → j   Byte → a   Bool → b   Func → F
//	Named → N<len><utf8 bytes>
//	Array → A<element>
//
// A function type mangles to '$' <arg types...> '$' <result type>.

func Mangle(t Type) string {
	if t == nil {
		return ""
	}
	switch t.ID() {
	case Named:
		name := t.(*BasicType).Name().String()
		return fmt.Sprintf("N%d%s", len(name), name)
	case Float:
		return "d"
	case Int:
		return "x"
	case Char:
		return "j"
	case Byte:
		return "a"
	case Bool:
		return "b"
	case Func:
		return "F"
	case Array:
		return "A" + Mangle(t.(*ArrayType).Elem)
	case Struct:
		return t.(*StructType).CanonicalName()
	default:
		return ""
	}
}

// MangleFunctionType encodes a full signature: $<args>$<result>.
// (a Int) Int mangles to $x$x.
func MangleFunctionType(ft *FunctionType) string {
	var b strings.Builder
	b.WriteByte('$')
	for _, arg := range ft.Args {
		b.WriteString(Mangle(arg.Type))
	}
	b.WriteByte('$')
	b.WriteString(Mangle(ft.Result))
	return b.String()
}

// MangleFunctionSymbol produces the linkage name for a named function: the
// symbol name followed by its mangled signature.
func MangleFunctionSymbol(name text.Text, ft *FunctionType) string {
	return name.String() + MangleFunctionType(ft)
}

// Demangle inverts Mangle for a single type encoding. Unrecognised input
// demangles to Unknown.
func Demangle(s string) Type {
	t, _ := demangleOne(s)
	return t
}

func demangleOne(s string) (Type, string) {
	if s == "" {
		return UnknownType, ""
	}
	switch s[0] {
	case 'd':
		return FloatType, s[1:]
	case 'x':
		return IntType, s[1:]
	case 'j':
		return CharType, s[1:]
	case 'a':
		return ByteType, s[1:]
	case 'b':
		return BoolType, s[1:]
	case 'F':
		return NewFunctionType(nil, UnknownType), s[1:]
	case 'A':
		elem, rest := demangleOne(s[1:])
		return NewArrayType(elem), rest
	case 'N':
		i := 1
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		n, err := strconv.Atoi(s[1:i])
		if err != nil || i+n > len(s) {
			return UnknownType, ""
		}
		return NewNamedType(text.FromString(s[i : i+n])), s[i+n:]
	default:
		return UnknownType, ""
	}
}
