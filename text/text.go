package text

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Text is a sequence of Unicode scalar values decoded from UTF-8 source.
// All source navigation (columns, character classes) operates on scalar
// values, never on bytes.
type Text []rune

// List is an ordered sequence of Text, used for dotted path symbols.
type List []Text

func FromString(s string) Text {
	return Text(s)
}

// FromBytes decodes UTF-8 data into a Text. Invalid byte sequences are an
// error, not replacement characters: the compiler refuses malformed input.
func FromBytes(data []byte) (Text, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("input is not valid UTF-8")
	}
	return Text(string(data)), nil
}

func (t Text) String() string {
	return string(t)
}

func (t Text) Equal(other Text) bool {
	if len(t) != len(other) {
		return false
	}
	for i, c := range t {
		if other[i] != c {
			return false
		}
	}
	return true
}

// Split divides the text on sep. Adjacent separators produce empty segments,
// matching the behaviour expected of path symbols like "a::b".
func (t Text) Split(sep rune) List {
	var list List
	start := 0
	for i, c := range t {
		if c == sep {
			list = append(list, t[start:i])
			start = i + 1
		}
	}
	return append(list, t[start:])
}

// Join concatenates the list's elements with sep between each pair.
func (l List) Join(sep Text) Text {
	var out Text
	for i, t := range l {
		if i > 0 {
			out = append(out, sep...)
		}
		out = append(out, t...)
	}
	return out
}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, t := range l {
		parts[i] = t.String()
	}
	return strings.Join(parts, ":")
}

// RawBytes interprets each scalar value as 1-4 bytes: values below 0x100
// become a single byte, anything wider is written out in UTF-8. Data
// literals are stored this way.
func (t Text) RawBytes() []byte {
	out := make([]byte, 0, len(t))
	for _, c := range t {
		if c < 0x100 {
			out = append(out, byte(c))
		} else {
			out = utf8.AppendRune(out, c)
		}
	}
	return out
}

// Character classes used by the lexer.

func IsWhitespaceOrLineSeparator(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func IsLineSeparator(c rune) bool {
	return c == '\n'
}

func IsDecimalDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func IsHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func IsPrintableASCII(c rune) bool {
	return c >= 0x20 && c < 0x7f
}

// ReadFile loads and decodes a UTF-8 source file.
func ReadFile(path string) (Text, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	t, err := FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return t, nil
}

// ReadAll decodes UTF-8 source from a stream until EOF.
func ReadAll(r io.Reader) (Text, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return FromBytes(data)
}
