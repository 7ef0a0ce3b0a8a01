package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBytesValidatesUTF8(t *testing.T) {
	tt, err := FromBytes([]byte("räksmörgås"))
	require.NoError(t, err)
	assert.Equal(t, 10, len(tt), "length counts scalar values, not bytes")

	_, err = FromBytes([]byte{0xff, 0xfe})
	assert.Error(t, err)
}

func TestSplitAndJoin(t *testing.T) {
	path := FromString("a:b:c").Split(':')
	require.Len(t, path, 3)
	assert.Equal(t, "a", path[0].String())
	assert.Equal(t, "c", path[2].String())
	assert.Equal(t, "a:b:c", path.Join(FromString(":")).String())
	assert.Equal(t, "a:b:c", path.String())

	empty := FromString("a::b").Split(':')
	require.Len(t, empty, 3)
	assert.Equal(t, "", empty[1].String())
}

func TestRawBytes(t *testing.T) {
	// Scalars below 0x100 map to single bytes; wider ones to UTF-8.
	b := Text{'a', 0xff, 0}.RawBytes()
	assert.Equal(t, []byte{'a', 0xff, 0}, b)

	wide := Text{0x2603}.RawBytes() // snowman
	assert.Equal(t, []byte("☃"), wide)
}

func TestEqual(t *testing.T) {
	assert.True(t, FromString("ab").Equal(FromString("ab")))
	assert.False(t, FromString("ab").Equal(FromString("abc")))
	assert.False(t, FromString("ab").Equal(FromString("ac")))
}

func TestCharClasses(t *testing.T) {
	assert.True(t, IsWhitespaceOrLineSeparator(' '))
	assert.True(t, IsWhitespaceOrLineSeparator('\t'))
	assert.True(t, IsWhitespaceOrLineSeparator('\n'))
	assert.True(t, IsWhitespaceOrLineSeparator('\r'))
	assert.False(t, IsWhitespaceOrLineSeparator('x'))

	assert.True(t, IsDecimalDigit('0'))
	assert.False(t, IsDecimalDigit('a'))

	assert.True(t, IsHexDigit('f'))
	assert.True(t, IsHexDigit('F'))
	assert.False(t, IsHexDigit('g'))

	assert.True(t, IsPrintableASCII('~'))
	assert.False(t, IsPrintableASCII('\n'))
}

func TestReadAll(t *testing.T) {
	tt, err := ReadAll(strings.NewReader("x = 1\n"))
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", tt.String())
}
