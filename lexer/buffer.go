package lexer

// BufferSize is the number of recent tokens the buffer retains for history
// access. One slot serves the parser's single token of future lookahead; the
// rest back error reporting.
const BufferSize = 16

// TokenBuffer is a fixed-capacity ring caching the most recent tokens drawn
// from a Lexer. It has no failure modes of its own: lexer errors travel
// through it as Error tokens.
type TokenBuffer struct {
	lexer  *Lexer
	tokens [BufferSize]Token
	start  int // index of the oldest retained token
	count  int // number of retained tokens
}

func NewTokenBuffer(l *Lexer) *TokenBuffer {
	return &TokenBuffer{lexer: l}
}

// Size reports the ring capacity.
func (b *TokenBuffer) Size() int { return BufferSize }

// Count reports how many historical tokens are currently retained.
func (b *TokenBuffer) Count() int { return b.count }

// Next draws one token from the lexer, records it and returns it.
func (b *TokenBuffer) Next() Token {
	tok := b.lexer.Next()
	end := (b.start + b.count) % BufferSize
	b.tokens[end] = tok
	if b.count == BufferSize {
		b.start = (b.start + 1) % BufferSize // full, overwrite oldest
	} else {
		b.count++
	}
	return tok
}

// Prev reads the nth most recent token: Prev(0) is the last token returned
// by Next, Prev(1) the one before it, and so on. n must be < Count.
func (b *TokenBuffer) Prev(n int) Token {
	i := (b.start + b.count - 1 - n) % BufferSize
	if i < 0 {
		i += BufferSize
	}
	return b.tokens[i]
}
