// Package hashnotation parses the WordPress hash notation used to document
// array parameter shapes inside a single @param annotation:
//
//	@param array $args {
//	    Optional. Arguments.
//
//	    @type string $foo Description of foo.
//	    @type array  $bar {
//	        @type int $x X val.
//	    }
//	}
package hashnotation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/phobologic/hookdoc/internal/docblock"
)

// TokenKind classifies a token of hash notation.
type TokenKind int

const (
	Text TokenKind = iota
	Open
	Close
	Annotation
)

func (k TokenKind) String() string {
	switch k {
	case Text:
		return "TEXT"
	case Open:
		return "OPEN"
	case Close:
		return "CLOSE"
	case Annotation:
		return "ANNOTATION"
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one lexical unit. For Annotation tokens Tag holds the marker name
// and Text the declaration that follows it. Pos is the byte offset in the
// tokenized input.
type Token struct {
	Kind TokenKind
	Tag  string
	Text string
	Pos  int
}

// Tokenize splits the inside of a hash-notation block into tokens. A brace is
// structural only when it starts the input or follows whitespace; "{@...}"
// inline tags and "{}" escapes are kept as text. An annotation runs until the
// next structural token.
func Tokenize(src string, reg *docblock.Registry) []Token {
	t := tokenizer{src: src, reg: reg}
	t.run()
	return t.tokens
}

type tokenizer struct {
	src    string
	reg    *docblock.Registry
	tokens []Token

	buf        strings.Builder
	bufPos     int
	annotation string
	inAnn      bool
}

func (t *tokenizer) run() {
	src := t.src
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '{' && i+1 < len(src) && (src[i+1] == '@' || src[i+1] == '}'):
			end := strings.IndexByte(src[i+1:], '}')
			if end < 0 {
				t.write(i, src[i:])
				i = len(src)
				continue
			}
			end += i + 1
			t.write(i, src[i:end+1])
			i = end + 1

		case c == '{' && t.boundary(i):
			t.flush()
			t.tokens = append(t.tokens, Token{Kind: Open, Pos: i})
			i++

		case c == '}' && t.boundary(i):
			t.flush()
			t.tokens = append(t.tokens, Token{Kind: Close, Pos: i})
			i++

		case c == '@' && t.boundary(i):
			name, end := t.marker(i)
			if name == "" {
				t.write(i, "@")
				i++
				continue
			}
			t.flush()
			t.inAnn = true
			t.annotation = name
			t.bufPos = i
			i = end

		default:
			t.mark(i)
			t.buf.WriteByte(c)
			i++
		}
	}
	t.flush()
}

func (t *tokenizer) boundary(i int) bool {
	return i == 0 || isSpace(t.src[i-1])
}

// marker returns the registered hash member named at src[i] ("@type") and the
// offset just past it, or "" when the annotation is not a member marker.
func (t *tokenizer) marker(i int) (string, int) {
	j := i + 1
	for j < len(t.src) && (isWordByte(t.src[j]) || t.src[j] == '-') {
		j++
	}
	name := t.src[i+1 : j]
	if name == "" || !t.reg.IsHashMember(name) {
		return "", i
	}
	if j < len(t.src) && !isSpace(t.src[j]) {
		return "", i
	}
	return name, j
}

func (t *tokenizer) write(pos int, s string) {
	t.mark(pos)
	t.buf.WriteString(s)
}

func (t *tokenizer) mark(pos int) {
	if t.buf.Len() == 0 && !t.inAnn {
		t.bufPos = pos
	}
}

func (t *tokenizer) flush() {
	text := collapse(t.buf.String())
	t.buf.Reset()

	if t.inAnn {
		t.tokens = append(t.tokens, Token{Kind: Annotation, Tag: t.annotation, Text: text, Pos: t.bufPos})
		t.inAnn = false
		t.annotation = ""
		return
	}
	if text != "" {
		t.tokens = append(t.tokens, Token{Kind: Text, Text: text, Pos: t.bufPos})
	}
}

func collapse(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
