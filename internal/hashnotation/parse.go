package hashnotation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/hookdoc/internal/docblock"
)

// DefaultMaxDepth is the number of nested blocks below the root that Parse
// accepts unless Options says otherwise.
const DefaultMaxDepth = 3

var (
	// ErrNotHash is returned when the content is not wrapped in braces.
	ErrNotHash = errors.New("hash notation: content is not a brace-delimited block")
	// ErrDepthExceeded is returned when a block opens deeper than MaxDepth.
	ErrDepthExceeded = errors.New("hash notation: nesting depth exceeded")
	// ErrUnbalanced is returned for a stray closing brace or an unclosed block.
	ErrUnbalanced = errors.New("hash notation: unbalanced braces")
)

// LineError reports an annotation whose declaration could not be parsed.
type LineError struct {
	Tag  string
	Text string
	Pos  int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("hash notation: @%s %s (offset %d): %v", e.Tag, e.Text, e.Pos, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Options configures Parse. The zero value uses DefaultMaxDepth and
// docblock.DefaultRegistry.
type Options struct {
	MaxDepth int
	Registry *docblock.Registry
}

// Parse decodes hash-notation content such as
//
//	{ Optional. @type string $foo Foo. @type array $bar { @type int $x X. } }
//
// into a tree. Text ahead of the first member becomes the root content.
// Blocks are keyed by their variable name, or by a positional index taken
// from a counter shared by the whole parse when they declare none.
func Parse(content string, opts Options) (*Node, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Registry == nil {
		opts.Registry = docblock.DefaultRegistry()
	}

	s := strings.TrimSpace(content)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, ErrNotHash
	}

	p := &parser{
		tokens:   Tokenize(s[1:len(s)-1], opts.Registry),
		maxDepth: opts.MaxDepth,
	}

	root := newNode("", nil)
	if err := p.block(root, 0); err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("%w: closing brace at offset %d has no matching block", ErrUnbalanced, p.tokens[p.pos].Pos)
	}
	return root, nil
}

// declVarRe finds the variable an opening declaration names when the
// declaration as a whole does not parse.
var declVarRe = regexp.MustCompile(`\$\w+`)

type parser struct {
	tokens   []Token
	pos      int
	index    int
	maxDepth int
}

// block consumes the members of node until a Close token or the end of input.
// The Close token itself is left for the caller.
func (p *parser) block(node *Node, depth int) error {
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		switch tok.Kind {
		case Close:
			return nil

		case Text:
			p.pos++
			node.appendContent(tok.Text)

		case Open:
			p.pos++
			if err := p.open(node, nil, tok.Pos, depth); err != nil {
				return err
			}

		case Annotation:
			p.pos++
			if p.pos < len(p.tokens) && p.tokens[p.pos].Kind == Open {
				pos := p.tokens[p.pos].Pos
				p.pos++
				if err := p.open(node, &tok, pos, depth); err != nil {
					return err
				}
				continue
			}
			if err := p.leaf(node, tok); err != nil {
				return err
			}
		}
	}
	return nil
}

// open adds a nested block under parent and parses its members. decl is the
// annotation that introduced the block, if any.
func (p *parser) open(parent *Node, decl *Token, pos, depth int) error {
	if depth+1 > p.maxDepth {
		return fmt.Errorf("%w: block at offset %d opens level %d, maximum is %d", ErrDepthExceeded, pos, depth+1, p.maxDepth)
	}

	var (
		key   string
		child = newNode("", nil)
	)
	if decl != nil {
		if param, err := docblock.ParseParam(decl.Text); err == nil {
			key = param.Variable
			child = newNode(param.Description, param.Types)
		} else {
			key = declVarRe.FindString(decl.Text)
		}
	}

	idx := p.index
	p.index++
	if key == "" {
		key = strconv.Itoa(idx)
	}
	parent.set(key, child)

	if err := p.block(child, depth+1); err != nil {
		return err
	}
	if p.pos >= len(p.tokens) {
		return fmt.Errorf("%w: block %s opened at offset %d is never closed", ErrUnbalanced, key, pos)
	}
	p.pos++
	return nil
}

func (p *parser) leaf(parent *Node, tok Token) error {
	param, err := docblock.ParseParam(tok.Text)
	if err != nil {
		return &LineError{Tag: tok.Tag, Text: tok.Text, Pos: tok.Pos, Err: err}
	}
	key := param.Variable
	if key == "" {
		key = strconv.Itoa(p.index)
		p.index++
	}
	parent.set(key, newNode(param.Description, param.Types))
	return nil
}
