package hashnotation

import (
	"testing"

	"github.com/phobologic/hookdoc/internal/docblock"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	reg := docblock.DefaultRegistry()

	tests := []struct {
		name string
		in   string
		want []Token
	}{
		{
			name: "description only",
			in:   "  Optional.   Args. ",
			want: []Token{{Kind: Text, Text: "Optional. Args."}},
		},
		{
			name: "member then block",
			in:   "@type string $a A. @type array $b { @type int $c C. }",
			want: []Token{
				{Kind: Annotation, Tag: "type", Text: "string $a A."},
				{Kind: Annotation, Tag: "type", Text: "array $b"},
				{Kind: Open},
				{Kind: Annotation, Tag: "type", Text: "int $c C."},
				{Kind: Close},
			},
		},
		{
			name: "inline tag is text",
			in:   "@type string $a See {@see foo()} and {@link http://x}.",
			want: []Token{
				{Kind: Annotation, Tag: "type", Text: "string $a See {@see foo()} and {@link http://x}."},
			},
		},
		{
			name: "braces inside words are text",
			in:   "@type array{a:int} $shape Shape.",
			want: []Token{
				{Kind: Annotation, Tag: "type", Text: "array{a:int} $shape Shape."},
			},
		},
		{
			name: "unregistered annotation is text",
			in:   "Uses @since 1.0 wording.",
			want: []Token{{Kind: Text, Text: "Uses @since 1.0 wording."}},
		},
		{
			name: "email-like at sign is text",
			in:   "Mail user@type.example today.",
			want: []Token{{Kind: Text, Text: "Mail user@type.example today."}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Tokenize(tt.in, reg)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d tokens %+v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				g, w := got[i], tt.want[i]
				if g.Kind != w.Kind || g.Tag != w.Tag || g.Text != w.Text {
					t.Errorf("token %d = {%s %q %q}, want {%s %q %q}", i, g.Kind, g.Tag, g.Text, w.Kind, w.Tag, w.Text)
				}
			}
		})
	}
}
