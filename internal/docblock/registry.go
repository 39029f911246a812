// Package docblock parses PHP documentation comments into model.DocBlock
// values and classifies their annotations.
package docblock

import (
	"regexp"
	"strings"

	"github.com/phobologic/hookdoc/internal/model"
)

// Kind selects which model.Tag variant an annotation name produces.
type Kind int

const (
	Plain Kind = iota
	Typed
	Variable
	Reference
	Version
)

// Registry maps annotation names to their kind. A Registry is built once and
// never modified; pass it to every parser that needs it.
type Registry struct {
	kinds   map[string]Kind
	members map[string]struct{}
}

// Option configures a Registry under construction.
type Option func(*Registry)

// WithTag binds an annotation name to a kind.
func WithTag(name string, kind Kind) Option {
	return func(r *Registry) {
		r.kinds[name] = kind
	}
}

// WithHashMember marks an annotation name as the member marker inside
// hash-notation blocks (the "@type" in "@param array $args { @type ... }").
// Hash members are parsed as Variable tags.
func WithHashMember(name string) Option {
	return func(r *Registry) {
		r.kinds[name] = Variable
		r.members[name] = struct{}{}
	}
}

// NewRegistry builds a registry from opts. Unknown names are Plain.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		kinds:   make(map[string]Kind),
		members: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultRegistry returns a registry for the phpDocumentor tag vocabulary
// plus the WordPress "@type" hash member.
func DefaultRegistry() *Registry {
	return NewRegistry(
		WithTag("param", Variable),
		WithTag("var", Variable),
		WithTag("property", Variable),
		WithTag("property-read", Variable),
		WithTag("property-write", Variable),
		WithTag("return", Typed),
		WithTag("throws", Typed),
		WithTag("see", Reference),
		WithTag("uses", Reference),
		WithTag("used-by", Reference),
		WithTag("covers", Reference),
		WithTag("since", Version),
		WithTag("deprecated", Version),
		WithTag("version", Version),
		WithHashMember("type"),
	)
}

// Kind returns the kind registered for name.
func (r *Registry) Kind(name string) Kind {
	return r.kinds[name]
}

// IsHashMember reports whether name marks a member inside a hash-notation block.
func (r *Registry) IsHashMember(name string) bool {
	_, ok := r.members[name]
	return ok
}

var versionRe = regexp.MustCompile(`^(\d\S*|[^\s:]+:\s*\$[^$]+\$)`)

// NewTag builds the tag variant registered for name from the annotation body.
// Tag construction is lenient: a body that does not fit the kind still yields
// a tag of that kind with the text kept as description.
func (r *Registry) NewTag(name, body string) model.Tag {
	base := model.TagBase{Name: name, Description: strings.TrimSpace(body)}

	switch r.Kind(name) {
	case Variable:
		p, err := ParseParam(body)
		if err != nil {
			return model.VariableTag{TagBase: base}
		}
		base.Description = p.Description
		return model.VariableTag{TagBase: base, Types: p.Types, Variable: p.Variable}

	case Typed:
		types, rest := typeField(body)
		if types == "" || !validType(types) {
			return model.TypedTag{TagBase: base}
		}
		base.Description = strings.TrimSpace(rest)
		return model.TypedTag{TagBase: base, Types: splitTypes(types)}

	case Reference:
		ref, rest := nextField(body)
		base.Description = strings.TrimSpace(rest)
		return model.ReferenceTag{TagBase: base, Reference: ref}

	case Version:
		trimmed := strings.TrimSpace(body)
		loc := versionRe.FindStringIndex(trimmed)
		if loc == nil {
			return model.VersionTag{TagBase: base}
		}
		base.Description = strings.TrimSpace(trimmed[loc[1]:])
		return model.VersionTag{TagBase: base, Version: trimmed[:loc[1]]}
	}

	return model.PlainTag{TagBase: base}
}
