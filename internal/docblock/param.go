package docblock

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ErrMalformedParam is returned by ParseParam for text that is not a
// parameter declaration.
var ErrMalformedParam = errors.New("malformed parameter")

// Param is a parsed "<types> [$var] [description]" declaration.
type Param struct {
	Types       []string
	Variable    string
	Description string
}

var typeRe = regexp.MustCompile(`^[\\\w(?][\\\w\[\]{}|?()<>,&.:'"\-]*$`)

// ParseParam parses the body of a @param-style annotation. The description
// keeps its original inner whitespace so that hash notation survives.
func ParseParam(body string) (Param, error) {
	first, rest := typeField(body)
	if first == "" {
		return Param{}, fmt.Errorf("%w: empty declaration", ErrMalformedParam)
	}

	var p Param
	if isVariable(first) {
		p.Variable = variableName(first)
		p.Description = strings.TrimSpace(rest)
		return p, nil
	}

	if !validType(first) {
		return Param{}, fmt.Errorf("%w: invalid type %q", ErrMalformedParam, first)
	}
	p.Types = splitTypes(first)

	second, tail := nextField(rest)
	if isVariable(second) {
		p.Variable = variableName(second)
		p.Description = strings.TrimSpace(tail)
		return p, nil
	}
	p.Description = strings.TrimSpace(rest)
	return p, nil
}

// nextField splits off the first whitespace-delimited field of s. The
// remainder starts after the whitespace following the field.
func nextField(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		return s, ""
	}
	field := s[:end]
	rest := strings.TrimLeftFunc(s[end:], unicode.IsSpace)
	return field, rest
}

var closers = map[rune]rune{'<': '>', '(': ')', '{': '}', '[': ']'}

// typeField is nextField for a type expression: whitespace inside <>, (),
// {} or [] does not end the field, so array<string, mixed> stays whole.
// Inner whitespace runs are collapsed to one space. Unbalanced brackets fall
// back to the plain whitespace split.
func typeField(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	var stack []rune
	for i, r := range s {
		switch {
		case closers[r] != 0:
			stack = append(stack, closers[r])
		case len(stack) > 0 && r == stack[len(stack)-1]:
			stack = stack[:len(stack)-1]
		case len(stack) == 0 && unicode.IsSpace(r):
			return strings.Join(strings.Fields(s[:i]), " "), strings.TrimLeftFunc(s[i:], unicode.IsSpace)
		}
	}
	if len(stack) > 0 {
		return nextField(s)
	}
	return strings.Join(strings.Fields(s), " "), ""
}

// validType reports whether field is a type expression. Spaces are allowed
// only where typeField kept them, inside brackets.
func validType(field string) bool {
	return typeRe.MatchString(strings.ReplaceAll(field, " ", ""))
}

func isVariable(field string) bool {
	field = strings.TrimPrefix(field, "&")
	field = strings.TrimPrefix(field, "...")
	return len(field) > 1 && field[0] == '$'
}

func variableName(field string) string {
	field = strings.TrimPrefix(field, "&")
	return strings.TrimPrefix(field, "...")
}

// splitTypes splits a union type. Generic or grouped types are kept whole.
func splitTypes(s string) []string {
	if strings.ContainsAny(s, "<({") {
		return []string{s}
	}
	var types []string
	for _, t := range strings.Split(s, "|") {
		if t != "" {
			types = append(types, t)
		}
	}
	return types
}
