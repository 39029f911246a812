package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phobologic/hookdoc/internal/model"
)

// ErrInvalidElement marks reflected input the exporters cannot represent.
var ErrInvalidElement = errors.New("invalid element")

// ElementError identifies the reflected element that failed validation.
type ElementError struct {
	Kind string
	Name string
	Line int
	Err  error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("%s %q (line %d): %v", e.Kind, e.Name, e.Line, e.Err)
}

func (e *ElementError) Unwrap() error { return e.Err }

// hooksKind is the use-reference kind exported separately as hooks.
const hooksKind = "hooks"

func validate(kind string, el model.Element) error {
	var reason string
	switch {
	case el.Name == "":
		reason = "empty name"
	case el.Line < 1:
		reason = fmt.Sprintf("line %d is not 1-based", el.Line)
	case el.EndLine != 0 && el.EndLine < el.Line:
		reason = fmt.Sprintf("end line %d precedes line %d", el.EndLine, el.Line)
	default:
		return nil
	}
	return &ElementError{Kind: kind, Name: el.Name, Line: el.Line, Err: fmt.Errorf("%w: %s", ErrInvalidElement, reason)}
}

func endLine(el model.Element) *int {
	if el.EndLine == 0 {
		return nil
	}
	v := el.EndLine
	return &v
}

func visibility(kind string, el model.Element, v model.Visibility) (string, error) {
	if v == "" {
		return string(model.Public), nil
	}
	if !v.Valid() {
		return "", &ElementError{Kind: kind, Name: el.Name, Line: el.Line, Err: fmt.Errorf("%w: visibility %q", ErrInvalidElement, v)}
	}
	return string(v), nil
}

// RelativePath strips root from path and returns it with forward slashes,
// whatever separator either side uses. Paths outside root are returned
// unchanged apart from the separators.
func RelativePath(path, root string) string {
	p := strings.ReplaceAll(path, `\`, "/")
	r := strings.ReplaceAll(root, `\`, "/")
	if r == "" || !strings.HasPrefix(p, r) {
		return p
	}
	rest := p[len(r):]
	if strings.HasSuffix(r, "/") || rest == "" || rest[0] == '/' {
		return strings.TrimLeft(rest, "/")
	}
	return p
}

func (f *fileExport) record(file *model.File, root string) (*Record, error) {
	rec := &Record{
		File: f.docBlock(file.Doc, "file"),
		Path: RelativePath(file.Path, root),
		Root: root,
	}

	if len(file.Uses) > 0 {
		uses, err := f.uses(file.Uses)
		if err != nil {
			return nil, err
		}
		rec.Uses = uses
	}

	for _, inc := range file.Includes {
		if err := validate("include", inc.Element); err != nil {
			return nil, err
		}
		rec.Includes = append(rec.Includes, IncludeRecord{Name: inc.Name, Line: inc.Line, Type: inc.Type})
	}

	for _, c := range file.Constants {
		if err := validate("constant", c.Element); err != nil {
			return nil, err
		}
		rec.Constants = append(rec.Constants, ConstantRecord{Name: c.Name, Line: c.Line, Value: c.Value})
	}

	if len(file.Hooks) > 0 {
		hooks, err := f.hooks(file.Hooks)
		if err != nil {
			return nil, err
		}
		rec.Hooks = hooks
	}

	for _, fn := range file.Functions {
		out, err := f.function(fn)
		if err != nil {
			return nil, err
		}
		rec.Functions = append(rec.Functions, out)
	}

	for _, c := range file.Classes {
		out, err := f.class(c)
		if err != nil {
			return nil, err
		}
		rec.Classes = append(rec.Classes, out)
	}

	return rec, nil
}

func (f *fileExport) function(fn model.Function) (FunctionRecord, error) {
	if err := validate("function", fn.Element); err != nil {
		return FunctionRecord{}, err
	}
	args, err := arguments("function", fn)
	if err != nil {
		return FunctionRecord{}, err
	}

	out := FunctionRecord{
		Name:      fn.Name,
		Line:      fn.Line,
		EndLine:   endLine(fn.Element),
		Arguments: args,
		Doc:       f.docBlock(fn.Doc, "function "+fn.Name),
		Hooks:     []HookRecord{},
	}
	if fn.References() {
		if out.Uses, err = f.uses(fn.Uses); err != nil {
			return FunctionRecord{}, err
		}
		if len(fn.Hooks) > 0 {
			if out.Hooks, err = f.hooks(fn.Hooks); err != nil {
				return FunctionRecord{}, err
			}
		}
	}
	return out, nil
}

func (f *fileExport) method(class string, m model.Method) (MethodRecord, error) {
	kind := "method of " + class
	if err := validate(kind, m.Element); err != nil {
		return MethodRecord{}, err
	}
	vis, err := visibility(kind, m.Element, m.Visibility)
	if err != nil {
		return MethodRecord{}, err
	}
	args, err := arguments(kind, m.Function)
	if err != nil {
		return MethodRecord{}, err
	}

	out := MethodRecord{
		Name:       m.Name,
		Line:       m.Line,
		EndLine:    endLine(m.Element),
		Final:      m.Final,
		Abstract:   m.Abstract,
		Static:     m.Static,
		Visibility: vis,
		Arguments:  args,
		Doc:        f.docBlock(m.Doc, "method "+class+"::"+m.Name),
		Hooks:      []HookRecord{},
	}
	if m.References() {
		if out.Uses, err = f.uses(m.Uses); err != nil {
			return MethodRecord{}, err
		}
		if len(m.Hooks) > 0 {
			if out.Hooks, err = f.hooks(m.Hooks); err != nil {
				return MethodRecord{}, err
			}
		}
	}
	return out, nil
}

func arguments(kind string, fn model.Function) ([]ArgumentRecord, error) {
	out := make([]ArgumentRecord, 0, len(fn.Arguments))
	for i, a := range fn.Arguments {
		if a.Name == "" {
			return nil, &ElementError{Kind: kind, Name: fn.Name, Line: fn.Line,
				Err: fmt.Errorf("%w: argument %d has no name", ErrInvalidElement, i)}
		}
		out = append(out, ArgumentRecord{Name: a.Name, Default: a.Default, Type: a.Type})
	}
	return out, nil
}

func (f *fileExport) class(c model.Class) (ClassRecord, error) {
	if err := validate("class", c.Element); err != nil {
		return ClassRecord{}, err
	}

	out := ClassRecord{
		Name:       c.Name,
		Line:       c.Line,
		EndLine:    endLine(c.Element),
		Final:      c.Final,
		Abstract:   c.Abstract,
		Implements: append([]string{}, c.Implements...),
		Properties: make([]PropertyRecord, 0, len(c.Properties)),
		Methods:    make([]MethodRecord, 0, len(c.Methods)),
		Doc:        f.docBlock(c.Doc, "class "+c.Name),
	}
	if c.Extends != "" {
		parent := c.Extends
		out.Extends = &parent
	}

	for _, p := range c.Properties {
		prop, err := f.property(c.Name, p)
		if err != nil {
			return ClassRecord{}, err
		}
		out.Properties = append(out.Properties, prop)
	}
	for _, m := range c.Methods {
		meth, err := f.method(c.Name, m)
		if err != nil {
			return ClassRecord{}, err
		}
		out.Methods = append(out.Methods, meth)
	}
	return out, nil
}

func (f *fileExport) property(class string, p model.Property) (PropertyRecord, error) {
	kind := "property of " + class
	if err := validate(kind, p.Element); err != nil {
		return PropertyRecord{}, err
	}
	vis, err := visibility(kind, p.Element, p.Visibility)
	if err != nil {
		return PropertyRecord{}, err
	}

	out := PropertyRecord{
		Name:       p.Name,
		Line:       p.Line,
		EndLine:    endLine(p.Element),
		Default:    p.Default,
		Static:     p.Static,
		Visibility: vis,
	}
	if p.Doc != nil {
		doc := f.docBlock(p.Doc, "property "+class+"::"+p.Name)
		out.Doc = &doc
	}
	return out, nil
}

func (f *fileExport) hooks(hooks []model.Hook) ([]HookRecord, error) {
	out := make([]HookRecord, 0, len(hooks))
	for _, h := range hooks {
		if err := validate("hook", h.Element); err != nil {
			return nil, err
		}
		out = append(out, HookRecord{
			Name:      h.Name,
			Line:      h.Line,
			EndLine:   endLine(h.Element),
			Type:      h.Type,
			Arguments: append([]string{}, h.Args...),
			Doc:       f.docBlock(h.Doc, "hook "+h.Name),
		})
	}
	return out, nil
}

// uses groups references by kind. Hooks are never included; they are
// exported through hooks. A call to a deprecation marker attaches the
// literal of its second argument to the first use of that name in the group.
func (f *fileExport) uses(groups []model.UseGroup) (Uses, error) {
	out := Uses{}
	for _, g := range groups {
		if g.Kind == hooksKind {
			continue
		}
		for _, ref := range g.Refs {
			if err := validate("use", ref.Element); err != nil {
				return nil, err
			}
			out[g.Kind] = append(out[g.Kind], UseRecord{
				Name:    ref.Name,
				Line:    ref.Line,
				EndLine: endLine(ref.Element),
			})

			if _, ok := f.deprecated[ref.Name]; !ok || len(ref.Args) < 2 {
				continue
			}
			list := out[g.Kind]
			for i := range list {
				if list[i].Name == ref.Name {
					if list[i].DeprecationVersion == "" {
						list[i].DeprecationVersion = literalValue(ref.Args[1])
					}
					break
				}
			}
		}
	}
	return out, nil
}

// literalValue unquotes a PHP string literal. Anything else is returned as
// written.
func literalValue(src string) string {
	s := strings.TrimSpace(src)
	if len(s) < 2 {
		return s
	}
	switch q := s[0]; {
	case q == '\'' && s[len(s)-1] == '\'':
		inner := s[1 : len(s)-1]
		return strings.NewReplacer(`\'`, `'`, `\\`, `\`).Replace(inner)
	case q == '"' && s[len(s)-1] == '"':
		inner := s[1 : len(s)-1]
		return strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(inner)
	}
	return s
}
