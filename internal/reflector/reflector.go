// Package reflector builds model.File values from PHP source using tree-sitter.
package reflector

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/hookdoc/internal/docblock"
	"github.com/phobologic/hookdoc/internal/lang"
	"github.com/phobologic/hookdoc/internal/model"
)

// DefaultHookFunctions maps extension point functions to the hook type they
// declare.
var DefaultHookFunctions = map[string]string{
	"do_action":                "action",
	"apply_filters":            "filter",
	"do_action_ref_array":      "action_reference",
	"apply_filters_ref_array":  "filter_reference",
	"do_action_deprecated":     "action_deprecated",
	"apply_filters_deprecated": "filter_deprecated",
}

// Use kinds.
const (
	FunctionUses = "functions"
	MethodUses   = "methods"
)

// Options configures a Reflector. Zero values select the defaults.
type Options struct {
	Registry      *docblock.Registry
	HookFunctions map[string]string
}

// Reflector parses PHP files. It wraps a tree-sitter parser, so each
// goroutine must use its own Reflector.
type Reflector struct {
	reg    *docblock.Registry
	hooks  map[string]string
	parser *sitter.Parser
}

// New creates a Reflector for PHP.
func New(opts Options) *Reflector {
	if opts.Registry == nil {
		opts.Registry = docblock.DefaultRegistry()
	}
	if opts.HookFunctions == nil {
		opts.HookFunctions = DefaultHookFunctions
	}
	hooks := make(map[string]string, len(opts.HookFunctions))
	for fn, typ := range opts.HookFunctions {
		hooks[strings.ToLower(fn)] = typ
	}
	return &Reflector{
		reg:    opts.Registry,
		hooks:  hooks,
		parser: lang.Languages["php"].NewParser(),
	}
}

// Close releases the underlying parser.
func (r *Reflector) Close() {
	r.parser.Close()
}

// Reflect parses source and returns the file's documented elements.
// path is stored on the result as given. Syntax errors do not fail the
// reflection; tree-sitter recovers and the well-formed parts are returned.
func (r *Reflector) Reflect(ctx context.Context, source []byte, path string) (*model.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file := &model.File{Path: path}
	if len(source) == 0 {
		return file, nil
	}

	tree, err := r.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	w := &walker{reg: r.reg, hooks: r.hooks, src: source, file: file, top: &scope{}}
	file.Doc = w.fileDoc(root)
	w.walk(root, w.top)
	file.Uses = w.top.uses
	file.Hooks = w.top.hooks
	return file, nil
}

// scope collects the references made inside one function, method or file.
type scope struct {
	uses  []model.UseGroup
	hooks []model.Hook
}

func (s *scope) addUse(kind string, u model.Use) {
	for i := range s.uses {
		if s.uses[i].Kind == kind {
			s.uses[i].Refs = append(s.uses[i].Refs, u)
			return
		}
	}
	s.uses = append(s.uses, model.UseGroup{Kind: kind, Refs: []model.Use{u}})
}

type walker struct {
	reg   *docblock.Registry
	hooks map[string]string
	src   []byte
	file  *model.File
	top   *scope
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return lang.NodeText(n, w.src)
}

func (w *walker) walk(node *sitter.Node, sc *scope) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "function_definition":
		w.function(node)
		return
	case "class_declaration":
		w.class(node)
		return
	case "interface_declaration", "trait_declaration", "enum_declaration":
		return
	case "const_declaration":
		w.constants(node)
		return
	case "function_call_expression":
		w.call(node, sc)
	case "member_call_expression", "nullsafe_member_call_expression":
		w.methodCall(node, sc, "->", "object")
	case "scoped_call_expression":
		w.methodCall(node, sc, "::", "scope")
	case "include_expression", "include_once_expression", "require_expression", "require_once_expression":
		w.include(node)
	}

	for _, child := range lang.NamedChildren(node) {
		w.walk(child, sc)
	}
}

func (w *walker) element(node, name *sitter.Node, doc *model.DocBlock) model.Element {
	return model.Element{
		Name:    w.text(name),
		Line:    lang.StartLine(node),
		EndLine: lang.EndLine(node),
		Doc:     doc,
	}
}

func (w *walker) function(node *sitter.Node) {
	idx := len(w.file.Functions)
	w.file.Functions = append(w.file.Functions, model.Function{})

	fn := model.Function{
		Element:   w.element(node, node.ChildByFieldName("name"), w.docFor(node)),
		Arguments: w.arguments(node.ChildByFieldName("parameters")),
	}
	sc := &scope{}
	w.walk(node.ChildByFieldName("body"), sc)
	fn.Uses, fn.Hooks = sc.uses, sc.hooks

	w.file.Functions[idx] = fn
}

func (w *walker) class(node *sitter.Node) {
	idx := len(w.file.Classes)
	w.file.Classes = append(w.file.Classes, model.Class{})

	c := model.Class{Element: w.element(node, node.ChildByFieldName("name"), w.docFor(node))}
	for i := 0; i < int(node.ChildCount()); i++ {
		switch node.Child(i).Type() {
		case "final_modifier":
			c.Final = true
		case "abstract_modifier":
			c.Abstract = true
		}
	}
	for _, n := range lang.NamedChildren(lang.ChildOfType(node, "base_clause")) {
		if n.Type() == "name" || n.Type() == "qualified_name" {
			c.Extends = w.text(n)
			break
		}
	}
	for _, n := range lang.NamedChildren(lang.ChildOfType(node, "class_interface_clause")) {
		if n.Type() == "name" || n.Type() == "qualified_name" {
			c.Implements = append(c.Implements, w.text(n))
		}
	}

	for _, member := range lang.NamedChildren(node.ChildByFieldName("body")) {
		switch member.Type() {
		case "method_declaration":
			c.Methods = append(c.Methods, w.method(member))
		case "property_declaration":
			c.Properties = append(c.Properties, w.properties(member)...)
		}
	}

	w.file.Classes[idx] = c
}

func (w *walker) method(node *sitter.Node) model.Method {
	m := model.Method{
		Function: model.Function{
			Element:   w.element(node, node.ChildByFieldName("name"), w.docFor(node)),
			Arguments: w.arguments(node.ChildByFieldName("parameters")),
		},
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "visibility_modifier":
			m.Visibility = model.Visibility(strings.ToLower(w.text(child)))
		case "static_modifier":
			m.Static = true
		case "final_modifier":
			m.Final = true
		case "abstract_modifier":
			m.Abstract = true
		}
	}

	sc := &scope{}
	w.walk(node.ChildByFieldName("body"), sc)
	m.Uses, m.Hooks = sc.uses, sc.hooks
	return m
}

func (w *walker) properties(node *sitter.Node) []model.Property {
	var (
		vis    model.Visibility
		static bool
	)
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "visibility_modifier":
			vis = model.Visibility(strings.ToLower(w.text(child)))
		case "static_modifier":
			static = true
		}
	}
	doc := w.docFor(node)

	var out []model.Property
	for _, elem := range lang.ChildrenOfType(node, "property_element") {
		name := elem.ChildByFieldName("name")
		if name == nil {
			name = lang.ChildOfType(elem, "variable_name")
		}
		if name == nil {
			continue
		}
		p := model.Property{
			Element:    w.element(elem, name, doc),
			Static:     static,
			Visibility: vis,
		}
		if value := propertyDefault(elem); value != nil {
			v := lang.CollapseWhitespace(w.text(value))
			p.Default = &v
		}
		out = append(out, p)
	}
	return out
}

// propertyDefault finds a property initializer across grammar revisions.
func propertyDefault(elem *sitter.Node) *sitter.Node {
	if v := elem.ChildByFieldName("default_value"); v != nil {
		return v
	}
	if init := lang.ChildOfType(elem, "property_initializer"); init != nil {
		if n := int(init.NamedChildCount()); n > 0 {
			return init.NamedChild(n - 1)
		}
	}
	for i := 0; i < int(elem.ChildCount())-1; i++ {
		if elem.Child(i).Type() == "=" {
			return elem.Child(i + 1)
		}
	}
	return nil
}

var parameterTypes = map[string]bool{
	"simple_parameter":             true,
	"variadic_parameter":           true,
	"property_promotion_parameter": true,
}

func (w *walker) arguments(params *sitter.Node) []model.Argument {
	var out []model.Argument
	for _, p := range lang.NamedChildren(params) {
		if !parameterTypes[p.Type()] {
			continue
		}
		name := p.ChildByFieldName("name")
		if name == nil {
			name = lang.ChildOfType(p, "variable_name")
		}
		arg := model.Argument{Name: w.text(name)}
		if typ := p.ChildByFieldName("type"); typ != nil {
			v := lang.CollapseWhitespace(w.text(typ))
			arg.Type = &v
		}
		if def := p.ChildByFieldName("default_value"); def != nil {
			v := lang.CollapseWhitespace(w.text(def))
			arg.Default = &v
		}
		out = append(out, arg)
	}
	return out
}

func (w *walker) constants(node *sitter.Node) {
	doc := w.docFor(node)
	for _, elem := range lang.ChildrenOfType(node, "const_element") {
		name := lang.ChildOfType(elem, "name")
		if name == nil {
			continue
		}
		var value string
		if n := int(elem.NamedChildCount()); n > 1 {
			value = w.text(elem.NamedChild(n - 1))
		}
		w.file.Constants = append(w.file.Constants, model.Constant{
			Element: w.element(elem, name, doc),
			Value:   value,
		})
	}
}

func (w *walker) include(node *sitter.Node) {
	var target string
	for _, n := range lang.NamedChildren(node) {
		if n.Type() != "comment" {
			target = lang.CollapseWhitespace(w.text(n))
		}
	}
	if target == "" {
		return
	}
	w.file.Includes = append(w.file.Includes, model.Include{
		Element: model.Element{
			Name:    target,
			Line:    lang.StartLine(node),
			EndLine: lang.EndLine(node),
			Doc:     w.statementDoc(node),
		},
		Type: strings.TrimSuffix(node.Type(), "_expression"),
	})
}

func (w *walker) call(node *sitter.Node, sc *scope) {
	fn := node.ChildByFieldName("function")
	if fn == nil || (fn.Type() != "name" && fn.Type() != "qualified_name") {
		return
	}
	name := strings.TrimPrefix(w.text(fn), `\`)
	args := callArguments(node)

	if typ, ok := w.hooks[strings.ToLower(name)]; ok {
		w.hook(node, typ, args, sc)
		return
	}
	if strings.EqualFold(name, "define") && sc == w.top {
		w.define(node, args)
	}

	sc.addUse(FunctionUses, model.Use{
		Element: model.Element{Name: name, Line: lang.StartLine(node), EndLine: lang.EndLine(node)},
		Args:    w.texts(args),
	})
}

func (w *walker) methodCall(node *sitter.Node, sc *scope, sep, receiverField string) {
	receiver := node.ChildByFieldName(receiverField)
	name := node.ChildByFieldName("name")
	if receiver == nil || name == nil {
		return
	}
	sc.addUse(MethodUses, model.Use{
		Element: model.Element{
			Name:    lang.CollapseWhitespace(w.text(receiver)) + sep + w.text(name),
			Line:    lang.StartLine(node),
			EndLine: lang.EndLine(node),
		},
		Args: w.texts(callArguments(node)),
	})
}

func (w *walker) hook(node *sitter.Node, typ string, args []*sitter.Node, sc *scope) {
	if len(args) == 0 {
		return
	}
	name := w.hookName(argumentValue(args[0]))
	if name == "" {
		return
	}
	sc.hooks = append(sc.hooks, model.Hook{
		Element: model.Element{
			Name:    name,
			Line:    lang.StartLine(node),
			EndLine: lang.EndLine(node),
			Doc:     w.statementDoc(node),
		},
		Type: typ,
		Args: w.texts(args[1:]),
	})
}

// hookName renders a hook name expression. Literal parts are unquoted and
// every other operand of a concatenation is wrapped in braces, so
// 'save_' . $post->post_type becomes save_{$post->post_type}.
func (w *walker) hookName(n *sitter.Node) string {
	switch n.Type() {
	case "string", "encapsed_string":
		return unquote(w.text(n))
	case "binary_expression":
		left, op, right := n.ChildByFieldName("left"), n.ChildByFieldName("operator"), n.ChildByFieldName("right")
		if left != nil && right != nil && op != nil && w.text(op) == "." {
			return w.hookName(left) + w.hookName(right)
		}
	}
	return "{" + lang.CollapseWhitespace(w.text(n)) + "}"
}

func (w *walker) define(node *sitter.Node, args []*sitter.Node) {
	if len(args) < 2 {
		return
	}
	name := argumentValue(args[0])
	if name.Type() != "string" && name.Type() != "encapsed_string" {
		return
	}
	w.file.Constants = append(w.file.Constants, model.Constant{
		Element: model.Element{
			Name:    unquote(w.text(name)),
			Line:    lang.StartLine(node),
			EndLine: lang.EndLine(node),
			Doc:     w.statementDoc(node),
		},
		Value: w.text(argumentValue(args[1])),
	})
}

func (w *walker) texts(nodes []*sitter.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, lang.CollapseWhitespace(w.text(n)))
	}
	return out
}

func callArguments(node *sitter.Node) []*sitter.Node {
	args := node.ChildByFieldName("arguments")
	if args == nil {
		args = lang.ChildOfType(node, "arguments")
	}
	if out := lang.ChildrenOfType(args, "argument"); len(out) > 0 {
		return out
	}
	var out []*sitter.Node
	for _, n := range lang.NamedChildren(args) {
		if n.Type() != "comment" {
			out = append(out, n)
		}
	}
	return out
}

// argumentValue returns the expression of a call argument, skipping a
// named-argument label.
func argumentValue(arg *sitter.Node) *sitter.Node {
	if arg.Type() != "argument" {
		return arg
	}
	if n := int(arg.NamedChildCount()); n > 0 {
		return arg.NamedChild(n - 1)
	}
	return arg
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	switch {
	case s[0] == '\'' && s[len(s)-1] == '\'':
		return strings.NewReplacer(`\'`, `'`, `\\`, `\`).Replace(s[1 : len(s)-1])
	case s[0] == '"' && s[len(s)-1] == '"':
		return s[1 : len(s)-1]
	}
	return s
}
