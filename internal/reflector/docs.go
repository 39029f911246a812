package reflector

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/hookdoc/internal/docblock"
	"github.com/phobologic/hookdoc/internal/lang"
	"github.com/phobologic/hookdoc/internal/model"
)

// statementParents are the nodes whose children are whole statements.
var statementParents = map[string]bool{
	"program":            true,
	"compound_statement": true,
	"colon_block":        true,
	"case_statement":     true,
	"default_statement":  true,
	"declaration_list":   true,
}

// declarations are the top-level nodes a leading docblock documents.
var declarations = map[string]bool{
	"function_definition":   true,
	"class_declaration":     true,
	"interface_declaration": true,
	"trait_declaration":     true,
	"enum_declaration":      true,
	"const_declaration":     true,
}

// docFor returns the docblock immediately preceding node, if any.
func (w *walker) docFor(node *sitter.Node) *model.DocBlock {
	prev := node.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return nil
	}
	text := lang.NodeText(prev, w.src)
	if !docblock.IsDocComment(text) {
		return nil
	}
	return docblock.Parse(text, w.reg)
}

// statementDoc returns the docblock preceding the statement that contains
// node.
func (w *walker) statementDoc(node *sitter.Node) *model.DocBlock {
	n := node
	for {
		p := n.Parent()
		if p == nil || statementParents[p.Type()] {
			break
		}
		n = p
	}
	return w.docFor(n)
}

// fileDoc returns the first top-level docblock unless it documents the
// declaration that follows it. A @package tag marks it as the file's own.
func (w *walker) fileDoc(root *sitter.Node) *model.DocBlock {
	for _, child := range lang.NamedChildren(root) {
		if child.Type() != "comment" {
			continue
		}
		text := lang.NodeText(child, w.src)
		if !docblock.IsDocComment(text) {
			continue
		}
		doc := docblock.Parse(text, w.reg)
		next := child.NextNamedSibling()
		if next != nil && declarations[next.Type()] && !docblock.HasTag(doc, "package") {
			return nil
		}
		return doc
	}
	return nil
}
