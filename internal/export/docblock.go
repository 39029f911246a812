package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/hookdoc/internal/hashnotation"
	"github.com/phobologic/hookdoc/internal/model"
)

var newlinesRe = regexp.MustCompile(`[\n\r]+`)

func collapseNewlines(s string) string {
	return newlinesRe.ReplaceAllString(s, " ")
}

// emptyDocBlock is what elements without a docblock export.
func emptyDocBlock() DocBlock {
	return DocBlock{Tags: []TagRecord{}}
}

// docBlock normalizes doc. where names the owning element in warnings.
func (f *fileExport) docBlock(doc *model.DocBlock, where string) DocBlock {
	if doc == nil {
		return emptyDocBlock()
	}

	out := DocBlock{
		Description:     collapseNewlines(doc.Short),
		LongDescription: collapseNewlines(doc.Long),
		Tags:            make([]TagRecord, 0, len(doc.Tags)),
	}
	for _, tag := range doc.Tags {
		out.Tags = append(out.Tags, f.tag(tag, where))
	}
	return out
}

func typeList(types []string) TypeList {
	if types == nil {
		return TypeList{}
	}
	return append(TypeList{}, types...)
}

func (f *fileExport) tag(tag model.Tag, where string) TagRecord {
	base := tag.Base()
	content := collapseNewlines(base.Description)
	rec := TagRecord{Name: base.Name, Content: content}

	var variable string
	switch t := tag.(type) {
	case model.TypedTag:
		rec.Types = typeList(t.Types)
	case model.VariableTag:
		rec.Types = typeList(t.Types)
		variable = t.Variable
		rec.Variable = &variable
	case model.ReferenceTag:
		refers := t.Reference
		rec.Refers = &refers
	case model.VersionTag:
		if base.Name == "since" && t.Version != "" {
			rec.Content = t.Version
		}
	}

	if base.Name == "param" && strings.HasPrefix(content, "{") {
		node, err := hashnotation.Parse(content, hashnotation.Options{
			MaxDepth: f.maxDepth,
			Registry: f.reg,
		})
		if err != nil {
			// The raw text stays as content; the rest of the element still exports.
			f.warn(fmt.Errorf("%s: @param %s: %w", where, variable, err))
			return rec
		}
		if len(rec.Types) > 0 {
			node.Types = append([]string(nil), rec.Types...)
		}
		rec.Content = node
	}
	return rec
}
