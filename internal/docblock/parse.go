package docblock

import (
	"regexp"
	"strings"

	"github.com/phobologic/hookdoc/internal/model"
)

var (
	linePrefixRe = regexp.MustCompile(`^[ \t]*\*?[ \t]?`)
	tagHeadRe    = regexp.MustCompile(`(?s)^@([\w\-\\:]+)(.*)$`)
)

// IsDocComment reports whether comment is a /** ... */ docblock.
func IsDocComment(comment string) bool {
	c := strings.TrimSpace(comment)
	return strings.HasPrefix(c, "/**") && !strings.HasPrefix(c, "/***") && strings.HasSuffix(c, "*/")
}

// Parse splits a docblock comment into its short description, long
// description and annotations. Annotations start at lines whose first
// character is "@"; indented lines continue the previous annotation.
func Parse(comment string, reg *Registry) *model.DocBlock {
	lines := cleanLines(comment)

	split := len(lines)
	for i, line := range lines {
		if strings.HasPrefix(line, "@") {
			split = i
			break
		}
	}

	short, long := splitDescription(lines[:split])
	doc := &model.DocBlock{Short: short, Long: long}

	for _, raw := range groupTags(lines[split:]) {
		m := tagHeadRe.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		doc.Tags = append(doc.Tags, reg.NewTag(m[1], m[2]))
	}
	return doc
}

// HasTag reports whether doc carries an annotation named name.
func HasTag(doc *model.DocBlock, name string) bool {
	if doc == nil {
		return false
	}
	for _, t := range doc.Tags {
		if t.Base().Name == name {
			return true
		}
	}
	return false
}

func cleanLines(comment string) []string {
	c := strings.TrimSpace(comment)
	c = strings.TrimPrefix(c, "/**")
	c = strings.TrimSuffix(c, "*/")
	c = strings.ReplaceAll(c, "\r\n", "\n")
	c = strings.ReplaceAll(c, "\r", "\n")

	raw := strings.Split(c, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = linePrefixRe.ReplaceAllString(line, "")
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	return trimBlank(lines)
}

// splitDescription ends the short description at the first blank line or at
// the first line ending with a period.
func splitDescription(lines []string) (string, string) {
	lines = trimBlank(lines)
	end := len(lines)
	next := len(lines)
	for i, line := range lines {
		if line == "" {
			end, next = i, i+1
			break
		}
		if strings.HasSuffix(line, ".") {
			end, next = i+1, i+1
			break
		}
	}
	short := strings.Join(lines[:end], "\n")
	long := strings.Join(trimBlank(lines[next:]), "\n")
	return short, long
}

func groupTags(lines []string) []string {
	var tags []string
	for _, line := range lines {
		if strings.HasPrefix(line, "@") || len(tags) == 0 {
			tags = append(tags, line)
			continue
		}
		tags[len(tags)-1] += "\n" + line
	}
	for i := range tags {
		tags[i] = strings.TrimRight(tags[i], "\n")
	}
	return tags
}

func trimBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
