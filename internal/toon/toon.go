// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/hookdoc/internal/export"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode summarizes an export as TOON tables: one row per file, per symbol
// and per hook. Failed files are listed last, only when there are any.
func Encode(root string, results []export.Result) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(root)))

	var fileRows, symbolRows, hookRows, failureRows [][]string
	for i := range results {
		r := &results[i]
		if r.Err != nil || r.Record == nil {
			failureRows = append(failureRows, []string{export.RelativePath(r.Path, root), errString(r.Err)})
			continue
		}
		rec := r.Record

		hooks := hookRowsFor(rec)
		fileRows = append(fileRows, []string{
			rec.Path,
			rec.File.Description,
			strconv.Itoa(len(rec.Functions)),
			strconv.Itoa(len(rec.Classes)),
			strconv.Itoa(len(hooks)),
		})
		hookRows = append(hookRows, hooks...)

		for _, c := range rec.Constants {
			symbolRows = append(symbolRows, []string{rec.Path, c.Name, "constant", strconv.Itoa(c.Line), ""})
		}
		for _, fn := range rec.Functions {
			symbolRows = append(symbolRows, []string{rec.Path, fn.Name, "function", strconv.Itoa(fn.Line), lineOrEmpty(fn.EndLine)})
		}
		for _, c := range rec.Classes {
			symbolRows = append(symbolRows, []string{rec.Path, c.Name, "class", strconv.Itoa(c.Line), lineOrEmpty(c.EndLine)})
			for _, m := range c.Methods {
				symbolRows = append(symbolRows, []string{rec.Path, c.Name + "::" + m.Name, "method", strconv.Itoa(m.Line), lineOrEmpty(m.EndLine)})
			}
		}
	}

	parts = append(parts, formatTabular("files", []string{"path", "description", "functions", "classes", "hooks"}, fileRows))
	parts = append(parts, formatTabular("symbols", []string{"file", "name", "kind", "line", "end_line"}, symbolRows))
	parts = append(parts, formatTabular("hooks", []string{"file", "name", "type", "line", "owner"}, hookRows))
	if len(failureRows) > 0 {
		parts = append(parts, formatTabular("failures", []string{"path", "error"}, failureRows))
	}

	return strings.Join(parts, "\n")
}

func hookRowsFor(rec *export.Record) [][]string {
	var rows [][]string
	add := func(owner string, hooks []export.HookRecord) {
		for _, h := range hooks {
			rows = append(rows, []string{rec.Path, h.Name, h.Type, strconv.Itoa(h.Line), owner})
		}
	}
	add("", rec.Hooks)
	for _, fn := range rec.Functions {
		add(fn.Name, fn.Hooks)
	}
	for _, c := range rec.Classes {
		for _, m := range c.Methods {
			add(c.Name+"::"+m.Name, m.Hooks)
		}
	}
	return rows
}

func lineOrEmpty(line *int) string {
	if line == nil {
		return ""
	}
	return strconv.Itoa(*line)
}

func errString(err error) string {
	if err == nil {
		return "no record"
	}
	return err.Error()
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
