package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/hookdoc/internal/export"
	"github.com/phobologic/hookdoc/internal/hashnotation"
)

func sampleResults(t *testing.T) []export.Result {
	t.Helper()
	node, err := hashnotation.Parse("{ @type string $foo Foo. }", hashnotation.Options{})
	require.NoError(t, err)
	args := "$args"

	return []export.Result{
		{
			Path: "/srv/wp/a.php",
			Record: &export.Record{
				File: export.DocBlock{Tags: []export.TagRecord{}},
				Path: "a.php",
				Root: "/srv/wp",
				Functions: []export.FunctionRecord{{
					Name:      "a",
					Line:      3,
					Arguments: []export.ArgumentRecord{},
					Doc: export.DocBlock{
						Description: "Does <a>.",
						Tags:        []export.TagRecord{{Name: "param", Content: node, Types: []string{"array"}, Variable: &args}},
					},
					Hooks: []export.HookRecord{},
				}},
			},
		},
		{Path: "/srv/wp/b.php", Err: errors.New("function \"\" (line 1): invalid element: empty name")},
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "json", "/srv/wp", sampleResults(t)))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)

	assert.Equal(t, "a.php", got[0]["path"])
	fn := got[0]["functions"].([]any)[0].(map[string]any)
	assert.Nil(t, fn["end_line"])
	doc := fn["doc"].(map[string]any)
	assert.Equal(t, "Does <a>.", doc["description"])
	content := doc["tags"].([]any)[0].(map[string]any)["content"].(map[string]any)
	assert.Equal(t, "Foo.", content["$foo"].(map[string]any)["content"])

	assert.Equal(t, map[string]any{
		"path":  "b.php",
		"root":  "/srv/wp",
		"error": "function \"\" (line 1): invalid element: empty name",
	}, got[1])

	assert.Contains(t, buf.String(), "Does <a>.", "html is not escaped")
}

func TestWriteYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "yaml", "/srv/wp", sampleResults(t)))

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a.php", got[0]["path"])
	assert.Equal(t, "b.php", got[1]["path"])

	out := buf.String()
	assert.Less(t, strings.Index(out, "file:"), strings.Index(out, "path: a.php"), "record fields keep their order")
	assert.Contains(t, out, "end_line: null")
}

func TestWriteTOON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "toon", "/srv/wp", sampleResults(t)))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "root: /srv/wp\n"))
	assert.Contains(t, out, "failures[1]{path,error}:")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestWriteUnknownFormat(t *testing.T) {
	t.Parallel()

	err := Write(&bytes.Buffer{}, "xml", "", nil)
	assert.ErrorContains(t, err, `unknown output format "xml"`)
}

func TestWriteEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "json", "/srv/wp", nil))
	assert.Equal(t, "[]\n", buf.String())
}
