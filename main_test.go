package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/phobologic/hookdoc/internal/discover"
	"github.com/phobologic/hookdoc/internal/export"
	"github.com/phobologic/hookdoc/internal/model"
	"github.com/phobologic/hookdoc/internal/output"
	"github.com/phobologic/hookdoc/internal/reflector"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func createSamplePlugin(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "plugin.php", `<?php
/**
 * Sample plugin bootstrap.
 *
 * @package Sample
 */

require_once 'includes/class-greeter.php';

/**
 * Greets a user.
 *
 * @since 1.0.0
 *
 * @param string $name Who to greet.
 * @return string
 */
function sample_greet( $name = 'World' ) {
	/**
	 * Filters the greeting.
	 *
	 * @param string $greeting The greeting.
	 */
	return apply_filters( 'sample_greeting', 'Hello ' . $name );
}
`)
	writeTestFile(t, dir, "includes/class-greeter.php", `<?php
/**
 * Greeter class file.
 *
 * @package Sample
 */

/**
 * Says hello.
 */
class Sample_Greeter {
	/**
	 * Prints the greeting.
	 */
	public function run() {
		echo sample_greet();
	}
}
`)
	return dir
}

func runOK(t *testing.T, args ...string) (string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	return stdout.String(), stderr.String()
}

func decodeJSON(t *testing.T, out string) []map[string]any {
	t.Helper()
	var records []map[string]any
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, out)
	}
	return records
}

func TestRunBasic(t *testing.T) {
	t.Parallel()
	dir := createSamplePlugin(t)

	out, _ := runOK(t, dir)
	records := decodeJSON(t, out)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d:\n%s", len(records), out)
	}

	// Discovery order is by path.
	greeter, plugin := records[0], records[1]
	if greeter["path"] != "includes/class-greeter.php" {
		t.Errorf("first path = %v", greeter["path"])
	}
	if plugin["path"] != "plugin.php" {
		t.Errorf("second path = %v", plugin["path"])
	}
	root, _ := filepath.Abs(dir)
	if plugin["root"] != root {
		t.Errorf("root = %v, want %s", plugin["root"], root)
	}

	file := plugin["file"].(map[string]any)
	if file["description"] != "Sample plugin bootstrap." {
		t.Errorf("file description = %v", file["description"])
	}

	functions := plugin["functions"].([]any)
	if len(functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(functions))
	}
	fn := functions[0].(map[string]any)
	if fn["name"] != "sample_greet" {
		t.Errorf("function name = %v", fn["name"])
	}
	hooks := fn["hooks"].([]any)
	if len(hooks) != 1 || hooks[0].(map[string]any)["name"] != "sample_greeting" {
		t.Errorf("function hooks = %v", hooks)
	}

	classes := greeter["classes"].([]any)
	if len(classes) != 1 || classes[0].(map[string]any)["name"] != "Sample_Greeter" {
		t.Errorf("classes = %v", classes)
	}
}

func TestRunYAML(t *testing.T) {
	t.Parallel()
	dir := createSamplePlugin(t)

	out, _ := runOK(t, "--format", "yaml", dir)
	if !strings.HasPrefix(out, "- file:") {
		t.Errorf("yaml output should be a sequence of records, got:\n%s", out)
	}
	if !strings.Contains(out, "name: sample_greet") {
		t.Errorf("missing function in yaml output:\n%s", out)
	}
}

func TestRunTOON(t *testing.T) {
	t.Parallel()
	dir := createSamplePlugin(t)

	out, _ := runOK(t, dir, "-f", "toon")
	if !strings.HasPrefix(out, "root:") {
		t.Errorf("toon output should start with root:, got:\n%s", out)
	}
	for _, want := range []string{
		"files[2]",
		"plugin.php,sample_greet,function,18,25",
		`includes/class-greeter.php,"Sample_Greeter::run",method,15,17`,
		"plugin.php,sample_greeting,filter,24,sample_greet",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("toon output missing %q:\n%s", want, out)
		}
	}
}

func TestRunUnknownFormat(t *testing.T) {
	t.Parallel()
	dir := createSamplePlugin(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--format", "xml", dir}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "xml") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	out, _ := runOK(t, "--version")
	if !strings.HasPrefix(out, "hookdoc ") {
		t.Errorf("version output: %q", out)
	}
}

func TestRunNoFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "readme.txt", "nothing here")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{dir}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for no PHP files")
	}
	if !strings.Contains(err.Error(), "no PHP files") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunNotADirectory(t *testing.T) {
	t.Parallel()
	f := filepath.Join(t.TempDir(), "file.php")
	if err := os.WriteFile(f, []byte("<?php"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{f}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for non-directory")
	}
}

func TestRunMaxFileSize(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "small.php", "<?php\n")
	writeTestFile(t, dir, "big.php", "<?php\n"+strings.Repeat("$x = 1;\n", 200))

	out, stderr := runOK(t, "--max-file-size", "100", dir)
	if !strings.Contains(out, "small.php") {
		t.Error("missing small.php")
	}
	if strings.Contains(out, "big.php") {
		t.Error("big.php should be filtered out")
	}
	if !strings.Contains(stderr, "level=warning") || !strings.Contains(stderr, "big.php") {
		t.Errorf("expected warning about skipped file, got:\n%s", stderr)
	}
}

func TestRunExclude(t *testing.T) {
	t.Parallel()
	dir := createSamplePlugin(t)

	out, _ := runOK(t, "--exclude", "includes/**", dir)
	records := decodeJSON(t, out)
	if len(records) != 1 || records[0]["path"] != "plugin.php" {
		t.Errorf("expected only plugin.php, got:\n%s", out)
	}
}

func TestRunSkipTests(t *testing.T) {
	t.Parallel()
	dir := createSamplePlugin(t)
	writeTestFile(t, dir, "tests/GreeterTest.php", "<?php\nclass GreeterTest {}\n")

	out, _ := runOK(t, dir)
	if !strings.Contains(out, "tests/GreeterTest.php") {
		t.Errorf("tests should be exported by default:\n%s", out)
	}

	out, _ = runOK(t, "--skip-tests", dir)
	if strings.Contains(out, "GreeterTest") {
		t.Errorf("--skip-tests should drop tests:\n%s", out)
	}
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()
	dir := createSamplePlugin(t)
	writeTestFile(t, dir, "hookdoc.yaml", `format: toon
exclude:
  - includes/**
`)

	out, _ := runOK(t, dir)
	if !strings.HasPrefix(out, "root:") {
		t.Errorf("config format should apply, got:\n%s", out)
	}
	if strings.Contains(out, "class-greeter.php") {
		t.Errorf("config exclude should apply:\n%s", out)
	}

	// Flags override the file.
	out, _ = runOK(t, "--format", "json", dir)
	if len(decodeJSON(t, out)) != 1 {
		t.Errorf("expected 1 record:\n%s", out)
	}
}

func TestRunExplicitConfig(t *testing.T) {
	t.Parallel()
	dir := createSamplePlugin(t)
	cfgPath := filepath.Join(t.TempDir(), "custom.yaml")
	writeTestFile(t, filepath.Dir(cfgPath), "custom.yaml", `hook_functions:
  sample_event: action
`)
	writeTestFile(t, dir, "events.php", "<?php\nsample_event( 'sample_ready' );\n")

	out, _ := runOK(t, "--config", cfgPath, "--format", "toon", dir)
	if !strings.Contains(out, "events.php,sample_ready,action,2,") {
		t.Errorf("custom hook function not reflected:\n%s", out)
	}

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--config", filepath.Join(dir, "missing.yaml"), dir}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestRunInvalidConfig(t *testing.T) {
	t.Parallel()
	dir := createSamplePlugin(t)
	writeTestFile(t, dir, "hookdoc.yaml", "workers: -2\nformat: csv\n")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{dir}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
	if !strings.Contains(err.Error(), "csv") || !strings.Contains(err.Error(), "workers") {
		t.Errorf("every problem should be reported: %v", err)
	}
}

func TestRunOutputFile(t *testing.T) {
	t.Parallel()
	dir := createSamplePlugin(t)
	outPath := filepath.Join(t.TempDir(), "export.json")

	out, _ := runOK(t, "-o", outPath, dir)
	if out != "" {
		t.Errorf("stdout should be empty with --output, got:\n%s", out)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if len(decodeJSON(t, string(data))) != 2 {
		t.Errorf("expected 2 records:\n%s", data)
	}
}

func TestRunCache(t *testing.T) {
	t.Parallel()
	dir := createSamplePlugin(t)
	cachePath := filepath.Join(t.TempDir(), "test.cache")

	out1, _ := runOK(t, "--cache", cachePath, dir)

	// Cache file should exist
	cacheData, err := os.ReadFile(cachePath)
	if err != nil {
		t.Fatalf("cache not created: %v", err)
	}
	if string(cacheData) != out1 {
		t.Error("cache should hold the exported output")
	}

	// Second run should use cache
	out2, stderr2 := runOK(t, "-v", "--cache", cachePath, dir)
	if out1 != out2 {
		t.Errorf("cache mismatch:\nfirst:\n%s\nsecond:\n%s", out1, out2)
	}
	if !strings.Contains(stderr2, "cache is fresh") {
		t.Errorf("second run should report a cache hit:\n%s", stderr2)
	}
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()
	dir := createSamplePlugin(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	err := run(ctx, []string{dir}, &stdout, &stderr)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("nothing should be written when interrupted:\n%s", stdout.String())
	}
}

func TestExportAllKeepsReflectionFailures(t *testing.T) {
	t.Parallel()
	log := logrus.New()
	var logs bytes.Buffer
	log.SetOutput(&logs)

	reflected := []reflection{
		{path: "/repo/a.php", err: errors.New("reading: permission denied")},
		{path: "/repo/b.php", file: &model.File{Path: "/repo/b.php"}},
	}
	exp := export.New(export.Options{}, log)

	results, err := exportAll(context.Background(), exp, "/repo", reflected, log)
	if err != nil {
		t.Fatalf("exportAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err == nil || results[0].Path != "/repo/a.php" {
		t.Errorf("first result should keep its error: %+v", results[0])
	}
	if results[1].Err != nil || results[1].Record == nil || results[1].Record.Path != "b.php" {
		t.Errorf("second result should be exported: %+v", results[1])
	}
	if !strings.Contains(logs.String(), "1 of 2 files could not be exported") {
		t.Errorf("failure count not logged:\n%s", logs.String())
	}
}

func TestReflectFilesConcurrentKeepsOrder(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var files []discover.FileEntry
	for i := range 6 {
		rel := fmt.Sprintf("f%d.php", i)
		writeTestFile(t, dir, rel, fmt.Sprintf("<?php\nfunction fn_%d() {}\n", i))
		files = append(files, discover.FileEntry{Path: rel, Language: "php"})
	}
	files = append(files, discover.FileEntry{Path: filepath.Join("lib", "missing.php"), Language: "php"})

	log := logrus.New()
	log.SetOutput(io.Discard)

	reflected := reflectFilesConcurrent(context.Background(), dir, files, reflector.Options{}, 2, log)
	if len(reflected) != len(files) {
		t.Fatalf("expected %d results, got %d", len(files), len(reflected))
	}
	for i := range 6 {
		r := reflected[i]
		if r.err != nil {
			t.Fatalf("f%d.php: %v", i, r.err)
		}
		if len(r.file.Functions) != 1 || r.file.Functions[0].Name != fmt.Sprintf("fn_%d", i) {
			t.Errorf("result %d is out of order: %+v", i, r.file.Functions)
		}
	}
	if reflected[6].err == nil {
		t.Fatal("missing file should fail to read")
	}

	// Failures are reported with root-relative paths, like records.
	results, err := exportAll(context.Background(), export.New(export.Options{}, log), dir, reflected, log)
	if err != nil {
		t.Fatalf("exportAll: %v", err)
	}
	var buf bytes.Buffer
	if err := output.Write(&buf, "json", dir, results); err != nil {
		t.Fatalf("output.Write: %v", err)
	}
	entries := decodeJSON(t, buf.String())
	if entries[0]["path"] != "f0.php" {
		t.Errorf("record path = %v", entries[0]["path"])
	}
	if entries[6]["path"] != "lib/missing.php" || entries[6]["error"] == nil {
		t.Errorf("failure entry = %v", entries[6])
	}
}
