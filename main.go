// hookdoc exports the inline documentation and hooks of a PHP codebase as
// structured data.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/hookdoc/internal/config"
	"github.com/phobologic/hookdoc/internal/discover"
	"github.com/phobologic/hookdoc/internal/docblock"
	"github.com/phobologic/hookdoc/internal/export"
	"github.com/phobologic/hookdoc/internal/model"
	"github.com/phobologic/hookdoc/internal/output"
	"github.com/phobologic/hookdoc/internal/reflector"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// flags holds the command-line overrides. Only flags the user actually set
// replace config file values.
type flags struct {
	configPath  string
	format      string
	output      string
	cache       string
	exclude     []string
	workers     int
	maxFileSize int64
	skipTests   bool
	verbose     bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "hookdoc [flags] [root]",
		Short: "Export PHP docblocks, hooks and references as JSON, YAML or TOON",
		Long: `hookdoc reflects every PHP file under root (default: the current directory)
and exports its documented elements: file docblock, includes, constants,
functions, classes, hooks and the elements each of them uses.

Settings are read from hookdoc.yaml in root, or from --config. Flags override
the file.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return runExport(cmd, root, &f, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("hookdoc {{.Version}}\n")

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "config file (default: <root>/"+config.ProjectConfigFile+")")
	fl.StringVarP(&f.format, "format", "f", config.FormatJSON, "output format: json, yaml or toon")
	fl.StringVarP(&f.output, "output", "o", "", "write the export to this file instead of stdout")
	fl.StringVar(&f.cache, "cache", "", "cache file path")
	fl.StringSliceVarP(&f.exclude, "exclude", "x", nil, "doublestar pattern of root-relative paths to skip (repeatable)")
	fl.IntVarP(&f.workers, "workers", "j", 0, "files processed concurrently (default: number of CPUs)")
	fl.Int64Var(&f.maxFileSize, "max-file-size", config.DefaultMaxFileSize, "skip files larger than this many bytes")
	fl.BoolVar(&f.skipTests, "skip-tests", false, "skip PHPUnit tests and fixtures")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log debug details to stderr")

	cmd.AddCommand(newInitCmd(stdout, stderr))
	return cmd
}

func newLogger(stderr io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// loadConfig layers the config file and the flags the user set.
func loadConfig(cmd *cobra.Command, root string, f *flags, log *logrus.Logger) (*config.Config, error) {
	cfg, err := config.NewLoader(log).Load(root, f.configPath)
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	if fl.Changed("format") {
		cfg.Format = f.format
	}
	if fl.Changed("output") {
		cfg.Output = f.output
	}
	if fl.Changed("cache") {
		cfg.Cache = f.cache
	}
	if fl.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, f.exclude...)
	}
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fl.Changed("max-file-size") {
		cfg.MaxFileSize = f.maxFileSize
	}
	if fl.Changed("skip-tests") {
		cfg.SkipTests = f.skipTests
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := discover.ValidatePatterns(cfg.Exclude); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runExport(cmd *cobra.Command, root string, f *flags, stdout, stderr io.Writer) error {
	ctx := cmd.Context()
	log := newLogger(stderr, f.verbose)

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	cfg, err := loadConfig(cmd, root, f, log)
	if err != nil {
		return err
	}

	// Discover files
	files, err := discover.Files(root, discover.Options{Exclude: cfg.Exclude, SkipTests: cfg.SkipTests, Log: log})
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no PHP files found")
	}

	// Check cache freshness
	if cfg.Cache != "" && cacheIsFresh(cfg.Cache, root, files) {
		data, err := os.ReadFile(cfg.Cache)
		if err == nil {
			log.WithField("cache", cfg.Cache).Debug("cache is fresh")
			return emit(cfg.Output, data, stdout)
		}
	}

	// Filter by size
	files = filterBySize(root, files, cfg.MaxFileSize, log)
	if len(files) == 0 {
		return fmt.Errorf("no PHP files found (all exceeded size limit)")
	}

	reg := docblock.DefaultRegistry()
	reflected := reflectFilesConcurrent(ctx, root, files, reflector.Options{
		Registry:      reg,
		HookFunctions: cfg.HookFunctions,
	}, cfg.Workers, log)

	exp := export.New(export.Options{
		Registry:             reg,
		MaxDepth:             cfg.HashNotation.MaxDepth,
		DeprecationFunctions: cfg.DeprecationFunctions,
		Workers:              cfg.Workers,
	}, log)
	results, err := exportAll(ctx, exp, root, reflected, log)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := output.Write(&buf, cfg.Format, root, results); err != nil {
		return err
	}

	// Write cache
	if cfg.Cache != "" {
		if err := os.WriteFile(cfg.Cache, buf.Bytes(), 0o644); err != nil {
			log.WithError(err).WithField("cache", cfg.Cache).Warn("failed to write cache")
		}
	}

	return emit(cfg.Output, buf.Bytes(), stdout)
}

func emit(path string, data []byte, stdout io.Writer) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// exportAll exports the reflected files and lines the results back up with
// them. Files that failed to reflect keep their error. Per-file failures are
// logged; only cancellation fails the run.
func exportAll(ctx context.Context, exp *export.Exporter, root string, reflected []reflection, log *logrus.Logger) ([]export.Result, error) {
	results := make([]export.Result, len(reflected))
	var (
		files   []*model.File
		indices []int
	)
	for i, r := range reflected {
		if r.err != nil {
			results[i] = export.Result{Path: r.path, Err: r.err}
			continue
		}
		files = append(files, r.file)
		indices = append(indices, i)
	}

	exported, _ := exp.Export(ctx, files, root)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("export interrupted: %w", err)
	}
	for j, r := range exported {
		results[indices[j]] = r
	}

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			log.WithField("file", r.Path).Error(r.Err)
		}
	}
	if failed > 0 {
		log.Warnf("%d of %d files could not be exported", failed, len(results))
	}
	return results, nil
}

func cacheIsFresh(cachePath, root string, files []discover.FileEntry) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

func filterBySize(root string, files []discover.FileEntry, maxSize int64, log *logrus.Logger) []discover.FileEntry {
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > maxSize {
			log.WithField("file", f.Path).Warnf("skipped (>%d bytes)", maxSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// reflection is the outcome of reflecting one discovered file.
type reflection struct {
	path string
	file *model.File
	err  error
}

func reflectFilesConcurrent(ctx context.Context, root string, files []discover.FileEntry, opts reflector.Options, workers int, log *logrus.Logger) []reflection {
	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	// Parsers are not safe for concurrent use; each running goroutine
	// borrows one from the pool.
	pool := make(chan *reflector.Reflector, numWorkers)
	for range numWorkers {
		pool <- reflector.New(opts)
	}
	defer func() {
		close(pool)
		for r := range pool {
			r.Close()
		}
	}()

	out := make([]reflection, len(files))

	var g errgroup.Group
	g.SetLimit(numWorkers)
	for idx := range files {
		g.Go(func() error {
			absPath := filepath.Join(root, files[idx].Path)
			out[idx].path = absPath

			if err := ctx.Err(); err != nil {
				out[idx].err = err
				return nil
			}

			source, err := os.ReadFile(absPath)
			if err != nil {
				out[idx].err = fmt.Errorf("reading: %w", err)
				return nil
			}

			r := <-pool
			defer func() { pool <- r }()

			file, err := r.Reflect(ctx, source, absPath)
			if err != nil {
				out[idx].err = err
				return nil
			}
			out[idx].file = file
			log.WithField("file", files[idx].Path).Debug("reflected")
			return nil
		})
	}
	_ = g.Wait()

	return out
}
