// Package export turns reflected PHP files into documentation records.
//
// Export is a single pass per file. Files share nothing, so Export runs them
// concurrently and hands back results in input order.
package export

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/hookdoc/internal/docblock"
	"github.com/phobologic/hookdoc/internal/hashnotation"
	"github.com/phobologic/hookdoc/internal/model"
)

// DefaultDeprecationFunctions are the calls whose second argument names the
// version an element was deprecated in.
var DefaultDeprecationFunctions = []string{
	"_deprecated_file",
	"_deprecated_function",
	"_deprecated_argument",
}

// Options configures an Exporter. Zero values select the defaults.
type Options struct {
	Registry             *docblock.Registry
	MaxDepth             int
	DeprecationFunctions []string
	Workers              int
}

// Exporter holds the read-only configuration shared by all file exports.
type Exporter struct {
	reg        *docblock.Registry
	maxDepth   int
	deprecated map[string]struct{}
	workers    int
	log        *logrus.Logger
}

// New creates an Exporter. A nil logger is replaced by logrus.New().
func New(opts Options, log *logrus.Logger) *Exporter {
	if log == nil {
		log = logrus.New()
	}
	if opts.Registry == nil {
		opts.Registry = docblock.DefaultRegistry()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = hashnotation.DefaultMaxDepth
	}
	if opts.DeprecationFunctions == nil {
		opts.DeprecationFunctions = DefaultDeprecationFunctions
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	deprecated := make(map[string]struct{}, len(opts.DeprecationFunctions))
	for _, name := range opts.DeprecationFunctions {
		deprecated[name] = struct{}{}
	}

	return &Exporter{
		reg:        opts.Registry,
		maxDepth:   opts.MaxDepth,
		deprecated: deprecated,
		workers:    opts.Workers,
		log:        log,
	}
}

// Result is the outcome of exporting one file: a Record, or the error that
// stopped it. Warnings lists problems that did not stop the export, such as
// hash notation that fell back to raw text.
type Result struct {
	Path     string
	Record   *Record
	Err      error
	Warnings []error
}

// fileExport is the state of a single file's export.
type fileExport struct {
	*Exporter
	warnings []error
}

func (f *fileExport) warn(err error) {
	f.warnings = append(f.warnings, err)
}

// ExportFile exports one reflected file. root is removed from the file's path
// and passed through verbatim as the record's root.
func (e *Exporter) ExportFile(file *model.File, root string) (*Record, []error, error) {
	if file == nil {
		return nil, nil, fmt.Errorf("%w: nil file", ErrInvalidElement)
	}
	f := &fileExport{Exporter: e}
	rec, err := f.record(file, root)
	if err != nil {
		return nil, f.warnings, err
	}
	return rec, f.warnings, nil
}

// Export exports files concurrently. The returned results line up with files.
// A failed file does not stop the others; the returned error aggregates every
// failure. Once ctx is done no further exports start and the files not yet
// started report ctx.Err().
func (e *Exporter) Export(ctx context.Context, files []*model.File, root string) ([]Result, error) {
	results := make([]Result, len(files))

	var g errgroup.Group
	g.SetLimit(e.workers)

	for i, file := range files {
		results[i].Path = pathOf(file)
		if ctx.Err() != nil {
			results[i].Err = ctx.Err()
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			rec, warnings, err := e.ExportFile(file, root)
			results[i].Record = rec
			results[i].Err = err
			results[i].Warnings = warnings

			entry := e.log.WithField("file", results[i].Path)
			for _, w := range warnings {
				entry.Warn(w)
			}
			if err == nil {
				entry.Debug("exported")
			}
			return nil
		})
	}
	_ = g.Wait()

	var merr *multierror.Error
	cancelled := false
	for _, r := range results {
		switch {
		case r.Err == nil:
		case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
			cancelled = true
		default:
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", r.Path, r.Err))
		}
	}
	if cancelled && ctx.Err() != nil {
		merr = multierror.Append(merr, ctx.Err())
	}
	return results, merr.ErrorOrNil()
}

func pathOf(file *model.File) string {
	if file == nil {
		return ""
	}
	return file.Path
}
