// Package pipeline turns `go test -json` output into a document tree.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/testdocgen/internal/comment"
	"github.com/dgallion1/testdocgen/internal/doctree"
	"github.com/dgallion1/testdocgen/internal/images"
	"github.com/dgallion1/testdocgen/internal/merge"
)

// DefaultTitle heads the document when no title is configured.
const DefaultTitle = "Documentation"

// Options describes a single document build.
type Options struct {
	Title     string
	SourceDir string // module root holding go.mod
	ImagesDir string // optional
	OutputDir string // image links are relative to this directory
	ImageURL  string // when set, image links are absolute URLs under this prefix
	Log       *slog.Logger
}

// Build indexes the module in opts.SourceDir and merges the tests reported in
// r into a new tree.
func Build(ctx context.Context, r io.Reader, opts Options) (*doctree.Tree, Stats, error) {
	log := opts.logger()
	idx, err := comment.LoadModule(opts.SourceDir)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("load comments: %w", err)
	}
	for _, s := range idx.Skipped() {
		log.Warn("test file not parsed", "error", s)
	}
	log.Info("indexed module", "module", idx.Module(), "root", idx.Root())
	return BuildWith(ctx, r, idx, opts)
}

// BuildWith merges the tests reported in r using comments that were already
// loaded. comments is only read, so one index may serve concurrent builds.
func BuildWith(ctx context.Context, r io.Reader, comments Comments, opts Options) (*doctree.Tree, Stats, error) {
	log := opts.logger()

	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	tree := doctree.New(title)

	mopts := []merge.Option{merge.WithLogger(log)}
	if opts.ImagesDir != "" {
		mopts = append(mopts, merge.WithImages(&images.Finder{
			Dir:        opts.ImagesDir,
			RelativeTo: opts.OutputDir,
			BaseURL:    opts.ImageURL,
			Separators: tree.Separators(),
		}))
	}

	col := NewCollector(comments, merge.New(tree, mopts...), log)
	err := col.Process(ctx, r)
	stats := col.Stats()
	if err != nil {
		return nil, stats, err
	}

	log.Info("collected test run",
		"packages", stats.Packages,
		"tests", stats.Tests,
		"applied", stats.Applied,
		"undocumented", stats.Undocumented,
		"errors", len(stats.Errors),
	)
	return tree, stats, nil
}

func (o Options) logger() *slog.Logger {
	if o.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Log
}
