package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dgallion1/testdocgen/internal/pipeline"
	"github.com/dgallion1/testdocgen/internal/render"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the documentation of one test run to a file",
	Long: `Reads "go test -json" output from --input (stdin by default), looks up the
doc comments of every test that ran below --src, and writes the document to
--output in the format named by its extension.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format, err := render.FormatFor(cfg.Output)
	if err != nil {
		return err
	}

	in, err := openInput(cmd)
	if err != nil {
		return err
	}
	defer in.Close()

	outDir := filepath.Dir(cfg.Output)
	tree, stats, err := pipeline.Build(ctx, in, pipeline.Options{
		Title:     cfg.Title,
		SourceDir: cfg.SourceDir,
		ImagesDir: cfg.ImagesDir,
		OutputDir: outDir,
		Log:       logger,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := render.Write(f, tree, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	logger.Info("wrote documentation",
		"output", cfg.Output,
		"format", format,
		"sections", len(render.Sections(tree)),
		"errors", len(stats.Errors),
	)
	return nil
}
