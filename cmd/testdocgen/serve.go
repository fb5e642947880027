package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/testdocgen/internal/api"
	"github.com/dgallion1/testdocgen/internal/comment"
	"github.com/dgallion1/testdocgen/internal/pipeline"
	"github.com/spf13/cobra"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the documentation over HTTP",
	Long: `Builds the document from --input when one is given and serves it as
Markdown, HTML and DOCX. Images referenced by the document are served
under /images. Further runs can be POSTed to /api/runs.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (env TESTDOCGEN_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("addr") {
		cfg.Addr = addrFlag
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	idx, err := comment.LoadModule(cfg.SourceDir)
	if err != nil {
		return err
	}
	for _, s := range idx.Skipped() {
		logger.Warn("test file not parsed", "error", s)
	}

	opts := pipeline.Options{
		Title:     cfg.Title,
		SourceDir: cfg.SourceDir,
		ImagesDir: cfg.ImagesDir,
		ImageURL:  api.ImagesPath,
		Log:       logger,
	}

	var doc *api.Document
	if cmd.Flags().Changed("input") {
		in, err := openInput(cmd)
		if err != nil {
			return err
		}
		tree, stats, err := pipeline.BuildWith(ctx, in, idx, opts)
		in.Close()
		if err != nil {
			return err
		}
		if doc, err = api.NewDocument(tree, stats); err != nil {
			return err
		}
	}

	orch := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
		Workers:   cfg.Workers,
		QueueSize: cfg.MaxQueueSize,
		RunTTL:    cfg.RunTTL,
	}, idx, opts, logger)
	orch.Start(ctx)

	srv := api.NewServer(doc, orch, logger, cfg)
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting testdocgen", "addr", cfg.Addr, "module", idx.Module())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
