package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/testdocgen/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	titleFlag     string
	outputFlag    string
	srcFlag       string
	imagesFlag    string
	inputFlag     string
	logLevelFlag  string
	logFormatFlag string

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "testdocgen",
	Short: "Generate documentation from Go test doc comments",
	Long: `testdocgen reads the event stream of "go test -json" and turns the doc
comments of the tests that ran into a single document.

Package doc comments become sections, test doc comments become subsections,
and subtests or repeated runs of the same test are documented once.

  go test -json ./... | testdocgen generate -o docs/tests.md`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger, err = newLogger(cmd.ErrOrStderr(), cfg)
		return err
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&titleFlag, "title", "", "document title (env TESTDOCGEN_TITLE)")
	pf.StringVarP(&outputFlag, "output", "o", "", "output file; the extension picks md, html or docx (env TESTDOCGEN_OUTPUT)")
	pf.StringVar(&srcFlag, "src", "", "module root holding go.mod (env TESTDOCGEN_SRC)")
	pf.StringVar(&imagesFlag, "images", "", "directory of images named after test namespaces (env TESTDOCGEN_IMAGES)")
	pf.StringVarP(&inputFlag, "input", "i", "-", "go test -json output to read, - for stdin")
	pf.StringVar(&logLevelFlag, "log-level", "", "debug, info, warn or error (env TESTDOCGEN_LOG_LEVEL)")
	pf.StringVar(&logFormatFlag, "log-format", "", "text or json (env TESTDOCGEN_LOG_FORMAT)")

	rootCmd.AddCommand(generateCmd, serveCmd)
}

// applyFlags lets explicitly set flags override the loaded configuration.
func applyFlags(cmd *cobra.Command) {
	set := func(name, value string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst = value
		}
	}
	set("title", titleFlag, &cfg.Title)
	set("output", outputFlag, &cfg.Output)
	set("src", srcFlag, &cfg.SourceDir)
	set("images", imagesFlag, &cfg.ImagesDir)
	set("log-level", logLevelFlag, &cfg.LogLevel)
	set("log-format", logFormatFlag, &cfg.LogFormat)
}

func newLogger(w io.Writer, cfg config.Config) (*slog.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// openInput opens the event stream named by --input.
func openInput(cmd *cobra.Command) (io.ReadCloser, error) {
	if inputFlag == "" || inputFlag == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(inputFlag)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
