package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/fatura-extractor/internal/config"
	"github.com/insightdelivered/fatura-extractor/internal/logger"
)

const version = "1.0.0"

func main() {
	// Check for version flag before parsing subcommands
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" {
			fmt.Printf("fatura-extractor v%s\n", version)
			os.Exit(0)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run builds the command tree, parses args and executes the selected command.
// Errors are already reported on stderr when it returns.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return err
	}

	log := logger.NewWithWriter(stderr, cfg.LogLevel, logger.Format(cfg.LogFormat))
	root := newRootCommand(cfg, log, stdout)

	if err := root.ParseAndRun(ctx, args, ff.WithEnvVarPrefix("FATURA")); err != nil {
		if errors.Is(err, ff.ErrHelp) || errors.Is(err, ff.ErrNoExec) {
			fmt.Fprintf(stderr, "%s\n", ffhelp.Command(root.GetSelected()))
			if errors.Is(err, ff.ErrHelp) {
				return nil
			}
			return err
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return err
	}
	return nil
}

// app carries what every subcommand shares.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	stdout io.Writer

	keywordsFile *string
	storeKind    *string
	keywordsDB   *string
}

func newRootCommand(cfg *config.Config, log zerolog.Logger, stdout io.Writer) *ff.Command {
	rootFlags := ff.NewFlagSet("fatura-extractor")
	a := &app{
		cfg:          cfg,
		log:          log,
		stdout:       stdout,
		keywordsFile: rootFlags.String('k', "keywords", cfg.KeywordsFile, "keywords JSON file"),
		storeKind:    rootFlags.StringLong("store", cfg.KeywordStore, "keyword store backend: json or bolt"),
		keywordsDB:   rootFlags.StringLong("keywords-db", cfg.KeywordsDB, "bolt database used by --store=bolt"),
	}

	root := &ff.Command{
		Name:      "fatura-extractor",
		Usage:     "fatura-extractor [FLAGS] <SUBCOMMAND> ...",
		ShortHelp: "extract ride-hailing charges from Brazilian credit card invoices",
		LongHelp: `Reads a text-based PDF invoice, keeps every line that names a configured
keyword (UBER and 99 by default) and carries an amount, and writes a
two-sheet spreadsheet with the lines and the totals per keyword.

Flags can also be set with FATURA_* environment variables, for example
FATURA_KEYWORDS=/etc/fatura/keywords.json.`,
		Flags: rootFlags,
	}
	root.Subcommands = []*ff.Command{
		a.runCommand(rootFlags),
		a.listCommand(rootFlags),
		a.addCommand(rootFlags),
		a.removeCommand(rootFlags),
		a.serveCommand(rootFlags),
	}
	return root
}
