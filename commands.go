package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/peterbourgon/ff/v4"

	"github.com/insightdelivered/fatura-extractor/internal/api"
	"github.com/insightdelivered/fatura-extractor/internal/config"
	"github.com/insightdelivered/fatura-extractor/internal/extractor"
	"github.com/insightdelivered/fatura-extractor/internal/keywords"
	"github.com/insightdelivered/fatura-extractor/internal/logger"
	"github.com/insightdelivered/fatura-extractor/internal/money"
	"github.com/insightdelivered/fatura-extractor/internal/pipeline"
)

const defaultOutput = "resultado_fatura.xlsx"

func (a *app) runCommand(parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("run").SetParent(parent)
	var (
		output  = fs.String('o', "output", defaultOutput, "output .xlsx path")
		csvPath = fs.StringLong("csv", "", "also write the records as CSV to this path")
		cp1252  = fs.BoolLong("cp1252", "encode the CSV as Windows-1252")
		trace   = fs.BoolLong("trace", "print why each line was kept or dropped")
	)
	return &ff.Command{
		Name:      "run",
		Usage:     "fatura-extractor run [FLAGS] <pdf>",
		ShortHelp: "extract charges from an invoice and write the spreadsheet",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("run takes exactly one PDF path, got %d", len(args))
			}

			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			ex := extractor.New(extractor.Options{Pdftotext: a.cfg.PdftotextFallback})
			p := pipeline.New(ex.ExtractText, store, a.log)

			res, err := p.Run(ctx, args[0], pipeline.Output{
				XLSXPath:       *output,
				CSVPath:        *csvPath,
				CSVWindows1252: *cp1252,
			}, pipeline.Options{Trace: *trace})
			if errors.Is(err, pipeline.ErrDocumentNotFound) {
				return fmt.Errorf("PDF não encontrado: %s", args[0])
			}
			if err != nil {
				return err
			}

			for _, t := range res.Trace {
				fmt.Fprintf(a.stdout, "p%d:%d\t%-10s\t%s\n", t.Page, t.LineNum, t.Outcome, t.Text)
			}

			absPath, err := filepath.Abs(*output)
			if err != nil {
				absPath = *output
			}
			fmt.Fprintf(a.stdout, "Encontrados %d lançamentos. Total geral: R$ %s\n",
				len(res.Records), money.FormatNumber(res.Summary.GrandTotal))
			fmt.Fprintf(a.stdout, "Planilha gerada em: %s\n", absPath)
			return nil
		},
	}
}

func (a *app) listCommand(parent *ff.FlagSet) *ff.Command {
	return &ff.Command{
		Name:      "list",
		Usage:     "fatura-extractor list",
		ShortHelp: "print the configured keywords",
		Flags:     ff.NewFlagSet("list").SetParent(parent),
		Exec: func(ctx context.Context, args []string) error {
			svc, closeStore, err := a.openService()
			if err != nil {
				return err
			}
			defer closeStore()

			set, err := svc.List()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Termos configurados:")
			for _, k := range set {
				fmt.Fprintf(a.stdout, " - %s\n", k)
			}
			return nil
		},
	}
}

func (a *app) addCommand(parent *ff.FlagSet) *ff.Command {
	return &ff.Command{
		Name:      "add",
		Usage:     "fatura-extractor add <term>",
		ShortHelp: "add a keyword (ignored when it already exists in any case)",
		Flags:     ff.NewFlagSet("add").SetParent(parent),
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("add takes exactly one term, got %d", len(args))
			}
			svc, closeStore, err := a.openService()
			if err != nil {
				return err
			}
			defer closeStore()

			if _, err := svc.Add(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Adicionado: %s\n", args[0])
			return nil
		},
	}
}

func (a *app) removeCommand(parent *ff.FlagSet) *ff.Command {
	return &ff.Command{
		Name:      "remove",
		Usage:     "fatura-extractor remove <term>",
		ShortHelp: "remove every keyword equal to term, ignoring case",
		Flags:     ff.NewFlagSet("remove").SetParent(parent),
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("remove takes exactly one term, got %d", len(args))
			}
			svc, closeStore, err := a.openService()
			if err != nil {
				return err
			}
			defer closeStore()

			if _, err := svc.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Removido: %s\n", args[0])
			return nil
		},
	}
}

func (a *app) serveCommand(parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("serve").SetParent(parent)
	var (
		host      = fs.StringLong("host", a.cfg.Host, "HTTP listen host")
		port      = fs.IntLong("port", a.cfg.Port, "HTTP listen port")
		reportDir = fs.StringLong("report-dir", a.cfg.ReportDir, "directory for uploaded PDFs and generated reports")
	)
	return &ff.Command{
		Name:      "serve",
		Usage:     "fatura-extractor serve [FLAGS]",
		ShortHelp: "run the HTTP API",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			if err := os.MkdirAll(*reportDir, 0o755); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}

			log := logger.Component(a.log, "api")
			ex := extractor.New(extractor.Options{Pdftotext: a.cfg.PdftotextFallback})
			h := &api.Handler{
				Pipeline:  pipeline.New(ex.ExtractText, store, a.log),
				Keywords:  keywords.NewService(store, a.log),
				ReportDir: *reportDir,
				Version:   version,
				Log:       log,
			}
			server := api.NewApp(h, a.cfg.UploadLimitMB)

			listen := *a.cfg
			listen.Host, listen.Port = *host, *port
			addr := listen.Addr()

			go h.RunSweeper(ctx, sweepInterval(a.cfg.ReportTTL), a.cfg.ReportTTL)

			errc := make(chan error, 1)
			go func() {
				errc <- server.Listen(addr)
			}()
			log.Info().Str("address", addr).Str("report_dir", *reportDir).Msg("server started")

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			return server.ShutdownWithTimeout(10 * time.Second)
		},
	}
}

// sweepInterval checks for expired reports a few times per TTL.
func sweepInterval(ttl time.Duration) time.Duration {
	return max(ttl/4, time.Minute)
}

// openStore returns the keyword store selected by --store and a func that
// releases it.
func (a *app) openStore() (keywords.Store, func() error, error) {
	switch *a.storeKind {
	case config.StoreBolt:
		s, err := keywords.NewBoltStore(*a.keywordsDB)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreJSON:
		return keywords.NewFileStore(*a.keywordsFile), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown keyword store %q: use %s or %s", *a.storeKind, config.StoreJSON, config.StoreBolt)
	}
}

func (a *app) openService() (*keywords.Service, func() error, error) {
	store, closeStore, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	return keywords.NewService(store, a.log), closeStore, nil
}
