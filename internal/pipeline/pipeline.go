// Package pipeline runs one extraction end to end: it checks the document,
// loads the keyword set, pulls page text, extracts line records, aggregates
// totals and writes the requested outputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/fatura-extractor/internal/keywords"
	"github.com/insightdelivered/fatura-extractor/internal/models"
	"github.com/insightdelivered/fatura-extractor/internal/parser"
	"github.com/insightdelivered/fatura-extractor/internal/report"
	"github.com/insightdelivered/fatura-extractor/internal/writer"
)

// ErrDocumentNotFound is returned when the input PDF does not exist. It is
// checked before any extraction work starts.
var ErrDocumentNotFound = errors.New("document not found")

// PageSource returns the text of every page of a document, in order. A page
// without extractable text must be an empty string so page numbers line up.
type PageSource func(ctx context.Context, path string) ([]string, error)

// Pipeline wires a page source and a keyword store together.
type Pipeline struct {
	Source PageSource
	Store  keywords.Store
	Log    zerolog.Logger

	base zerolog.Logger
}

// New returns a Pipeline.
func New(source PageSource, store keywords.Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		Source: source,
		Store:  store,
		Log:    log.With().Str("component", "pipeline").Logger(),
		base:   log,
	}
}

// Options tunes a single run.
type Options struct {
	// Keywords overrides the stored set for this run when non-nil.
	Keywords keywords.Set
	// Trace collects a per-line trace in the result.
	Trace bool
}

// Output names the files a run writes. Empty paths are skipped.
// CSVWindows1252 encodes the CSV as CP-1252.
type Output struct {
	XLSXPath       string
	CSVPath        string
	CSVWindows1252 bool
}

// Result is everything one run produced. TextPages counts pages with any
// text; zero means the document has no text layer, typically a scanned invoice.
type Result struct {
	Records   []models.LineRecord `json:"records"`
	Summary   report.Summary      `json:"summary"`
	Keywords  keywords.Set        `json:"keywords"`
	Pages     int                 `json:"pages"`
	TextPages int                 `json:"textPages"`
	Trace     []models.LineTrace  `json:"trace,omitempty"`
}

// Scan extracts records from the PDF at path without writing anything.
func (p *Pipeline) Scan(ctx context.Context, path string, opts Options) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	set, err := p.keywordSet(opts)
	if err != nil {
		return nil, err
	}

	pages, err := p.Source(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pages of %s: %w", path, err)
	}
	p.Log.Debug().Str("path", path).Int("pages", len(pages)).Msg("pages extracted")

	return p.process(pages, set, opts.Trace), nil
}

// ScanPages runs the extraction over text that was already split into pages.
func (p *Pipeline) ScanPages(pages []string, opts Options) (*Result, error) {
	set, err := p.keywordSet(opts)
	if err != nil {
		return nil, err
	}
	return p.process(pages, set, opts.Trace), nil
}

// Run scans the PDF at path and writes the requested outputs.
func (p *Pipeline) Run(ctx context.Context, path string, out Output, opts Options) (*Result, error) {
	res, err := p.Scan(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	if err := p.Write(res, out); err != nil {
		return nil, err
	}
	return res, nil
}

// Write renders a result to the files named in out.
func (p *Pipeline) Write(res *Result, out Output) error {
	if out.XLSXPath != "" {
		if err := ensureDir(out.XLSXPath); err != nil {
			return err
		}
		if err := (&report.XLSXWriter{}).WriteToFile(out.XLSXPath, res.Records, res.Keywords); err != nil {
			return err
		}
		p.Log.Info().Str("path", out.XLSXPath).Msg("workbook written")
	}
	if out.CSVPath != "" {
		if err := ensureDir(out.CSVPath); err != nil {
			return err
		}
		w := &writer.CSVWriter{IncludeHeader: true, Windows1252: out.CSVWindows1252}
		if err := w.WriteToFile(out.CSVPath, res.Records); err != nil {
			return err
		}
		p.Log.Info().Str("path", out.CSVPath).Msg("csv written")
	}
	return nil
}

func (p *Pipeline) keywordSet(opts Options) (keywords.Set, error) {
	if opts.Keywords != nil {
		return opts.Keywords, nil
	}
	return p.Store.Load()
}

func (p *Pipeline) process(pages []string, set keywords.Set, trace bool) *Result {
	engineOpts := []parser.Option{parser.WithLogger(p.base)}
	if trace {
		engineOpts = append(engineOpts, parser.WithTrace())
	}
	engine := parser.NewEngine(set, engineOpts...)

	records := engine.Extract(pages)
	if records == nil {
		records = []models.LineRecord{}
	}
	summary := report.Summarize(records, set)

	textPages := 0
	for _, page := range pages {
		if strings.TrimSpace(page) != "" {
			textPages++
		}
	}
	if textPages == 0 {
		p.Log.Warn().Int("pages", len(pages)).Msg("document has no text layer; report will be empty")
	}

	if len(summary.Unlisted) > 0 {
		p.Log.Warn().Strs("terms", summary.Unlisted).
			Msg("records matched terms missing from the summary rows; grand total includes them")
	}
	p.Log.Info().Int("pages", len(pages)).Int("records", len(records)).
		Float64("grand_total", summary.GrandTotal).Msg("extraction finished")

	return &Result{
		Records:   records,
		Summary:   summary,
		Keywords:  set,
		Pages:     len(pages),
		TextPages: textPages,
		Trace:     engine.Trace(),
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return nil
}
