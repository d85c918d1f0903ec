// Package parser turns invoice page text into line records: it finds the
// keyword, date and amount of every line that mentions a configured term.
package parser

import (
	"github.com/rs/zerolog"

	"github.com/insightdelivered/fatura-extractor/internal/keywords"
	"github.com/insightdelivered/fatura-extractor/internal/models"
)

// Engine extracts line records from page text for one keyword set.
//
// A record needs both a keyword hit and an amount: a keyword mentioned in
// running text without a price is not a charge. Lines are processed strictly
// in page order and pages in document order.
type Engine struct {
	matcher *keywords.Matcher
	log     zerolog.Logger
	trace   bool
	traces  []models.LineTrace
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-line debug output.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log.With().Str("component", "parser").Logger() }
}

// WithTrace records a LineTrace for every non-empty line.
func WithTrace() Option {
	return func(e *Engine) { e.trace = true }
}

// NewEngine builds an engine matching against set.
func NewEngine(set keywords.Set, opts ...Option) *Engine {
	e := &Engine{
		matcher: keywords.NewMatcher(set),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract processes pages in order. pages[i] is the text of page i+1; an
// empty string stands for a page without extractable text.
func (e *Engine) Extract(pages []string) []models.LineRecord {
	var records []models.LineRecord
	for i, text := range pages {
		records = append(records, e.ExtractPage(text, i+1)...)
	}
	return records
}

// ExtractPage processes the text of a single 1-based page.
func (e *Engine) ExtractPage(text string, page int) []models.LineRecord {
	var records []models.LineRecord
	for n, raw := range splitLines(text) {
		line := normalizeLine(raw)
		if line == "" {
			continue
		}

		term, ok := e.matcher.Match(line)
		if !ok {
			e.record(models.LineTrace{Page: page, LineNum: n + 1, Text: line, Outcome: models.OutcomeNoKeyword})
			continue
		}

		date := FindDate(line)
		amount, ok := FindAmount(line)
		if !ok {
			e.log.Debug().Int("page", page).Str("term", term).Str("line", line).Msg("keyword without amount, skipped")
			e.record(models.LineTrace{Page: page, LineNum: n + 1, Text: line, Term: term, HasDate: date != "", Outcome: models.OutcomeNoAmount})
			continue
		}

		records = append(records, models.LineRecord{
			Term:        term,
			Date:        date,
			Description: line,
			Amount:      amount,
			Page:        page,
		})
		e.record(models.LineTrace{Page: page, LineNum: n + 1, Text: line, Term: term, HasDate: date != "", Outcome: models.OutcomeRecord})
	}
	return records
}

// Trace returns the line traces collected so far. It is empty unless the
// engine was built WithTrace.
func (e *Engine) Trace() []models.LineTrace {
	return e.traces
}

func (e *Engine) record(t models.LineTrace) {
	if e.trace {
		e.traces = append(e.traces, t)
	}
}
