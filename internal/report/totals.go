// Package report folds line records into per-term totals and writes the
// two-sheet spreadsheet handed back to the user.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/fatura-extractor/internal/keywords"
	"github.com/insightdelivered/fatura-extractor/internal/models"
)

// GrandTotalLabel names the last summary row.
const GrandTotalLabel = "TOTAL GERAL"

// Summary is the totals view of one run.
//
// Rows has one entry per configured keyword, in list order, even when nothing
// matched it. GrandTotal sums every record, including records whose term is no
// longer configured; those terms are listed in Unlisted so callers can tell
// when the rows do not add up to the grand total.
type Summary struct {
	Rows       []models.SummaryRow `json:"rows"`
	GrandTotal float64             `json:"grandTotal"`
	ByTerm     map[string]float64  `json:"byTerm"`
	Unlisted   []string            `json:"unlisted,omitempty"`
}

// Summarize aggregates records against the configured set. Sums are exact
// decimal sums rounded to two places.
func Summarize(records []models.LineRecord, set keywords.Set) Summary {
	totals := make(map[string]decimal.Decimal)
	var observed []string
	grand := decimal.Zero
	for _, r := range records {
		amount := decimal.NewFromFloat(r.Amount)
		if _, ok := totals[r.Term]; !ok {
			observed = append(observed, r.Term)
		}
		totals[r.Term] = totals[r.Term].Add(amount)
		grand = grand.Add(amount)
	}

	s := Summary{
		Rows:       make([]models.SummaryRow, 0, len(set)),
		GrandTotal: grand.Round(2).InexactFloat64(),
		ByTerm:     make(map[string]float64, len(totals)),
	}
	for term, total := range totals {
		s.ByTerm[term] = total.Round(2).InexactFloat64()
	}
	for _, kw := range set {
		term := keywords.Canonical(kw)
		s.Rows = append(s.Rows, models.SummaryRow{
			Term:  term,
			Total: totals[term].Round(2).InexactFloat64(),
		})
	}
	for _, term := range observed {
		if !set.Contains(term) {
			s.Unlisted = append(s.Unlisted, term)
		}
	}
	return s
}
