package models

// LineRecord is one invoice line that named a configured keyword and carried an amount.
type LineRecord struct {
	Term        string  `json:"term"`        // canonical (uppercased) keyword
	Date        string  `json:"date"`        // "dd/mm" or "dd/mm/yyyy", empty when absent
	Description string  `json:"description"` // full normalized line
	Amount      float64 `json:"amount"`
	Page        int     `json:"page"` // 1-based
}

// Line outcomes recorded in a LineTrace.
const (
	OutcomeRecord    = "record"
	OutcomeNoKeyword = "no_keyword"
	OutcomeNoAmount  = "no_amount"
)

// LineTrace captures what the engine did with each non-empty input line.
type LineTrace struct {
	Page    int    `json:"page"`
	LineNum int    `json:"lineNum"`
	Text    string `json:"text"`
	Term    string `json:"term,omitempty"`
	HasDate bool   `json:"hasDate"`
	Outcome string `json:"outcome"`
}

// SummaryRow is one line of the per-term totals view.
type SummaryRow struct {
	Term  string  `json:"term"`
	Total float64 `json:"total"`
}
