package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/fatura-extractor/internal/money"
)

var (
	// dd/mm with an optional 4- or 2-digit year: 31/01, 31/01/2026, 31/01/26
	datePattern = regexp.MustCompile(`\b(\d{2}/\d{2})(?:/(\d{4}|\d{2}))?\b`)

	// 12,34 | 1.234,56 | -12,34 | (12,34) | R$ 12,34 | BRL 12,34
	amountPattern = regexp.MustCompile(
		`\(?-?(?:(?:R\$|BRL)\s?)?(?:\d{1,3}(?:\.\d{3})*,\d{2}|\d+,\d{2})\)?`,
	)

	// runs of blanks inside a line, including non-breaking spaces
	blankRun = regexp.MustCompile(`[\s\x{00A0}]+`)
)

// normalizeLine collapses whitespace runs to one space and trims the ends.
func normalizeLine(line string) string {
	return strings.TrimSpace(blankRun.ReplaceAllString(line, " "))
}

// splitLines splits page text on any line ending.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// FindDate returns the first dd/mm or dd/mm/yyyy token in line, or "".
// Dates precede amounts on invoice lines, so only the first token counts.
// A two-digit year is read as 20yy; day and month are not validated.
func FindDate(line string) string {
	m := datePattern.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	ddmm, year := m[1], m[2]
	if year == "" {
		return ddmm
	}
	if len(year) == 2 {
		year = "20" + year
	}
	return ddmm + "/" + year
}

// FindAmount returns the last monetary token in line. Invoice layouts put the
// charge at the end of the line, after dates and reference numbers.
func FindAmount(line string) (float64, bool) {
	matches := amountPattern.FindAllString(line, -1)
	if len(matches) == 0 {
		return 0, false
	}
	v, err := money.Parse(matches[len(matches)-1])
	if err != nil {
		return 0, false
	}
	return v, true
}
