package extractor

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Options controls the extraction fallbacks.
type Options struct {
	// Pdftotext enables the poppler-utils fallback when the Go library fails.
	Pdftotext bool
}

// Extractor produces one text string per PDF page. The slice always has one
// entry per page; a page whose text cannot be read is an empty string, so page
// numbers stay aligned with the document.
type Extractor struct {
	opts Options
}

// New returns an Extractor with the given options.
func New(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// ExtractText reads a text-based PDF. It tries the structured library first
// (row by row, then coordinate-based reconstruction) and falls back to the
// external pdftotext command when enabled. A document the library can open but
// that carries no text layer yields one empty string per page, not an error.
func (e *Extractor) ExtractText(ctx context.Context, filePath string) ([]string, error) {
	pages, libErr := extractWithLibrary(filePath)
	if libErr == nil && isReadableText(pages) {
		return pages, nil
	}

	if e.opts.Pdftotext {
		popplerPages, popplerErr := extractWithPdftotext(ctx, filePath)
		if popplerErr == nil && isReadableText(popplerPages) {
			return popplerPages, nil
		}
	}

	if libErr != nil {
		return nil, fmt.Errorf("PDF text extraction failed: %w", libErr)
	}
	return pages, nil
}

// textQuality returns the ratio of readable characters (letters, digits,
// whitespace, common punctuation) to total characters. Returns 0.0-1.0.
// Garbage from identity-encoded fonts is mostly symbols and control runes.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) ||
				strings.ContainsRune(".,-/:;()'\"$%&@#!?+=*", r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// isReadableText requires some text and more than 60% readable characters.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) == 0 {
		return false
	}
	return textQuality(pages) > 0.6
}

// extractWithPdftotext uses the external pdftotext command from poppler-utils
// as a fallback for PDFs that the Go library cannot handle.
func extractWithPdftotext(ctx context.Context, filePath string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	numPages := pdfinfoPageCount(ctx, filePath)
	if numPages == 0 {
		return nil, fmt.Errorf("could not determine page count of %s", filePath)
	}

	// Extract each page separately to preserve page boundaries
	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		pageStr := strconv.Itoa(i)
		out, err := exec.CommandContext(ctx, "pdftotext", "-layout", "-f", pageStr, "-l", pageStr, filePath, "-").Output()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		pages[i-1] = strings.TrimSpace(string(out))
	}
	return pages, nil
}

// pdfinfoPageCount returns the number of pages reported by pdfinfo, or 0.
func pdfinfoPageCount(ctx context.Context, filePath string) int {
	out, err := exec.CommandContext(ctx, "pdfinfo", filePath).Output()
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "Pages:") {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
			if err == nil {
				return n
			}
		}
	}
	return 0
}

// extractWithLibrary uses the ledongthuc/pdf library.
func extractWithLibrary(filePath string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, openErr := pdf.Open(filePath)
	if openErr != nil {
		return nil, openErr
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	// Method 1: GetTextByRow (best layout preservation)
	pages = extractByRow(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	// Method 2: Page.Content() with coordinate-based row reconstruction
	return extractByContent(r, numPages), nil
}

// extractByRow joins the words of each text row with single spaces.
func extractByRow(r *pdf.Reader, numPages int) []string {
	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		pages[i-1] = pageText(func() string { return rowText(r.Page(i)) })
	}
	return pages
}

// pageText runs one page extraction, leaving the page blank when the library
// panics on it.
func pageText(extract func() string) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	return extract()
}

func rowText(page pdf.Page) string {
	if page.V.IsNull() {
		return ""
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return ""
	}
	var lines []string
	for _, row := range rows {
		var parts []string
		for _, word := range row.Content {
			parts = append(parts, word.S)
		}
		line := strings.TrimSpace(strings.Join(parts, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// extractByContent groups text pieces by Y coordinate to rebuild rows, then
// sorts each row by X.
func extractByContent(r *pdf.Reader, numPages int) []string {
	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		pages[i-1] = pageText(func() string { return contentText(r.Page(i)) })
	}
	return pages
}

func contentText(page pdf.Page) string {
	type textItem struct {
		x float64
		s string
	}

	if page.V.IsNull() {
		return ""
	}
	content := page.Content()
	if len(content.Text) == 0 {
		return ""
	}

	rowMap := make(map[int][]textItem)
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		yKey := int(math.Round(t.Y))
		rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
	}

	// PDF Y grows bottom-to-top
	yKeys := make([]int, 0, len(rowMap))
	for y := range rowMap {
		yKeys = append(yKeys, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

	var lines []string
	for _, y := range yKeys {
		items := rowMap[y]
		sort.Slice(items, func(a, b int) bool {
			return items[a].x < items[b].x
		})

		var parts []string
		var prevX float64
		for j, item := range items {
			if j > 0 && item.x-prevX > 15 {
				// column gap
				parts = append(parts, " ")
			}
			parts = append(parts, item.s)
			prevX = item.x
		}
		line := strings.TrimSpace(strings.Join(parts, ""))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
