package report

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/fatura-extractor/internal/keywords"
	"github.com/insightdelivered/fatura-extractor/internal/models"
)

// Sheet names of the generated workbook.
const (
	SheetRecords = "Lancamentos"
	SheetSummary = "Resumo"
)

const (
	currencyFormat = `"R$" #,##0.00;[Red]\-"R$" #,##0.00`
	maxColumnWidth = 60
)

var (
	recordHeaders  = []string{"App/Termo", "Data", "Descrição", "Valor (R$)", "Página"}
	summaryHeaders = []string{"Termo", "Total (R$)"}
)

// XLSXWriter renders records and their totals as a two-sheet workbook.
type XLSXWriter struct{}

// WriteToFile writes the workbook to path.
func (w *XLSXWriter) WriteToFile(path string, records []models.LineRecord, set keywords.Set) error {
	f, err := w.build(records, set)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %q: %w", path, err)
	}
	return nil
}

// Write writes the workbook to out.
func (w *XLSXWriter) Write(out io.Writer, records []models.LineRecord, set keywords.Set) error {
	f, err := w.build(records, set)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

type styles struct {
	header, currency, bold, boldCurrency int
}

func (w *XLSXWriter) build(records []models.LineRecord, set keywords.Set) (*excelize.File, error) {
	f := excelize.NewFile()

	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", SheetRecords); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeRecords(f, st, records); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create %s sheet: %w", SheetSummary, err)
	}
	if err := writeSummary(f, st, Summarize(records, set)); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	numFmt := currencyFormat

	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#EEEEEE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return st, fmt.Errorf("failed to create header style: %w", err)
	}
	st.currency, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return st, fmt.Errorf("failed to create currency style: %w", err)
	}
	st.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return st, fmt.Errorf("failed to create bold style: %w", err)
	}
	st.boldCurrency, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &numFmt})
	if err != nil {
		return st, fmt.Errorf("failed to create bold currency style: %w", err)
	}
	return st, nil
}

func writeRecords(f *excelize.File, st styles, records []models.LineRecord) error {
	sheet := SheetRecords
	widths := newColumnWidths(recordHeaders)

	if err := writeRow(f, sheet, 1, toRow(recordHeaders)); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", st.header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range records {
		row := i + 2
		values := []interface{}{r.Term, r.Date, r.Description, r.Amount, r.Page}
		if err := writeRow(f, sheet, row, values); err != nil {
			return err
		}
		widths.observe(values)

		cell, _ := excelize.CoordinatesToCellName(4, row)
		if err := f.SetCellStyle(sheet, cell, cell, st.currency); err != nil {
			return fmt.Errorf("failed to style amount: %w", err)
		}
	}

	return widths.apply(f, sheet)
}

func writeSummary(f *excelize.File, st styles, s Summary) error {
	sheet := SheetSummary
	widths := newColumnWidths(summaryHeaders)

	if err := writeRow(f, sheet, 1, toRow(summaryHeaders)); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", st.header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	row := 2
	for _, sr := range s.Rows {
		values := []interface{}{sr.Term, sr.Total}
		if err := writeRow(f, sheet, row, values); err != nil {
			return err
		}
		widths.observe(values)
		cell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellStyle(sheet, cell, cell, st.currency); err != nil {
			return fmt.Errorf("failed to style total: %w", err)
		}
		row++
	}

	values := []interface{}{GrandTotalLabel, s.GrandTotal}
	if err := writeRow(f, sheet, row, values); err != nil {
		return err
	}
	widths.observe(values)
	label, _ := excelize.CoordinatesToCellName(1, row)
	total, _ := excelize.CoordinatesToCellName(2, row)
	if err := f.SetCellStyle(sheet, label, label, st.bold); err != nil {
		return fmt.Errorf("failed to style grand total: %w", err)
	}
	if err := f.SetCellStyle(sheet, total, total, st.boldCurrency); err != nil {
		return fmt.Errorf("failed to style grand total: %w", err)
	}

	return widths.apply(f, sheet)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toRow(headers []string) []interface{} {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return row
}

// columnWidths tracks the longest rendered value per column.
type columnWidths []int

func newColumnWidths(headers []string) columnWidths {
	w := make(columnWidths, len(headers))
	for i, h := range headers {
		w[i] = utf8.RuneCountInString(h)
	}
	return w
}

func (w columnWidths) observe(values []interface{}) {
	for i, v := range values {
		if i >= len(w) {
			break
		}
		if n := utf8.RuneCountInString(fmt.Sprint(v)); n > w[i] {
			w[i] = n
		}
	}
}

func (w columnWidths) apply(f *excelize.File, sheet string) error {
	for i, n := range w {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(n+2, maxColumnWidth))); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}
	return nil
}
