package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/insightdelivered/fatura-extractor/internal/models"
	"github.com/insightdelivered/fatura-extractor/internal/money"
)

// CSVWriter writes line records as a semicolon-separated file with Brazilian
// decimal commas, the layout spreadsheet tools expect in pt-BR locales.
type CSVWriter struct {
	IncludeHeader bool
	// Windows1252 encodes the output as CP-1252 instead of UTF-8. Runes
	// outside the code page are replaced.
	Windows1252 bool
}

// WriteToFile writes records to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, records []models.LineRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, records); err != nil {
		return err
	}
	return f.Close()
}

// Write writes records in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, records []models.LineRecord) error {
	if !w.Windows1252 {
		return w.write(out, records)
	}

	tw := transform.NewWriter(out, encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()))
	if err := w.write(tw, records); err != nil {
		tw.Close()
		return err
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to encode CSV as Windows-1252: %w", err)
	}
	return nil
}

func (w *CSVWriter) write(out io.Writer, records []models.LineRecord) error {

	writer := csv.NewWriter(out)
	writer.Comma = ';'

	if w.IncludeHeader {
		header := []string{"Termo", "Data", "Descrição", "Valor", "Página"}
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, r := range records {
		row := []string{
			r.Term,
			r.Date,
			r.Description,
			money.FormatNumber(r.Amount),
			strconv.Itoa(r.Page),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
