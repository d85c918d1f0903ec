package writer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/insightdelivered/fatura-extractor/internal/models"
)

var records = []models.LineRecord{
	{Term: "UBER", Date: "05/03", Description: "05/03 UBER*TRIP 18,50", Amount: 18.50, Page: 1},
	{Term: "99", Date: "", Description: "99POP; corrida 1.234,56", Amount: 1234.56, Page: 3},
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true}
	if err := w.Write(&buf, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}

	if lines[0] != "Termo;Data;Descrição;Valor;Página" {
		t.Errorf("header: got %q", lines[0])
	}
	if lines[1] != "UBER;05/03;05/03 UBER*TRIP 18,50;18,50;1" {
		t.Errorf("row 1: got %q", lines[1])
	}
	// the separator inside the description forces quoting
	if lines[2] != `99;;"99POP; corrida 1.234,56";1.234,56;3` {
		t.Errorf("row 2: got %q", lines[2])
	}
}

func TestCSVWriter_WriteNoHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: false}
	if err := w.Write(&buf, records[:1]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(buf.String(), "Termo") {
		t.Error("should not have header when IncludeHeader=false")
	}
	if strings.TrimSpace(buf.String()) != "UBER;05/03;05/03 UBER*TRIP 18,50;18,50;1" {
		t.Errorf("got %q", buf.String())
	}
}

func TestCSVWriter_Windows1252(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true, Windows1252: true}
	if err := w.Write(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// "ç" is 0xE7 and "ã" 0xE3 in CP-1252
	if !bytes.Contains(buf.Bytes(), []byte{'D', 'e', 's', 'c', 'r', 'i', 0xE7, 0xE3, 'o'}) {
		t.Errorf("expected CP-1252 encoded header, got %q", buf.Bytes())
	}
}

// shortWriter accepts the first n writes and fails afterwards.
type shortWriter struct {
	n int
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if w.n == 0 {
		return 0, errors.New("disk full")
	}
	w.n--
	return len(p), nil
}

func TestCSVWriter_Windows1252CloseError(t *testing.T) {
	// The encoder flushes its tail on Close; a failure there must not be lost.
	w := &CSVWriter{IncludeHeader: true, Windows1252: true}
	if err := w.Write(&shortWriter{n: 1}, nil); err == nil {
		t.Fatal("expected error when the final flush fails")
	}
}

func TestCSVWriter_Windows1252WriteError(t *testing.T) {
	w := &CSVWriter{IncludeHeader: true, Windows1252: true}
	if err := w.Write(&shortWriter{n: 0}, records); err == nil {
		t.Fatal("expected error when the destination rejects writes")
	}
}

func TestCSVWriter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := &CSVWriter{IncludeHeader: true}
	if err := w.WriteToFile(path, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "18,50;1") {
		t.Errorf("expected amount column, got %q", data)
	}

	if err := w.WriteToFile(filepath.Join(t.TempDir(), "missing", "out.csv"), records); err == nil {
		t.Error("expected error for missing directory")
	}
}
