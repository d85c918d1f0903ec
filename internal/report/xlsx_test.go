package report

import (
	"bytes"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/fatura-extractor/internal/keywords"
	"github.com/insightdelivered/fatura-extractor/internal/models"
)

var sampleRecords = []models.LineRecord{
	{Term: "UBER", Date: "05/03", Description: "05/03 UBER*TRIP 18,50", Amount: 18.50, Page: 1},
	{Term: "99", Date: "06/03", Description: "06/03 99POP 12,00", Amount: 12.00, Page: 2},
}

func rawFloat(t *testing.T, f *excelize.File, sheet, cell string) float64 {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	n, err := strconv.ParseFloat(v, 64)
	require.NoError(t, err, "cell %s!%s = %q", sheet, cell, v)
	return n
}

func TestXLSXWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &XLSXWriter{}
	require.NoError(t, w.Write(&buf, sampleRecords, keywords.Set{"UBER", "99", "Cabify"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetRecords, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetRecords)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"App/Termo", "Data", "Descrição", "Valor (R$)", "Página"}, rows[0])
	assert.Equal(t, "UBER", rows[1][0])
	assert.Equal(t, "05/03", rows[1][1])
	assert.Equal(t, "05/03 UBER*TRIP 18,50", rows[1][2])
	assert.Equal(t, 18.50, rawFloat(t, f, SheetRecords, "D2"))
	assert.Equal(t, "2", rows[2][4])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, summary, 5)
	assert.Equal(t, []string{"Termo", "Total (R$)"}, summary[0])
	assert.Equal(t, "UBER", summary[1][0])
	assert.Equal(t, "99", summary[2][0])
	assert.Equal(t, "CABIFY", summary[3][0])
	assert.Equal(t, GrandTotalLabel, summary[4][0])

	assert.Equal(t, 18.50, rawFloat(t, f, SheetSummary, "B2"))
	assert.Equal(t, 12.00, rawFloat(t, f, SheetSummary, "B3"))
	assert.Equal(t, 0.0, rawFloat(t, f, SheetSummary, "B4"))
	assert.Equal(t, 30.50, rawFloat(t, f, SheetSummary, "B5"))

	width, err := f.GetColWidth(SheetRecords, "C")
	require.NoError(t, err)
	assert.Equal(t, float64(len("05/03 UBER*TRIP 18,50")+2), width)
}

func TestXLSXWriter_EmptyRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resultado.xlsx")
	require.NoError(t, (&XLSXWriter{}).WriteToFile(path, nil, keywords.DefaultSet()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetRecords)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, summary, 4)
	assert.Equal(t, GrandTotalLabel, summary[3][0])
	assert.Equal(t, 0.0, rawFloat(t, f, SheetSummary, "B4"))
}

func TestXLSXWriter_LongDescriptionWidthCapped(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	records := []models.LineRecord{{Term: "UBER", Description: string(long), Amount: 1, Page: 1}}

	var buf bytes.Buffer
	require.NoError(t, (&XLSXWriter{}).Write(&buf, records, keywords.Set{"UBER"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	width, err := f.GetColWidth(SheetRecords, "C")
	require.NoError(t, err)
	assert.Equal(t, float64(maxColumnWidth), width)
}
