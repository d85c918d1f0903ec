package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextQuality(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		readable bool
	}{
		{"portuguese invoice text", []string{"05/03 UBER*TRIP SÃO PAULO R$ 18,50\nLançamentos do cartão"}, true},
		{"blank pages", []string{"", "  "}, false},
		{"no pages", nil, false},
		{"binary garbage", []string{"\x00\x01\x02\x03\x04\x05\x06\x07\x08\x0e\x0f\x10\x11ab"}, false},
		{"one readable page among blanks", []string{"", "UBER 12,00", ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.readable, isReadableText(tt.pages))
		})
	}
}

func TestTextQualityRatio(t *testing.T) {
	assert.Equal(t, 0.0, textQuality(nil))
	assert.Equal(t, 1.0, textQuality([]string{"Fatura R$ 1.234,56"}))
}

func TestExtractText_Fixture(t *testing.T) {
	pages, err := New(Options{}).ExtractText(context.Background(), filepath.Join("testdata", "fatura.pdf"))
	require.NoError(t, err)

	require.Len(t, pages, 3)
	assert.Equal(t, "FATURA DO CARTAO\n"+
		"05/03 UBER*TRIP 18,50\n"+
		"06/03 99POP 12,00\n"+
		"marketing text mentioning uber with no price", pages[0])
	assert.Equal(t, "", pages[1], "blank page keeps its slot")
	assert.Equal(t, "07/03 UBER*TRIP SAO PAULO 5,00\nTOTAL DA FATURA 35,50", pages[2])
}

func TestExtractText_NoTextLayer(t *testing.T) {
	pages, err := New(Options{}).ExtractText(context.Background(), filepath.Join("testdata", "blank.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []string{""}, pages)
}

func TestPageText_RecoversPerPage(t *testing.T) {
	assert.Equal(t, "", pageText(func() string { panic("malformed content stream") }))
	assert.Equal(t, "UBER 1,00", pageText(func() string { return "UBER 1,00" }))
}

func TestExtractText_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fatura.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o644))

	_, err := New(Options{}).ExtractText(context.Background(), path)
	assert.Error(t, err)
}

func TestExtractText_MissingFile(t *testing.T) {
	_, err := New(Options{}).ExtractText(context.Background(), "/tmp/nonexistent-fatura-12345.pdf")
	assert.Error(t, err)
}

func TestPdfinfoPageCount_MissingFile(t *testing.T) {
	assert.Equal(t, 0, pdfinfoPageCount(context.Background(), "/tmp/nonexistent-fatura-12345.pdf"))
}
