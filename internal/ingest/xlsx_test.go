package ingest

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestOpenTable_XLSXSales(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"product_id", "date", "quantity", "revenue", "category"},
		{"p1", "2024-01-01", 3, 9.5, "bebidas"},
		{"p2", "2024-01-02", 1, 2, ""},
		{"p3", "not-a-date", 1, 2, ""},
	})

	r, err := OpenTable(path)
	require.NoError(t, err)
	defer r.Close()

	rows, report, err := ReadSales(r)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 1, report.Skipped)

	assert.Equal(t, "p1", rows[0].ProductID)
	assert.Equal(t, 3, rows[0].Quantity)
	assert.Equal(t, "bebidas", rows[0].Category)
	assert.Equal(t, "2024-01-02", rows[1].Date.Format("2006-01-02"))
}

func TestOpenTable_CSVPassThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name,category\np1,Suco,bebidas\n"), 0o644))

	r, err := OpenTable(path)
	require.NoError(t, err)
	defer r.Close()

	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "p1,Suco,bebidas")
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a/b/sales.CSV"))
	assert.True(t, IsSupported("sales.xlsx"))
	assert.False(t, IsSupported("sales.json"))
}
