package report

import (
	"path/filepath"
	"testing"
	"time"

	"stocktake-service/config"
	"stocktake-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := NewWriter(config.ReportConfig{
		ShopName:  "The Wine Bar",
		Kind:      "Stocktake",
		SheetName: "Wine",
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)
	return w
}

func testLedger() *models.Ledger {
	return &models.Ledger{
		Lines: []models.LedgerLine{
			{Name: "Red Wine", Quantity: 2, UnitPrice: decimal.NewFromInt(10), LineTotal: decimal.NewFromInt(20), Row: 5},
			{Name: "White Wine", Quantity: 3, UnitPrice: decimal.NewFromInt(5), LineTotal: decimal.NewFromInt(15), Row: 6},
		},
		TotalQuantity:  5,
		TotalUnitPrice: decimal.NewFromInt(15),
		TotalLineTotal: decimal.NewFromInt(35),
		StartRow:       5,
		LastRow:        6,
	}
}

func TestFilename(t *testing.T) {
	w := testWriter(t)

	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "The Wine Bar - Stocktake - August 2026.xlsx", w.Filename(now))
}

func TestWriteLedgerCells(t *testing.T) {
	w := testWriter(t)
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	filename, err := w.Write(testLedger(), now)
	require.NoError(t, err)
	assert.Equal(t, "The Wine Bar - Stocktake - March 2026.xlsx", filename)

	f, err := excelize.OpenFile(filepath.Join(w.Dir(), filename))
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Wine", "B5")
	require.NoError(t, err)
	assert.Equal(t, "Red Wine", name)

	qty, err := f.GetCellValue("Wine", "D5")
	require.NoError(t, err)
	assert.Equal(t, "2", qty)

	formula, err := f.GetCellFormula("Wine", "F5")
	require.NoError(t, err)
	assert.Equal(t, "D5*E5", formula)

	formula, err = f.GetCellFormula("Wine", "F6")
	require.NoError(t, err)
	assert.Equal(t, "D6*E6", formula)
}

func TestWriteSumRow(t *testing.T) {
	w := testWriter(t)
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	filename, err := w.Write(testLedger(), now)
	require.NoError(t, err)

	f, err := excelize.OpenFile(filepath.Join(w.Dir(), filename))
	require.NoError(t, err)
	defer f.Close()

	// SUM row sits three rows below the last ledger line.
	label, err := f.GetCellValue("Wine", "B9")
	require.NoError(t, err)
	assert.Equal(t, "SUM", label)

	for _, col := range []string{"D", "E", "F"} {
		formula, err := f.GetCellFormula("Wine", col+"9")
		require.NoError(t, err)
		assert.Equal(t, "SUM("+col+"5:"+col+"6)", formula)
	}

	styleID, err := f.GetCellStyle("Wine", "B9")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func TestWriteEmptyLedger(t *testing.T) {
	w := testWriter(t)
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	filename, err := w.Write(&models.Ledger{StartRow: 5, LastRow: 4}, now)
	require.NoError(t, err)

	f, err := excelize.OpenFile(filepath.Join(w.Dir(), filename))
	require.NoError(t, err)
	defer f.Close()

	label, err := f.GetCellValue("Wine", "B7")
	require.NoError(t, err)
	assert.Empty(t, label, "empty ledger writes no SUM row")
}

func TestListFiles(t *testing.T) {
	w := testWriter(t)

	files, err := w.ListFiles()
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = w.Write(testLedger(), time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = w.Write(testLedger(), time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	files, err = w.ListFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"The Wine Bar - Stocktake - April 2026.xlsx",
		"The Wine Bar - Stocktake - March 2026.xlsx",
	}, files)
}
