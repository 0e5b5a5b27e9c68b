// Package report writes assembled ledgers into stocktake workbooks.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"stocktake-service/config"
	"stocktake-service/internal/models"
	"stocktake-service/internal/util"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// sumRowGap is the number of blank rows between the last ledger line
// and the SUM row, matching the template layout.
const sumRowGap = 3

// Writer persists ledgers as .xlsx workbooks under the configured
// reports directory, optionally on top of a template workbook whose
// header area occupies the rows above the ledger start row.
type Writer struct {
	cfg    config.ReportConfig
	logger *zap.Logger
}

// NewWriter creates a new report writer
func NewWriter(cfg config.ReportConfig) (*Writer, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}
	return &Writer{cfg: cfg, logger: util.GetLogger()}, nil
}

// Filename returns the report name for a generation time:
// "<ShopName> - <Kind> - <MonthName> <Year>.xlsx".
func (w *Writer) Filename(now time.Time) string {
	return fmt.Sprintf("%s - %s - %s %d.xlsx",
		w.cfg.ShopName, w.cfg.Kind, now.Month().String(), now.Year())
}

// Dir returns the reports directory.
func (w *Writer) Dir() string {
	return w.cfg.OutputDir
}

// ListFiles returns the generated workbook names, sorted.
func (w *Writer) ListFiles() ([]string, error) {
	entries, err := os.ReadDir(w.cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".xlsx") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Write renders the ledger into the target sheet. Line cells: B name,
// D quantity, E unit price, F the derived line-total formula. After the
// lines comes a bold SUM row with column-sum formulas over the exact
// line range. Returns the generated filename.
func (w *Writer) Write(ledger *models.Ledger, now time.Time) (string, error) {
	f, err := w.openWorkbook()
	if err != nil {
		return "", err
	}
	defer f.Close()

	sheet := w.cfg.SheetName
	for _, line := range ledger.Lines {
		if err := w.writeLine(f, sheet, line); err != nil {
			return "", err
		}
	}

	if len(ledger.Lines) > 0 {
		if err := w.writeSumRow(f, sheet, ledger); err != nil {
			return "", err
		}
	}

	filename := w.Filename(now)
	if err := f.SaveAs(filepath.Join(w.cfg.OutputDir, filename)); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Workbook written",
		zap.String("filename", filename),
		zap.Int("lines", len(ledger.Lines)))
	return filename, nil
}

func (w *Writer) openWorkbook() (*excelize.File, error) {
	if w.cfg.TemplatePath != "" {
		f, err := excelize.OpenFile(w.cfg.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open template: %w", err)
		}
		return f, nil
	}

	f := excelize.NewFile()
	if _, err := f.NewSheet(w.cfg.SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	return f, nil
}

func (w *Writer) writeLine(f *excelize.File, sheet string, line models.LedgerLine) error {
	row := fmt.Sprint(line.Row)
	if err := f.SetCellValue(sheet, "B"+row, line.Name); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "D"+row, line.Quantity); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "E"+row, line.UnitPrice.InexactFloat64()); err != nil {
		return err
	}
	return f.SetCellFormula(sheet, "F"+row, cellFormula(line.TotalFormula()))
}

func (w *Writer) writeSumRow(f *excelize.File, sheet string, ledger *models.Ledger) error {
	row := fmt.Sprint(ledger.LastRow + sumRowGap)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B"+row, "B"+row, bold); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "B"+row, "SUM"); err != nil {
		return err
	}

	for _, col := range []string{"D", "E", "F"} {
		if err := f.SetCellFormula(sheet, col+row, cellFormula(ledger.SumFormula(col))); err != nil {
			return err
		}
	}
	return nil
}

// cellFormula strips the leading "=" convention used in the ledger
// model; excelize expects bare formulas.
func cellFormula(formula string) string {
	return strings.TrimPrefix(formula, "=")
}
