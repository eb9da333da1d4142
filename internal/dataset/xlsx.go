package dataset

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/yomogi/seiri/internal/models"
)

const sheetName = "tweets"

// XLSXWriter writes the dataset as an Excel workbook with one sheet,
// a header row, and a frozen top pane.
type XLSXWriter struct{}

// Ext returns ".xlsx".
func (w *XLSXWriter) Ext() string { return ".xlsx" }

// Write writes all tweets to an xlsx workbook at path.
func (w *XLSXWriter) Write(ctx context.Context, path string, tweets []*models.Tweet) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for i, t := range tweets {
		if err := ctx.Err(); err != nil {
			return err
		}
		cells := record(t)
		row := make([]interface{}, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write xlsx row %s: %w", t.ID, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header pane: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx file: %w", err)
	}
	return nil
}
