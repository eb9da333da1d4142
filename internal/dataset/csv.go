package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/yomogi/seiri/internal/models"
)

// CSVWriter writes the dataset as RFC 4180 CSV with a header row.
type CSVWriter struct{}

// Ext returns ".csv".
func (w *CSVWriter) Ext() string { return ".csv" }

// Write writes all tweets to a CSV file at path.
func (w *CSVWriter) Write(ctx context.Context, path string, tweets []*models.Tweet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range tweets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := cw.Write(record(t)); err != nil {
			return fmt.Errorf("write csv row %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return f.Close()
}
