package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/yomogi/seiri/internal/models"
)

// JSONWriter writes the dataset as a JSON array of tweet objects.
type JSONWriter struct{}

// Ext returns ".json".
func (w *JSONWriter) Ext() string { return ".json" }

// Write writes all tweets as an indented JSON array at path.
func (w *JSONWriter) Write(ctx context.Context, path string, tweets []*models.Tweet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if tweets == nil {
		tweets = []*models.Tweet{}
	}
	if err := enc.Encode(tweets); err != nil {
		return fmt.Errorf("encode json dataset: %w", err)
	}
	return f.Close()
}
