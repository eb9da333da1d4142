// Package pipeline runs the archive-to-dataset processing pass: read the
// export files, clean each tweet, derive features, persist, index, and
// write the tabular outputs and reports.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yomogi/seiri/internal/archive"
	"github.com/yomogi/seiri/internal/cleaner"
	"github.com/yomogi/seiri/internal/config"
	"github.com/yomogi/seiri/internal/dataset"
	"github.com/yomogi/seiri/internal/keyword"
	"github.com/yomogi/seiri/internal/media"
	"github.com/yomogi/seiri/internal/models"
	"github.com/yomogi/seiri/internal/stats"
	"github.com/yomogi/seiri/internal/storage"
	"github.com/yomogi/seiri/pkg/utils"
)

// Pipeline ties the processing stages together.
type Pipeline struct {
	cfg     *config.Config
	storage storage.Storage
	index   *keyword.BleveIndex
	cleaner *cleaner.Cleaner
	logger  *zap.Logger
}

// New creates a pipeline. storage and index may be nil, in which case the
// corresponding stages are skipped (useful for dry runs and tests).
func New(cfg *config.Config, store storage.Storage, index *keyword.BleveIndex, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		storage: store,
		index:   index,
		cleaner: cleaner.New(cleanOptions(&cfg.Clean)),
		logger:  logger,
	}
}

func cleanOptions(c *config.CleanConfig) cleaner.Options {
	return cleaner.Options{
		RemoveURLs:       config.BoolOr(c.RemoveURLs, true),
		RemoveMentions:   config.BoolOr(c.RemoveMentions, false),
		RemoveHashtags:   config.BoolOr(c.RemoveHashtags, false),
		RemoveEmails:     config.BoolOr(c.RemoveEmails, true),
		RemoveNumbers:    config.BoolOr(c.RemoveNumbers, false),
		NormalizeUnicode: config.BoolOr(c.NormalizeUnicode, true),
		PreserveEmojis:   config.BoolOr(c.PreserveEmojis, true),
	}
}

// fileResult collects the tweets parsed from one export file.
type fileResult struct {
	path    string
	tweets  []*models.Tweet
	skipped int
	err     error
}

// Run processes the whole archive and returns the run summary.
func (p *Pipeline) Run(ctx context.Context) (*models.RunSummary, error) {
	run := &models.RunSummary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	p.logger.Info("processing archive",
		zap.String("run_id", run.RunID),
		zap.String("archive", p.cfg.Archive.Path),
		zap.String("output", p.cfg.Output.Path),
	)

	if err := os.MkdirAll(p.cfg.Output.Path, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	reader := archive.NewReader(p.cfg.Archive.Path)
	files, err := reader.DataFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no export .js files found under %s", reader.DataPath())
	}
	run.FilesSeen = len(files)

	tweets, skipped, err := p.processFiles(ctx, reader, files)
	if err != nil {
		return nil, err
	}
	run.Parsed = len(tweets)
	run.Skipped = skipped

	sort.Slice(tweets, func(i, j int) bool {
		return tweets[i].CreatedAt.Before(tweets[j].CreatedAt)
	})

	if err := p.writeOutputs(ctx, tweets); err != nil {
		return nil, err
	}

	if p.storage != nil {
		if err := p.storage.BatchUpsertTweets(ctx, tweets); err != nil {
			return nil, fmt.Errorf("store tweets: %w", err)
		}
	}
	if p.index != nil {
		if err := p.index.IndexBatch(ctx, tweets); err != nil {
			return nil, fmt.Errorf("index tweets: %w", err)
		}
	}

	summary := stats.Summarize(tweets)
	if err := stats.WriteReport(p.cfg.Output.Path, summary); err != nil {
		return nil, err
	}

	if config.BoolOr(p.cfg.Media.Enabled, true) {
		if err := p.processMedia(ctx); err != nil {
			return nil, err
		}
	}

	run.FinishedAt = time.Now()
	run.Duration = run.FinishedAt.Sub(run.StartedAt)
	if p.storage != nil {
		if err := p.storage.RecordRun(ctx, run); err != nil {
			p.logger.Warn("record run failed", zap.Error(err))
		}
	}

	p.logger.Info("processing complete",
		zap.String("run_id", run.RunID),
		zap.Int("files", run.FilesSeen),
		zap.Int("parsed", run.Parsed),
		zap.Int("skipped", run.Skipped),
		zap.Duration("duration", run.Duration),
	)
	return run, nil
}

// processFiles parses export files concurrently (one goroutine per file,
// bounded by Archive.Workers) and merges the results deterministically in
// file order. A file that fails to parse is logged and skipped; its tweets
// count as skipped only if individually unparseable.
func (p *Pipeline) processFiles(ctx context.Context, reader *archive.Reader, files []string) ([]*models.Tweet, int, error) {
	workers := p.cfg.Archive.Workers
	if workers <= 0 {
		workers = 4
	}
	sem := make(chan struct{}, workers)
	results := make([]fileResult, len(files))
	var wg sync.WaitGroup
	for i, path := range files {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, 0, ctx.Err()
		}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = p.processFile(reader, path)
		}(i, path)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	var tweets []*models.Tweet
	var skipped int
	for _, res := range results {
		if res.err != nil {
			p.logger.Warn("export file skipped", zap.String("path", res.path), zap.Error(res.err))
			continue
		}
		tweets = append(tweets, res.tweets...)
		skipped += res.skipped
	}
	return tweets, skipped, nil
}

func (p *Pipeline) processFile(reader *archive.Reader, path string) fileResult {
	res := fileResult{path: path}
	records, err := reader.LoadFile(path)
	if err != nil {
		res.err = err
		return res
	}
	for _, record := range records {
		t, err := reader.ParseTweet(record)
		if err != nil {
			p.logger.Debug("tweet skipped", zap.String("file", filepath.Base(path)), zap.Error(err))
			res.skipped++
			continue
		}
		p.derive(t)
		res.tweets = append(res.tweets, t)
	}
	return res
}

// derive cleans the text and fills the derived feature columns.
func (p *Pipeline) derive(t *models.Tweet) {
	t.Text = p.cleaner.Clean(t.RawText)
	t.HasMedia = len(t.Media) > 0
	t.TextLen = utils.RuneLen(t.Text)
	t.HourOfDay = t.CreatedAt.Hour()
	t.DayOfWeek = t.CreatedAt.Weekday().String()
}

func (p *Pipeline) writeOutputs(ctx context.Context, tweets []*models.Tweet) error {
	for _, format := range p.cfg.Output.Formats {
		w, err := dataset.ForFormat(format)
		if err != nil {
			return err
		}
		path := filepath.Join(p.cfg.Output.Path, p.cfg.Output.Basename+w.Ext())
		if err := w.Write(ctx, path, tweets); err != nil {
			return fmt.Errorf("write %s output: %w", format, err)
		}
		p.logger.Info("dataset written", zap.String("format", format), zap.String("path", path))
	}
	return nil
}

func (p *Pipeline) processMedia(ctx context.Context) error {
	opts := []media.HandlerOption{media.WithWorkers(p.cfg.Archive.Workers)}
	if p.cfg.Debug {
		opts = append(opts, media.WithLogger(p.logger))
	}
	h := media.NewHandler(p.cfg.Archive.Path, p.cfg.Output.Path, opts...)
	if err := h.Scan(ctx); err != nil {
		return fmt.Errorf("scan media: %w", err)
	}
	if err := h.CopyToProcessed(config.BoolOr(p.cfg.Media.CopyByType, true)); err != nil {
		return fmt.Errorf("copy media: %w", err)
	}
	if err := h.WriteReport(); err != nil {
		return err
	}
	return nil
}
