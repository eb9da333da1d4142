// Package media inventories and organizes the media files bundled with a
// Twitter archive: hashing, MIME detection, tweet association, and the
// duplicate report.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/yomogi/seiri/internal/models"
)

// Handler scans the archive's media folder and organizes its files.
type Handler struct {
	mediaPath     string
	outputPath    string
	processedPath string
	workers       int
	logger        *zap.Logger // optional; when set, logs per-file events

	mu        sync.Mutex
	inventory map[string]*models.MediaFile
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets a logger for debug output (file scanned, copy failed, etc.).
func WithLogger(l *zap.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// WithWorkers sets the number of concurrent file scans (default 4).
func WithWorkers(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.workers = n
		}
	}
}

// NewHandler creates a handler for the archive rooted at archivePath.
// Processed media is copied under outputPath/processed_media.
func NewHandler(archivePath, outputPath string, opts ...HandlerOption) *Handler {
	h := &Handler{
		mediaPath:     filepath.Join(archivePath, "data", "media"),
		outputPath:    outputPath,
		processedPath: filepath.Join(outputPath, "processed_media"),
		workers:       4,
		inventory:     make(map[string]*models.MediaFile),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Scan walks the media folder and builds the inventory with bounded
// concurrency. Missing media folder is not an error (archives without
// downloaded media are common); it yields an empty inventory.
func (h *Handler) Scan(ctx context.Context) error {
	entries, err := os.ReadDir(h.mediaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read media dir: %w", err)
	}

	sem := newSemaphore(h.workers)
	var wg sync.WaitGroup
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(h.mediaPath, e.Name())
		if err := sem.acquire(ctx); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.release()
			if err := h.scanFile(path); err != nil && h.logger != nil {
				h.logger.Warn("media scan failed", zap.String("path", path), zap.Error(err))
			}
		}(path)
	}
	wg.Wait()
	return ctx.Err()
}

// scanFile hashes and types one file and records it in the inventory.
// Media filenames carry the owning tweet id as the stem prefix before the
// first '-' (e.g. "123456789-EXxyz.jpg").
func (h *Handler) scanFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat media file: %w", err)
	}
	hash, err := hashFile(path)
	if err != nil {
		return fmt.Errorf("hash media file: %w", err)
	}
	mediaType := detectMediaType(path)

	// The file ID keeps the extension: "123-EXa.jpg" and "123-EXa.png"
	// are distinct files that happen to share a stem.
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	tweetID := stem
	if i := strings.Index(stem, "-"); i > 0 {
		tweetID = stem[:i]
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.inventory[base] = &models.MediaFile{
		FileID:    base,
		Path:      path,
		MediaType: mediaType,
		TweetIDs:  []string{tweetID},
		SizeBytes: info.Size(),
		SHA256:    hash,
	}
	if h.logger != nil {
		h.logger.Debug("media file scanned", zap.String("file_id", base), zap.String("type", mediaType))
	}
	return nil
}

// Organize returns the tweetID -> media file IDs mapping for the scanned
// inventory. IDs are sorted for deterministic output.
func (h *Handler) Organize() map[string][]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string][]string)
	for _, mf := range h.inventory {
		for _, tweetID := range mf.TweetIDs {
			out[tweetID] = append(out[tweetID], mf.FileID)
		}
	}
	for _, ids := range out {
		sort.Strings(ids)
	}
	return out
}

// Inventory returns the scanned media files sorted by file ID.
func (h *Handler) Inventory() []*models.MediaFile {
	h.mu.Lock()
	defer h.mu.Unlock()
	files := make([]*models.MediaFile, 0, len(h.inventory))
	for _, mf := range h.inventory {
		files = append(files, mf)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].FileID < files[j].FileID })
	return files
}

// CopyToProcessed copies inventory files into the processed_media folder.
// When byType is true, files are grouped into subfolders by the major MIME
// type (image/, video/). Per-file copy errors are logged and skipped.
func (h *Handler) CopyToProcessed(byType bool) error {
	for _, mf := range h.Inventory() {
		dest := filepath.Join(h.processedPath, filepath.Base(mf.Path))
		if byType {
			major := mf.MediaType
			if i := strings.Index(major, "/"); i > 0 {
				major = major[:i]
			}
			dest = filepath.Join(h.processedPath, major, filepath.Base(mf.Path))
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("create processed media dir: %w", err)
		}
		if err := copyFile(mf.Path, dest); err != nil {
			if h.logger != nil {
				h.logger.Warn("media copy failed", zap.String("path", mf.Path), zap.Error(err))
			}
			continue
		}
	}
	return nil
}

// Report describes the scanned media set.
type Report struct {
	TotalFiles     int             `json:"total_files"`
	TotalSizeBytes int64           `json:"total_size_bytes"`
	MediaTypes     map[string]int  `json:"media_types"`
	DuplicateFiles []DuplicatePair `json:"duplicate_files"`
}

// DuplicatePair names two file IDs with identical content hashes.
type DuplicatePair struct {
	Original  string `json:"original"`
	Duplicate string `json:"duplicate"`
}

// BuildReport summarizes the inventory: totals, per-MIME counts, and
// duplicate pairs by content hash.
func (h *Handler) BuildReport() *Report {
	report := &Report{MediaTypes: make(map[string]int)}
	hashSeen := make(map[string]string)
	for _, mf := range h.Inventory() {
		report.TotalFiles++
		report.TotalSizeBytes += mf.SizeBytes
		report.MediaTypes[mf.MediaType]++
		if orig, ok := hashSeen[mf.SHA256]; ok {
			report.DuplicateFiles = append(report.DuplicateFiles, DuplicatePair{
				Original:  orig,
				Duplicate: mf.FileID,
			})
		} else {
			hashSeen[mf.SHA256] = mf.FileID
		}
	}
	return report
}

// WriteReport writes the media report as JSON to outputPath/media_report.json.
func (h *Handler) WriteReport() error {
	report := h.BuildReport()
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal media report: %w", err)
	}
	path := filepath.Join(h.outputPath, "media_report.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write media report: %w", err)
	}
	if h.logger != nil {
		h.logger.Info("media report written", zap.String("path", path), zap.Int("files", report.TotalFiles))
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// detectMediaType sniffs the file's MIME type from content, falling back to
// a generic type derived from the extension when sniffing fails.
func detectMediaType(path string) string {
	if mt, err := mimetype.DetectFile(path); err == nil {
		return mt.String()
	}
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		return "application/" + ext
	}
	return "application/octet-stream"
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
