// Package archive reads Twitter data exports: the data/*.js tweet files and
// the asset folders that hold downloaded media.
package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Reader reads tweet records from a Twitter archive directory.
type Reader struct {
	root       string
	dataPath   string
	assetsPath string
}

// NewReader creates a reader for the archive rooted at root.
// The archive is expected to contain data/ (export .js files) and
// optionally assets/ (downloaded media).
func NewReader(root string) *Reader {
	return &Reader{
		root:       root,
		dataPath:   filepath.Join(root, "data"),
		assetsPath: filepath.Join(root, "assets"),
	}
}

// DataPath returns the directory containing the export .js files.
func (r *Reader) DataPath() string { return r.dataPath }

// DataFiles lists the export .js files under data/, sorted by name so
// multi-part exports (tweets.js, tweets-part1.js, ...) process in order.
func (r *Reader) DataFiles() ([]string, error) {
	entries, err := os.ReadDir(r.dataPath)
	if err != nil {
		return nil, fmt.Errorf("read archive data dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".js") {
			files = append(files, filepath.Join(r.dataPath, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadFile reads one export file and returns its raw tweet records.
// Twitter wraps each file in a JS assignment (window.YTD.tweets.part0 = [...]);
// everything before the first '[' is discarded before decoding. Files that are
// already bare JSON arrays pass through unchanged.
func (r *Reader) LoadFile(path string) ([]json.RawMessage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export file: %w", err)
	}
	content = StripJSWrapper(content)
	var records []json.RawMessage
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, fmt.Errorf("parse export file %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// StripJSWrapper removes Twitter's "window.YTD.<name>.part<n> = " prefix,
// returning the JSON array that follows. Input without the wrapper is
// returned as-is.
func StripJSWrapper(content []byte) []byte {
	trimmed := bytes.TrimLeft(content, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("window.YTD.")) {
		return content
	}
	if i := bytes.IndexByte(trimmed, '['); i >= 0 {
		return trimmed[i:]
	}
	return content
}

// ResolveLocalMedia returns the local path for a media URL's file, if the
// file exists in one of the archive's asset folders. Returns "" when the
// file is not present locally.
func (r *Reader) ResolveLocalMedia(mediaURL string) string {
	if mediaURL == "" {
		return ""
	}
	filename := mediaURL
	if i := strings.LastIndex(mediaURL, "/"); i >= 0 {
		filename = mediaURL[i+1:]
	}
	if filename == "" {
		return ""
	}
	candidates := []string{
		filepath.Join(r.assetsPath, filename),
		filepath.Join(r.assetsPath, "media", filename),
		filepath.Join(r.assetsPath, "images", filename),
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
