package archive

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStripJSWrapper(t *testing.T) {
	t.Run("wrapped", func(t *testing.T) {
		in := []byte(`window.YTD.tweets.part0 = [ {"tweet": {}} ]`)
		got := StripJSWrapper(in)
		if string(got) != `[ {"tweet": {}} ]` {
			t.Errorf("StripJSWrapper = %q", got)
		}
	})
	t.Run("wrapped_with_leading_whitespace", func(t *testing.T) {
		in := []byte("\n  window.YTD.direct_messages.part0 = []")
		got := StripJSWrapper(in)
		if string(got) != "[]" {
			t.Errorf("StripJSWrapper = %q", got)
		}
	})
	t.Run("bare_json_passthrough", func(t *testing.T) {
		in := []byte(`[{"a":1}]`)
		got := StripJSWrapper(in)
		if string(got) != `[{"a":1}]` {
			t.Errorf("StripJSWrapper = %q", got)
		}
	})
	t.Run("wrapper_without_array", func(t *testing.T) {
		in := []byte(`window.YTD.tweets.part0 = null`)
		got := StripJSWrapper(in)
		if string(got) != `window.YTD.tweets.part0 = null` {
			t.Errorf("StripJSWrapper = %q", got)
		}
	})
}

func TestReader_DataFiles(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	if err := os.MkdirAll(filepath.Join(dataDir, "media"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"tweets-part1.js", "tweets.js", "manifest.json", "README.txt"} {
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte("[]"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	r := NewReader(root)
	files, err := r.DataFiles()
	if err != nil {
		t.Fatalf("DataFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("DataFiles: got %d files, want 2 (%v)", len(files), files)
	}
	// Sorted by name: tweets-part1.js before tweets.js.
	if filepath.Base(files[0]) != "tweets-part1.js" || filepath.Base(files[1]) != "tweets.js" {
		t.Errorf("DataFiles order: %v", files)
	}
}

func TestReader_DataFilesMissingDir(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "nope"))
	if _, err := r.DataFiles(); err == nil {
		t.Error("expected error for missing data dir")
	}
}

func TestReader_LoadFile(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dataDir, "tweets.js")
	content := `window.YTD.tweets.part0 = [
  {"tweet": {"id_str": "1"}},
  {"tweet": {"id_str": "2"}}
]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewReader(root)
	records, err := r.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("LoadFile: got %d records, want 2", len(records))
	}
}

func TestReader_LoadFileInvalidJSON(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dataDir, "broken.js")
	if err := os.WriteFile(path, []byte(`window.YTD.tweets.part0 = [ {truncated`), 0644); err != nil {
		t.Fatal(err)
	}
	r := NewReader(root)
	if _, err := r.LoadFile(path); err == nil {
		t.Error("expected parse error for truncated file")
	}
}

func TestReader_ResolveLocalMedia(t *testing.T) {
	root := t.TempDir()
	mediaDir := filepath.Join(root, "assets", "media")
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		t.Fatal(err)
	}
	local := filepath.Join(mediaDir, "EXxyz.jpg")
	if err := os.WriteFile(local, []byte("jpg"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewReader(root)
	if got := r.ResolveLocalMedia("http://pbs.twimg.com/media/EXxyz.jpg"); got != local {
		t.Errorf("ResolveLocalMedia = %q, want %q", got, local)
	}
	if got := r.ResolveLocalMedia("http://pbs.twimg.com/media/missing.jpg"); got != "" {
		t.Errorf("ResolveLocalMedia for missing file = %q, want empty", got)
	}
	if got := r.ResolveLocalMedia(""); got != "" {
		t.Errorf("ResolveLocalMedia for empty URL = %q, want empty", got)
	}
}
