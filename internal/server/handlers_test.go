package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yomogi/seiri/internal/config"
	"github.com/yomogi/seiri/internal/keyword"
	"github.com/yomogi/seiri/internal/models"
	"github.com/yomogi/seiri/internal/storage"
)

func newTestServer(t *testing.T) (*Server, storage.Storage, *keyword.BleveIndex) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "tweets.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	idx, err := keyword.NewBleveIndex(filepath.Join(dir, "index.bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })

	cfg := &config.Config{}
	cfg.Storage.DatabasePath = filepath.Join(dir, "tweets.db")
	cfg.Storage.BleveIndexPath = filepath.Join(dir, "index.bleve")
	config.ApplyDefaults(cfg)

	return NewServer(store, idx, cfg, zap.NewNop()), store, idx
}

func seedTweet(t *testing.T, store storage.Storage, idx *keyword.BleveIndex, tweet *models.Tweet) {
	t.Helper()
	ctx := context.Background()
	if err := store.UpsertTweet(ctx, tweet); err != nil {
		t.Fatalf("UpsertTweet: %v", err)
	}
	if err := idx.Index(ctx, tweet); err != nil {
		t.Fatalf("Index: %v", err)
	}
}

func TestHandleSearch(t *testing.T) {
	srv, store, idx := newTestServer(t)
	seedTweet(t, store, idx, &models.Tweet{
		ID:        "1",
		Text:      "morning espresso thoughts",
		RawText:   "morning espresso thoughts",
		CreatedAt: time.Date(2021, 5, 1, 8, 0, 0, 0, time.UTC),
		Lang:      "en",
	})

	body, _ := json.Marshal(models.SearchQuery{Query: "espresso"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleSearch(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 {
		t.Fatalf("Total = %d, want 1", resp.Total)
	}
	if resp.Results[0].Tweet.ID != "1" {
		t.Errorf("result tweet ID = %q", resp.Results[0].Tweet.ID)
	}
	if resp.Results[0].Rank != 1 {
		t.Errorf("rank = %d", resp.Results[0].Rank)
	}
}

func TestHandleSearch_EmptyQuery(t *testing.T) {
	srv, _, _ := newTestServer(t)
	body, _ := json.Marshal(models.SearchQuery{})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleSearch(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleSearch_InvalidBody(t *testing.T) {
	srv, _, _ := newTestServer(t)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	srv.handleSearch(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleSearch_SkipsOrphanedHits(t *testing.T) {
	srv, store, idx := newTestServer(t)
	tweet := &models.Tweet{
		ID: "9", Text: "orphaned entry", RawText: "orphaned entry",
		CreatedAt: time.Now().UTC(), Lang: "en",
	}
	seedTweet(t, store, idx, tweet)
	// Drop the row but leave the index entry in place.
	if err := store.DeleteTweet(context.Background(), "9"); err != nil {
		t.Fatalf("DeleteTweet: %v", err)
	}

	body, _ := json.Marshal(models.SearchQuery{Query: "orphaned"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleSearch(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 0 {
		t.Errorf("Total = %d, want 0 when the store row is gone", resp.Total)
	}
}

func TestHandleSearch_RanksStayContiguousAfterSkips(t *testing.T) {
	srv, store, idx := newTestServer(t)
	// The repeated term makes this tweet the top hit before its row is dropped.
	seedTweet(t, store, idx, &models.Tweet{
		ID: "gone", Text: "ristretto ristretto ristretto", RawText: "ristretto ristretto ristretto",
		CreatedAt: time.Now().UTC(), Lang: "en",
	})
	seedTweet(t, store, idx, &models.Tweet{
		ID: "kept", Text: "one ristretto please", RawText: "one ristretto please",
		CreatedAt: time.Now().UTC(), Lang: "en",
	})
	if err := store.DeleteTweet(context.Background(), "gone"); err != nil {
		t.Fatalf("DeleteTweet: %v", err)
	}

	body, _ := json.Marshal(models.SearchQuery{Query: "ristretto"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleSearch(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 {
		t.Fatalf("Total = %d, want 1", resp.Total)
	}
	for i, res := range resp.Results {
		if res.Rank != i+1 {
			t.Errorf("result %d has rank %d, want %d", i, res.Rank, i+1)
		}
	}
}

func TestHandleGetTweet(t *testing.T) {
	srv, store, idx := newTestServer(t)
	seedTweet(t, store, idx, &models.Tweet{
		ID: "42", Text: "answer", RawText: "answer",
		CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Lang: "en",
	})

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "42")
	r := httptest.NewRequest(http.MethodGet, "/api/v1/tweets/42", nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()
	srv.handleGetTweet(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var tweet models.Tweet
	if err := json.NewDecoder(w.Body).Decode(&tweet); err != nil {
		t.Fatal(err)
	}
	if tweet.ID != "42" || tweet.Text != "answer" {
		t.Errorf("tweet = %+v", tweet)
	}
}

func TestHandleGetTweet_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "404")
	r := httptest.NewRequest(http.MethodGet, "/api/v1/tweets/404", nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()
	srv.handleGetTweet(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleStats(t *testing.T) {
	srv, store, idx := newTestServer(t)
	seedTweet(t, store, idx, &models.Tweet{
		ID: "1", Text: "a", RawText: "a",
		CreatedAt: time.Date(2021, 5, 1, 8, 0, 0, 0, time.UTC),
		Likes:     4, Hashtags: []string{"go"}, Lang: "en",
		TextLen: 1, HourOfDay: 8, DayOfWeek: "Saturday",
	})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	srv.handleStats(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var stats models.SummaryStats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalTweets != 1 || stats.Engagement.TotalLikes != 4 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestHandleStatus(t *testing.T) {
	srv, store, idx := newTestServer(t)
	seedTweet(t, store, idx, &models.Tweet{
		ID: "1", Text: "a", RawText: "a",
		CreatedAt: time.Now().UTC(), Lang: "en",
	})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	srv.handleStatus(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["tweets"] != float64(1) {
		t.Errorf("tweets = %v", out["tweets"])
	}
	if out["indexed"] != float64(1) {
		t.Errorf("indexed = %v", out["indexed"])
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}
