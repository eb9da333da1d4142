package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/yomogi/seiri/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "tweets.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testTweet(id string, createdAt time.Time) *models.Tweet {
	return &models.Tweet{
		ID:        id,
		Text:      "cleaned text " + id,
		RawText:   "raw text " + id,
		CreatedAt: createdAt,
		Likes:     2,
		Retweets:  1,
		Hashtags:  []string{"go"},
		URLs:      []string{"https://example.com"},
		Media:     []models.TweetMedia{{Type: "photo", URL: "http://pbs.twimg.com/a.jpg"}},
		Lang:      "en",
		HasMedia:  true,
		TextLen:   13,
		HourOfDay: createdAt.Hour(),
		DayOfWeek: createdAt.Weekday().String(),
	}
}

func TestSQLiteStorage_UpsertAndGet(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	created := time.Date(2021, 6, 1, 14, 0, 0, 0, time.UTC)

	tweet := testTweet("100", created)
	if err := s.UpsertTweet(ctx, tweet); err != nil {
		t.Fatalf("UpsertTweet: %v", err)
	}

	got, err := s.GetTweet(ctx, "100")
	if err != nil {
		t.Fatalf("GetTweet: %v", err)
	}
	if got.Text != tweet.Text || got.RawText != tweet.RawText {
		t.Errorf("text round-trip: got %q/%q", got.Text, got.RawText)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if !reflect.DeepEqual(got.Hashtags, tweet.Hashtags) {
		t.Errorf("Hashtags = %v", got.Hashtags)
	}
	if len(got.Media) != 1 || got.Media[0].Type != "photo" {
		t.Errorf("Media = %v", got.Media)
	}
	if !got.HasMedia || got.TextLen != 13 || got.HourOfDay != 14 || got.DayOfWeek != "Tuesday" {
		t.Errorf("derived columns: %+v", got)
	}
}

func TestSQLiteStorage_UpsertReplaces(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	created := time.Date(2021, 6, 1, 14, 0, 0, 0, time.UTC)

	tweet := testTweet("100", created)
	if err := s.UpsertTweet(ctx, tweet); err != nil {
		t.Fatalf("UpsertTweet: %v", err)
	}
	tweet.Text = "updated"
	tweet.Likes = 50
	if err := s.UpsertTweet(ctx, tweet); err != nil {
		t.Fatalf("UpsertTweet (again): %v", err)
	}

	got, err := s.GetTweet(ctx, "100")
	if err != nil {
		t.Fatalf("GetTweet: %v", err)
	}
	if got.Text != "updated" || got.Likes != 50 {
		t.Errorf("upsert did not replace: %+v", got)
	}
	count, err := s.CountTweets(ctx)
	if err != nil {
		t.Fatalf("CountTweets: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestSQLiteStorage_GetMissing(t *testing.T) {
	s := newTestStorage(t)
	if _, err := s.GetTweet(context.Background(), "nope"); err == nil {
		t.Error("expected error for missing tweet")
	}
}

func TestSQLiteStorage_Delete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	if err := s.UpsertTweet(ctx, testTweet("1", time.Now().UTC())); err != nil {
		t.Fatalf("UpsertTweet: %v", err)
	}
	if err := s.DeleteTweet(ctx, "1"); err != nil {
		t.Fatalf("DeleteTweet: %v", err)
	}
	if _, err := s.GetTweet(ctx, "1"); err == nil {
		t.Error("tweet should be gone after delete")
	}
}

func TestSQLiteStorage_BatchUpsertAndList(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	var tweets []*models.Tweet
	for i := 0; i < 5; i++ {
		tweets = append(tweets, testTweet(
			string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour)))
	}
	if err := s.BatchUpsertTweets(ctx, tweets); err != nil {
		t.Fatalf("BatchUpsertTweets: %v", err)
	}

	count, err := s.CountTweets(ctx)
	if err != nil {
		t.Fatalf("CountTweets: %v", err)
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}

	listed, err := s.ListTweets(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListTweets: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("ListTweets: got %d", len(listed))
	}
	// Ordered by created_at ascending, offset 1.
	if listed[0].ID != "b" || listed[1].ID != "c" {
		t.Errorf("ListTweets order: %s, %s", listed[0].ID, listed[1].ID)
	}
}

func TestSQLiteStorage_DateRange(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		start, end, err := s.DateRange(ctx)
		if err != nil {
			t.Fatalf("DateRange: %v", err)
		}
		if !start.IsZero() || !end.IsZero() {
			t.Errorf("empty store range = %v .. %v", start, end)
		}
	})

	early := time.Date(2019, 2, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2022, 11, 30, 0, 0, 0, 0, time.UTC)
	if err := s.BatchUpsertTweets(ctx, []*models.Tweet{
		testTweet("1", late), testTweet("2", early),
	}); err != nil {
		t.Fatalf("BatchUpsertTweets: %v", err)
	}

	start, end, err := s.DateRange(ctx)
	if err != nil {
		t.Fatalf("DateRange: %v", err)
	}
	if !start.Equal(early) || !end.Equal(late) {
		t.Errorf("range = %v .. %v, want %v .. %v", start, end, early, late)
	}
}

func TestSQLiteStorage_Runs(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	t.Run("no_runs", func(t *testing.T) {
		run, err := s.LastRun(ctx)
		if err != nil {
			t.Fatalf("LastRun: %v", err)
		}
		if run != nil {
			t.Errorf("LastRun = %+v, want nil", run)
		}
	})

	started := time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC)
	first := &models.RunSummary{
		RunID: "run-1", StartedAt: started, FinishedAt: started.Add(time.Minute),
		FilesSeen: 2, Parsed: 100, Skipped: 3,
	}
	second := &models.RunSummary{
		RunID: "run-2", StartedAt: started.Add(time.Hour), FinishedAt: started.Add(time.Hour + time.Minute),
		FilesSeen: 2, Parsed: 101, Skipped: 2,
	}
	if err := s.RecordRun(ctx, first); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := s.RecordRun(ctx, second); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	run, err := s.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if run == nil || run.RunID != "run-2" {
		t.Fatalf("LastRun = %+v, want run-2", run)
	}
	if run.Duration != time.Minute {
		t.Errorf("Duration = %v, want 1m", run.Duration)
	}
}
