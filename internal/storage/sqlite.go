// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yomogi/seiri/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tweets (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		raw_text TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		likes INTEGER NOT NULL DEFAULT 0,
		retweets INTEGER NOT NULL DEFAULT 0,
		hashtags TEXT,
		urls TEXT,
		media TEXT,
		is_retweet INTEGER NOT NULL DEFAULT 0,
		conversation_id TEXT,
		in_reply_to_user_id TEXT,
		lang TEXT,
		has_media INTEGER NOT NULL DEFAULT 0,
		text_len INTEGER NOT NULL DEFAULT 0,
		hour_of_day INTEGER NOT NULL DEFAULT 0,
		day_of_week TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_tweets_created_at ON tweets(created_at);
	CREATE INDEX IF NOT EXISTS idx_tweets_lang ON tweets(lang);

	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		files_seen INTEGER NOT NULL,
		parsed INTEGER NOT NULL,
		skipped INTEGER NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

const tweetColumns = `id, text, raw_text, created_at, likes, retweets, hashtags, urls, media,
	is_retweet, conversation_id, in_reply_to_user_id, lang, has_media, text_len, hour_of_day, day_of_week`

const upsertTweetSQL = `INSERT INTO tweets (` + tweetColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		text=excluded.text, raw_text=excluded.raw_text, created_at=excluded.created_at,
		likes=excluded.likes, retweets=excluded.retweets, hashtags=excluded.hashtags,
		urls=excluded.urls, media=excluded.media, is_retweet=excluded.is_retweet,
		conversation_id=excluded.conversation_id, in_reply_to_user_id=excluded.in_reply_to_user_id,
		lang=excluded.lang, has_media=excluded.has_media, text_len=excluded.text_len,
		hour_of_day=excluded.hour_of_day, day_of_week=excluded.day_of_week`

// UpsertTweet inserts or replaces a tweet row.
func (s *SQLiteStorage) UpsertTweet(ctx context.Context, t *models.Tweet) error {
	args, err := tweetArgs(t)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, upsertTweetSQL, args...)
	return err
}

// BatchUpsertTweets inserts or replaces tweets in a single transaction.
func (s *SQLiteStorage) BatchUpsertTweets(ctx context.Context, tweets []*models.Tweet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertTweetSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range tweets {
		args, err := tweetArgs(t)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upsert tweet %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

func tweetArgs(t *models.Tweet) ([]interface{}, error) {
	hashtags, err := json.Marshal(t.Hashtags)
	if err != nil {
		return nil, fmt.Errorf("marshal hashtags: %w", err)
	}
	urls, err := json.Marshal(t.URLs)
	if err != nil {
		return nil, fmt.Errorf("marshal urls: %w", err)
	}
	media, err := json.Marshal(t.Media)
	if err != nil {
		return nil, fmt.Errorf("marshal media: %w", err)
	}
	return []interface{}{
		t.ID, t.Text, t.RawText, t.CreatedAt, t.Likes, t.Retweets,
		string(hashtags), string(urls), string(media),
		t.IsRetweet, t.ConversationID, t.InReplyToUserID, t.Lang,
		t.HasMedia, t.TextLen, t.HourOfDay, t.DayOfWeek,
	}, nil
}

// GetTweet returns a tweet by ID.
func (s *SQLiteStorage) GetTweet(ctx context.Context, id string) (*models.Tweet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tweetColumns+` FROM tweets WHERE id = ?`, id)
	t, err := scanTweet(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tweet not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTweet removes a tweet by ID.
func (s *SQLiteStorage) DeleteTweet(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tweets WHERE id = ?`, id)
	return err
}

// ListTweets returns tweets ordered by created_at ascending with offset and limit.
func (s *SQLiteStorage) ListTweets(ctx context.Context, offset, limit int) ([]*models.Tweet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tweetColumns+` FROM tweets ORDER BY created_at ASC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tweets []*models.Tweet
	for rows.Next() {
		t, err := scanTweet(rows)
		if err != nil {
			return nil, err
		}
		tweets = append(tweets, t)
	}
	return tweets, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTweet(sc scanner) (*models.Tweet, error) {
	var t models.Tweet
	var hashtags, urls, media string
	var conversationID, inReplyTo, lang, dayOfWeek sql.NullString
	err := sc.Scan(
		&t.ID, &t.Text, &t.RawText, &t.CreatedAt, &t.Likes, &t.Retweets,
		&hashtags, &urls, &media,
		&t.IsRetweet, &conversationID, &inReplyTo, &lang,
		&t.HasMedia, &t.TextLen, &t.HourOfDay, &dayOfWeek,
	)
	if err != nil {
		return nil, err
	}
	t.ConversationID = conversationID.String
	t.InReplyToUserID = inReplyTo.String
	t.Lang = lang.String
	t.DayOfWeek = dayOfWeek.String
	if hashtags != "" {
		if err := json.Unmarshal([]byte(hashtags), &t.Hashtags); err != nil {
			return nil, fmt.Errorf("unmarshal hashtags: %w", err)
		}
	}
	if urls != "" {
		if err := json.Unmarshal([]byte(urls), &t.URLs); err != nil {
			return nil, fmt.Errorf("unmarshal urls: %w", err)
		}
	}
	if media != "" {
		if err := json.Unmarshal([]byte(media), &t.Media); err != nil {
			return nil, fmt.Errorf("unmarshal media: %w", err)
		}
	}
	return &t, nil
}

// RecordRun stores one processing run's summary.
func (s *SQLiteStorage) RecordRun(ctx context.Context, run *models.RunSummary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, files_seen, parsed, skipped)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.StartedAt, run.FinishedAt, run.FilesSeen, run.Parsed, run.Skipped,
	)
	return err
}

// LastRun returns the most recently finished run, or nil when none exists.
func (s *SQLiteStorage) LastRun(ctx context.Context) (*models.RunSummary, error) {
	var run models.RunSummary
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, finished_at, files_seen, parsed, skipped
		 FROM runs ORDER BY finished_at DESC LIMIT 1`,
	).Scan(&run.RunID, &run.StartedAt, &run.FinishedAt, &run.FilesSeen, &run.Parsed, &run.Skipped)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.Duration = run.FinishedAt.Sub(run.StartedAt)
	return &run, nil
}

// CountTweets returns the total number of stored tweets.
func (s *SQLiteStorage) CountTweets(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tweets`).Scan(&count)
	return count, err
}

// DateRange returns the earliest and latest tweet timestamps. Zero times
// are returned when the store is empty. Single-row ordered queries rather
// than MIN/MAX: the driver only converts to time.Time when the result
// column carries the declared type, which aggregates do not.
func (s *SQLiteStorage) DateRange(ctx context.Context) (time.Time, time.Time, error) {
	var start, end time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM tweets ORDER BY created_at ASC LIMIT 1`,
	).Scan(&start)
	if err == sql.ErrNoRows {
		return time.Time{}, time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT created_at FROM tweets ORDER BY created_at DESC LIMIT 1`,
	).Scan(&end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
