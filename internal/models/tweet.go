// Package models defines core data structures for tweets, media, queries, and reports.
package models

import "time"

// TweetMedia is a media attachment referenced by a tweet.
type TweetMedia struct {
	Type      string `json:"type"`
	URL       string `json:"url"`
	LocalPath string `json:"local_path,omitempty"`
}

// Tweet is one processed tweet row.
type Tweet struct {
	ID               string       `json:"id" db:"id"`
	Text             string       `json:"text" db:"text"`
	RawText          string       `json:"raw_text" db:"raw_text"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	Likes            int          `json:"likes" db:"likes"`
	Retweets         int          `json:"retweets" db:"retweets"`
	Hashtags         []string     `json:"hashtags" db:"hashtags"`
	URLs             []string     `json:"urls" db:"urls"`
	Media            []TweetMedia `json:"media" db:"media"`
	IsRetweet        bool         `json:"is_retweet" db:"is_retweet"`
	ConversationID   string       `json:"conversation_id,omitempty" db:"conversation_id"`
	InReplyToUserID  string       `json:"in_reply_to_user_id,omitempty" db:"in_reply_to_user_id"`
	Lang             string       `json:"lang" db:"lang"`

	// Derived features, populated by the pipeline.
	HasMedia  bool   `json:"has_media" db:"has_media"`
	TextLen   int    `json:"text_len" db:"text_len"`
	HourOfDay int    `json:"hour_of_day" db:"hour_of_day"`
	DayOfWeek string `json:"day_of_week" db:"day_of_week"`
}

// MediaFile is one file from the archive's media folder.
type MediaFile struct {
	FileID    string   `json:"file_id"`
	Path      string   `json:"path"`
	MediaType string   `json:"media_type"`
	TweetIDs  []string `json:"tweet_ids"`
	SizeBytes int64    `json:"size_bytes"`
	SHA256    string   `json:"sha256"`
}

// RunSummary describes one processing run.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	FilesSeen  int           `json:"files_seen"`
	Parsed     int           `json:"tweets_parsed"`
	Skipped    int           `json:"tweets_skipped"`
	Duration   time.Duration `json:"-"`
}
