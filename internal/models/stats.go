package models

import "time"

// HashtagCount is a hashtag with its occurrence count, used for ranked listings.
type HashtagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// HourCount is an hour of day (0-23) with its tweet count.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// SummaryStats is the summary report written after a processing run.
type SummaryStats struct {
	TotalTweets int `json:"total_tweets"`

	DateRange struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	} `json:"date_range"`

	Engagement struct {
		TotalLikes          int     `json:"total_likes"`
		TotalRetweets       int     `json:"total_retweets"`
		AvgLikesPerTweet    float64 `json:"avg_likes_per_tweet"`
		AvgRetweetsPerTweet float64 `json:"avg_retweets_per_tweet"`
	} `json:"engagement"`

	Content struct {
		TweetsWithMedia    int            `json:"tweets_with_media"`
		TweetsWithURLs     int            `json:"tweets_with_urls"`
		MostCommonHashtags []HashtagCount `json:"most_common_hashtags"`
		AvgTweetLength     float64        `json:"avg_tweet_length"`
	} `json:"content_analysis"`

	Timing struct {
		MostActiveHours []HourCount    `json:"most_active_hours"`
		MostActiveDays  map[string]int `json:"most_active_days"`
	} `json:"timing"`
}
