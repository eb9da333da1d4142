// Package stats computes the summary report over a processed tweet set.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/yomogi/seiri/internal/models"
)

const (
	topHashtags = 10
	topHours    = 5
)

// Summarize computes summary statistics over tweets. Tweets are assumed
// already sorted by CreatedAt ascending (the pipeline guarantees this);
// the date range reads the first and last rows. Empty input yields a
// zero-valued report.
func Summarize(tweets []*models.Tweet) *models.SummaryStats {
	s := &models.SummaryStats{TotalTweets: len(tweets)}
	s.Timing.MostActiveDays = make(map[string]int)
	if len(tweets) == 0 {
		s.Content.MostCommonHashtags = []models.HashtagCount{}
		s.Timing.MostActiveHours = []models.HourCount{}
		return s
	}

	s.DateRange.Start = tweets[0].CreatedAt
	s.DateRange.End = tweets[len(tweets)-1].CreatedAt

	hashtagCounts := make(map[string]int)
	hourCounts := make(map[int]int)
	var totalLen int
	for _, t := range tweets {
		s.Engagement.TotalLikes += t.Likes
		s.Engagement.TotalRetweets += t.Retweets
		if t.HasMedia {
			s.Content.TweetsWithMedia++
		}
		s.Content.TweetsWithURLs += len(t.URLs)
		for _, h := range t.Hashtags {
			hashtagCounts[h]++
		}
		totalLen += t.TextLen
		hourCounts[t.HourOfDay]++
		s.Timing.MostActiveDays[t.DayOfWeek]++
	}

	n := float64(len(tweets))
	s.Engagement.AvgLikesPerTweet = float64(s.Engagement.TotalLikes) / n
	s.Engagement.AvgRetweetsPerTweet = float64(s.Engagement.TotalRetweets) / n
	s.Content.AvgTweetLength = float64(totalLen) / n
	s.Content.MostCommonHashtags = topHashtagCounts(hashtagCounts, topHashtags)
	s.Timing.MostActiveHours = topHourCounts(hourCounts, topHours)
	return s
}

// WriteReport writes the summary as summary_stats.json under outputPath.
func WriteReport(outputPath string, s *models.SummaryStats) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary stats: %w", err)
	}
	path := filepath.Join(outputPath, "summary_stats.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write summary stats: %w", err)
	}
	return nil
}

// topHashtagCounts returns the k most frequent hashtags, count descending,
// ties broken by tag so output is deterministic.
func topHashtagCounts(counts map[string]int, k int) []models.HashtagCount {
	out := make([]models.HashtagCount, 0, len(counts))
	for tag, count := range counts {
		out = append(out, models.HashtagCount{Tag: tag, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func topHourCounts(counts map[int]int, k int) []models.HourCount {
	out := make([]models.HourCount, 0, len(counts))
	for hour, count := range counts {
		out = append(out, models.HourCount{Hour: hour, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Hour < out[j].Hour
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
