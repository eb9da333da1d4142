// Package dataset writes processed tweets as tabular files in several
// formats behind a single Writer interface.
package dataset

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yomogi/seiri/internal/models"
)

// Columns is the dataset header, in output order.
var Columns = []string{
	"id", "text", "raw_text", "created_at", "likes", "retweets",
	"hashtags", "urls", "media_count", "has_media", "is_retweet",
	"conversation_id", "in_reply_to_user_id", "lang",
	"text_len", "hour_of_day", "day_of_week",
}

// listSep joins multi-valued columns (hashtags, urls) in flat formats.
const listSep = ";"

// Writer writes tweets to a tabular file at path.
type Writer interface {
	// Write writes all rows to path. The file is created or truncated.
	Write(ctx context.Context, path string, tweets []*models.Tweet) error
	// Ext returns the file extension including the dot (e.g. ".csv").
	Ext() string
}

// ForFormat returns the writer for a format name ("csv", "json", "xlsx",
// "parquet"). Unknown formats are an error.
func ForFormat(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "xlsx":
		return &XLSXWriter{}, nil
	case "parquet":
		return &ParquetWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// record flattens a tweet into string cells matching Columns.
func record(t *models.Tweet) []string {
	return []string{
		t.ID,
		t.Text,
		t.RawText,
		t.CreatedAt.Format(time.RFC3339),
		strconv.Itoa(t.Likes),
		strconv.Itoa(t.Retweets),
		strings.Join(t.Hashtags, listSep),
		strings.Join(t.URLs, listSep),
		strconv.Itoa(len(t.Media)),
		strconv.FormatBool(t.HasMedia),
		strconv.FormatBool(t.IsRetweet),
		t.ConversationID,
		t.InReplyToUserID,
		t.Lang,
		strconv.Itoa(t.TextLen),
		strconv.Itoa(t.HourOfDay),
		t.DayOfWeek,
	}
}
