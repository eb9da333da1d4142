package dataset

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/yomogi/seiri/internal/models"
)

// parquetRow is the flat schema for the Parquet output. Multi-valued
// columns are joined with listSep, matching the CSV shape, so the two
// formats stay column-compatible.
type parquetRow struct {
	ID              string `parquet:"id"`
	Text            string `parquet:"text"`
	RawText         string `parquet:"raw_text"`
	CreatedAt       string `parquet:"created_at"`
	Likes           int32  `parquet:"likes"`
	Retweets        int32  `parquet:"retweets"`
	Hashtags        string `parquet:"hashtags"`
	URLs            string `parquet:"urls"`
	MediaCount      int32  `parquet:"media_count"`
	HasMedia        bool   `parquet:"has_media"`
	IsRetweet       bool   `parquet:"is_retweet"`
	ConversationID  string `parquet:"conversation_id"`
	InReplyToUserID string `parquet:"in_reply_to_user_id"`
	Lang            string `parquet:"lang"`
	TextLen         int32  `parquet:"text_len"`
	HourOfDay       int32  `parquet:"hour_of_day"`
	DayOfWeek       string `parquet:"day_of_week"`
}

// ParquetWriter writes the dataset as a Parquet file.
type ParquetWriter struct{}

// Ext returns ".parquet".
func (w *ParquetWriter) Ext() string { return ".parquet" }

// Write writes all tweets to a Parquet file at path.
func (w *ParquetWriter) Write(ctx context.Context, path string, tweets []*models.Tweet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer f.Close()

	pw := parquet.NewGenericWriter[parquetRow](f)
	rows := make([]parquetRow, len(tweets))
	for i, t := range tweets {
		rows[i] = parquetRow{
			ID:              t.ID,
			Text:            t.Text,
			RawText:         t.RawText,
			CreatedAt:       t.CreatedAt.Format(time.RFC3339),
			Likes:           int32(t.Likes),
			Retweets:        int32(t.Retweets),
			Hashtags:        strings.Join(t.Hashtags, listSep),
			URLs:            strings.Join(t.URLs, listSep),
			MediaCount:      int32(len(t.Media)),
			HasMedia:        t.HasMedia,
			IsRetweet:       t.IsRetweet,
			ConversationID:  t.ConversationID,
			InReplyToUserID: t.InReplyToUserID,
			Lang:            t.Lang,
			TextLen:         int32(t.TextLen),
			HourOfDay:       int32(t.HourOfDay),
			DayOfWeek:       t.DayOfWeek,
		}
	}
	if len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			return fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return f.Close()
}
