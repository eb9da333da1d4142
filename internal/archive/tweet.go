package archive

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/yomogi/seiri/internal/models"
)

// createdAtLayout is Twitter's "ruby date" timestamp format.
const createdAtLayout = "Mon Jan 2 15:04:05 -0700 2006"

// rawTweet mirrors the subset of the export's tweet object that we keep.
type rawTweet struct {
	IDStr             string          `json:"id_str"`
	FullText          string          `json:"full_text"`
	Text              string          `json:"text"`
	CreatedAt         string          `json:"created_at"`
	FavoriteCount     flexInt         `json:"favorite_count"`
	RetweetCount      flexInt         `json:"retweet_count"`
	ConversationIDStr string          `json:"conversation_id_str"`
	InReplyToUserID   string          `json:"in_reply_to_user_id_str"`
	Lang              string          `json:"lang"`
	RetweetedStatus   json.RawMessage `json:"retweeted_status"`
	Entities          struct {
		Hashtags []struct {
			Text string `json:"text"`
		} `json:"hashtags"`
		URLs []struct {
			ExpandedURL string `json:"expanded_url"`
		} `json:"urls"`
		Media []struct {
			Type     string `json:"type"`
			MediaURL string `json:"media_url"`
		} `json:"media"`
	} `json:"entities"`
}

// flexInt decodes ints that exports serialize either as numbers or strings
// ("favorite_count": "5" in older archives).
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	if len(data) > 1 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		var n int
		if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
			return fmt.Errorf("parse count %q: %w", s, err)
		}
		*f = flexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// ParseTweet parses one raw record into a Tweet. Records may nest the
// payload under a "tweet" key; both shapes are accepted. The Text field is
// left as the raw export text (RawText is set to the same value); cleaning
// happens downstream. Returns an error when the record has no id or an
// unparseable timestamp.
func (r *Reader) ParseTweet(record json.RawMessage) (*models.Tweet, error) {
	// Unwrap {"tweet": {...}} if present.
	var envelope struct {
		Tweet json.RawMessage `json:"tweet"`
	}
	payload := record
	if err := json.Unmarshal(record, &envelope); err == nil && len(envelope.Tweet) > 0 {
		payload = envelope.Tweet
	}

	var raw rawTweet
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode tweet: %w", err)
	}
	if raw.IDStr == "" {
		return nil, fmt.Errorf("tweet has no id_str")
	}
	createdAt, err := time.Parse(createdAtLayout, raw.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for tweet %s: %w", raw.IDStr, err)
	}

	text := raw.FullText
	if text == "" {
		text = raw.Text
	}
	lang := raw.Lang
	if lang == "" {
		lang = "unknown"
	}

	hashtags := make([]string, 0, len(raw.Entities.Hashtags))
	for _, h := range raw.Entities.Hashtags {
		hashtags = append(hashtags, h.Text)
	}
	urls := make([]string, 0, len(raw.Entities.URLs))
	for _, u := range raw.Entities.URLs {
		urls = append(urls, u.ExpandedURL)
	}
	media := make([]models.TweetMedia, 0, len(raw.Entities.Media))
	for _, m := range raw.Entities.Media {
		mType := m.Type
		if mType == "" {
			mType = "unknown"
		}
		media = append(media, models.TweetMedia{
			Type:      mType,
			URL:       m.MediaURL,
			LocalPath: r.ResolveLocalMedia(m.MediaURL),
		})
	}

	return &models.Tweet{
		ID:              raw.IDStr,
		Text:            text,
		RawText:         text,
		CreatedAt:       createdAt,
		Likes:           int(raw.FavoriteCount),
		Retweets:        int(raw.RetweetCount),
		Hashtags:        hashtags,
		URLs:            urls,
		Media:           media,
		IsRetweet:       len(raw.RetweetedStatus) > 0,
		ConversationID:  raw.ConversationIDStr,
		InReplyToUserID: raw.InReplyToUserID,
		Lang:            lang,
	}, nil
}
