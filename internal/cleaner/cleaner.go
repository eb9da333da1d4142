// Package cleaner normalizes tweet text: HTML entities, URL/mention/email
// stripping, Unicode NFKC normalization, and emoji handling.
package cleaner

import (
	"html"
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"
	"golang.org/x/text/unicode/norm"
)

var (
	urlRe     = regexp.MustCompile(`https?://\S+|www\.\S+`)
	mentionRe = regexp.MustCompile(`@\w+`)
	hashtagRe = regexp.MustCompile(`#\w+`)
	emailRe   = regexp.MustCompile(`\S+@\S+`)
	numberRe  = regexp.MustCompile(`\d+`)
)

// Options controls which cleaning steps run. The zero value disables
// everything; use DefaultOptions for the standard pipeline.
type Options struct {
	RemoveURLs       bool
	RemoveMentions   bool
	RemoveHashtags   bool
	RemoveEmails     bool
	RemoveNumbers    bool
	NormalizeUnicode bool
	PreserveEmojis   bool
}

// DefaultOptions returns the standard cleaning configuration: strip URLs
// and emails, keep mentions/hashtags/numbers, NFKC-normalize, keep emoji.
func DefaultOptions() Options {
	return Options{
		RemoveURLs:       true,
		RemoveEmails:     true,
		NormalizeUnicode: true,
		PreserveEmojis:   true,
	}
}

// Cleaner applies a configurable cleaning pipeline to tweet text.
type Cleaner struct {
	opts Options
}

// New returns a cleaner with the given options.
func New(opts Options) *Cleaner {
	return &Cleaner{opts: opts}
}

// Clean runs the pipeline over text and returns the cleaned string.
// Order matters: entities are unescaped before the regex removals so that
// "&amp;" never survives as a token, and whitespace collapse runs last.
// When PreserveEmojis is set, emoji are collected, stripped from the body,
// and re-appended to the cleaned string, space-joined; otherwise they stay
// where they are.
func (c *Cleaner) Clean(text string) string {
	if text == "" {
		return ""
	}

	var emojis []string
	if c.opts.PreserveEmojis {
		for _, e := range gomoji.FindAll(text) {
			emojis = append(emojis, e.Character)
		}
		text = gomoji.RemoveEmojis(text)
	}

	text = strings.TrimSpace(text)
	text = html.UnescapeString(text)

	if c.opts.RemoveURLs {
		text = urlRe.ReplaceAllString(text, " ")
	}
	if c.opts.RemoveMentions {
		text = mentionRe.ReplaceAllString(text, " ")
	}
	if c.opts.RemoveHashtags {
		text = hashtagRe.ReplaceAllString(text, " ")
	}
	if c.opts.RemoveEmails {
		text = emailRe.ReplaceAllString(text, " ")
	}
	if c.opts.RemoveNumbers {
		text = numberRe.ReplaceAllString(text, " ")
	}

	if c.opts.NormalizeUnicode {
		text = norm.NFKC.String(text)
	}

	text = strings.Join(strings.Fields(text), " ")

	if c.opts.PreserveEmojis && len(emojis) > 0 {
		joined := strings.Join(emojis, " ")
		if text == "" {
			return joined
		}
		text = text + " " + joined
	}
	return text
}
