package cleaner

import (
	"strings"
	"unicode"

	"github.com/forPelevin/gomoji"
)

// Entities holds everything extractable from a tweet's text.
type Entities struct {
	URLs     []string `json:"urls"`
	Mentions []string `json:"mentions"`
	Hashtags []string `json:"hashtags"`
	Emails   []string `json:"emails"`
	Emojis   []string `json:"emojis"`
}

// ExtractEntities finds URLs, mentions, hashtags, emails, and emoji in text.
func ExtractEntities(text string) Entities {
	var ents Entities
	ents.URLs = urlRe.FindAllString(text, -1)
	ents.Mentions = mentionRe.FindAllString(text, -1)
	ents.Hashtags = hashtagRe.FindAllString(text, -1)
	ents.Emails = emailRe.FindAllString(text, -1)
	for _, e := range gomoji.FindAll(text) {
		ents.Emojis = append(ents.Emojis, e.Character)
	}
	return ents
}

// NormalizeHashtags turns hashtags into lowercase space-separated words,
// e.g. "#MachineLearning" -> "machine learning". The leading '#' is dropped.
func NormalizeHashtags(tags []string) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = splitCamelCase(strings.TrimPrefix(tag, "#"))
	}
	return out
}

// splitCamelCase breaks a tag on case and digit boundaries. Acronym runs
// stay together ("NLPModels" -> "nlp models"); digit runs are their own word.
func splitCamelCase(tag string) string {
	runes := []rune(tag)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := false
		switch {
		case unicode.IsLower(prev) && unicode.IsUpper(cur):
			boundary = true
		case unicode.IsDigit(prev) != unicode.IsDigit(cur):
			boundary = true
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			// End of an acronym run: "NLPMod" splits before "Mod".
			boundary = true
		}
		if boundary {
			words = append(words, strings.ToLower(string(runes[start:i])))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, strings.ToLower(string(runes[start:])))
	}
	return strings.Join(words, " ")
}
