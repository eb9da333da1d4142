package utils

import "unicode/utf8"

// Truncate returns s truncated to maxLen bytes, with "..." appended if
// truncated. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// RuneLen returns the length of s in runes. Tweet lengths count
// characters, not bytes; emoji and CJK text would otherwise inflate the
// text_len column.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
