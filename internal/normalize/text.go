package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Canonical call-to-action phrases in priority order. Detection returns the
// first phrase found as a case-insensitive substring; when several are
// present, list order wins over position in the text.
var ctaPhrases = []string{
	"learn more",
	"sign up",
	"get started",
	"try free",
	"download",
	"shop now",
	"book now",
	"subscribe",
	"join now",
	"apply now",
	"contact us",
	"see more",
}

var (
	hashtagPattern = regexp.MustCompile(`#\w+`)
	mentionPattern = regexp.MustCompile(`@\w+`)
)

// Emoji code-point ranges: emoticons, symbols and pictographs, transport
// and map symbols, flags.
var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F},
	{0x1F300, 0x1F5FF},
	{0x1F680, 0x1F6FF},
	{0x1F1E0, 0x1F1FF},
}

func textLength(s string) int {
	return utf8.RuneCountInString(s)
}

func containsEmoji(s string) bool {
	for _, r := range s {
		for _, rng := range emojiRanges {
			if r >= rng[0] && r <= rng[1] {
				return true
			}
		}
	}

	return false
}

// extractHashtags returns hashtags in first-occurrence order. The result
// is never nil: derived tag sets persist into NOT NULL array columns.
func extractHashtags(s string) []string {
	tags := hashtagPattern.FindAllString(s, -1)
	if tags == nil {
		return []string{}
	}

	return tags
}

// extractMentions returns @-mentions in first-occurrence order, never nil.
func extractMentions(s string) []string {
	mentions := mentionPattern.FindAllString(s, -1)
	if mentions == nil {
		return []string{}
	}

	return mentions
}

// detectCTA returns the first matching canonical phrase, nil when none
// matches.
func detectCTA(s string) *string {
	lower := strings.ToLower(s)

	for _, phrase := range ctaPhrases {
		if strings.Contains(lower, phrase) {
			p := phrase
			return &p
		}
	}

	return nil
}
