package matchers

import (
	"strings"
	"unicode"

	"github.com/kova98/threadharvest/enums"
)

// Matches applies the match mode to text. Both sides are compared lowercase.
// MatchModeAny accepts every text.
func Matches(mode enums.MatchMode, text, keyword string) bool {
	text = strings.ToLower(text)
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	switch mode {
	case enums.MatchModeExact:
		return MatchesWholeWord(text, keyword)
	case enums.MatchModeBroad:
		return MatchesPartially(text, keyword)
	default:
		return true
	}
}

// MatchesWholeWord returns true if the keyword appears as a complete word in the text.
// Word boundaries are defined by non-alphanumeric characters or start/end of string.
// A multi-word keyword matches when the whole phrase is bounded that way.
func MatchesWholeWord(text, keyword string) bool {
	if keyword == "" {
		return false
	}

	idx := 0
	for idx < len(text) {
		pos := strings.Index(text[idx:], keyword)
		if pos == -1 {
			return false
		}
		pos += idx

		leftOk := pos == 0 || !isWordChar(rune(text[pos-1]))
		endPos := pos + len(keyword)
		rightOk := endPos == len(text) || !isWordChar(rune(text[endPos]))
		if leftOk && rightOk {
			return true
		}

		idx = pos + 1
	}
	return false
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func MatchesPartially(text, keyword string) bool {
	return strings.Contains(text, keyword)
}
