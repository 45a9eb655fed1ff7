package enums

import "fmt"

type MatchMode string

const (
	MatchModeInvalid MatchMode = ""

	// MatchModeAny accepts every post a keyword search returned. The search
	// endpoint already scoped the results to the keyword.
	MatchModeAny MatchMode = "any"

	// MatchModeBroad allows partial matches within words.
	// For example, the keyword "cat" will match "cat", "catalog", and "concatenate".
	MatchModeBroad MatchMode = "broad"

	// MatchModeExact requires an exact match of the whole word.
	// For example, the keyword "cat" will match "cat" but not "catalog" or "concatenate".
	MatchModeExact MatchMode = "exact"
)

func ParseMatchMode(s string) (MatchMode, error) {
	switch m := MatchMode(s); m {
	case MatchModeAny, MatchModeBroad, MatchModeExact:
		return m, nil
	}
	return MatchModeInvalid, fmt.Errorf("invalid match mode: %q", s)
}
