package matchers

import "strings"

var (
	// SolvedFlairs mark a thread whose flair says the question was settled.
	SolvedFlairs = []string{"solved", "resolved", "answered"}

	// EvidenceMarkers in an original poster's comment suggest they followed up
	// with a screenshot or a link.
	EvidenceMarkers = []string{"screenshot", "image", "photo", "http", "www.", "pic"}

	ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}

	LinkMarkers = []string{"http", "www."}
)

// ContainsAnyFold reports whether any needle is a case-insensitive substring
// of s.
func ContainsAnyFold(s string, needles []string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func IsSolvedFlair(flair string) bool {
	return ContainsAnyFold(flair, SolvedFlairs)
}

func HasEvidence(body string) bool {
	return ContainsAnyFold(body, EvidenceMarkers)
}

func HasImageURL(url string) bool {
	return ContainsAnyFold(url, ImageExtensions)
}

func HasLinks(text string) bool {
	return ContainsAnyFold(text, LinkMarkers)
}
