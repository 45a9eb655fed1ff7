package collector

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kova98/threadharvest/enums"
)

type SubredditResult struct {
	Name      string
	Path      string
	Checked   int
	Collected int
	WriteErr  error
}

type Summary struct {
	RunID           uuid.UUID
	Mode            enums.CollectMode
	WindowStart     time.Time
	WindowEnd       time.Time
	Keywords        int
	Subreddits      []SubredditResult
	TotalPosts      int
	RequestFailures int
	WriteFailures   int
	Cancelled       bool
	Started         time.Time
	Elapsed         time.Duration
}

// Print writes the human-readable end-of-run report.
func (s Summary) Print(w io.Writer) {
	rule := strings.Repeat("=", 50)
	title := "SEARCH COMPLETE"
	if s.Mode == enums.CollectModeListing {
		title = "COLLECTION COMPLETE"
	}
	if s.Cancelled {
		title += " (INTERRUPTED)"
	}

	fmt.Fprintf(w, "\n%s\n%s\n%s\n", rule, title, rule)
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Date range: %s to %s\n", s.WindowStart.Format(time.DateOnly), s.WindowEnd.Format(time.DateOnly))
	for _, sub := range s.Subreddits {
		status := sub.Path
		if sub.WriteErr != nil {
			status = "not saved: " + sub.WriteErr.Error()
		}
		fmt.Fprintf(w, "  r/%-20s checked %6d  collected %6d  %s\n", sub.Name, sub.Checked, sub.Collected, status)
	}
	fmt.Fprintf(w, "Total posts collected: %d\n", s.TotalPosts)
	fmt.Fprintf(w, "Subreddits searched: %d\n", len(s.Subreddits))
	if s.Mode == enums.CollectModeSearch {
		fmt.Fprintf(w, "Keywords used: %d\n", s.Keywords)
	}
	if s.RequestFailures > 0 || s.WriteFailures > 0 {
		fmt.Fprintf(w, "Failures: %d requests, %d writes\n", s.RequestFailures, s.WriteFailures)
	}
	fmt.Fprintf(w, "Elapsed: %s\n%s\n", s.Elapsed.Round(time.Second), rule)
}
