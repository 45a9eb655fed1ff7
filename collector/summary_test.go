package collector

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kova98/threadharvest/enums"
	"github.com/stretchr/testify/assert"
)

func TestSummary_Print(t *testing.T) {
	s := Summary{
		RunID:       uuid.MustParse("6f1c1f58-52f4-4e61-9b3c-4b1b2e6a9d10"),
		Mode:        enums.CollectModeSearch,
		WindowStart: t0,
		WindowEnd:   t0.Add(48 * time.Hour),
		Keywords:    6,
		Subreddits: []SubredditResult{
			{Name: "scams", Path: "data/scams_posts.json", Checked: 40, Collected: 12},
			{Name: "jobs", Path: "data/jobs_posts.json", WriteErr: errors.New("disk full")},
		},
		TotalPosts:    12,
		WriteFailures: 1,
		Elapsed:       90 * time.Second,
	}

	var buf bytes.Buffer
	s.Print(&buf)
	out := buf.String()

	assert.Contains(t, out, "SEARCH COMPLETE")
	assert.Contains(t, out, "Run: 6f1c1f58-52f4-4e61-9b3c-4b1b2e6a9d10")
	assert.Contains(t, out, "Date range: 2024-03-01 to 2024-03-03")
	assert.Contains(t, out, "data/scams_posts.json")
	assert.Contains(t, out, "not saved: disk full")
	assert.Contains(t, out, "Total posts collected: 12")
	assert.Contains(t, out, "Subreddits searched: 2")
	assert.Contains(t, out, "Keywords used: 6")
	assert.Contains(t, out, "Failures: 0 requests, 1 writes")
	assert.Contains(t, out, "Elapsed: 1m30s")
}

func TestSummary_PrintListingInterrupted(t *testing.T) {
	var buf bytes.Buffer
	Summary{Mode: enums.CollectModeListing, Cancelled: true}.Print(&buf)

	assert.Contains(t, buf.String(), "COLLECTION COMPLETE (INTERRUPTED)")
	assert.NotContains(t, buf.String(), "Keywords used")
}
