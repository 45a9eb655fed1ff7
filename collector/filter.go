package collector

import (
	"time"

	"github.com/kova98/threadharvest/enums"
	"github.com/kova98/threadharvest/matchers"
	"github.com/kova98/threadharvest/models"
)

// InRange reports whether ts lies in [start, end]. Both bounds are inclusive.
func InRange(ts, start, end time.Time) bool {
	return !ts.Before(start) && !ts.After(end)
}

// CreatedAt is the post's creation time truncated to whole seconds.
func CreatedAt(post models.RawPost) time.Time {
	return time.Unix(int64(post.CreatedUTC), 0).UTC()
}

// MatchesKeyword checks the keyword against the post title and body.
func MatchesKeyword(mode enums.MatchMode, post models.RawPost, keyword string) bool {
	return matchers.Matches(mode, post.Title+" "+post.Selftext, keyword)
}
