package models

// RawPost is a post as resolved at the API boundary. Pointer fields are the
// optional attributes: nil means the platform did not supply a value.
type RawPost struct {
	ID                string
	Subreddit         string
	Title             string
	Selftext          string
	Author            *string // nil when the account no longer exists
	CreatedUTC        float64
	Score             int
	NumComments       int
	UpvoteRatio       *float64
	URL               *string
	IsSelf            bool
	Permalink         string
	Flair             *string
	Domain            string
	Gilded            *int
	TotalAwards       int
	Distinguished     *string
	Edited            Edited
	Archived          bool
	Locked            bool
	RemovedByCategory *string
	Thumbnail         *string
}

// RawComment is a comment as resolved at the API boundary.
type RawComment struct {
	ID          string
	Author      *string // nil when the account no longer exists
	Body        *string
	Score       *int
	CreatedUTC  *float64
	IsSubmitter *bool
	ParentID    string
	Depth       *int
	Gilded      *int
}

// PostPage is one page of a listing or search. An empty After means there are
// no further pages.
type PostPage struct {
	Posts []RawPost
	After string
}
