package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	KindComment = "t1"
	KindPost    = "t3"
	KindListing = "Listing"
	KindMore    = "more"
)

type RedditListing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string        `json:"after"`
		Children []RedditThing `json:"children"`
	} `json:"data"`
}

// RedditThing is one child of a listing. Data is decoded according to Kind.
type RedditThing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type RedditPost struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Subreddit           string   `json:"subreddit"`
	Title               string   `json:"title"`
	Selftext            string   `json:"selftext"`
	Author              string   `json:"author"`
	CreatedUTC          float64  `json:"created_utc"`
	Score               int      `json:"score"`
	NumComments         int      `json:"num_comments"`
	UpvoteRatio         *float64 `json:"upvote_ratio"`
	URL                 *string  `json:"url"`
	IsSelf              bool     `json:"is_self"`
	Permalink           string   `json:"permalink"`
	LinkFlairText       *string  `json:"link_flair_text"`
	Domain              string   `json:"domain"`
	Gilded              *int     `json:"gilded"`
	TotalAwardsReceived int      `json:"total_awards_received"`
	Distinguished       *string  `json:"distinguished"`
	Edited              Edited   `json:"edited"`
	Archived            bool     `json:"archived"`
	Locked              bool     `json:"locked"`
	RemovedByCategory   *string  `json:"removed_by_category"`
	Thumbnail           *string  `json:"thumbnail"`
}

type RedditComment struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Author      string          `json:"author"`
	Body        *string         `json:"body"`
	Score       *int            `json:"score"`
	CreatedUTC  *float64        `json:"created_utc"`
	IsSubmitter *bool           `json:"is_submitter"`
	ParentID    string          `json:"parent_id"`
	LinkID      string          `json:"link_id"`
	Depth       *int            `json:"depth"`
	Gilded      *int            `json:"gilded"`
	Replies     json.RawMessage `json:"replies"`
}

// RedditMore is a "load more comments" placeholder. An empty Children list
// marks a "continue this thread" link that can only be followed through the
// parent comment's permalink.
type RedditMore struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	ParentID string   `json:"parent_id"`
	Count    int      `json:"count"`
	Depth    int      `json:"depth"`
	Children []string `json:"children"`
}

type MoreChildrenResponse struct {
	JSON struct {
		Errors []json.RawMessage `json:"errors"`
		Data   struct {
			Things []RedditThing `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// Edited decodes the platform's edited attribute, which is either false or the
// epoch seconds of the last edit.
type Edited struct {
	Edited    bool
	EditedUTC float64
}

func (e *Edited) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "", "null", "false":
		*e = Edited{}
		return nil
	case "true":
		*e = Edited{Edited: true}
		return nil
	}

	ts, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("edited: unexpected value %s", b)
	}
	*e = Edited{Edited: true, EditedUTC: ts}
	return nil
}
