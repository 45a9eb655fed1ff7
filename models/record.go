package models

const DeletedAuthor = "[deleted]"

// PostRecord is the flat record written to the output files.
type PostRecord struct {
	ID             string   `json:"id"`
	Subreddit      string   `json:"subreddit"`
	Title          string   `json:"title"`
	Selftext       string   `json:"selftext"`
	CreatedUTC     float64  `json:"created_utc"`
	CreatedYear    int      `json:"created_year"`
	CreatedMonth   int      `json:"created_month"`
	CreatedDay     int      `json:"created_day"`
	CreatedHour    int      `json:"created_hour"`
	CreatedWeekday string   `json:"created_weekday"`
	Score          int      `json:"score"`
	NumComments    int      `json:"num_comments"`
	URL            string   `json:"url"`
	IsSelf         bool     `json:"is_self"`
	Author         *string  `json:"author"`
	Permalink      string   `json:"permalink"`
	Flair          *string  `json:"flair"`
	Domain         string   `json:"domain"`
	Gilded         int      `json:"gilded"`
	TotalAwards    int      `json:"total_awards"`
	Distinguished  *string  `json:"distinguished"`
	Edited         bool     `json:"edited"`
	EditedUTC      float64  `json:"edited_utc"`
	Archived       bool     `json:"archived"`
	Locked         bool     `json:"locked"`
	RemovedReason  *string  `json:"removed_reason"`
	Thumbnail      *string  `json:"thumbnail"`
	MatchedKeyword string   `json:"matched_keyword,omitempty"`

	Engagement      *Engagement      `json:"engagement,omitempty"`
	OutcomeTracking *OutcomeTracking `json:"outcome_tracking,omitempty"`
	ContentMetadata *ContentMetadata `json:"content_metadata,omitempty"`

	Comments             []CommentRecord `json:"comments"`
	NumCommentsCollected int             `json:"num_comments_collected"`
}

type CommentRecord struct {
	ID          string  `json:"id"`
	Author      string  `json:"author"`
	Body        string  `json:"body"`
	Score       int     `json:"score"`
	CreatedUTC  float64 `json:"created_utc"`
	IsSubmitter bool    `json:"is_submitter"`
	ParentID    string  `json:"parent_id"`
	Depth       int     `json:"depth"`
	Gilded      int     `json:"gilded"`
}

type Engagement struct {
	NumComments      int     `json:"num_comments"`
	UpvoteRatio      float64 `json:"upvote_ratio"`
	PostStatus       string  `json:"post_status"`
	UniqueCommenters int     `json:"unique_commenters"`
	Gilded           int     `json:"gilded"`
}

type OutcomeTracking struct {
	FinalStatus        string  `json:"final_status"`
	ThreadMarkedSolved bool    `json:"thread_marked_solved"`
	OPTotalComments    int     `json:"op_total_comments"`
	OPEvidence         bool    `json:"op_evidence"`
	PostEdited         bool    `json:"post_edited"`
	PostEditedUTC      float64 `json:"post_edited_utc"`
}

type ContentMetadata struct {
	URL            string `json:"url"`
	ContainsImages bool   `json:"contains_images"`
	ContainsLinks  bool   `json:"contains_links"`
	PostLength     int    `json:"post_length"`
	HasSelftext    bool   `json:"has_selftext"`
	Language       string `json:"language,omitempty"`
}
