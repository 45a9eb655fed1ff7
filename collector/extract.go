package collector

import (
	"errors"
	"log/slog"

	"github.com/kova98/threadharvest/matchers"
	"github.com/kova98/threadharvest/metrics"
	"github.com/kova98/threadharvest/models"
)

const (
	permalinkPrefix = "https://reddit.com"
	automoderator   = "AutoModerator"

	statusActive  = "active"
	statusRemoved = "removed"
	statusSolved  = "solved"
	statusUnknown = "unknown"
)

var errNoCommentTree = errors.New("comment tree unavailable")

// LanguageDetector returns an ISO 639-1 code, or "" when undetermined.
type LanguageDetector interface {
	Detect(text string) string
}

// Thread is a post's resolved comment tree. Comments holds every comment,
// not just the ones embedded in the record.
type Thread struct {
	Comments []models.RawComment
	Err      error
}

// Extractor turns raw posts and comments into output records.
type Extractor struct {
	logger   *slog.Logger
	recorder metrics.Recorder
	detector LanguageDetector
	excluded map[string]bool
	enrich   bool
}

// NewExtractor builds an extractor. detector may be nil. When enrich is set
// the engagement, outcome and content sections are computed.
func NewExtractor(logger *slog.Logger, recorder metrics.Recorder, detector LanguageDetector, excludedAuthors []string, enrich bool) *Extractor {
	return &Extractor{
		logger:   logger,
		recorder: recorder,
		detector: detector,
		excluded: excludedSet(excludedAuthors),
		enrich:   enrich,
	}
}

// excludedSet always contains AutoModerator.
func excludedSet(names []string) map[string]bool {
	set := map[string]bool{automoderator: true}
	for _, n := range names {
		set[n] = true
	}
	return set
}

// ExtractPost never fails: a derived section that cannot be computed is
// replaced by its default and the cause is logged.
func (e *Extractor) ExtractPost(post models.RawPost, keyword string, thread Thread, comments []models.CommentRecord) models.PostRecord {
	created := CreatedAt(post)
	if comments == nil {
		comments = []models.CommentRecord{}
	}

	record := models.PostRecord{
		ID:                   post.ID,
		Subreddit:            post.Subreddit,
		Title:                post.Title,
		Selftext:             post.Selftext,
		CreatedUTC:           post.CreatedUTC,
		CreatedYear:          created.Year(),
		CreatedMonth:         int(created.Month()),
		CreatedDay:           created.Day(),
		CreatedHour:          created.Hour(),
		CreatedWeekday:       created.Weekday().String(),
		Score:                post.Score,
		NumComments:          post.NumComments,
		URL:                  deref(post.URL),
		IsSelf:               post.IsSelf,
		Author:               post.Author,
		Permalink:            permalinkPrefix + post.Permalink,
		Flair:                post.Flair,
		Domain:               post.Domain,
		Gilded:               deref(post.Gilded),
		TotalAwards:          post.TotalAwards,
		Distinguished:        post.Distinguished,
		Edited:               post.Edited.Edited,
		EditedUTC:            post.Edited.EditedUTC,
		Archived:             post.Archived,
		Locked:               post.Locked,
		RemovedReason:        nonEmpty(post.RemovedByCategory),
		Thumbnail:            nonEmpty(post.Thumbnail),
		MatchedKeyword:       keyword,
		Comments:             comments,
		NumCommentsCollected: len(comments),
	}

	if !e.enrich {
		return record
	}

	engagement, err := e.engagement(post, thread)
	if err != nil {
		e.fallback("engagement", post.ID, err)
		engagement = engagementFallback(post)
	}
	record.Engagement = &engagement

	outcome, err := e.outcome(post, thread)
	if err != nil {
		e.fallback("outcome_tracking", post.ID, err)
		outcome = models.OutcomeTracking{FinalStatus: statusUnknown}
	}
	record.OutcomeTracking = &outcome

	content, err := e.content(post)
	if err != nil {
		e.fallback("content_metadata", post.ID, err)
		content = models.ContentMetadata{URL: deref(post.URL)}
	}
	record.ContentMetadata = &content

	return record
}

func (e *Extractor) fallback(section, postID string, err error) {
	e.logger.Warn("failed to extract section, using defaults", "section", section, "post_id", postID, "error", err)
	e.recorder.ExtractionFallback(section)
}

func (e *Extractor) engagement(post models.RawPost, thread Thread) (models.Engagement, error) {
	if thread.Err != nil {
		return models.Engagement{}, errors.Join(errNoCommentTree, thread.Err)
	}
	if post.UpvoteRatio == nil {
		return models.Engagement{}, &models.MissingFieldError{Object: "post", ID: post.ID, Field: "upvote_ratio"}
	}

	commenters := make(map[string]struct{})
	for _, c := range thread.Comments {
		if c.Author == nil || e.excluded[*c.Author] {
			continue
		}
		commenters[*c.Author] = struct{}{}
	}

	status := statusActive
	if post.RemovedByCategory != nil && *post.RemovedByCategory != "" {
		status = statusRemoved
	}

	return models.Engagement{
		NumComments:      post.NumComments,
		UpvoteRatio:      *post.UpvoteRatio,
		PostStatus:       status,
		UniqueCommenters: len(commenters),
		Gilded:           deref(post.Gilded),
	}, nil
}

func engagementFallback(post models.RawPost) models.Engagement {
	return models.Engagement{
		NumComments: post.NumComments,
		UpvoteRatio: deref(post.UpvoteRatio),
		PostStatus:  statusUnknown,
	}
}

func (e *Extractor) outcome(post models.RawPost, thread Thread) (models.OutcomeTracking, error) {
	if thread.Err != nil {
		return models.OutcomeTracking{}, errors.Join(errNoCommentTree, thread.Err)
	}

	opComments := 0
	opEvidence := false
	if post.Author != nil {
		for _, c := range thread.Comments {
			if c.Author == nil || *c.Author != *post.Author {
				continue
			}
			opComments++
			if !opEvidence && c.Body != nil && matchers.HasEvidence(*c.Body) {
				opEvidence = true
			}
		}
	}

	solved := post.Flair != nil && matchers.IsSolvedFlair(*post.Flair)
	status := statusUnknown
	if solved {
		status = statusSolved
	}

	return models.OutcomeTracking{
		FinalStatus:        status,
		ThreadMarkedSolved: solved,
		OPTotalComments:    opComments,
		OPEvidence:         opEvidence,
		PostEdited:         post.Edited.Edited,
		PostEditedUTC:      post.Edited.EditedUTC,
	}, nil
}

func (e *Extractor) content(post models.RawPost) (models.ContentMetadata, error) {
	if post.URL == nil {
		return models.ContentMetadata{}, &models.MissingFieldError{Object: "post", ID: post.ID, Field: "url"}
	}

	meta := models.ContentMetadata{
		URL:            *post.URL,
		ContainsImages: matchers.HasImageURL(*post.URL),
		ContainsLinks:  matchers.HasLinks(post.Selftext),
		PostLength:     len(post.Selftext),
		HasSelftext:    post.Selftext != "",
	}
	if e.detector != nil {
		meta.Language = e.detector.Detect(post.Title + "\n" + post.Selftext)
	}
	return meta, nil
}

// ExtractComment fails when a required field is missing. Callers drop the
// comment in that case.
func (e *Extractor) ExtractComment(c models.RawComment) (models.CommentRecord, error) {
	missing := func(field string) error {
		return &models.MissingFieldError{Object: "comment", ID: c.ID, Field: field}
	}
	switch {
	case c.ID == "":
		return models.CommentRecord{}, missing("id")
	case c.Body == nil:
		return models.CommentRecord{}, missing("body")
	case c.Score == nil:
		return models.CommentRecord{}, missing("score")
	case c.CreatedUTC == nil:
		return models.CommentRecord{}, missing("created_utc")
	}

	author := models.DeletedAuthor
	if c.Author != nil {
		author = *c.Author
	}

	return models.CommentRecord{
		ID:          c.ID,
		Author:      author,
		Body:        *c.Body,
		Score:       *c.Score,
		CreatedUTC:  *c.CreatedUTC,
		IsSubmitter: deref(c.IsSubmitter),
		ParentID:    c.ParentID,
		Depth:       deref(c.Depth),
		Gilded:      deref(c.Gilded),
	}, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
