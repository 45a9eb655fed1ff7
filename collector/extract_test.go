package collector

import (
	"errors"
	"testing"

	"github.com/kova98/threadharvest/metrics"
	"github.com/kova98/threadharvest/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDetector struct{ lang string }

func (d fakeDetector) Detect(string) string { return d.lang }

func newTestExtractor(enrich bool) *Extractor {
	return NewExtractor(testLogger(), metrics.Nop{}, nil, nil, enrich)
}

func TestExtractPost_BaseFields(t *testing.T) {
	post := rawPost("abc", t0)
	post.Gilded = nil
	post.Flair = ptr("Question")
	post.RemovedByCategory = ptr("")
	post.Thumbnail = ptr("")
	post.Edited = models.Edited{Edited: true, EditedUTC: 1709300000}

	comments := []models.CommentRecord{{ID: "c1"}, {ID: "c2"}}
	record := newTestExtractor(false).ExtractPost(post, "is this a scam", Thread{}, comments)

	assert.Equal(t, "abc", record.ID)
	assert.Equal(t, 2024, record.CreatedYear)
	assert.Equal(t, 3, record.CreatedMonth)
	assert.Equal(t, 1, record.CreatedDay)
	assert.Equal(t, 12, record.CreatedHour)
	assert.Equal(t, "Friday", record.CreatedWeekday)
	assert.Equal(t, "https://reddit.com/r/scams/comments/abc/title/", record.Permalink)
	assert.Equal(t, "op_abc", *record.Author)
	assert.Equal(t, 0, record.Gilded)
	assert.Equal(t, "Question", *record.Flair)
	assert.Nil(t, record.RemovedReason)
	assert.Nil(t, record.Thumbnail)
	assert.True(t, record.Edited)
	assert.Equal(t, 1709300000.0, record.EditedUTC)
	assert.Equal(t, "is this a scam", record.MatchedKeyword)
	assert.Equal(t, 2, record.NumCommentsCollected)
	assert.Len(t, record.Comments, record.NumCommentsCollected)

	assert.Nil(t, record.Engagement)
	assert.Nil(t, record.OutcomeTracking)
	assert.Nil(t, record.ContentMetadata)
}

func TestExtractPost_NullAuthor(t *testing.T) {
	post := rawPost("abc", t0)
	post.Author = nil

	record := newTestExtractor(true).ExtractPost(post, "", Thread{}, nil)

	assert.Nil(t, record.Author)
	assert.NotNil(t, record.Comments)
	assert.Equal(t, 0, record.NumCommentsCollected)
	assert.Equal(t, 0, record.OutcomeTracking.OPTotalComments)
}

func TestExtractPost_Engagement(t *testing.T) {
	post := rawPost("abc", t0)
	post.Gilded = ptr(3)
	post.RemovedByCategory = ptr("moderator")
	thread := Thread{Comments: []models.RawComment{
		rawComment("c1", "alice"),
		rawComment("c2", "alice"),
		rawComment("c3", "bob"),
		rawComment("c4", ""),
		rawComment("c5", "AutoModerator"),
	}}

	record := newTestExtractor(true).ExtractPost(post, "", thread, nil)

	require.NotNil(t, record.Engagement)
	assert.Equal(t, models.Engagement{
		NumComments:      2,
		UpvoteRatio:      0.9,
		PostStatus:       "removed",
		UniqueCommenters: 2,
		Gilded:           3,
	}, *record.Engagement)
}

func TestExtractPost_Outcome(t *testing.T) {
	post := rawPost("abc", t0)
	post.Flair = ptr("SOLVED - it was a scam")
	post.Edited = models.Edited{Edited: true, EditedUTC: 1709301234}

	reply := rawComment("c2", "op_abc")
	reply.Body = ptr("Here is the Screenshot they sent")
	thread := Thread{Comments: []models.RawComment{
		rawComment("c1", "op_abc"),
		reply,
		rawComment("c3", "someone"),
	}}

	record := newTestExtractor(true).ExtractPost(post, "", thread, nil)

	require.NotNil(t, record.OutcomeTracking)
	assert.Equal(t, models.OutcomeTracking{
		FinalStatus:        "solved",
		ThreadMarkedSolved: true,
		OPTotalComments:    2,
		OPEvidence:         true,
		PostEdited:         true,
		PostEditedUTC:      1709301234,
	}, *record.OutcomeTracking)
}

func TestExtractPost_OutcomeWithoutEvidence(t *testing.T) {
	post := rawPost("abc", t0)
	thread := Thread{Comments: []models.RawComment{rawComment("c1", "op_abc")}}

	record := newTestExtractor(true).ExtractPost(post, "", thread, nil)

	assert.Equal(t, "unknown", record.OutcomeTracking.FinalStatus)
	assert.False(t, record.OutcomeTracking.ThreadMarkedSolved)
	assert.False(t, record.OutcomeTracking.OPEvidence)
	assert.Equal(t, 1, record.OutcomeTracking.OPTotalComments)
}

func TestExtractPost_ContentImages(t *testing.T) {
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".JPG", ".PNG"} {
		post := rawPost("abc", t0)
		post.URL = ptr("https://i.redd.it/evidence" + ext)
		record := newTestExtractor(true).ExtractPost(post, "", Thread{}, nil)
		assert.True(t, record.ContentMetadata.ContainsImages, ext)
	}

	post := rawPost("abc", t0)
	post.URL = ptr("https://v.redd.it/clip.mp4")
	record := newTestExtractor(true).ExtractPost(post, "", Thread{}, nil)
	assert.False(t, record.ContentMetadata.ContainsImages)
}

func TestExtractPost_ContentText(t *testing.T) {
	post := rawPost("abc", t0)
	post.Selftext = "They sent me to WWW.example.com"

	record := newTestExtractor(true).ExtractPost(post, "", Thread{}, nil)

	assert.True(t, record.ContentMetadata.ContainsLinks)
	assert.True(t, record.ContentMetadata.HasSelftext)
	assert.Equal(t, len(post.Selftext), record.ContentMetadata.PostLength)
	assert.Empty(t, record.ContentMetadata.Language)

	post.Selftext = ""
	record = newTestExtractor(true).ExtractPost(post, "", Thread{}, nil)
	assert.False(t, record.ContentMetadata.ContainsLinks)
	assert.False(t, record.ContentMetadata.HasSelftext)
	assert.Equal(t, 0, record.ContentMetadata.PostLength)
}

func TestExtractPost_Language(t *testing.T) {
	e := NewExtractor(testLogger(), metrics.Nop{}, fakeDetector{lang: "es"}, nil, true)

	record := e.ExtractPost(rawPost("abc", t0), "", Thread{}, nil)

	assert.Equal(t, "es", record.ContentMetadata.Language)
}

func TestExtractPost_SectionFallbacks(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := metrics.NewCollector(reg)
	e := NewExtractor(testLogger(), recorder, nil, nil, true)

	post := rawPost("abc", t0)
	post.URL = nil
	post.Flair = ptr("solved")
	record := e.ExtractPost(post, "", Thread{Err: errors.New("404")}, nil)

	assert.Equal(t, models.Engagement{NumComments: 2, UpvoteRatio: 0.9, PostStatus: "unknown"}, *record.Engagement)
	assert.Equal(t, models.OutcomeTracking{FinalStatus: "unknown"}, *record.OutcomeTracking)
	assert.Equal(t, models.ContentMetadata{}, *record.ContentMetadata)
	assert.Equal(t, "abc", record.ID, "base fields survive section failures")

	count, err := testutil.GatherAndCount(reg, "threadharvest_extraction_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "one series per section")
}

func TestExtractPost_MissingUpvoteRatio(t *testing.T) {
	post := rawPost("abc", t0)
	post.UpvoteRatio = nil

	record := newTestExtractor(true).ExtractPost(post, "", Thread{}, nil)

	assert.Equal(t, "unknown", record.Engagement.PostStatus)
	assert.Equal(t, 0.0, record.Engagement.UpvoteRatio)
	assert.Equal(t, "unknown", record.OutcomeTracking.FinalStatus)
	assert.Equal(t, *post.URL, record.ContentMetadata.URL)
}

func TestExtractComment(t *testing.T) {
	e := newTestExtractor(true)
	c := rawComment("c1", "alice")
	c.Depth = nil
	c.Gilded = nil
	c.IsSubmitter = ptr(true)

	record, err := e.ExtractComment(c)
	require.NoError(t, err)
	assert.Equal(t, models.CommentRecord{
		ID:          "c1",
		Author:      "alice",
		Body:        "reply c1",
		Score:       1,
		CreatedUTC:  float64(t0.Unix()),
		IsSubmitter: true,
		ParentID:    "t3_p",
	}, record)
}

func TestExtractComment_DeletedAuthor(t *testing.T) {
	record, err := newTestExtractor(true).ExtractComment(rawComment("c1", ""))
	require.NoError(t, err)
	assert.Equal(t, models.DeletedAuthor, record.Author)
	assert.False(t, record.IsSubmitter)
}

func TestExtractComment_SubmitterUnknown(t *testing.T) {
	c := rawComment("c1", "alice")
	c.IsSubmitter = nil

	record, err := newTestExtractor(true).ExtractComment(c)
	require.NoError(t, err)
	assert.False(t, record.IsSubmitter)
}

func TestExtractComment_MissingField(t *testing.T) {
	c := rawComment("c1", "alice")
	c.Body = nil

	_, err := newTestExtractor(true).ExtractComment(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrMissingField)

	var missing *models.MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "body", missing.Field)
}
