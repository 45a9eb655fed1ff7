package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kova98/threadharvest/enums"
	"github.com/kova98/threadharvest/metrics"
	"github.com/kova98/threadharvest/models"
)

var (
	_ Source = (*fakeSource)(nil)
	_ Sink   = (*fakeSink)(nil)
)

type call struct {
	subreddit string
	query     string
	after     string
	limit     int
}

type fakeSource struct {
	listings    map[string][]models.RawPost
	searches    map[string]map[string][]models.RawPost
	listingErrs map[string]error
	searchErrs  map[string]error
	trees       map[string][]models.RawComment
	treeErrs    map[string]error

	listingCalls []call
	searchCalls  []call
	treeCalls    []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		listings:    make(map[string][]models.RawPost),
		searches:    make(map[string]map[string][]models.RawPost),
		listingErrs: make(map[string]error),
		searchErrs:  make(map[string]error),
		trees:       make(map[string][]models.RawComment),
		treeErrs:    make(map[string]error),
	}
}

func (f *fakeSource) addSearch(subreddit, keyword string, posts ...models.RawPost) {
	if f.searches[subreddit] == nil {
		f.searches[subreddit] = make(map[string][]models.RawPost)
	}
	f.searches[subreddit][keyword] = posts
}

// paginate uses the offset as the after cursor.
func paginate(posts []models.RawPost, after string, limit int) models.PostPage {
	start, _ := strconv.Atoi(after)
	end := min(start+limit, len(posts))
	if start > end {
		start = end
	}
	page := models.PostPage{Posts: posts[start:end]}
	if end < len(posts) {
		page.After = strconv.Itoa(end)
	}
	return page
}

func (f *fakeSource) Listing(ctx context.Context, subreddit string, _ enums.ListingSort, after string, limit int) (models.PostPage, error) {
	f.listingCalls = append(f.listingCalls, call{subreddit: subreddit, after: after, limit: limit})
	if err := ctx.Err(); err != nil {
		return models.PostPage{}, err
	}
	if err := f.listingErrs[subreddit]; err != nil {
		return models.PostPage{}, err
	}
	return paginate(f.listings[subreddit], after, limit), nil
}

func (f *fakeSource) Search(ctx context.Context, subreddit, query, _ string, _ enums.TimeFilter, after string, limit int) (models.PostPage, error) {
	f.searchCalls = append(f.searchCalls, call{subreddit: subreddit, query: query, after: after, limit: limit})
	if err := ctx.Err(); err != nil {
		return models.PostPage{}, err
	}
	if err := f.searchErrs[subreddit+"/"+query]; err != nil {
		return models.PostPage{}, err
	}
	return paginate(f.searches[subreddit][query], after, limit), nil
}

func (f *fakeSource) CommentTree(_ context.Context, post models.RawPost) ([]models.RawComment, error) {
	f.treeCalls = append(f.treeCalls, post.ID)
	if err := f.treeErrs[post.ID]; err != nil {
		return nil, err
	}
	return f.trees[post.ID], nil
}

type fakeSink struct {
	dir     string
	written map[string][][]models.PostRecord
	failing map[string]bool
	order   []string
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		dir:     "data",
		written: make(map[string][][]models.PostRecord),
		failing: make(map[string]bool),
	}
}

func (s *fakeSink) Path(subreddit string) string {
	return filepath.Join(s.dir, subreddit+"_posts.json")
}

func (s *fakeSink) Write(path string, records []models.PostRecord) error {
	s.order = append(s.order, path)
	if s.failing[path] {
		return errors.New("disk full")
	}
	s.written[path] = append(s.written[path], records)
	return nil
}

func (s *fakeSink) ids(subreddit string) []string {
	var ids []string
	for _, batch := range s.written[s.Path(subreddit)] {
		for _, r := range batch {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T {
	return &v
}

var t0 = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func rawPost(id string, created time.Time) models.RawPost {
	return models.RawPost{
		ID:          id,
		Subreddit:   "scams",
		Title:       "title " + id,
		Selftext:    "is this a scam? they want gift cards",
		Author:      ptr("op_" + id),
		CreatedUTC:  float64(created.Unix()),
		NumComments: 2,
		UpvoteRatio: ptr(0.9),
		URL:         ptr("https://www.reddit.com/r/scams/comments/" + id),
		IsSelf:      true,
		Permalink:   "/r/scams/comments/" + id + "/title/",
	}
}

func rawComment(id, author string) models.RawComment {
	c := models.RawComment{
		ID:         id,
		Body:       ptr("reply " + id),
		Score:      ptr(1),
		CreatedUTC: ptr(float64(t0.Unix())),
		ParentID:   "t3_p",
		Depth:      ptr(0),
	}
	if author != "" {
		c.Author = ptr(author)
	}
	return c
}

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func newTestCollector(source *fakeSource, sink *fakeSink, opts Options) (*Collector, *sleepRecorder) {
	logger := testLogger()
	extractor := NewExtractor(logger, metrics.Nop{}, nil, nil, true)
	comments := NewCommentCollector(logger, source, extractor, metrics.Nop{}, nil, 50)
	c := NewCollector(logger, source, sink, comments, extractor, metrics.Nop{}, opts)
	sleeper := &sleepRecorder{}
	c.sleep = sleeper.sleep
	return c, sleeper
}
