// Package collector gathers posts from subreddit listings or keyword searches
// and hands one batch of records per subreddit to a sink.
package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kova98/threadharvest/enums"
	"github.com/kova98/threadharvest/metrics"
	"github.com/kova98/threadharvest/models"
	"github.com/kova98/threadharvest/seen"
	"github.com/kova98/threadharvest/sources"
)

const (
	pageSize         = 100
	progressInterval = 100
)

// Source is the API the collector reads from. Listing and Search return one
// page at a time; an empty After ends the traversal.
type Source interface {
	CommentSource
	Listing(ctx context.Context, subreddit string, sort enums.ListingSort, after string, limit int) (models.PostPage, error)
	Search(ctx context.Context, subreddit, query, sort string, timeFilter enums.TimeFilter, after string, limit int) (models.PostPage, error)
}

type Sink interface {
	Path(subreddit string) string
	Write(path string, records []models.PostRecord) error
}

type Options struct {
	Mode             enums.CollectMode
	Subreddits       []string
	Keywords         []string
	ListingSort      enums.ListingSort
	SearchSort       string
	SearchTimeFilter enums.TimeFilter
	WindowStart      time.Time
	WindowEnd        time.Time
	MaxPosts         int // per listing, or per keyword search
	KeywordDelay     time.Duration
	SubredditDelay   time.Duration
	KeywordMatchMode enums.MatchMode
}

type Collector struct {
	logger   *slog.Logger
	source   Source
	sink     Sink
	comments *CommentCollector
	extract  *Extractor
	recorder metrics.Recorder
	opts     Options
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewCollector(logger *slog.Logger, source Source, sink Sink, comments *CommentCollector, extractor *Extractor, recorder metrics.Recorder, opts Options) *Collector {
	return &Collector{
		logger:   logger,
		source:   source,
		sink:     sink,
		comments: comments,
		extract:  extractor,
		recorder: recorder,
		opts:     opts,
		sleep:    sleepContext,
	}
}

// run is the state of one collection run.
type run struct {
	id      uuid.UUID
	logger  *slog.Logger
	seen    seen.Set
	summary *Summary
}

// batch accumulates one subreddit's records until they are written.
type batch struct {
	subreddit string
	records   []models.PostRecord
	checked   int
	inRange   int
}

// Run collects every configured subreddit in order. Failures are logged and
// counted in the summary; only cancellation of ctx stops the run early, after
// the current subreddit's records have been written.
func (c *Collector) Run(ctx context.Context, runID uuid.UUID, seenSet seen.Set) Summary {
	r := &run{
		id:     runID,
		logger: c.logger.With("run_id", runID.String()),
		seen:   seenSet,
		summary: &Summary{
			RunID:       runID,
			Mode:        c.opts.Mode,
			WindowStart: c.opts.WindowStart,
			WindowEnd:   c.opts.WindowEnd,
			Keywords:    len(c.opts.Keywords),
			Started:     time.Now(),
		},
	}

	r.logger.Info("starting collection",
		"mode", c.opts.Mode,
		"subreddits", c.opts.Subreddits,
		"keywords", len(c.opts.Keywords),
		"start", c.opts.WindowStart.Format(time.DateOnly),
		"end", c.opts.WindowEnd.Format(time.DateOnly))

	for i, subreddit := range c.opts.Subreddits {
		if ctx.Err() != nil {
			break
		}

		b := &batch{subreddit: subreddit}
		if c.opts.Mode == enums.CollectModeListing {
			c.collectListing(ctx, r, b)
		} else {
			c.collectSearch(ctx, r, b)
		}
		c.flush(ctx, r, b)

		if i < len(c.opts.Subreddits)-1 {
			if err := c.sleep(ctx, c.opts.SubredditDelay); err != nil {
				break
			}
		}
	}

	r.summary.Cancelled = ctx.Err() != nil
	r.summary.Elapsed = time.Since(r.summary.Started)
	r.logger.Info("collection finished",
		"total_posts", r.summary.TotalPosts,
		"request_failures", r.summary.RequestFailures,
		"write_failures", r.summary.WriteFailures,
		"cancelled", r.summary.Cancelled)

	return *r.summary
}

func (c *Collector) collectListing(ctx context.Context, r *run, b *batch) {
	logger := r.logger.With("subreddit", b.subreddit, "sort", c.opts.ListingSort)
	logger.Info("gathering listing")

	after := ""
	for b.checked < c.opts.MaxPosts {
		page, err := c.source.Listing(ctx, b.subreddit, c.opts.ListingSort, after, min(pageSize, c.opts.MaxPosts-b.checked))
		if err != nil {
			c.requestFailed(ctx, r, logger, "listing", err)
			break
		}

		done := false
		for _, post := range page.Posts {
			b.checked++
			created := CreatedAt(post)

			if InRange(created, c.opts.WindowStart, c.opts.WindowEnd) {
				c.collectPost(ctx, r, b, post, c.opts.Mode.Variant())
				if b.inRange > 0 && b.inRange%progressInterval == 0 {
					logger.Info("collected posts so far", "count", b.inRange)
				}
			} else if c.opts.ListingSort.Chronological() && created.Before(c.opts.WindowStart) {
				logger.Info("reached posts before start date, stopping")
				done = true
			}

			if done || b.checked >= c.opts.MaxPosts || ctx.Err() != nil {
				done = true
				break
			}
		}

		if done || page.After == "" || len(page.Posts) == 0 {
			break
		}
		after = page.After
	}

	logger.Info("listing gathered", "posts_checked", b.checked, "posts_in_range", b.inRange, "posts_collected", len(b.records))
}

func (c *Collector) collectSearch(ctx context.Context, r *run, b *batch) {
	logger := r.logger.With("subreddit", b.subreddit)
	logger.Info("searching subreddit")

	for _, keyword := range c.opts.Keywords {
		if ctx.Err() != nil {
			return
		}

		before := len(b.records)
		c.searchKeyword(ctx, r, b, keyword)
		logger.Info("keyword searched", "keyword", keyword, "new_posts", len(b.records)-before)

		if err := c.sleep(ctx, c.opts.KeywordDelay); err != nil {
			return
		}
	}
}

func (c *Collector) searchKeyword(ctx context.Context, r *run, b *batch, keyword string) {
	logger := r.logger.With("subreddit", b.subreddit, "keyword", keyword)

	checked := 0
	after := ""
	for checked < c.opts.MaxPosts {
		page, err := c.source.Search(ctx, b.subreddit, keyword, c.opts.SearchSort, c.opts.SearchTimeFilter, after, min(pageSize, c.opts.MaxPosts-checked))
		if err != nil {
			c.requestFailed(ctx, r, logger, "search", err)
			return
		}

		for _, post := range page.Posts {
			checked++
			b.checked++

			if !InRange(CreatedAt(post), c.opts.WindowStart, c.opts.WindowEnd) {
				c.recorder.PostSkipped(b.subreddit, "out_of_range")
			} else if !MatchesKeyword(c.opts.KeywordMatchMode, post, keyword) {
				c.recorder.PostSkipped(b.subreddit, "keyword_mismatch")
			} else {
				c.collectPost(ctx, r, b, post, keyword)
			}

			if checked >= c.opts.MaxPosts || ctx.Err() != nil {
				return
			}
		}

		if page.After == "" || len(page.Posts) == 0 {
			return
		}
		after = page.After
	}
}

// collectPost records the post unless this run, or a previous one that saved
// it when a persistent store is configured, has already seen it.
func (c *Collector) collectPost(ctx context.Context, r *run, b *batch, post models.RawPost, keyword string) {
	b.inRange++

	added, err := r.seen.Add(ctx, post.ID)
	if err != nil {
		r.logger.Warn("failed to check seen posts", "post_id", post.ID, "error", err)
		added = true
	}
	if !added {
		c.recorder.PostSkipped(b.subreddit, "duplicate")
		return
	}

	comments, thread := c.comments.Collect(ctx, post)
	b.records = append(b.records, c.extract.ExtractPost(post, keyword, thread, comments))
	c.recorder.PostCollected(b.subreddit)
}

func (c *Collector) requestFailed(ctx context.Context, r *run, logger *slog.Logger, kind string, err error) {
	if ctx.Err() != nil {
		logger.Info("request cancelled", "kind", kind)
		return
	}
	logger.Error("request failed", "kind", kind, "error", sources.TruncateError(err))
	c.recorder.RequestFailed(kind)
	r.summary.RequestFailures++
}

// flush writes the subreddit's batch and commits its posts to the seen set.
// A failed write is logged and the run continues with the next subreddit;
// its posts stay uncommitted.
func (c *Collector) flush(ctx context.Context, r *run, b *batch) {
	path := c.sink.Path(b.subreddit)
	result := SubredditResult{
		Name:      b.subreddit,
		Path:      path,
		Checked:   b.checked,
		Collected: len(b.records),
	}

	if err := c.sink.Write(path, b.records); err != nil {
		r.logger.Error("failed to save records", "subreddit", b.subreddit, "path", path, "error", err)
		c.recorder.BatchWriteFailed(b.subreddit)
		r.summary.WriteFailures++
		result.WriteErr = err
	} else {
		c.recorder.BatchWritten(b.subreddit, len(b.records))
		c.commit(ctx, r, b)
	}

	r.summary.Subreddits = append(r.summary.Subreddits, result)
	r.summary.TotalPosts += len(b.records)
}

// commit runs even after cancellation so the batch just saved is remembered.
func (c *Collector) commit(ctx context.Context, r *run, b *batch) {
	ids := make([]string, len(b.records))
	for i, record := range b.records {
		ids[i] = record.ID
	}
	if err := r.seen.Commit(context.WithoutCancel(ctx), ids); err != nil {
		r.logger.Warn("failed to commit seen posts", "subreddit", b.subreddit, "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
