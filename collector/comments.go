package collector

import (
	"context"
	"log/slog"

	"github.com/kova98/threadharvest/metrics"
	"github.com/kova98/threadharvest/models"
	"github.com/kova98/threadharvest/sources"
)

type CommentSource interface {
	CommentTree(ctx context.Context, post models.RawPost) ([]models.RawComment, error)
}

// CommentCollector resolves a post's comments and turns them into records.
type CommentCollector struct {
	logger      *slog.Logger
	source      CommentSource
	extractor   *Extractor
	recorder    metrics.Recorder
	excluded    map[string]bool
	maxComments int
}

// NewCommentCollector builds a collector. maxComments <= 0 keeps every comment.
func NewCommentCollector(logger *slog.Logger, source CommentSource, extractor *Extractor, recorder metrics.Recorder, excludedAuthors []string, maxComments int) *CommentCollector {
	return &CommentCollector{
		logger:      logger,
		source:      source,
		extractor:   extractor,
		recorder:    recorder,
		excluded:    excludedSet(excludedAuthors),
		maxComments: maxComments,
	}
}

// Collect returns the comment records to embed in the post, in traversal
// order, along with the full thread. Excluded authors are dropped before the
// list is truncated. A failure to resolve the tree yields no comments.
func (cc *CommentCollector) Collect(ctx context.Context, post models.RawPost) ([]models.CommentRecord, Thread) {
	tree, err := cc.source.CommentTree(ctx, post)
	if err != nil {
		cc.logger.Warn("failed to collect comments", "post_id", post.ID, "error", sources.TruncateError(err))
		cc.recorder.RequestFailed("comments")
		return []models.CommentRecord{}, Thread{Err: err}
	}

	kept := make([]models.RawComment, 0, len(tree))
	for _, c := range tree {
		if c.Author != nil && cc.excluded[*c.Author] {
			continue
		}
		kept = append(kept, c)
	}
	if cc.maxComments > 0 && len(kept) > cc.maxComments {
		kept = kept[:cc.maxComments]
	}

	records := make([]models.CommentRecord, 0, len(kept))
	for _, c := range kept {
		record, err := cc.extractor.ExtractComment(c)
		if err != nil {
			cc.logger.Warn("failed to extract comment", "post_id", post.ID, "comment_id", c.ID, "error", err)
			continue
		}
		records = append(records, record)
	}

	cc.recorder.CommentsCollected(len(records))
	return records, Thread{Comments: tree}
}
