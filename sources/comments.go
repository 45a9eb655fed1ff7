package sources

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/kova98/threadharvest/models"
	"github.com/pkg/errors"
)

const moreChildrenBatch = 100

type commentNode struct {
	comment  models.RedditComment
	children []*commentNode
}

// commentTree accumulates a post's comments while placeholders are expanded.
type commentTree struct {
	postName  string
	roots     []*commentNode
	byName    map[string]*commentNode
	pending   []models.RedditMore
	requested map[string]bool
	continued map[string]bool
}

func newCommentTree(postID string) *commentTree {
	return &commentTree{
		postName:  models.KindPost + "_" + postID,
		byName:    make(map[string]*commentNode),
		requested: make(map[string]bool),
		continued: make(map[string]bool),
	}
}

func (t *commentTree) attach(node *commentNode, parentName string) {
	if _, dup := t.byName[node.comment.Name]; dup {
		return
	}
	t.byName[node.comment.Name] = node

	if parent, ok := t.byName[parentName]; ok {
		parent.children = append(parent.children, node)
		return
	}
	t.roots = append(t.roots, node)
}

// add walks listing children, including nested replies, into the tree.
// Placeholders are queued for expansion.
func (t *commentTree) add(children []models.RedditThing) error {
	for _, child := range children {
		switch child.Kind {
		case models.KindComment:
			var comment models.RedditComment
			if err := json.Unmarshal(child.Data, &comment); err != nil {
				return errors.Wrap(err, "decode comment")
			}
			if comment.Name == "" {
				comment.Name = models.KindComment + "_" + comment.ID
			}
			t.attach(&commentNode{comment: comment}, comment.ParentID)

			replies, err := decodeReplies(comment.Replies)
			if err != nil {
				return errors.Wrapf(err, "decode replies of %s", comment.ID)
			}
			if err := t.add(replies); err != nil {
				return err
			}
		case models.KindMore:
			var more models.RedditMore
			if err := json.Unmarshal(child.Data, &more); err != nil {
				return errors.Wrap(err, "decode more placeholder")
			}
			t.pending = append(t.pending, more)
		}
	}
	return nil
}

// decodeReplies handles the replies attribute, which is an empty string when
// a comment has none.
func decodeReplies(raw json.RawMessage) ([]models.RedditThing, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == `""` || trimmed == "null" {
		return nil, nil
	}
	var listing models.RedditListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, err
	}
	return listing.Data.Children, nil
}

// flatten returns the comments breadth first: parents before replies,
// siblings in API order.
func (t *commentTree) flatten(post models.RawPost) []models.RawComment {
	type queued struct {
		node  *commentNode
		depth int
	}

	out := make([]models.RawComment, 0, len(t.byName))
	queue := make([]queued, 0, len(t.roots))
	for _, root := range t.roots {
		queue = append(queue, queued{root, 0})
	}

	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		out = append(out, toRawComment(q.node.comment, q.depth, post))
		for _, child := range q.node.children {
			queue = append(queue, queued{child, q.depth + 1})
		}
	}
	return out
}

func toRawComment(c models.RedditComment, depth int, post models.RawPost) models.RawComment {
	author := authorOrNil(c.Author)
	isSubmitter := c.IsSubmitter
	if isSubmitter == nil && author != nil && post.Author != nil {
		v := *author == *post.Author
		isSubmitter = &v
	}

	return models.RawComment{
		ID:          c.ID,
		Author:      author,
		Body:        c.Body,
		Score:       c.Score,
		CreatedUTC:  c.CreatedUTC,
		IsSubmitter: isSubmitter,
		ParentID:    c.ParentID,
		Depth:       &depth,
		Gilded:      c.Gilded,
	}
}

// CommentTree resolves the complete comment tree of a post. Every "load more"
// placeholder is expanded, with no depth limit, and the result is flattened
// breadth first.
func (c *RedditClient) CommentTree(ctx context.Context, post models.RawPost) ([]models.RawComment, error) {
	tree := newCommentTree(post.ID)

	children, err := c.fetchThread(ctx, post.ID, "")
	if err != nil {
		return nil, err
	}
	if err := tree.add(children); err != nil {
		return nil, errors.Wrapf(err, "comments of %s", post.ID)
	}

	for len(tree.pending) > 0 {
		more := tree.pending[0]
		tree.pending = tree.pending[1:]

		if len(more.Children) == 0 {
			if err := c.continueThread(ctx, tree, post.ID, more); err != nil {
				return nil, err
			}
			continue
		}

		ids := make([]string, 0, len(more.Children))
		for _, id := range more.Children {
			if !tree.requested[id] {
				tree.requested[id] = true
				ids = append(ids, id)
			}
		}

		for start := 0; start < len(ids); start += moreChildrenBatch {
			end := min(start+moreChildrenBatch, len(ids))
			things, err := c.moreChildren(ctx, tree.postName, ids[start:end])
			if err != nil {
				return nil, err
			}
			if err := tree.add(things); err != nil {
				return nil, errors.Wrapf(err, "comments of %s", post.ID)
			}
		}
	}

	return tree.flatten(post), nil
}

// continueThread follows a "continue this thread" link by loading the
// parent comment's own thread and grafting its replies onto the tree.
func (c *RedditClient) continueThread(ctx context.Context, tree *commentTree, postID string, more models.RedditMore) error {
	parentID, ok := strings.CutPrefix(more.ParentID, models.KindComment+"_")
	if !ok || tree.continued[parentID] {
		return nil
	}
	tree.continued[parentID] = true

	children, err := c.fetchThread(ctx, postID, parentID)
	if err != nil {
		return err
	}

	for _, child := range children {
		if child.Kind != models.KindComment {
			continue
		}
		var focus models.RedditComment
		if err := json.Unmarshal(child.Data, &focus); err != nil {
			return errors.Wrap(err, "decode continued comment")
		}
		if focus.ID != parentID {
			continue
		}
		replies, err := decodeReplies(focus.Replies)
		if err != nil {
			return errors.Wrapf(err, "decode replies of %s", focus.ID)
		}
		return tree.add(replies)
	}
	return nil
}

// fetchThread loads the comment listing of a post, or of one comment's
// thread when focus is set.
func (c *RedditClient) fetchThread(ctx context.Context, postID, focus string) ([]models.RedditThing, error) {
	params := url.Values{}
	params.Set("raw_json", "1")
	params.Set("limit", "500")
	if focus != "" {
		params.Set("comment", focus)
	}

	// The response is a pair of listings: the post, then its comments.
	var listings []models.RedditListing
	if err := c.get(ctx, "comments", "/comments/"+url.PathEscape(postID), params, &listings); err != nil {
		return nil, errors.Wrapf(err, "comments of %s", postID)
	}
	if len(listings) < 2 {
		return nil, errors.Errorf("comments of %s: unexpected response with %d listings", postID, len(listings))
	}
	return listings[1].Data.Children, nil
}

func (c *RedditClient) moreChildren(ctx context.Context, linkName string, ids []string) ([]models.RedditThing, error) {
	params := url.Values{}
	params.Set("api_type", "json")
	params.Set("link_id", linkName)
	params.Set("children", strings.Join(ids, ","))
	params.Set("raw_json", "1")

	var resp models.MoreChildrenResponse
	if err := c.get(ctx, "morechildren", "/api/morechildren", params, &resp); err != nil {
		return nil, errors.Wrapf(err, "expand comments of %s", linkName)
	}
	if len(resp.JSON.Errors) > 0 {
		return nil, errors.Errorf("expand comments of %s: %s", linkName, resp.JSON.Errors[0])
	}
	return resp.JSON.Data.Things, nil
}
