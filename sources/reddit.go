package sources

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kova98/threadharvest/enums"
	"github.com/kova98/threadharvest/metrics"
	"github.com/kova98/threadharvest/models"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	MaxPageSize = 100

	tokenExpiryMargin = time.Minute
	maxErrorBody      = 4096
)

type RedditConfig struct {
	ClientID          string
	ClientSecret      string
	UserAgent         string
	AuthURL           string
	APIURL            string
	RequestsPerMinute int
}

// RedditClient talks to the Reddit OAuth API with an app-only token.
type RedditClient struct {
	logger   *slog.Logger
	pool     *ClientPool
	recorder metrics.Recorder
	limiter  *rate.Limiter
	cfg      RedditConfig

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewRedditClient(logger *slog.Logger, pool *ClientPool, recorder metrics.Recorder, cfg RedditConfig) *RedditClient {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	return &RedditClient{
		logger:   logger,
		pool:     pool,
		recorder: recorder,
		limiter:  rate.NewLimiter(limit, 1),
		cfg:      cfg,
	}
}

// Listing fetches one page of a subreddit listing.
func (c *RedditClient) Listing(ctx context.Context, subreddit string, sort enums.ListingSort, after string, limit int) (models.PostPage, error) {
	params := pageParams(after, limit)
	if sort.TakesTimeFilter() {
		params.Set("t", string(enums.TimeFilterAll))
	}

	var listing models.RedditListing
	path := "/r/" + url.PathEscape(subreddit) + "/" + string(sort)
	if err := c.get(ctx, "listing", path, params, &listing); err != nil {
		return models.PostPage{}, errors.Wrapf(err, "listing r/%s/%s", subreddit, sort)
	}

	return c.toPage(listing), nil
}

// Search fetches one page of a keyword search restricted to the subreddit.
func (c *RedditClient) Search(ctx context.Context, subreddit, query, sort string, timeFilter enums.TimeFilter, after string, limit int) (models.PostPage, error) {
	params := pageParams(after, limit)
	params.Set("q", query)
	params.Set("restrict_sr", "1")
	params.Set("sort", sort)
	params.Set("t", string(timeFilter))
	params.Set("type", "link")

	var listing models.RedditListing
	path := "/r/" + url.PathEscape(subreddit) + "/search"
	if err := c.get(ctx, "search", path, params, &listing); err != nil {
		return models.PostPage{}, errors.Wrapf(err, "search r/%s for %q", subreddit, query)
	}

	return c.toPage(listing), nil
}

func pageParams(after string, limit int) url.Values {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("raw_json", "1")
	if after != "" {
		params.Set("after", after)
	}
	return params
}

func (c *RedditClient) toPage(listing models.RedditListing) models.PostPage {
	page := models.PostPage{
		Posts: make([]models.RawPost, 0, len(listing.Data.Children)),
		After: listing.Data.After,
	}

	for _, child := range listing.Data.Children {
		if child.Kind != models.KindPost {
			continue
		}
		var post models.RedditPost
		if err := json.Unmarshal(child.Data, &post); err != nil {
			c.logger.Warn("failed to decode post", "error", err)
			continue
		}
		page.Posts = append(page.Posts, toRawPost(post))
	}

	return page
}

func toRawPost(p models.RedditPost) models.RawPost {
	return models.RawPost{
		ID:                p.ID,
		Subreddit:         p.Subreddit,
		Title:             p.Title,
		Selftext:          p.Selftext,
		Author:            authorOrNil(p.Author),
		CreatedUTC:        p.CreatedUTC,
		Score:             p.Score,
		NumComments:       p.NumComments,
		UpvoteRatio:       p.UpvoteRatio,
		URL:               p.URL,
		IsSelf:            p.IsSelf,
		Permalink:         p.Permalink,
		Flair:             p.LinkFlairText,
		Domain:            p.Domain,
		Gilded:            p.Gilded,
		TotalAwards:       p.TotalAwardsReceived,
		Distinguished:     p.Distinguished,
		Edited:            p.Edited,
		Archived:          p.Archived,
		Locked:            p.Locked,
		RemovedByCategory: p.RemovedByCategory,
		Thumbnail:         p.Thumbnail,
	}
}

// authorOrNil maps the API's placeholder for a removed account to nil.
func authorOrNil(name string) *string {
	if name == "" || name == models.DeletedAuthor {
		return nil
	}
	return &name
}

func (c *RedditClient) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	client, host, err := c.pool.Next(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "bearer "+token)
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.recorder.APIRequest(endpoint, 0, time.Since(start))
		c.pool.MarkFailure(host)
		return err
	}
	defer resp.Body.Close()
	c.recorder.APIRequest(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		c.pool.MarkFailure(host)
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			c.pool.MarkRateLimited(host)
		case http.StatusUnauthorized:
			c.invalidateToken()
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.pool.MarkFailure(host)
		return errors.Wrapf(err, "decode %s response", endpoint)
	}

	c.pool.MarkSuccess(host)
	return nil
}

// accessToken returns the cached token, requesting a new one shortly before
// the old one expires.
func (c *RedditClient) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	client, host, err := c.pool.Next(ctx)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.recorder.APIRequest("token", 0, time.Since(start))
		c.pool.MarkFailure(host)
		return "", errors.Wrap(err, "request access token")
	}
	defer resp.Body.Close()
	c.recorder.APIRequest("token", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		c.pool.MarkFailure(host)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", errors.Wrap(&StatusError{Code: resp.StatusCode, Body: string(body)}, "request access token")
	}

	var tr models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", errors.Wrap(err, "decode access token")
	}
	if tr.AccessToken == "" {
		return "", errors.Errorf("no access token in response: %s", tr.Error)
	}

	c.pool.MarkSuccess(host)
	c.token = tr.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpiryMargin)
	c.logger.Debug("obtained access token", "expires_in", tr.ExpiresIn)

	return c.token, nil
}

func (c *RedditClient) invalidateToken() {
	c.tokenMu.Lock()
	c.token = ""
	c.tokenMu.Unlock()
}
