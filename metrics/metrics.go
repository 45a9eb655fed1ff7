// Package metrics exposes Prometheus counters for collection runs.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the collector and the API adapter report to.
type Recorder interface {
	PostCollected(subreddit string)
	PostSkipped(subreddit, reason string)
	CommentsCollected(count int)
	RequestFailed(kind string)
	ExtractionFallback(section string)
	BatchWritten(subreddit string, records int)
	BatchWriteFailed(subreddit string)
	APIRequest(endpoint string, statusCode int, duration time.Duration)
}

type Collector struct {
	postsCollected     *prometheus.CounterVec
	postsSkipped       *prometheus.CounterVec
	commentsCollected  prometheus.Counter
	requestFailures    *prometheus.CounterVec
	extractionFallback *prometheus.CounterVec
	recordsWritten     *prometheus.CounterVec
	writeFailures      *prometheus.CounterVec
	apiStatus          *prometheus.CounterVec
	apiLatency         *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		postsCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadharvest_posts_collected_total",
			Help: "Posts extracted into records, by subreddit.",
		}, []string{"subreddit"}),
		postsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadharvest_posts_skipped_total",
			Help: "Posts not recorded, by subreddit and reason.",
		}, []string{"subreddit", "reason"}),
		commentsCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "threadharvest_comments_collected_total",
			Help: "Comments embedded into post records.",
		}),
		requestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadharvest_request_failures_total",
			Help: "Recovered request failures, by unit of work.",
		}, []string{"kind"}),
		extractionFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadharvest_extraction_fallbacks_total",
			Help: "Derived sections replaced by their defaults.",
		}, []string{"section"}),
		recordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadharvest_records_written_total",
			Help: "Records appended to output files, by subreddit.",
		}, []string{"subreddit"}),
		writeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadharvest_write_failures_total",
			Help: "Failed batch writes, by subreddit.",
		}, []string{"subreddit"}),
		apiStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadharvest_api_responses_total",
			Help: "API responses by endpoint and HTTP status code.",
		}, []string{"endpoint", "status_code"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "threadharvest_api_latency_seconds",
			Help:    "API request latency by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}

	reg.MustRegister(
		c.postsCollected,
		c.postsSkipped,
		c.commentsCollected,
		c.requestFailures,
		c.extractionFallback,
		c.recordsWritten,
		c.writeFailures,
		c.apiStatus,
		c.apiLatency,
	)

	return c
}

func (c *Collector) PostCollected(subreddit string) {
	c.postsCollected.WithLabelValues(subreddit).Inc()
}

func (c *Collector) PostSkipped(subreddit, reason string) {
	c.postsSkipped.WithLabelValues(subreddit, reason).Inc()
}

func (c *Collector) CommentsCollected(count int) {
	c.commentsCollected.Add(float64(count))
}

func (c *Collector) RequestFailed(kind string) {
	c.requestFailures.WithLabelValues(kind).Inc()
}

func (c *Collector) ExtractionFallback(section string) {
	c.extractionFallback.WithLabelValues(section).Inc()
}

func (c *Collector) BatchWritten(subreddit string, records int) {
	c.recordsWritten.WithLabelValues(subreddit).Add(float64(records))
}

func (c *Collector) BatchWriteFailed(subreddit string) {
	c.writeFailures.WithLabelValues(subreddit).Inc()
}

// APIRequest records a completed request. A zero status code means the
// request failed before a response arrived.
func (c *Collector) APIRequest(endpoint string, statusCode int, duration time.Duration) {
	c.apiStatus.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	c.apiLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// Nop discards everything.
type Nop struct{}

func (Nop) PostCollected(string) {}
func (Nop) PostSkipped(string, string) {}
func (Nop) CommentsCollected(int) {}
func (Nop) RequestFailed(string) {}
func (Nop) ExtractionFallback(string) {}
func (Nop) BatchWritten(string, int) {}
func (Nop) BatchWriteFailed(string) {}
func (Nop) APIRequest(string, int, time.Duration) {}

func Router(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Serve exposes the router on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Router(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to stop metrics server", "error", err)
		}
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
