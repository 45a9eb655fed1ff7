package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Recorder = (*Collector)(nil)
var _ Recorder = Nop{}

func TestCollector_Counters(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.PostCollected("scams")
	c.PostCollected("scams")
	c.PostSkipped("scams", "duplicate")
	c.CommentsCollected(7)
	c.RequestFailed("search")
	c.ExtractionFallback("engagement")
	c.BatchWritten("scams", 2)
	c.BatchWriteFailed("phishing")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.postsCollected.WithLabelValues("scams")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.postsSkipped.WithLabelValues("scams", "duplicate")))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.commentsCollected))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestFailures.WithLabelValues("search")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.extractionFallback.WithLabelValues("engagement")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.recordsWritten.WithLabelValues("scams")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.writeFailures.WithLabelValues("phishing")))
}

func TestCollector_APIRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.APIRequest("search", 200, 120*time.Millisecond)
	c.APIRequest("search", 429, 30*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.apiStatus.WithLabelValues("search", "429")))

	families, err := reg.Gather()
	require.NoError(t, err)

	var hist *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "threadharvest_api_latency_seconds" {
			hist = mf.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, hist)
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.InDelta(t, 0.15, hist.GetSampleSum(), 1e-9)
}

func TestRouter_ServesMetricsAndHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.PostCollected("malware")

	srv := httptest.NewServer(Router(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `threadharvest_posts_collected_total{subreddit="malware"} 1`)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
