package sources

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/proxy"
)

const (
	DirectHost               = "direct"
	defaultRateLimitCooldown = 30 * time.Second
)

// ClientPool hands out HTTP clients round robin, one per configured proxy.
// Without proxies it holds a single direct client.
type ClientPool struct {
	logger      *slog.Logger
	clients     []*http.Client
	hosts       []string
	index       atomic.Uint64
	cooldowns   map[int]time.Time
	lastUsed    map[int]time.Time
	successes   map[int]int
	failures    map[int]int
	mu          sync.RWMutex
	minInterval time.Duration // minimum time between uses of the same client
	cooldown    time.Duration
}

type HostStats struct {
	Successes int
	Failures  int
}

func NewClientPool(logger *slog.Logger, proxyURLs []string, timeout, minInterval time.Duration) (*ClientPool, error) {
	clients := make([]*http.Client, 0, len(proxyURLs))
	hosts := make([]string, 0, len(proxyURLs))
	seen := make(map[string]bool)

	for _, proxyURL := range proxyURLs {
		if seen[proxyURL] {
			if parsed, err := url.Parse(proxyURL); err == nil {
				logger.Warn("duplicate proxy URL, skipping", "host", parsed.Host)
			}
			continue
		}
		seen[proxyURL] = true

		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, errors.Wrap(err, "parse proxy URL")
		}
		client, err := createClient(parsed, timeout)
		if err != nil {
			return nil, errors.Wrapf(err, "create client for %s", parsed.Host)
		}
		clients = append(clients, client)
		// host only, never credentials
		hosts = append(hosts, parsed.Host)
	}

	if len(clients) == 0 {
		clients = append(clients, &http.Client{Timeout: timeout})
		hosts = append(hosts, DirectHost)
	}

	logger.Info("client pool created", "count", len(clients), "hosts", hosts)

	return &ClientPool{
		logger:      logger,
		clients:     clients,
		hosts:       hosts,
		cooldowns:   make(map[int]time.Time),
		lastUsed:    make(map[int]time.Time),
		successes:   make(map[int]int),
		failures:    make(map[int]int),
		minInterval: minInterval,
		cooldown:    defaultRateLimitCooldown,
	}, nil
}

func createClient(proxyURL *url.URL, timeout time.Duration) (*http.Client, error) {
	client := &http.Client{Timeout: timeout}

	switch proxyURL.Scheme {
	case "socks5":
		var auth *proxy.Auth
		if proxyURL.User != nil {
			password, _ := proxyURL.User.Password()
			auth = &proxy.Auth{
				User:     proxyURL.User.Username(),
				Password: password,
			}
		}

		dialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, proxy.Direct)
		if err != nil {
			return nil, err
		}

		client.Transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			},
		}
	case "http", "https":
		client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	default:
		return nil, errors.Errorf("unsupported proxy scheme %q", proxyURL.Scheme)
	}

	return client, nil
}

// Next returns the next client that is neither cooling down nor used within
// minInterval, waiting for one to free up if necessary.
func (p *ClientPool) Next(ctx context.Context) (*http.Client, string, error) {
	n := len(p.clients)

	p.mu.Lock()
	for {
		now := time.Now()

		for attempt := 0; attempt < n; attempt++ {
			i := int((p.index.Add(1) - 1) % uint64(n))

			if until, ok := p.cooldowns[i]; ok && now.Before(until) {
				continue
			}
			if last, ok := p.lastUsed[i]; ok && now.Sub(last) < p.minInterval {
				continue
			}

			p.lastUsed[i] = now
			p.mu.Unlock()
			return p.clients[i], p.hosts[i], nil
		}

		var soonest time.Time
		for i := 0; i < n; i++ {
			availableAt := p.lastUsed[i].Add(p.minInterval)
			if until, ok := p.cooldowns[i]; ok && until.After(availableAt) {
				availableAt = until
			}
			if soonest.IsZero() || availableAt.Before(soonest) {
				soonest = availableAt
			}
		}

		wait := time.Until(soonest)
		if wait > 0 {
			p.mu.Unlock()
			p.logger.Debug("all clients busy, waiting", "wait_ms", wait.Milliseconds())
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, "", ctx.Err()
			case <-timer.C:
			}
			p.mu.Lock()
		}
	}
}

// MarkRateLimited puts a client on cooldown.
func (p *ClientPool) MarkRateLimited(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, h := range p.hosts {
		if h == host {
			p.cooldowns[i] = time.Now().Add(p.cooldown)
			p.logger.Warn("client on cooldown", "host", host, "duration_seconds", p.cooldown.Seconds())
			return
		}
	}
}

func (p *ClientPool) MarkSuccess(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, h := range p.hosts {
		if h == host {
			p.successes[i]++
			return
		}
	}
}

func (p *ClientPool) MarkFailure(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, h := range p.hosts {
		if h == host {
			p.failures[i]++
			return
		}
	}
}

// Stats returns success and failure counts per host.
func (p *ClientPool) Stats() map[string]HostStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := make(map[string]HostStats, len(p.hosts))
	for i, h := range p.hosts {
		stats[h] = HostStats{Successes: p.successes[i], Failures: p.failures[i]}
	}
	return stats
}
