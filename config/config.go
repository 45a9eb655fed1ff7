package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kova98/threadharvest/enums"
)

const (
	defaultUserAgent       = "CS650 Research Project - CSUSM"
	defaultKeysFile        = "keys.env"
	defaultAuthURL         = "https://www.reddit.com/api/v1/access_token"
	defaultAPIURL          = "https://oauth.reddit.com"
	defaultSearchMaxPosts  = 5000
	defaultListingMaxPosts = 100000
	defaultMaxComments     = 50
	searchWindow           = 3 * 365 * 24 * time.Hour
)

var (
	DefaultSubreddits = []string{"malware", "phishing", "scams", "cybersecurity", "jobs", "personalfinance"}

	DefaultKeywords = []string{
		"is this a scam",
		"is this legit",
		"is this real",
		"sounds like a scam",
		"seems suspicious",
		"too good to be true",
	}

	// listingWindowStart is the start of the archive window used by the
	// listing collector.
	listingWindowStart = time.Date(2011, time.January, 1, 0, 0, 0, 0, time.UTC)
)

type AppConfig struct {
	LogLevel slog.Level

	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
	RedditAuthURL      string
	RedditAPIURL       string
	RequestsPerMinute  int
	HTTPTimeout        time.Duration
	ProxyURLs          []string
	ProxyMinInterval   time.Duration

	Mode             enums.CollectMode
	Subreddits       []string
	Keywords         []string
	ListingSort      enums.ListingSort
	SearchSort       string
	SearchTimeFilter enums.TimeFilter
	WindowStart      time.Time
	WindowEnd        time.Time
	MaxPosts         int
	MaxComments      int
	KeywordDelay     time.Duration
	SubredditDelay   time.Duration
	KeywordMatchMode enums.MatchMode
	ExcludedAuthors  []string
	Enrich           bool
	DetectLanguage   bool

	DataDir      string
	ClearDataDir bool
	OutputFormat enums.OutputFormat

	SeenBackend  enums.SeenBackend
	PostgresURL  string
	RedisAddr    string
	RedisSeenKey string
	MemcacheAddr string
	SeenTTL      time.Duration

	MetricsAddr string
}

var Config AppConfig

func LoadConfig() {
	cfg := AppConfig{}

	lvlString := loadOptional("LOG_LEVEL", "INFO")
	var err error
	cfg.LogLevel, err = parseLogLevel(lvlString)
	if err != nil {
		slog.Error("Invalid LOG_LEVEL", "error", err)
		cfg.LogLevel = slog.LevelInfo
	}

	keys := loadKeysFile(loadOptional("REDDIT_KEYS_FILE", defaultKeysFile))
	cfg.RedditClientID = loadRequiredKey("REDDIT_CLIENT_ID", keys)
	cfg.RedditClientSecret = loadRequiredKey("REDDIT_CLIENT_SECRET", keys)
	cfg.RedditUserAgent = loadOptional("REDDIT_USER_AGENT", defaultUserAgent)
	cfg.RedditAuthURL = loadOptional("REDDIT_AUTH_URL", defaultAuthURL)
	cfg.RedditAPIURL = strings.TrimRight(loadOptional("REDDIT_API_URL", defaultAPIURL), "/")
	cfg.RequestsPerMinute = loadInt("REDDIT_REQUESTS_PER_MINUTE", 60)
	cfg.HTTPTimeout = loadDuration("HTTP_TIMEOUT", 30*time.Second)
	cfg.ProxyURLs = loadList("PROXY_URLS", nil)
	cfg.ProxyMinInterval = loadDuration("PROXY_MIN_INTERVAL", 0)

	cfg.Mode, err = enums.ParseCollectMode(loadOptional("COLLECT_MODE", string(enums.CollectModeSearch)))
	if err != nil {
		slog.Error("Invalid COLLECT_MODE", "error", err)
		cfg.Mode = enums.CollectModeSearch
	}

	cfg.Subreddits = loadList("SUBREDDITS", DefaultSubreddits)
	cfg.Keywords = loadList("KEYWORDS", DefaultKeywords)
	cfg.ListingSort = enums.ParseListingSort(loadOptional("LISTING_SORT", string(enums.ListingSortNew)))
	cfg.SearchSort = loadOptional("SEARCH_SORT", "new")
	cfg.SearchTimeFilter, err = enums.ParseTimeFilter(loadOptional("SEARCH_TIME_FILTER", string(enums.TimeFilterAll)))
	if err != nil {
		slog.Error("Invalid SEARCH_TIME_FILTER", "error", err)
		cfg.SearchTimeFilter = enums.TimeFilterAll
	}

	now := time.Now().UTC()
	defaultStart := now.Add(-searchWindow)
	defaultMaxPosts := defaultSearchMaxPosts
	if cfg.Mode == enums.CollectModeListing {
		defaultStart = listingWindowStart
		defaultMaxPosts = defaultListingMaxPosts
	}
	cfg.WindowStart = loadTime("WINDOW_START", defaultStart)
	cfg.WindowEnd = loadTime("WINDOW_END", now)
	if cfg.WindowEnd.Before(cfg.WindowStart) {
		slog.Error("WINDOW_END is before WINDOW_START", "start", cfg.WindowStart, "end", cfg.WindowEnd)
		os.Exit(1)
	}

	cfg.MaxPosts = loadInt("MAX_POSTS", defaultMaxPosts)
	cfg.MaxComments = loadInt("MAX_COMMENTS", defaultMaxComments)
	cfg.KeywordDelay = loadDuration("KEYWORD_DELAY", 2*time.Second)
	cfg.SubredditDelay = loadDuration("SUBREDDIT_DELAY", 5*time.Second)
	cfg.KeywordMatchMode, err = enums.ParseMatchMode(loadOptional("KEYWORD_MATCH_MODE", string(enums.MatchModeAny)))
	if err != nil {
		slog.Error("Invalid KEYWORD_MATCH_MODE", "error", err)
		cfg.KeywordMatchMode = enums.MatchModeAny
	}
	cfg.ExcludedAuthors = loadList("EXCLUDED_AUTHORS", []string{"AutoModerator"})
	cfg.Enrich = loadBool("ENRICH", cfg.Mode == enums.CollectModeSearch)
	cfg.DetectLanguage = loadBool("DETECT_LANGUAGE", false)

	cfg.SeenBackend, err = enums.ParseSeenBackend(loadOptional("SEEN_BACKEND", string(enums.SeenBackendMemory)))
	if err != nil {
		slog.Error("Invalid SEEN_BACKEND", "error", err)
		cfg.SeenBackend = enums.SeenBackendMemory
	}
	switch cfg.SeenBackend {
	case enums.SeenBackendPostgres:
		cfg.PostgresURL = loadRequired("POSTGRES_URL")
	case enums.SeenBackendRedis:
		cfg.RedisAddr = loadOptional("REDIS_ADDR", "localhost:6379")
	case enums.SeenBackendMemcache:
		cfg.MemcacheAddr = loadOptional("MEMCACHE_ADDR", "localhost:11211")
	}
	cfg.RedisSeenKey = loadOptional("REDIS_SEEN_KEY", "threadharvest:seen")
	cfg.SeenTTL = loadDuration("SEEN_TTL", 0)

	// Posts remembered by a persistent backend are not collected again, so
	// clearing the previous output would lose them.
	persistent := cfg.SeenBackend != enums.SeenBackendMemory
	cfg.DataDir = loadOptional("DATA_DIR", "data")
	cfg.ClearDataDir = loadBool("CLEAR_DATA_DIR", !persistent)
	if cfg.ClearDataDir && persistent {
		slog.Warn("CLEAR_DATA_DIR removes output of posts the seen backend will skip", "backend", cfg.SeenBackend)
	}
	cfg.OutputFormat, err = enums.ParseOutputFormat(loadOptional("OUTPUT_FORMAT", string(enums.OutputFormatArray)))
	if err != nil {
		slog.Error("Invalid OUTPUT_FORMAT", "error", err)
		cfg.OutputFormat = enums.OutputFormatArray
	}

	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	Config = cfg
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	var err = level.UnmarshalText([]byte(s))
	return level, err
}

// loadKeysFile reads credentials kept outside the environment. A missing file
// is not an error: the keys may come from the environment instead.
func loadKeysFile(path string) map[string]string {
	keys, err := godotenv.Read(path)
	if err != nil {
		slog.Debug("keys file not loaded", "path", path, "error", err)
		return map[string]string{}
	}
	return keys
}

func loadRequiredKey(key string, keys map[string]string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value := keys[key]; value != "" {
		return value
	}
	slog.Error("Required key not set", "key", key)
	os.Exit(1)
	return ""
}

func loadRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		slog.Error("Required env var not set", "key", key)
		os.Exit(1)
	}
	return value
}

func loadOptional(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func loadInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		slog.Error("Invalid integer env var", "key", key, "value", value)
		return defaultValue
	}
	return i
}

func loadBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Error("Invalid boolean env var", "key", key, "value", value)
		return defaultValue
	}
	return b
}

func loadDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Error("Invalid duration env var", "key", key, "value", value)
		return defaultValue
	}
	return d
}

// loadList splits a comma separated value, dropping blank entries.
func loadList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadTime accepts a date (2006-01-02, UTC) or an RFC 3339 timestamp.
func loadTime(key string, defaultValue time.Time) time.Time {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t
	}
	slog.Error("Invalid time env var", "key", key, "value", value)
	return defaultValue
}
