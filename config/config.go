package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	str2duration "github.com/xhit/go-str2duration/v2"
)

type Config struct {
	ListenAddr  string
	MetricsAddr string

	RedisHost string

	DatabaseDriver string
	DatabaseDSN    string

	MeilisearchURL   string
	MeilisearchKey   string
	MeilisearchIndex string

	TorznabURL    string
	TorznabAPIKey string
	IndexerURL    string
	IndexerNames  []string

	ProviderTimeout    time.Duration
	ProviderDelay      time.Duration
	ResultTarget       int
	FallbackLimit      int
	ProviderPreference []string

	LocalizedLanguage       string
	TitleWordThreshold      float64
	LocalizedWordThreshold  float64
	ShortLivedCacheDuration time.Duration

	CacheValidity    time.Duration
	DebridBatchDelay time.Duration
	RealDebridToken  string
	AllDebridKey     string
	VideoSizeFloor   int64

	MetadataTimeout   time.Duration
	MagnetMetadataAPI string
	CinemetaURL       string
	KitsuURL          string
	TMDBAPIKey        string

	FlareSolverrAddress string
	FlareSolverrTimeout time.Duration

	StreamCacheSize int
	StreamCacheTTL  time.Duration
}

// Load reads the configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:  getenv("LISTEN_ADDR", ":7006"),
		MetricsAddr: getenv("METRICS_ADDR", ":8081"),

		RedisHost: getenv("REDIS_HOST", "localhost"),

		DatabaseDriver: getenv("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:    getenv("DATABASE_DSN", "torrent-resolver.db"),

		MeilisearchURL:   getenv("MEILISEARCH_ADDRESS", ""),
		MeilisearchKey:   getenv("MEILISEARCH_KEY", ""),
		MeilisearchIndex: getenv("MEILISEARCH_INDEX", "torrents"),

		TorznabURL:    getenv("TORZNAB_URL", ""),
		TorznabAPIKey: getenv("TORZNAB_API_KEY", ""),
		IndexerURL:    getenv("INDEXER_URL", ""),
		IndexerNames:  getenvList("INDEXER_NAMES", []string{"bludv", "comando_torrents", "torrent-dos-filmes"}),

		ProviderTimeout:    getenvDuration("PROVIDER_TIMEOUT", 10*time.Second),
		ProviderDelay:      getenvDuration("PROVIDER_DELAY", 500*time.Millisecond),
		ResultTarget:       getenvInt("RESULT_TARGET", 30),
		FallbackLimit:      getenvInt("FALLBACK_LIMIT", 10),
		ProviderPreference: getenvList("PROVIDER_PREFERENCE", nil),

		LocalizedLanguage:       getenv("LOCALIZED_LANGUAGE", "ita"),
		TitleWordThreshold:      getenvFloat("TITLE_WORD_THRESHOLD", 0.70),
		LocalizedWordThreshold:  getenvFloat("LOCALIZED_WORD_THRESHOLD", 0.60),
		ShortLivedCacheDuration: getenvDuration("SHORT_LIVED_CACHE_EXPIRATION", 30*time.Minute),

		CacheValidity:    getenvDuration("CACHE_VALIDITY", 7*24*time.Hour),
		DebridBatchDelay: getenvDuration("DEBRID_BATCH_DELAY", 300*time.Millisecond),
		RealDebridToken:  getenv("REALDEBRID_TOKEN", ""),
		AllDebridKey:     getenv("ALLDEBRID_KEY", ""),
		VideoSizeFloor:   getenvInt64("VIDEO_SIZE_FLOOR", 300<<20),

		MetadataTimeout:   getenvDuration("METADATA_TIMEOUT", 5*time.Second),
		MagnetMetadataAPI: getenv("MAGNET_METADATA_API", ""),
		CinemetaURL:       getenv("CINEMETA_URL", ""),
		KitsuURL:          getenv("KITSU_URL", ""),
		TMDBAPIKey:        getenv("TMDB_API_KEY", ""),

		FlareSolverrAddress: getenv("FLARESOLVERR_ADDRESS", ""),
		FlareSolverrTimeout: getenvDuration("FLARESOLVERR_TIMEOUT", 60*time.Second),

		StreamCacheSize: getenvInt("STREAM_CACHE_SIZE", 1000),
		StreamCacheTTL:  getenvDuration("STREAM_CACHE_TTL", 30*time.Minute),
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getenvInt64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

// getenvDuration accepts Go durations plus day/week units ("7d", "1w2d").
func getenvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := str2duration.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func getenvList(k string, def []string) []string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
