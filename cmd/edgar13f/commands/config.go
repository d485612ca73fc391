package commands

import (
	"fmt"
	"net/url"
	"time"

	"edgar13f/internal/fetch"
	"edgar13f/internal/scrapers/edgar"
	"edgar13f/lib/configutil"
)

type CacheConfig struct {
	// Path may be prefixed with <dev_state>, an empty path disables the cache.
	Path     string  `json:"path"`
	TtlHours float64 `json:"ttl_hours"`
}

type Config struct {
	BaseUrl           string      `json:"base_url"`
	UserAgent         string      `json:"user_agent"`
	OutputDir         string      `json:"output_dir"`
	RequestsPerSecond float64     `json:"requests_per_second"`
	Concurrency       int         `json:"concurrency"`
	TimeoutSeconds    int         `json:"timeout_seconds"`
	Retries           int         `json:"retries"`
	BrowserTransport  bool        `json:"browser_transport"`
	StrictFlatten     bool        `json:"strict_flatten"`
	Cache             CacheConfig `json:"cache"`
	BatchConcurrency  int         `json:"batch_concurrency"`
}

// sec.gov allows at most 10 requests per second per client.
func defaultConfig() Config {
	return Config{
		BaseUrl:           edgar.DefaultBaseUrl,
		UserAgent:         "edgar13f admin@example.com",
		OutputDir:         "13F_Reports",
		RequestsPerSecond: 8,
		Concurrency:       4,
		TimeoutSeconds:    30,
		Retries:           3,
		Cache: CacheConfig{
			TtlHours: 24,
		},
		BatchConcurrency: 4,
	}
}

// LoadConfig reads the config at path and its .local override, anything the
// files leave out takes its default value.
func LoadConfig(path string) (Config, error) {
	config, err := configutil.ReadConfigOrDefault(path, defaultConfig())
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return config, nil
}

func (c Config) baseUrl() (*url.URL, error) {
	u, err := url.Parse(c.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid base_url %q: %w", c.BaseUrl, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base_url %q must be absolute", c.BaseUrl)
	}
	return u, nil
}

func (c Config) engineOptions() fetch.Options {
	return fetch.Options{
		UserAgent:         c.UserAgent,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             max(1, c.Concurrency),
		Concurrency:       max(1, c.Concurrency),
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		Retries:           max(0, c.Retries),
		BrowserTransport:  c.BrowserTransport,
	}
}

func (c Config) cacheTtl() time.Duration {
	return time.Duration(c.Cache.TtlHours * float64(time.Hour))
}
