package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
)

type Config struct {
	Site     SiteConfig
	HTTP     HTTPConfig
	Crawl    CrawlConfig
	Probe    ProbeConfig
	Playlist PlaylistConfig
	Paths    PathsConfig
}

type SiteConfig struct {
	HomeURL     string
	ContentBase string
}

type HTTPConfig struct {
	UserAgent         string
	Referer           string
	Timeout           time.Duration
	MaxRedirects      int
	MaxBodyBytes      int
	RequestsPerSecond float64
	Burst             int
}

type CrawlConfig struct {
	MaxScripts     int
	MaxStylesheets int
	MaxEndpoints   int
}

type ProbeConfig struct {
	WorkerCount    int
	MaxSequence    int
	SequencePrefix string
}

type PlaylistConfig struct {
	Format      string
	ChannelID   string
	ChannelName string
	ChannelLogo string
	Group       string
}

type PathsConfig struct {
	PlaylistOutput string
	ManifestPath   string
}

const (
	FormatM3U = "m3u"
	FormatHLS = "hls"
)

var defaultConfig = Config{
	Site: SiteConfig{
		HomeURL:     "https://exptv.org/",
		ContentBase: "https://exptv.org/content2/",
	},
	HTTP: HTTPConfig{
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Safari/537.36",
		Referer:           "",
		Timeout:           12 * time.Second,
		MaxRedirects:      10,
		MaxBodyBytes:      8 << 20,
		RequestsPerSecond: 0,
		Burst:             1,
	},
	Crawl: CrawlConfig{
		MaxScripts:     80,
		MaxStylesheets: 80,
		MaxEndpoints:   80,
	},
	Probe: ProbeConfig{
		WorkerCount:    16,
		MaxSequence:    96,
		SequencePrefix: "VIDEOBREAKS",
	},
	Playlist: PlaylistConfig{
		Format:      FormatM3U,
		ChannelID:   "exptv.live",
		ChannelName: "EXPTV",
		ChannelLogo: "https://exptv.org/favicon.ico",
		Group:       "Live TV",
	},
	Paths: PathsConfig{
		PlaylistOutput: "Exp.m3u",
		ManifestPath:   "",
	},
}

// Default returns a copy of the built-in configuration without reading the
// environment.
func Default() Config {
	return defaultConfig
}

func Load() (*Config, error) {
	cfg := defaultConfig

	if err := cfg.loadFromEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("path resolution failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) loadFromEnvironment() error {
	c.Site.HomeURL = env.Str("HOME_URL", c.Site.HomeURL)
	c.Site.ContentBase = env.Str("CONTENT_BASE", c.Site.ContentBase)

	c.HTTP.UserAgent = env.Str("USER_AGENT", c.HTTP.UserAgent)
	c.HTTP.Referer = env.Str("REFERER", c.HTTP.Referer)
	c.HTTP.Timeout = env.Duration("FETCH_TIMEOUT", c.HTTP.Timeout)
	c.HTTP.RequestsPerSecond = env.Float("REQUESTS_PER_SECOND", c.HTTP.RequestsPerSecond)

	c.Crawl.MaxScripts = env.Int("MAX_SCRIPTS", c.Crawl.MaxScripts)
	c.Crawl.MaxStylesheets = env.Int("MAX_STYLESHEETS", c.Crawl.MaxStylesheets)
	c.Crawl.MaxEndpoints = env.Int("MAX_ENDPOINTS", c.Crawl.MaxEndpoints)

	c.Probe.WorkerCount = env.Int("PROBE_WORKERS", c.Probe.WorkerCount)
	c.Probe.MaxSequence = env.Int("PROBE_MAX_N", c.Probe.MaxSequence)
	c.Probe.SequencePrefix = env.Str("PROBE_PREFIX", c.Probe.SequencePrefix)

	c.Playlist.Format = strings.ToLower(env.Str("PLAYLIST_FORMAT", c.Playlist.Format))
	c.Playlist.ChannelID = env.Str("CHANNEL_ID", c.Playlist.ChannelID)
	c.Playlist.ChannelName = env.Str("CHANNEL_NAME", c.Playlist.ChannelName)
	c.Playlist.ChannelLogo = env.Str("CHANNEL_LOGO", c.Playlist.ChannelLogo)
	c.Playlist.Group = env.Str("CHANNEL_GROUP", c.Playlist.Group)

	c.Paths.PlaylistOutput = env.Str("PLAYLIST_OUTPUT", c.Paths.PlaylistOutput)
	c.Paths.ManifestPath = env.Str("MANIFEST_PATH", c.Paths.ManifestPath)

	if _, err := url.Parse(c.Site.HomeURL); err != nil {
		return fmt.Errorf("invalid HOME_URL %q: %w", c.Site.HomeURL, err)
	}
	if c.Site.ContentBase != "" && !strings.HasSuffix(c.Site.ContentBase, "/") {
		c.Site.ContentBase += "/"
	}
	return nil
}

// Validate checks the values that the resolver cannot run without.
func (c *Config) Validate() error {
	home, err := url.Parse(c.Site.HomeURL)
	if err != nil || home.Host == "" {
		return fmt.Errorf("home URL must be absolute, got %q", c.Site.HomeURL)
	}

	base, err := url.Parse(c.Site.ContentBase)
	if err != nil || base.Host == "" {
		return fmt.Errorf("content base must be absolute, got %q", c.Site.ContentBase)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %v", c.HTTP.Timeout)
	}
	if c.Probe.WorkerCount <= 0 {
		return fmt.Errorf("probe worker count must be positive, got %d", c.Probe.WorkerCount)
	}
	if c.Crawl.MaxScripts < 0 || c.Crawl.MaxStylesheets < 0 || c.Crawl.MaxEndpoints < 0 {
		return fmt.Errorf("crawl limits must not be negative")
	}
	if c.Probe.MaxSequence < 0 {
		return fmt.Errorf("probe sequence length must not be negative, got %d", c.Probe.MaxSequence)
	}

	switch c.Playlist.Format {
	case FormatM3U, FormatHLS:
	default:
		return fmt.Errorf("unknown playlist format %q", c.Playlist.Format)
	}

	return nil
}

func (c *Config) resolvePaths() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	// Only join with cwd if path is not already absolute
	if c.Paths.PlaylistOutput != "" && !filepath.IsAbs(c.Paths.PlaylistOutput) {
		c.Paths.PlaylistOutput = filepath.Join(cwd, c.Paths.PlaylistOutput)
	}
	if c.Paths.ManifestPath != "" && !filepath.IsAbs(c.Paths.ManifestPath) {
		c.Paths.ManifestPath = filepath.Join(cwd, c.Paths.ManifestPath)
	}

	if c.Paths.PlaylistOutput == "" {
		return fmt.Errorf("playlist output path is required")
	}

	return nil
}

// SiteHost is the host name used for same-origin checks.
func (c *Config) SiteHost() string {
	u, err := url.Parse(c.Site.HomeURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// ContentPrefix is ContentBase without its scheme, e.g. "exptv.org/content2/".
func (c *Config) ContentPrefix() string {
	u, err := url.Parse(c.Site.ContentBase)
	if err != nil {
		return ""
	}
	return u.Host + u.Path
}

// GetAssetURL maps a schedule filename to its URL under ContentBase. Entries
// that are already absolute URLs are returned unchanged.
func (c *Config) GetAssetURL(file string) string {
	lower := strings.ToLower(file)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return file
	}
	return c.Site.ContentBase + strings.TrimPrefix(file, "/")
}

func (c *Config) GetSequenceURL(n int) string {
	return fmt.Sprintf("%s%s%d.mp4", c.Site.ContentBase, c.Probe.SequencePrefix, n)
}

func (c *Config) GetSequenceURLs() []string {
	urls := make([]string, 0, c.Probe.MaxSequence)
	for n := 1; n <= c.Probe.MaxSequence; n++ {
		urls = append(urls, c.GetSequenceURL(n))
	}
	return urls
}
