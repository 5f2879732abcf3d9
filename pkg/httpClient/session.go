package httpClient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"exptv-finder/pkg/config"

	"golang.org/x/time/rate"
)

// SessionConfig is the identity and transport policy shared by every request
// of one run.
type SessionConfig struct {
	UserAgent         string
	Referer           string
	Timeout           time.Duration
	MaxRedirects      int
	MaxBodyBytes      int64
	RequestsPerSecond float64
	Burst             int
	Logger            *slog.Logger
}

// Session issues requests with a fixed user agent, timeout and redirect
// policy. It is safe for concurrent use.
type Session struct {
	client  *http.Client
	cfg     SessionConfig
	limiter *rate.Limiter
	log     *slog.Logger
}

// Page is the result of fetching a text resource. A failed fetch yields a
// Page with an empty Body and FinalURL equal to the requested URL.
type Page struct {
	Body     string
	FinalURL string
	Header   http.Header
}

func (p Page) Empty() bool {
	return p.Body == ""
}

// Meta is what a probe request learns about a resource without reading it.
type Meta struct {
	StatusCode int
	Header     http.Header
	FinalURL   string
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 10
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 8 << 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	maxRedirects := cfg.MaxRedirects
	client := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        32,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     60 * time.Second,
		},
	}

	return &Session{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		log:     logger,
	}
}

// NewSessionFromConfig builds the run's session from the HTTP section of cfg.
func NewSessionFromConfig(cfg *config.Config, logger *slog.Logger) *Session {
	return NewSession(SessionConfig{
		UserAgent:         cfg.HTTP.UserAgent,
		Referer:           cfg.HTTP.Referer,
		Timeout:           cfg.HTTP.Timeout,
		MaxRedirects:      cfg.HTTP.MaxRedirects,
		MaxBodyBytes:      int64(cfg.HTTP.MaxBodyBytes),
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		Burst:             cfg.HTTP.Burst,
		Logger:            logger,
	})
}

func (s *Session) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	if s.cfg.Referer != "" {
		req.Header.Set("Referer", s.cfg.Referer)
	}
	return req, nil
}

func (s *Session) do(req *http.Request) (*http.Response, error) {
	if err := s.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return s.client.Do(req)
}

// Fetch retrieves a text resource. Non-2xx responses are reported as
// *HTTPError.
func (s *Session) Fetch(ctx context.Context, rawURL string) (Page, error) {
	req, err := s.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return Page{FinalURL: rawURL}, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.do(req)
	if err != nil {
		return Page{FinalURL: rawURL}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return Page{FinalURL: rawURL}, statusError(resp, rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		return Page{FinalURL: rawURL}, fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return Page{FinalURL: rawURL}, ErrEmptyBody
	}

	return Page{
		Body:     string(data),
		FinalURL: resp.Request.URL.String(),
		Header:   resp.Header,
	}, nil
}

// FetchText is Fetch with failures folded into an empty Page.
func (s *Session) FetchText(ctx context.Context, rawURL string) Page {
	page, err := s.Fetch(ctx, rawURL)
	if err != nil {
		s.log.Debug("fetch failed",
			slog.String("url", rawURL),
			slog.Int("status", GetHTTPStatusCode(err)),
			slog.Any("error", err),
		)
		return Page{FinalURL: rawURL}
	}
	return page
}

// Head issues a metadata-only request.
func (s *Session) Head(ctx context.Context, rawURL string) (Meta, error) {
	req, err := s.newRequest(ctx, http.MethodHead, rawURL)
	if err != nil {
		return Meta{}, fmt.Errorf("build request: %w", err)
	}
	return s.meta(req)
}

// GetRange issues a GET for a byte range and discards the body.
func (s *Session) GetRange(ctx context.Context, rawURL, byteRange string) (Meta, error) {
	req, err := s.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return Meta{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Range", byteRange)
	return s.meta(req)
}

func (s *Session) meta(req *http.Request) (Meta, error) {
	resp, err := s.do(req)
	if err != nil {
		return Meta{}, err
	}
	resp.Body.Close()

	return Meta{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		FinalURL:   resp.Request.URL.String(),
	}, nil
}
