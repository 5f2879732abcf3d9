package media

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"exptv-finder/pkg/httpClient"

	"golang.org/x/sync/errgroup"
)

// ProbeResult records whether a candidate answered like a video resource.
type ProbeResult struct {
	URL          string
	Reachable    bool
	LastModified *time.Time
}

// ProbeResults accumulates results from concurrent probes. Each probe
// contributes exactly one entry.
type ProbeResults struct {
	mu      sync.Mutex
	results map[string]ProbeResult
}

func NewProbeResults() *ProbeResults {
	return &ProbeResults{results: make(map[string]ProbeResult)}
}

func (r *ProbeResults) Record(res ProbeResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[res.URL] = res
}

func (r *ProbeResults) Get(u string) (ProbeResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[u]
	return res, ok
}

func (r *ProbeResults) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

// All returns every result ordered by URL.
func (r *ProbeResults) All() []ProbeResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ProbeResult, 0, len(r.results))
	for _, res := range r.results {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

func (r *ProbeResults) ReachableCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.results {
		if res.Reachable {
			n++
		}
	}
	return n
}

// Prober checks candidate URLs with HEAD, falling back to a one-byte range
// request, through a bounded pool of workers.
type Prober struct {
	session *httpClient.Session
	workers int
	log     *slog.Logger
}

func NewProber(session *httpClient.Session, workers int, logger *slog.Logger) *Prober {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{session: session, workers: workers, log: logger}
}

// Probe checks a single URL. Failures are not retried.
func (p *Prober) Probe(ctx context.Context, u string) ProbeResult {
	meta, err := p.session.Head(ctx, u)
	if err == nil && meta.StatusCode == http.StatusOK && !isHTML(meta.Header) {
		return ProbeResult{URL: u, Reachable: true, LastModified: lastModified(meta.Header)}
	}
	if err != nil {
		p.log.Debug("head probe failed", slog.String("url", u), slog.Any("error", err))
	}

	meta, err = p.session.GetRange(ctx, u, "bytes=0-0")
	if err != nil {
		p.log.Debug("range probe failed", slog.String("url", u), slog.Any("error", err))
		return ProbeResult{URL: u}
	}

	switch {
	case meta.StatusCode == http.StatusPartialContent,
		meta.StatusCode == http.StatusOK && !isHTML(meta.Header):
		return ProbeResult{URL: u, Reachable: true, LastModified: lastModified(meta.Header)}
	}
	return ProbeResult{URL: u}
}

// ProbeAll probes every distinct URL and waits for all of them.
func (p *Prober) ProbeAll(ctx context.Context, urls []string) *ProbeResults {
	results := NewProbeResults()

	var g errgroup.Group
	g.SetLimit(p.workers)

	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		g.Go(func() error {
			results.Record(p.Probe(ctx, u))
			return nil
		})
	}
	g.Wait()

	p.log.Debug("probe batch finished",
		slog.Int("candidates", results.Len()),
		slog.Int("reachable", results.ReachableCount()),
	)
	return results
}

// ChooseBest probes urls and selects the top-ranked one.
func (p *Prober) ChooseBest(ctx context.Context, urls []string) (Selection, bool) {
	if len(urls) == 0 {
		return Selection{}, false
	}
	return Select(urls, p.ProbeAll(ctx, urls))
}

func isHTML(h http.Header) bool {
	ct := h.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.Contains(strings.ToLower(ct), "text/html")
	}
	return mediaType == "text/html"
}

func lastModified(h http.Header) *time.Time {
	v := h.Get("Last-Modified")
	if v == "" {
		return nil
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
