package resolver

import (
	"context"
	"log/slog"
	"sort"

	"exptv-finder/pkg/httpClient"
	"exptv-finder/pkg/schedule"
)

type CrawlStats struct {
	Fetched     int
	Failed      int
	Scripts     int
	Stylesheets int
	Endpoints   int
}

// Discovery is everything a crawl found. It lives for one run.
type Discovery struct {
	Schedule  schedule.Table
	Assets    map[string]struct{}
	Endpoints []string
	Stats     CrawlStats
}

func newDiscovery() *Discovery {
	return &Discovery{
		Schedule: schedule.Table{},
		Assets:   make(map[string]struct{}),
	}
}

func (d *Discovery) addAssets(urls []string) {
	for _, u := range urls {
		d.Assets[u] = struct{}{}
	}
}

// Candidates returns the discovered asset URLs in sorted order.
func (d *Discovery) Candidates() []string {
	out := make([]string, 0, len(d.Assets))
	for u := range d.Assets {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

type crawl struct {
	r       *Resolver
	d       *Discovery
	fetched map[string]bool
}

func (c *crawl) fetch(ctx context.Context, u string) httpClient.Page {
	c.fetched[u] = true
	page := c.r.session.FetchText(ctx, u)
	if page.Empty() {
		c.d.Stats.Failed++
	} else {
		c.d.Stats.Fetched++
	}
	return page
}

// Crawl fetches the home page and follows its scripts, stylesheets and the
// same-origin endpoints named by the scripts. Every stage is capped by the
// crawl limits; failed fetches are skipped.
func (r *Resolver) Crawl(ctx context.Context) *Discovery {
	c := &crawl{r: r, d: newDiscovery(), fetched: make(map[string]bool)}
	limits := r.cfg.Crawl

	home := c.fetch(ctx, r.cfg.Site.HomeURL)
	if home.Empty() {
		r.log.Warn("home page unavailable", slog.String("url", r.cfg.Site.HomeURL))
		return c.d
	}

	c.d.addAssets(r.extractor.Assets(home.Body))
	c.d.Schedule.Merge(r.extractor.Schedule(home.Body))
	scripts, sheets := r.extractor.Document(home.Body, home.FinalURL)
	scripts = capped(scripts, limits.MaxScripts)
	sheets = capped(sheets, limits.MaxStylesheets)

	endpoints := make(map[string]struct{})
	for _, s := range scripts {
		page := c.fetch(ctx, s)
		if page.Empty() {
			continue
		}
		c.d.Stats.Scripts++
		c.d.addAssets(r.extractor.Assets(page.Body))
		c.d.Schedule.Merge(r.extractor.Schedule(page.Body))
		for _, e := range r.extractor.Endpoints(page.Body) {
			endpoints[e] = struct{}{}
		}
	}

	c.stylesheets(ctx, sheets, limits.MaxStylesheets)
	c.endpoints(ctx, endpoints, limits.MaxEndpoints)

	r.log.Debug("crawl finished",
		slog.Int("fetched", c.d.Stats.Fetched),
		slog.Int("failed", c.d.Stats.Failed),
		slog.Int("scripts", c.d.Stats.Scripts),
		slog.Int("stylesheets", c.d.Stats.Stylesheets),
		slog.Int("endpoints", c.d.Stats.Endpoints),
		slog.Int("assets", len(c.d.Assets)),
		slog.Int("scheduleEntries", len(c.d.Schedule)),
	)
	return c.d
}

// stylesheets walks the import graph breadth first. The seen-set together with
// the limit on seen plus queued sheets bounds the walk on cyclic graphs.
func (c *crawl) stylesheets(ctx context.Context, initial []string, limit int) {
	seen := make(map[string]bool)
	queue := append([]string(nil), initial...)

	for len(queue) > 0 && len(seen) < limit {
		u := queue[0]
		queue = queue[1:]
		if seen[u] {
			continue
		}
		seen[u] = true

		page := c.fetch(ctx, u)
		if page.Empty() {
			continue
		}
		more, assets := c.r.extractor.Stylesheet(page.Body, page.FinalURL)
		c.d.addAssets(assets)
		for _, s := range more {
			if !seen[s] && len(seen)+len(queue) < limit {
				queue = append(queue, s)
			}
		}
	}
	c.d.Stats.Stylesheets = len(seen)
}

func (c *crawl) endpoints(ctx context.Context, found map[string]struct{}, limit int) {
	sorted := make([]string, 0, len(found))
	for e := range found {
		if !c.fetched[e] {
			sorted = append(sorted, e)
		}
	}
	sort.Strings(sorted)
	sorted = capped(sorted, limit)
	c.d.Endpoints = sorted

	for _, e := range sorted {
		page := c.fetch(ctx, e)
		if page.Empty() {
			continue
		}
		c.d.Stats.Endpoints++
		c.d.addAssets(c.r.extractor.Assets(page.Body))
		c.d.addAssets(c.r.extractor.PlaylistAssets(page.Body, page.FinalURL))
		c.d.Schedule.Merge(c.r.extractor.Schedule(page.Body))
	}
}

func capped(list []string, limit int) []string {
	if limit >= 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
