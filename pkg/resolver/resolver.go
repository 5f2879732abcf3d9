// Package resolver decides which video asset is airing right now.
//
// A run crawls the site once, then walks a fixed chain of strategies: the
// embedded schedule, the best reachable asset found while crawling, and
// finally a probe of the numbered break reels. The first strategy that
// produces an asset wins.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"exptv-finder/pkg/config"
	"exptv-finder/pkg/extract"
	"exptv-finder/pkg/httpClient"
	"exptv-finder/pkg/media"
	"exptv-finder/pkg/schedule"
)

var ErrUnresolved = errors.New("no airing asset could be determined")

type State int

const (
	Unresolved State = iota
	ScheduleMatch
	DiscoveredBest
	ProbeSequence
)

func (s State) String() string {
	switch s {
	case ScheduleMatch:
		return "SCHEDULE_MATCH"
	case DiscoveredBest:
		return "DISCOVERED_BEST"
	case ProbeSequence:
		return "PROBE_SEQUENCE"
	case Unresolved:
		return "UNRESOLVED"
	default:
		return "UNKNOWN"
	}
}

// Result is the outcome of a run. Verified is false only for the last-resort
// pick among discovered assets that no probe confirmed.
type Result struct {
	State    State
	URL      string
	Offset   int
	Verified bool
}

// Lines returns the plain URL and the URL with its playback position.
func (r Result) Lines() []string {
	return []string{r.URL, fmt.Sprintf("%s#t=%d", r.URL, r.Offset)}
}

type Resolver struct {
	cfg       *config.Config
	session   *httpClient.Session
	extractor extract.Extractor
	prober    *media.Prober
	log       *slog.Logger

	// Now is the wall clock. It is read after the crawl for the schedule slot
	// and after probing for the playback position.
	Now func() time.Time
	// Manifest, when set, receives every probe result and the outcome.
	Manifest *media.ManifestWriter
}

func New(cfg *config.Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	session := httpClient.NewSessionFromConfig(cfg, logger)
	return &Resolver{
		cfg:       cfg,
		session:   session,
		extractor: extract.NewFromConfig(cfg),
		prober:    media.NewProber(session, cfg.Probe.WorkerCount, logger),
		log:       logger,
		Now:       time.Now,
	}
}

// WithExtractor swaps the parsing strategy.
func (r *Resolver) WithExtractor(e extract.Extractor) *Resolver {
	r.extractor = e
	return r
}

// Resolve runs the crawl and the fallback chain.
func (r *Resolver) Resolve(ctx context.Context) (Result, error) {
	d := r.Crawl(ctx)

	// The slot is taken once the crawl is over; it may have crossed a block.
	slot := schedule.SlotAt(r.Now())
	if m, ok := d.Schedule.Lookup(slot); ok {
		r.log.Debug("schedule match",
			slog.String("slot", slot.Key.String()),
			slog.String("entry", m.Key.String()),
			slog.Bool("previousBlock", m.FromPrevious),
		)
		return r.finish(Result{
			State:    ScheduleMatch,
			URL:      r.cfg.GetAssetURL(m.File),
			Offset:   m.Offset,
			Verified: true,
		}), nil
	}
	r.log.Debug("no schedule entry", slog.String("slot", slot.Key.String()))

	var fallback media.Selection
	haveFallback := false
	if candidates := d.Candidates(); len(candidates) > 0 {
		sel, ok := r.selectFrom(ctx, media.SourceDiscovered, candidates)
		if ok && sel.Reachable {
			return r.finish(Result{State: DiscoveredBest, URL: sel.URL, Offset: r.offset(), Verified: true}), nil
		}
		fallback, haveFallback = sel, ok
	}

	if seq := r.cfg.GetSequenceURLs(); len(seq) > 0 {
		sel, ok := r.selectFrom(ctx, media.SourceSequence, seq)
		if ok && sel.Reachable {
			return r.finish(Result{State: ProbeSequence, URL: sel.URL, Offset: r.offset(), Verified: true}), nil
		}
	}

	if haveFallback {
		r.log.Warn("no candidate answered, using highest numbered discovered asset", slog.String("url", fallback.URL))
		return r.finish(Result{State: DiscoveredBest, URL: fallback.URL, Offset: r.offset()}), nil
	}

	r.finish(Result{State: Unresolved})
	return Result{State: Unresolved}, ErrUnresolved
}

// offset is the playback position for assets chosen by probing, read after
// the probes have finished.
func (r *Resolver) offset() int {
	return schedule.SecondsIntoHalfHour(r.Now())
}

func (r *Resolver) selectFrom(ctx context.Context, source string, urls []string) (media.Selection, bool) {
	results := r.prober.ProbeAll(ctx, urls)
	r.Manifest.AddProbeResults(source, results)
	sel, ok := media.Select(urls, results)
	r.log.Debug("candidates probed",
		slog.String("source", source),
		slog.Int("candidates", results.Len()),
		slog.Int("reachable", results.ReachableCount()),
		slog.String("best", sel.URL),
	)
	return sel, ok
}

func (r *Resolver) finish(res Result) Result {
	r.Manifest.SetOutcome(media.ManifestOutcome{
		State:    res.State.String(),
		URL:      res.URL,
		Offset:   res.Offset,
		Verified: res.Verified,
	})
	if res.State != Unresolved {
		r.log.Info("resolved",
			slog.String("state", res.State.String()),
			slog.String("url", res.URL),
			slog.Int("offset", res.Offset),
			slog.Bool("verified", res.Verified),
		)
	}
	return res
}
