// Package extract pulls schedule declarations, video asset URLs and follow-up
// references out of fetched HTML, JavaScript and CSS.
//
// The site's schedule format is undocumented and shows up inside inline
// scripts, external bundles and JSON-ish endpoints alike, so extraction is
// tolerant pattern matching rather than a parser per language.
package extract

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"exptv-finder/pkg/config"
	"exptv-finder/pkg/schedule"
)

// Extractor is the parsing strategy used by the resolver's crawl.
type Extractor interface {
	// Schedule returns every well-formed schedule declaration in text.
	Schedule(text string) schedule.Table
	// Assets returns absolute video asset URLs, fragments stripped.
	Assets(text string) []string
	// Endpoints returns same-origin URLs that are not static assets.
	Endpoints(text string) []string
	// Stylesheet classifies the references of a stylesheet fetched from
	// baseURL into further stylesheets and video assets.
	Stylesheet(text, baseURL string) (sheets, assets []string)
	// Document returns external script and stylesheet references of an HTML
	// page, in document order.
	Document(html, baseURL string) (scripts, stylesheets []string)
	// PlaylistAssets returns video assets listed by an HLS playlist body.
	PlaylistAssets(text, baseURL string) []string
}

var (
	scheduleVarRe = regexp.MustCompile(`(?i)\b((?:sun|mon|tue|wed|thu|fri|sat)_[0-2]\d_b[12])\s*=\s*\{([^}]*)\}`)
	fileFieldRe   = regexp.MustCompile(`(?i)\b["']?file["']?\s*:\s*["']([^"']+)["']`)
	anyURLRe      = regexp.MustCompile(`(?i)https?://[^\s"'<>]+`)
	cssURLRe      = regexp.MustCompile(`(?i)url\(\s*['"]?([^'")]+)['"]?\s*\)`)
	cssImportRe   = regexp.MustCompile(`(?i)@import\s+(?:url\(\s*)?['"]?([^'")]+)['"]?\s*\)?`)
)

var staticExtensions = []string{".js", ".css", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico", ".mp4"}

// PatternExtractor is the regular-expression Extractor.
type PatternExtractor struct {
	host          string
	contentPrefix string
	assetRe       *regexp.Regexp
}

// New builds an extractor for a site host (same-origin checks) and a content
// prefix of the form "host/path/" under which video assets live.
func New(host, contentPrefix string) *PatternExtractor {
	return &PatternExtractor{
		host:          strings.ToLower(host),
		contentPrefix: strings.ToLower(contentPrefix),
		assetRe: regexp.MustCompile(`(?i)https?://` + regexp.QuoteMeta(contentPrefix) +
			`[^\s"'<>]+?\.mp4(?:#[^\s"'<>]*)?`),
	}
}

func NewFromConfig(cfg *config.Config) *PatternExtractor {
	return New(cfg.SiteHost(), cfg.ContentPrefix())
}

func (e *PatternExtractor) Schedule(text string) schedule.Table {
	table := schedule.Table{}
	for _, m := range scheduleVarRe.FindAllStringSubmatch(text, -1) {
		key, ok := schedule.ParseKey(m[1])
		if !ok {
			continue
		}
		f := fileFieldRe.FindStringSubmatch(m[2])
		if f == nil {
			continue
		}
		table.Set(key, schedule.Entry{File: f[1]})
	}
	return table
}

func (e *PatternExtractor) Assets(text string) []string {
	set := make(map[string]struct{})
	for _, u := range e.assetRe.FindAllString(unescapeSlashes(text), -1) {
		set[StripFragment(u)] = struct{}{}
	}
	return sortedKeys(set)
}

func (e *PatternExtractor) Endpoints(text string) []string {
	set := make(map[string]struct{})
	for _, raw := range anyURLRe.FindAllString(unescapeSlashes(text), -1) {
		u := trimURL(raw)
		if !e.sameOrigin(u) {
			continue
		}
		if hasAnySuffix(strings.ToLower(u), staticExtensions) {
			continue
		}
		set[u] = struct{}{}
	}
	return sortedKeys(set)
}

func (e *PatternExtractor) Stylesheet(text, baseURL string) (sheets, assets []string) {
	var refs []string
	for _, m := range cssURLRe.FindAllStringSubmatch(text, -1) {
		refs = append(refs, m[1])
	}
	for _, m := range cssImportRe.FindAllStringSubmatch(text, -1) {
		refs = append(refs, m[1])
	}
	for _, raw := range anyURLRe.FindAllString(text, -1) {
		refs = append(refs, trimURL(raw))
	}

	sheetSet := make(map[string]struct{})
	assetSet := make(map[string]struct{})
	for _, ref := range refs {
		ref = strings.TrimRight(strings.TrimSpace(ref), ";")
		if ref == "" {
			continue
		}
		abs, ok := Absolutize(baseURL, ref)
		if !ok {
			continue
		}
		switch {
		case e.isStylesheet(abs):
			sheetSet[abs] = struct{}{}
		case e.isAsset(abs):
			assetSet[StripFragment(abs)] = struct{}{}
		}
	}
	return sortedKeys(sheetSet), sortedKeys(assetSet)
}

// Absolutize resolves ref against base.
func Absolutize(base, ref string) (string, bool) {
	b, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", false
	}
	return b.ResolveReference(r).String(), true
}

// StripFragment removes a "#..." suffix so that "a.mp4#t=5" and "a.mp4" are
// the same candidate.
func StripFragment(u string) string {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		return u[:i]
	}
	return u
}

func (e *PatternExtractor) sameOrigin(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	h := strings.ToLower(u.Hostname())
	return h == e.host || strings.HasSuffix(h, "."+e.host)
}

func (e *PatternExtractor) isStylesheet(abs string) bool {
	u, err := url.Parse(abs)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".css")
}

func (e *PatternExtractor) isAsset(abs string) bool {
	lower := strings.ToLower(StripFragment(abs))
	return strings.HasSuffix(lower, ".mp4") && strings.Contains(lower, e.contentPrefix)
}

// trimURL drops punctuation that the loose URL pattern picks up from the
// surrounding code, e.g. the ")" of url(...) or the ";" ending a statement.
func trimURL(u string) string {
	return strings.TrimRight(u, `),;]}\`)
}

func unescapeSlashes(text string) string {
	return strings.ReplaceAll(text, `\/`, `/`)
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
