package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/grafov/m3u8"
)

func (e *PatternExtractor) Document(html, baseURL string) (scripts, stylesheets []string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil
	}

	seen := make(map[string]bool)
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			return
		}
		if abs, ok := Absolutize(baseURL, src); ok && !seen[abs] {
			seen[abs] = true
			scripts = append(scripts, abs)
		}
	})

	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		if !strings.Contains(strings.ToLower(s.AttrOr("rel", "")), "stylesheet") {
			return
		}
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		if abs, ok := Absolutize(baseURL, href); ok && !seen[abs] {
			seen[abs] = true
			stylesheets = append(stylesheets, abs)
		}
	})

	return scripts, stylesheets
}

func (e *PatternExtractor) PlaylistAssets(text, baseURL string) []string {
	if !strings.HasPrefix(strings.TrimSpace(text), "#EXTM3U") {
		return nil
	}

	pl, listType, err := m3u8.DecodeFrom(strings.NewReader(text), false)
	if err != nil {
		return nil
	}

	var uris []string
	switch listType {
	case m3u8.MEDIA:
		for _, seg := range pl.(*m3u8.MediaPlaylist).Segments {
			if seg != nil {
				uris = append(uris, seg.URI)
			}
		}
	case m3u8.MASTER:
		for _, v := range pl.(*m3u8.MasterPlaylist).Variants {
			if v != nil {
				uris = append(uris, v.URI)
			}
		}
	}

	set := make(map[string]struct{})
	for _, uri := range uris {
		abs, ok := Absolutize(baseURL, uri)
		if ok && e.isAsset(abs) {
			set[StripFragment(abs)] = struct{}{}
		}
	}
	return sortedKeys(set)
}
