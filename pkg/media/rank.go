package media

import (
	"regexp"
	"sort"
	"strconv"
	"time"
)

var trailingNumberRe = regexp.MustCompile(`(?i)(\d+)\.mp4`)

// TrailingNumber returns the number right before ".mp4" in u, or -1.
func TrailingNumber(u string) int {
	matches := trailingNumberRe.FindAllStringSubmatch(u, -1)
	if len(matches) == 0 {
		return -1
	}
	n, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return -1
	}
	return n
}

// Selection is the winning candidate of a probe batch.
type Selection struct {
	URL          string
	Reachable    bool
	LastModified *time.Time
}

// Rank orders the reachable candidates best first: newest Last-Modified,
// then highest trailing number, then URL.
func Rank(urls []string, results *ProbeResults) []ProbeResult {
	var reachable []ProbeResult
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		if res, ok := results.Get(u); ok && res.Reachable {
			reachable = append(reachable, res)
		}
	}

	epoch := time.Unix(0, 0).UTC()
	modified := func(r ProbeResult) time.Time {
		if r.LastModified == nil {
			return epoch
		}
		return *r.LastModified
	}

	sort.SliceStable(reachable, func(i, j int) bool {
		a, b := reachable[i], reachable[j]
		if ma, mb := modified(a), modified(b); !ma.Equal(mb) {
			return ma.After(mb)
		}
		if na, nb := TrailingNumber(a.URL), TrailingNumber(b.URL); na != nb {
			return na > nb
		}
		return a.URL < b.URL
	})
	return reachable
}

// RankBySuffix orders urls by trailing number, highest first.
func RankBySuffix(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if na, nb := TrailingNumber(out[i]), TrailingNumber(out[j]); na != nb {
			return na > nb
		}
		return out[i] < out[j]
	})
	return out
}

// Select picks the best reachable candidate. When nothing was reachable the
// unfiltered set is ranked by trailing number and the winner is returned with
// Reachable false.
func Select(urls []string, results *ProbeResults) (Selection, bool) {
	if len(urls) == 0 {
		return Selection{}, false
	}

	if ranked := Rank(urls, results); len(ranked) > 0 {
		best := ranked[0]
		return Selection{URL: best.URL, Reachable: true, LastModified: best.LastModified}, true
	}

	return Selection{URL: RankBySuffix(urls)[0]}, true
}
