package media

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"exptv-finder/pkg/utils"
)

// Candidate sources recorded in the run manifest.
const (
	SourceDiscovered = "discovered"
	SourceSequence   = "sequence"
)

type ManifestWriter struct {
	ManifestPath string
	Candidates   []ManifestItem
	Index        map[string]*ManifestItem
	Outcome      ManifestOutcome
}

type ManifestItem struct {
	URL          string     `json:"url"`
	Source       string     `json:"source"`
	Reachable    bool       `json:"reachable"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

type ManifestOutcome struct {
	State    string `json:"state"`
	URL      string `json:"url,omitempty"`
	Offset   int    `json:"offset"`
	Verified bool   `json:"verified"`
}

type manifestDocument struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Outcome     ManifestOutcome `json:"outcome"`
	Candidates  []ManifestItem  `json:"candidates"`
}

func NewManifestWriter(path string) *ManifestWriter {
	return &ManifestWriter{
		ManifestPath: path,
		Candidates:   make([]ManifestItem, 0),
		Index:        make(map[string]*ManifestItem),
	}
}

// AddOrUpdateCandidate records a probed URL. A URL seen twice keeps the
// reachable answer and the newest Last-Modified.
func (m *ManifestWriter) AddOrUpdateCandidate(item ManifestItem) {
	if m == nil {
		return
	}
	if m.Index == nil {
		m.Index = make(map[string]*ManifestItem)
	}

	if existing, ok := m.Index[item.URL]; ok {
		existing.Reachable = existing.Reachable || item.Reachable
		if item.LastModified != nil && (existing.LastModified == nil || item.LastModified.After(*existing.LastModified)) {
			existing.LastModified = item.LastModified
		}
		return
	}

	m.Candidates = append(m.Candidates, item)
	m.reindex()
}

// reindex refreshes Index after append may have moved the backing array.
func (m *ManifestWriter) reindex() {
	for i := range m.Candidates {
		m.Index[m.Candidates[i].URL] = &m.Candidates[i]
	}
}

func (m *ManifestWriter) AddProbeResults(source string, results *ProbeResults) {
	if m == nil || results == nil {
		return
	}
	for _, res := range results.All() {
		m.AddOrUpdateCandidate(ManifestItem{
			URL:          res.URL,
			Source:       source,
			Reachable:    res.Reachable,
			LastModified: res.LastModified,
		})
	}
}

func (m *ManifestWriter) SetOutcome(outcome ManifestOutcome) {
	if m == nil {
		return
	}
	m.Outcome = outcome
}

// WriteManifest writes the candidates ordered by URL together with the
// outcome. An empty path disables the manifest.
func (m *ManifestWriter) WriteManifest() error {
	if m == nil || m.ManifestPath == "" {
		return nil
	}

	candidates := make([]ManifestItem, len(m.Candidates))
	copy(candidates, m.Candidates)
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].URL < candidates[j].URL
	})

	data, err := json.MarshalIndent(manifestDocument{
		GeneratedAt: time.Now().UTC(),
		Outcome:     m.Outcome,
		Candidates:  candidates,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := utils.ValidateWritablePath(m.ManifestPath); err != nil {
		return fmt.Errorf("manifest path validation failed: %w", err)
	}

	if err := os.WriteFile(m.ManifestPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}
