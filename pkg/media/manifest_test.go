package media

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type writtenManifest struct {
	Outcome    ManifestOutcome `json:"outcome"`
	Candidates []ManifestItem  `json:"candidates"`
}

func readManifest(t *testing.T, path string) writtenManifest {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read manifest file: %v", err)
	}
	var doc writtenManifest
	if err := json.Unmarshal(content, &doc); err != nil {
		t.Fatalf("Failed to unmarshal manifest JSON: %v", err)
	}
	return doc
}

func TestManifestWriter_NewManifestWriter(t *testing.T) {
	writer := NewManifestWriter("run.json")

	if writer == nil {
		t.Fatal("NewManifestWriter() returned nil")
	}
	if writer.Candidates == nil {
		t.Error("Candidates should be initialized")
	}
	if writer.Index == nil {
		t.Error("Index should be initialized")
	}
	if len(writer.Candidates) != 0 {
		t.Errorf("Candidates should be empty, got %d items", len(writer.Candidates))
	}
}

func TestManifestWriter_AddOrUpdateCandidate(t *testing.T) {
	writer := NewManifestWriter("test.json")
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	writer.AddOrUpdateCandidate(ManifestItem{URL: "a.mp4", Source: SourceDiscovered, LastModified: &older})
	if len(writer.Candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(writer.Candidates))
	}
	if writer.Candidates[0].Reachable {
		t.Error("Candidate should start unreachable")
	}

	// A later reachable answer wins.
	writer.AddOrUpdateCandidate(ManifestItem{URL: "a.mp4", Source: SourceSequence, Reachable: true, LastModified: &newer})
	if len(writer.Candidates) != 1 {
		t.Errorf("Candidate count should remain 1 after update, got %d", len(writer.Candidates))
	}
	if !writer.Candidates[0].Reachable {
		t.Error("Candidate should be reachable after update")
	}
	if !writer.Candidates[0].LastModified.Equal(newer) {
		t.Errorf("Expected LastModified %v, got %v", newer, writer.Candidates[0].LastModified)
	}
	if writer.Candidates[0].Source != SourceDiscovered {
		t.Errorf("Source should remain %q, got %q", SourceDiscovered, writer.Candidates[0].Source)
	}

	// An unreachable, older answer does not downgrade.
	writer.AddOrUpdateCandidate(ManifestItem{URL: "a.mp4", LastModified: &older})
	if !writer.Candidates[0].Reachable || !writer.Candidates[0].LastModified.Equal(newer) {
		t.Error("Candidate should keep its best answer")
	}

	for i := 0; i < 20; i++ {
		writer.AddOrUpdateCandidate(ManifestItem{URL: string(rune('b'+i)) + ".mp4"})
	}
	writer.AddOrUpdateCandidate(ManifestItem{URL: "b.mp4", Reachable: true})
	if len(writer.Candidates) != 21 {
		t.Errorf("Expected 21 candidates, got %d", len(writer.Candidates))
	}
	if !writer.Candidates[1].Reachable {
		t.Error("Index should point into the current candidate slice")
	}
}

func TestManifestWriter_AddOrUpdateCandidate_NilFields(t *testing.T) {
	writer := &ManifestWriter{ManifestPath: "test.json"}

	writer.AddOrUpdateCandidate(ManifestItem{URL: "a.mp4"})

	if writer.Index == nil {
		t.Error("Index should be initialized")
	}
	if len(writer.Candidates) != 1 {
		t.Errorf("Expected 1 candidate, got %d", len(writer.Candidates))
	}
}

func TestManifestWriter_NilReceiver(t *testing.T) {
	var writer *ManifestWriter

	// None of these should panic.
	writer.AddOrUpdateCandidate(ManifestItem{URL: "a.mp4"})
	writer.AddProbeResults(SourceSequence, NewProbeResults())
	writer.SetOutcome(ManifestOutcome{State: "UNRESOLVED"})
	if err := writer.WriteManifest(); err != nil {
		t.Errorf("WriteManifest() on nil writer returned %v", err)
	}
}

func TestManifestWriter_WriteManifest(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "run-manifest.json")
	writer := NewManifestWriter(manifestPath)

	results := NewProbeResults()
	results.Record(ProbeResult{URL: "https://exptv.org/content2/VIDEOBREAKS3.mp4", Reachable: true})
	results.Record(ProbeResult{URL: "https://exptv.org/content2/VIDEOBREAKS1.mp4"})
	writer.AddProbeResults(SourceSequence, results)
	writer.AddOrUpdateCandidate(ManifestItem{URL: "https://exptv.org/content2/VIDEOBREAKS2.mp4", Source: SourceDiscovered})
	writer.SetOutcome(ManifestOutcome{
		State:    "PROBE_SEQUENCE",
		URL:      "https://exptv.org/content2/VIDEOBREAKS3.mp4",
		Offset:   600,
		Verified: true,
	})

	if err := writer.WriteManifest(); err != nil {
		t.Fatalf("WriteManifest() failed: %v", err)
	}

	doc := readManifest(t, manifestPath)

	if len(doc.Candidates) != 3 {
		t.Fatalf("Expected 3 candidates in manifest, got %d", len(doc.Candidates))
	}
	expectedOrder := []string{
		"https://exptv.org/content2/VIDEOBREAKS1.mp4",
		"https://exptv.org/content2/VIDEOBREAKS2.mp4",
		"https://exptv.org/content2/VIDEOBREAKS3.mp4",
	}
	for i, c := range doc.Candidates {
		if c.URL != expectedOrder[i] {
			t.Errorf("Candidate %d: expected URL '%s', got '%s'", i, expectedOrder[i], c.URL)
		}
	}
	if doc.Candidates[1].Source != SourceDiscovered {
		t.Errorf("Expected source %q, got %q", SourceDiscovered, doc.Candidates[1].Source)
	}
	if !doc.Candidates[2].Reachable {
		t.Error("Expected last candidate to be reachable")
	}
	if doc.Outcome.State != "PROBE_SEQUENCE" || doc.Outcome.Offset != 600 || !doc.Outcome.Verified {
		t.Errorf("Unexpected outcome: %+v", doc.Outcome)
	}
}

func TestManifestWriter_WriteManifest_EmptyCandidates(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "empty-manifest.json")
	writer := NewManifestWriter(manifestPath)

	if err := writer.WriteManifest(); err != nil {
		t.Fatalf("WriteManifest() failed: %v", err)
	}

	doc := readManifest(t, manifestPath)
	if len(doc.Candidates) != 0 {
		t.Errorf("Expected empty candidates array, got %d items", len(doc.Candidates))
	}
}

func TestManifestWriter_WriteManifest_DisabledPath(t *testing.T) {
	writer := NewManifestWriter("")
	writer.AddOrUpdateCandidate(ManifestItem{URL: "a.mp4"})

	if err := writer.WriteManifest(); err != nil {
		t.Errorf("WriteManifest() with empty path returned %v", err)
	}
}

func TestManifestWriter_WriteManifest_InvalidPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	writer := NewManifestWriter(filepath.Join(blocker, "manifest.json"))
	writer.AddOrUpdateCandidate(ManifestItem{URL: "a.mp4"})

	if err := writer.WriteManifest(); err == nil {
		t.Error("Expected an error when the parent is a regular file")
	}
}
