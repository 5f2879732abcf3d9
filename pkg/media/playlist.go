package media

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"exptv-finder/pkg/config"
	"exptv-finder/pkg/schedule"
	"exptv-finder/pkg/utils"

	"github.com/grafov/m3u8"
)

var ErrNoURL = errors.New("no URL to write")

// Channel describes the single entry of the generated playlist.
type Channel struct {
	ID    string
	Name  string
	Logo  string
	Group string
}

type WriteStatus int

const (
	StatusUnchanged WriteStatus = iota
	StatusUpdated
)

func (s WriteStatus) String() string {
	switch s {
	case StatusUnchanged:
		return "Unchanged"
	case StatusUpdated:
		return "Updated"
	default:
		return "Unknown"
	}
}

type PlaylistWriter struct {
	Path    string
	Format  string
	Channel Channel
}

func NewPlaylistWriter(cfg *config.Config) *PlaylistWriter {
	return &PlaylistWriter{
		Path:   cfg.Paths.PlaylistOutput,
		Format: cfg.Playlist.Format,
		Channel: Channel{
			ID:    cfg.Playlist.ChannelID,
			Name:  cfg.Playlist.ChannelName,
			Logo:  cfg.Playlist.ChannelLogo,
			Group: cfg.Playlist.Group,
		},
	}
}

// Render returns the playlist document for mediaURL, fragment included.
func (w *PlaylistWriter) Render(mediaURL string) (string, error) {
	switch w.Format {
	case "", config.FormatM3U:
		return RenderM3U(w.Channel, mediaURL), nil
	case config.FormatHLS:
		return RenderHLS(w.Channel, mediaURL)
	default:
		return "", fmt.Errorf("unsupported playlist format %q", w.Format)
	}
}

func RenderM3U(ch Channel, mediaURL string) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	fmt.Fprintf(&b, "#EXTINF:-1 tvg-id=\"%s\" tvg-name=\"%s\" tvg-logo=\"%s\" group-title=\"%s\",%s\n",
		ch.ID, ch.Name, ch.Logo, ch.Group, ch.Name)
	b.WriteString(mediaURL)
	b.WriteString("\n")
	return b.String()
}

// RenderHLS returns a one-segment media playlist covering one schedule block.
func RenderHLS(ch Channel, mediaURL string) (string, error) {
	p, err := m3u8.NewMediaPlaylist(1, 1)
	if err != nil {
		return "", fmt.Errorf("failed to create media playlist: %w", err)
	}
	if err := p.Append(mediaURL, float64(schedule.BlockSeconds), ch.Name); err != nil {
		return "", fmt.Errorf("failed to append segment: %w", err)
	}
	return p.Encode().String(), nil
}

// Write renders mediaURL and replaces the file at Path unless its content
// already matches, ignoring surrounding whitespace. The old file is left
// intact when anything fails.
func (w *PlaylistWriter) Write(mediaURL string) (WriteStatus, error) {
	mediaURL = strings.TrimSpace(mediaURL)
	if mediaURL == "" {
		return StatusUnchanged, ErrNoURL
	}

	content, err := w.Render(mediaURL)
	if err != nil {
		return StatusUnchanged, err
	}

	existing, err := os.ReadFile(w.Path)
	if err != nil && !os.IsNotExist(err) {
		return StatusUnchanged, fmt.Errorf("failed to read %s: %w", w.Path, err)
	}
	if err == nil && strings.TrimSpace(string(existing)) == strings.TrimSpace(content) {
		return StatusUnchanged, nil
	}

	if err := utils.WriteFileAtomic(w.Path, []byte(content), 0644); err != nil {
		return StatusUnchanged, err
	}
	return StatusUpdated, nil
}
