package finder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"exptv-finder/pkg/config"
	"exptv-finder/pkg/constants"
	"exptv-finder/pkg/media"
	"exptv-finder/pkg/resolver"
)

// Find resolves the airing asset and prints the plain URL and the URL with its
// playback position to out. It returns the process exit status; nothing is
// printed on failure.
func Find(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) int {
	r := resolver.New(cfg, logger)
	if cfg.Paths.ManifestPath != "" {
		r.Manifest = media.NewManifestWriter(cfg.Paths.ManifestPath)
	}

	res, err := r.Resolve(ctx)

	if mErr := r.Manifest.WriteManifest(); mErr != nil {
		logger.Warn("failed to write run manifest", slog.Any("error", mErr))
	} else if r.Manifest != nil {
		logger.Debug("run manifest written", slog.String("path", cfg.Paths.ManifestPath))
	}

	if err != nil {
		logger.Error("finder failed", slog.Any("error", err))
		return constants.ExitUnresolved
	}

	for _, line := range res.Lines() {
		fmt.Fprintln(out, line)
	}
	return 0
}
