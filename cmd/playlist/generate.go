package playlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"exptv-finder/pkg/config"
	"exptv-finder/pkg/constants"
	"exptv-finder/pkg/media"
	"exptv-finder/pkg/resolver"
)

// Generate resolves the airing asset and writes it as the channel's playlist.
// Status messages go to out; the existing playlist is left alone on failure.
func Generate(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) int {
	res, err := resolver.New(cfg, logger).Resolve(ctx)
	if err != nil {
		fmt.Fprintln(out, "Finder failed, not updating M3U.")
		fmt.Fprintln(out, err)
		return constants.ExitPlaylistFailed
	}

	writer := media.NewPlaylistWriter(cfg)
	status, err := writer.Write(res.Lines()[0])
	if errors.Is(err, media.ErrNoURL) {
		fmt.Fprintln(out, "No URL returned by finder.")
		return constants.ExitPlaylistFailed
	}
	if err != nil {
		logger.Error("failed to write playlist",
			slog.String("path", writer.Path),
			slog.Any("error", err),
		)
		return constants.ExitPlaylistFailed
	}

	switch status {
	case media.StatusUnchanged:
		fmt.Fprintln(out, "M3U unchanged.")
	case media.StatusUpdated:
		fmt.Fprintln(out, "M3U updated with Live TV tags.")
	}
	logger.Debug("playlist written",
		slog.String("path", writer.Path),
		slog.String("format", writer.Format),
		slog.String("status", status.String()),
	)
	return 0
}
