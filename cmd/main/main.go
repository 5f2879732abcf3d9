package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"exptv-finder/cmd/finder"
	"exptv-finder/cmd/playlist"
	"exptv-finder/pkg/config"
	"exptv-finder/pkg/constants"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

func execute(args []string) int {
	var (
		debug    bool
		manifest string
		output   string
		format   string
		exitCode int
	)

	root := &cobra.Command{
		Use:           "exptv-finder",
		Short:         "Find the video airing on exptv.org right now",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	findCmd := &cobra.Command{
		Use:   "find",
		Short: "Print the airing asset URL and the URL with its playback position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(func(c *config.Config) {
				if cmd.Flags().Changed("manifest") {
					c.Paths.ManifestPath = manifest
				}
			})
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(context.Background())
			defer cancel()
			exitCode = finder.Find(ctx, cfg, newLogger(debug), cmd.OutOrStdout())
			return nil
		},
	}
	findCmd.Flags().StringVar(&manifest, "manifest", "", "Write a JSON report of the run to this path")

	playlistCmd := &cobra.Command{
		Use:   "playlist",
		Short: "Write the airing asset as a single-channel playlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(func(c *config.Config) {
				if cmd.Flags().Changed("output") {
					c.Paths.PlaylistOutput = output
				}
				if cmd.Flags().Changed("format") {
					c.Playlist.Format = strings.ToLower(format)
				}
			})
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(context.Background())
			defer cancel()
			exitCode = playlist.Generate(ctx, cfg, newLogger(debug), cmd.OutOrStdout())
			return nil
		},
	}
	playlistCmd.Flags().StringVarP(&output, "output", "o", "Exp.m3u", "Playlist file to write")
	playlistCmd.Flags().StringVar(&format, "format", config.FormatM3U, "Playlist format: m3u or hls")

	root.AddCommand(findCmd, playlistCmd)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return exitCode
}

// loadConfig returns a copy of the shared configuration with flag overrides
// applied and checked again.
func loadConfig(override func(*config.Config)) (*config.Config, error) {
	shared, err := constants.GetConfig()
	if err != nil {
		return nil, err
	}
	cfg := *shared

	override(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	for _, p := range []*string{&cfg.Paths.PlaylistOutput, &cfg.Paths.ManifestPath} {
		if *p == "" || filepath.IsAbs(*p) {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", *p, err)
		}
		*p = abs
	}
	return &cfg, nil
}

// newLogger logs to stderr so that stdout carries only the command's output.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("run", uuid.NewString()))
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			slog.Info("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
