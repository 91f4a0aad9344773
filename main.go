package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ZacxDev/chorus-overlay/internal/config"
	"github.com/ZacxDev/chorus-overlay/internal/ffmpeg"
	"github.com/ZacxDev/chorus-overlay/internal/logging"
	"github.com/ZacxDev/chorus-overlay/internal/processor"
	"github.com/ZacxDev/chorus-overlay/internal/server"
	"github.com/ZacxDev/chorus-overlay/pkg/videoprocessor"
)

var (
	rootCmd = &cobra.Command{
		Use:   "chorus-overlay",
		Short: "Overlay timed caption text onto short portrait videos",
		Long: `chorus-overlay renders word-wrapped, fading caption text onto a video at 1080x1920.

Two text modes are supported:
  captions         a JSON list of {"text", "start", "duration"} items, stacked from the bottom
  opposite chorus  a block of lines, wrapped and faded in one by one, centered on the frame

Examples:
  # Render an opposite chorus clip
  chorus-overlay render -i input.mp4 -o out.mp4 --chorus chorus.txt

  # Print the filter graph only
  chorus-overlay filter --captions captions.json

  # Run the HTTP renderer
  chorus-overlay serve --config config.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Render caption text onto a video",
		Long: fmt.Sprintf(`Render caption text onto a video. Exactly one of --captions or --chorus is used;
captions win when both are given.

Supported platforms:
%s
Example:
  chorus-overlay render -i input.mp4 -o out.mp4 --chorus chorus.txt -t instagram-reel`,
			formatSupportedPlatforms()),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := renderOptions(cmd)
			if err != nil {
				return err
			}
			opts.InputPath, _ = cmd.Flags().GetString("input")
			opts.OutputPath, _ = cmd.Flags().GetString("output")
			opts.Verbose, _ = cmd.Flags().GetBool("verbose")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return videoprocessor.RenderVideo(ctx, opts)
		},
	}

	filterCmd = &cobra.Command{
		Use:   "filter",
		Short: "Print the ffmpeg filter graph without rendering",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := renderOptions(cmd)
			if err != nil {
				return err
			}
			chain, err := videoprocessor.BuildFilterGraph(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), chain)
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the renderer over HTTP",
		Long: `Serve the renderer over HTTP.

Endpoints:
  GET  /         liveness
  POST /render   multipart: video file plus captions (JSON) or opposite_chorus
  POST /filter   form: captions or opposite_chorus, returns the filter graph
  GET  /metrics  Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			verbose, _ := cmd.Flags().GetBool("verbose")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}

			logger := logging.New(cfg.Log, verbose)
			defer logger.Sync()

			encoder := ffmpeg.NewProcessor(logger, cfg.Render.MaxConcurrent)
			srv := server.New(cfg, processor.NewRenderer(cfg, encoder, logger), logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting renderer",
				zap.String("addr", cfg.Server.Addr),
				zap.String("platform", cfg.Render.Platform),
				zap.Int64("max_concurrent", cfg.Render.MaxConcurrent),
			)
			return srv.Run(ctx)
		},
	}

	platformsCmd = &cobra.Command{
		Use:   "platforms",
		Short: "List supported output platforms",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), formatSupportedPlatforms())
		},
	}
)

// renderOptions reads the text and config flags shared by render and filter
func renderOptions(cmd *cobra.Command) (*videoprocessor.RenderOptions, error) {
	captionsPath, _ := cmd.Flags().GetString("captions")
	chorusPath, _ := cmd.Flags().GetString("chorus")

	opts := &videoprocessor.RenderOptions{}
	opts.ConfigPath, _ = cmd.Flags().GetString("config")
	opts.TargetPlatform, _ = cmd.Flags().GetString("target-platform")

	var err error
	if opts.CaptionsJSON, err = videoprocessor.ReadText(captionsPath); err != nil {
		return nil, err
	}
	if opts.ChorusText, err = videoprocessor.ReadText(chorusPath); err != nil {
		return nil, err
	}
	return opts, nil
}

func formatSupportedPlatforms() string {
	var sb strings.Builder
	for _, platform := range videoprocessor.GetSupportedPlatforms() {
		sb.WriteString(fmt.Sprintf("- %s\n", platform))
	}
	return sb.String()
}

func addTextFlags(cmd *cobra.Command) {
	cmd.Flags().String("captions", "", "Path to a captions JSON file")
	cmd.Flags().String("chorus", "", "Path to an opposite chorus text file")
	cmd.Flags().StringP("target-platform", "t", "",
		fmt.Sprintf("Output platform (%s)", strings.Join(videoprocessor.GetSupportedPlatforms(), ", ")))
	cmd.Flags().StringP("config", "c", "", "Path to a YAML config file")
}

func init() {
	addTextFlags(renderCmd)
	renderCmd.Flags().StringP("input", "i", "", "Input video file")
	renderCmd.Flags().StringP("output", "o", "", "Output video path")
	renderCmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")
	renderCmd.MarkFlagRequired("input")
	renderCmd.MarkFlagRequired("output")

	addTextFlags(filterCmd)

	serveCmd.Flags().StringP("config", "c", "", "Path to a YAML config file")
	serveCmd.Flags().String("addr", "", fmt.Sprintf("Listen address (default %s)", config.DefaultAddr))
	serveCmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(platformsCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
