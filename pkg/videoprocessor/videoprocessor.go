// Package videoprocessor is the public entry point for rendering caption
// overlays onto short videos.
package videoprocessor

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ZacxDev/chorus-overlay/internal/config"
	"github.com/ZacxDev/chorus-overlay/internal/ffmpeg"
	"github.com/ZacxDev/chorus-overlay/internal/layout"
	"github.com/ZacxDev/chorus-overlay/internal/logging"
	"github.com/ZacxDev/chorus-overlay/internal/processor"
)

// RenderOptions defines options for a single local render
type RenderOptions = config.RenderOptions

// GetSupportedPlatforms returns the output profiles that can be targeted
func GetSupportedPlatforms() []string {
	return processor.GetSupportedPlatforms()
}

// ReadText returns the contents of path, or "" for an empty path.
func ReadText(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", path)
	}
	return string(data), nil
}

// BuildFilterGraph returns the ffmpeg filter chain for opts without running
// the encoder
func BuildFilterGraph(opts *RenderOptions) (string, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return "", err
	}
	req, err := layout.ParseRequest(opts.CaptionsJSON, opts.ChorusText)
	if err != nil {
		return "", err
	}
	r := processor.NewRenderer(cfg, ffmpeg.NewProcessor(zap.NewNop(), 1), zap.NewNop())
	plan, err := r.Plan(req, opts.TargetPlatform)
	if err != nil {
		return "", err
	}
	return plan.FilterChain, nil
}

// RenderVideo overlays the text in opts onto opts.InputPath
func RenderVideo(ctx context.Context, opts *RenderOptions) error {
	if opts.InputPath == "" || opts.OutputPath == "" {
		return errors.New("input path and output path are required")
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(opts.InputPath); err != nil {
		return errors.Wrap(err, "input video")
	}

	req, err := layout.ParseRequest(opts.CaptionsJSON, opts.ChorusText)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log, opts.Verbose)
	defer logger.Sync()

	encoder := ffmpeg.NewProcessor(logger, cfg.Render.MaxConcurrent)
	_, err = processor.NewRenderer(cfg, encoder, logger).
		Render(ctx, req, opts.InputPath, opts.OutputPath, opts.TargetPlatform)
	return err
}
