package processor

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ZacxDev/chorus-overlay/internal/config"
	"github.com/ZacxDev/chorus-overlay/internal/drawtext"
	"github.com/ZacxDev/chorus-overlay/internal/ffmpeg"
	"github.com/ZacxDev/chorus-overlay/internal/layout"
	"github.com/ZacxDev/chorus-overlay/internal/platform"
	"github.com/ZacxDev/chorus-overlay/pkg/types"
)

// Encoder runs the external video encoder
type Encoder interface {
	GetVideoMetadata(inputPath string) (*ffmpeg.VideoMetadata, error)
	Encode(ctx context.Context, job ffmpeg.Job) error
}

// Plan is everything derived from a request before the encoder runs
type Plan struct {
	Mode        types.RenderMode
	Lines       []layout.CaptionLine
	Operations  []drawtext.DrawOperation
	FilterChain string
	Duration    float64
	Dimensions  config.VideoDimensions
	Platform    platform.Platform
}

// Renderer turns render requests into overlaid videos
type Renderer struct {
	cfg     *config.Config
	encoder Encoder
	logger  *zap.Logger
}

// NewRenderer creates a renderer using encoder for the final step
func NewRenderer(cfg *config.Config, encoder Encoder, logger *zap.Logger) *Renderer {
	return &Renderer{
		cfg:     cfg,
		encoder: encoder,
		logger:  logger.With(zap.String("component", "renderer")),
	}
}

// GetSupportedPlatforms returns a list of supported platforms
func GetSupportedPlatforms() []string {
	return platform.GetSupportedPlatforms()
}

// Plan lays out and synthesizes req for the named platform. An empty name
// selects the configured default.
func (r *Renderer) Plan(req layout.RenderRequest, platformName string) (*Plan, error) {
	if platformName == "" {
		platformName = r.cfg.Render.Platform
	}
	plat, err := platform.Get(platformName)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	lines, err := layout.Layout(req, layout.OptionsFromConfig(r.cfg.Layout))
	if err != nil {
		return nil, err
	}

	width, height := plat.GetDimensions()
	dims := config.VideoDimensions{Width: width, Height: height}
	ops := drawtext.Synthesize(lines, dims)
	maxSeconds := math.Min(r.cfg.Render.ClipSeconds, float64(plat.GetMaxDuration()))

	return &Plan{
		Mode:        req.Mode(),
		Lines:       lines,
		Operations:  ops,
		FilterChain: drawtext.FilterChain(ops, dims),
		Duration:    layout.ClipDuration(lines, maxSeconds),
		Dimensions:  dims,
		Platform:    plat,
	}, nil
}

// Render plans req and encodes inputPath into outputPath
func (r *Renderer) Render(ctx context.Context, req layout.RenderRequest, inputPath, outputPath, platformName string) (*Plan, error) {
	plan, err := r.Plan(req, platformName)
	if err != nil {
		return nil, err
	}

	metadata, err := r.encoder.GetVideoMetadata(inputPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get video metadata")
	}

	r.logger.Debug("input metadata",
		zap.String("input", inputPath),
		zap.Float64("duration", metadata.Duration),
		zap.String("resolution", fmt.Sprintf("%dx%d", metadata.Width, metadata.Height)),
		zap.String("codec", metadata.Codec),
	)

	outputPath = ensureOutputPath(outputPath, plan.Platform.GetOutputFormat(), r.logger)

	start := time.Now()
	err = r.encoder.Encode(ctx, ffmpeg.Job{
		InputPath:   inputPath,
		OutputPath:  outputPath,
		FilterChain: plan.FilterChain,
		Duration:    plan.Duration,
		Preset:      r.cfg.Render.Preset,
		Platform:    plan.Platform,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to render video")
	}

	r.logger.Info("rendered video",
		zap.String("mode", string(plan.Mode)),
		zap.String("platform", plan.Platform.GetName()),
		zap.String("output", outputPath),
		zap.Int("lines", len(plan.Lines)),
		zap.Float64("clip_seconds", plan.Duration),
		zap.Duration("took", time.Since(start)),
	)
	return plan, nil
}

func ensureOutputPath(path, format string, logger *zap.Logger) string {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			// The encoder reports the real failure if the directory is unusable
			logger.Warn("failed to create output directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	ext := fmt.Sprintf(".%s", format)
	if !strings.HasSuffix(strings.ToLower(path), ext) {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ext
	}
	return path
}
