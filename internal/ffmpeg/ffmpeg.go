package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/ZacxDev/chorus-overlay/internal/platform"
)

const stderrTailBytes = 2048

// VideoMetadata contains metadata about a video file
type VideoMetadata struct {
	Duration float64
	Width    int
	Height   int
	Codec    string
}

// Job is one overlay render handed to ffmpeg
type Job struct {
	InputPath   string
	OutputPath  string
	FilterChain string
	Duration    float64 // seconds
	Preset      string
	Platform    platform.Platform
}

// Processor wraps FFmpeg functionality and bounds concurrent encoder processes
type Processor struct {
	logger *zap.Logger
	sem    *semaphore.Weighted
	binary string
}

// NewProcessor creates a processor allowing maxConcurrent ffmpeg processes
func NewProcessor(logger *zap.Logger, maxConcurrent int64) *Processor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Processor{
		logger: logger.With(zap.String("component", "ffmpeg")),
		sem:    semaphore.NewWeighted(maxConcurrent),
		binary: "ffmpeg",
	}
}

type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		Duration   string `json:"duration"`
		NbFrames   string `json:"nb_frames"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// GetVideoMetadata retrieves metadata about a video file
func (p *Processor) GetVideoMetadata(inputPath string) (*VideoMetadata, error) {
	probe, err := ffmpeg.Probe(inputPath)
	if err != nil {
		return nil, errors.Wrap(err, "error probing video")
	}
	return parseProbe(probe)
}

func parseProbe(probe string) (*VideoMetadata, error) {
	var data probeOutput
	if err := json.Unmarshal([]byte(probe), &data); err != nil {
		return nil, errors.WithStack(err)
	}
	if len(data.Streams) == 0 {
		return nil, errors.New("no streams found in video")
	}

	for _, s := range data.Streams {
		if s.CodecType != "video" {
			continue
		}

		// Stream duration first, then container, then frames / frame rate
		duration := parseSeconds(s.Duration)
		if duration == 0 {
			duration = parseSeconds(data.Format.Duration)
		}
		if duration == 0 {
			frames := parseSeconds(s.NbFrames)
			if rate := parseFrameRate(s.RFrameRate); frames > 0 && rate > 0 {
				duration = frames / rate
			}
		}
		if duration == 0 {
			return nil, errors.New("could not determine video duration")
		}

		return &VideoMetadata{
			Duration: duration,
			Width:    s.Width,
			Height:   s.Height,
			Codec:    s.CodecName,
		}, nil
	}
	return nil, errors.New("no video stream found")
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return 0
	}
	n, d := parseSeconds(num), parseSeconds(den)
	if d == 0 {
		return 0
	}
	return n / d
}

// BuildStream loops the input indefinitely and stops after job.Duration
func (p *Processor) BuildStream(job Job) *ffmpeg.Stream {
	outputKwargs := ffmpeg.KwArgs{
		"vf":       job.FilterChain,
		"t":        strconv.FormatFloat(job.Duration, 'f', -1, 64),
		"preset":   job.Preset,
		"pix_fmt":  "yuv420p",
		"movflags": "+faststart",
	}
	if job.Platform != nil {
		outputKwargs["c:v"] = job.Platform.GetVideoCodec()
		outputKwargs["c:a"] = job.Platform.GetAudioCodec()
		outputKwargs["b:v"] = job.Platform.GetVideoBitrate()
		outputKwargs["b:a"] = job.Platform.GetAudioBitrate()
	}

	return ffmpeg.Input(job.InputPath, ffmpeg.KwArgs{"stream_loop": -1}).
		Output(job.OutputPath, outputKwargs).
		OverWriteOutput()
}

// Encode runs ffmpeg for job, waiting for a free encoder slot first.
// Cancelling ctx kills a running encoder.
func (p *Processor) Encode(ctx context.Context, job Job) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return errors.Wrap(err, "waiting for encoder slot")
	}
	defer p.sem.Release(1)

	args := p.BuildStream(job).GetArgs()
	p.logger.Debug("running ffmpeg",
		zap.String("input", job.InputPath),
		zap.String("output", job.OutputPath),
		zap.Strings("args", args),
	)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		p.logger.Error("ffmpeg failed",
			zap.String("output", job.OutputPath),
			zap.String("stderr", tail(stderr.String(), stderrTailBytes)),
			zap.Error(err),
		)
		return errors.Wrapf(err, "ffmpeg failed: %s", tail(stderr.String(), stderrTailBytes))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
