// Package layout turns a render request into ordered, timed caption lines.
package layout

import (
	"math"

	"github.com/ZacxDev/chorus-overlay/internal/config"
	"github.com/ZacxDev/chorus-overlay/pkg/types"
)

// Window is a closed time interval in seconds. An End of +Inf means the
// interval lasts until the end of the clip.
type Window struct {
	Start float64
	End   float64
}

// From returns a window that opens at start and never closes.
func From(start float64) Window {
	return Window{Start: start, End: math.Inf(1)}
}

func (w Window) Unbounded() bool {
	return math.IsInf(w.End, 1)
}

func (w Window) Contains(t float64) bool {
	return t >= w.Start && t <= w.End
}

// CaptionLine is one laid-out line of text. Slot indexes the line within its
// group of Slots lines (captions, headers or body).
type CaptionLine struct {
	Text   string
	Role   types.LineRole
	Slot   int
	Slots  int
	Window Window
	// Fade is the zero Window for lines that are fully opaque.
	Fade Window
}

func (l CaptionLine) Fades() bool {
	return l.Fade.End > l.Fade.Start
}

// Options controls the opposite chorus layout.
type Options struct {
	WrapWidth int
	FadeIn    float64
	Headers   bool
	Title     string
	Subtitle  string
}

func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Layout)
}

func OptionsFromConfig(cfg config.LayoutConfig) Options {
	return Options{
		WrapWidth: cfg.WrapWidth,
		FadeIn:    cfg.FadeInSeconds,
		Headers:   cfg.Headers,
		Title:     cfg.Title,
		Subtitle:  cfg.Subtitle,
	}
}

// Layout produces the caption lines for req in paint order.
func Layout(req RenderRequest, opts Options) ([]CaptionLine, error) {
	switch req.Mode() {
	case types.RenderModeCaptions:
		return layoutCaptions(req.captions), nil
	case types.RenderModeOppositeChorus:
		return layoutChorus(req.chorus, opts), nil
	default:
		return nil, invalid("request", "missing required text: either captions[] or opposite_chorus")
	}
}

func layoutCaptions(captions []Caption) []CaptionLine {
	lines := make([]CaptionLine, 0, len(captions))
	for i, c := range captions {
		lines = append(lines, CaptionLine{
			Text:   c.Text,
			Role:   types.LineRoleCaption,
			Slot:   i,
			Slots:  len(captions),
			Window: Window{Start: c.Start, End: c.Start + c.Duration},
		})
	}
	return lines
}

func layoutChorus(text string, opts Options) []CaptionLine {
	var body []string
	for _, raw := range splitLines(text) {
		body = append(body, Wrap(raw, opts.WrapWidth)...)
	}

	var lines []CaptionLine
	if opts.Headers {
		lines = append(lines,
			CaptionLine{Text: opts.Title, Role: types.LineRoleTitle, Slot: 0, Slots: 2, Window: From(0)},
			CaptionLine{Text: opts.Subtitle, Role: types.LineRoleSubtitle, Slot: 1, Slots: 2, Window: From(0)},
		)
	}

	for i, text := range body {
		start := float64(i) * opts.FadeIn
		lines = append(lines, CaptionLine{
			Text:   text,
			Role:   types.LineRoleBody,
			Slot:   i,
			Slots:  len(body),
			Window: From(start),
			Fade:   Window{Start: start, End: start + opts.FadeIn},
		})
	}
	return lines
}

// ClipDuration is how long the encoder should run for lines, given a cap in
// seconds. Captions stop at the last caption's end; everything else runs to
// the cap.
func ClipDuration(lines []CaptionLine, maxSeconds float64) float64 {
	end := 0.0
	for _, l := range lines {
		if l.Role != types.LineRoleCaption || l.Window.Unbounded() {
			return maxSeconds
		}
		end = math.Max(end, l.Window.End)
	}
	if end <= 0 {
		return maxSeconds
	}
	return math.Min(end, maxSeconds)
}
