package layout

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ZacxDev/chorus-overlay/pkg/types"
)

// ValidationError reports a malformed render request. Callers surface it as a
// client error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Caption is one pre-wrapped caption shown for [Start, Start+Duration].
type Caption struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// RenderRequest holds exactly one mode's payload. The zero value is invalid;
// build requests with NewCaptionsRequest, NewChorusRequest or ParseRequest.
type RenderRequest struct {
	mode     types.RenderMode
	captions []Caption
	chorus   string
}

func (r RenderRequest) Mode() types.RenderMode {
	return r.mode
}

// Captions returns a copy of the caption payload.
func (r RenderRequest) Captions() []Caption {
	return append([]Caption(nil), r.captions...)
}

func (r RenderRequest) Chorus() string {
	return r.chorus
}

// NewCaptionsRequest validates captions and wraps them in a request.
func NewCaptionsRequest(captions []Caption) (RenderRequest, error) {
	if len(captions) == 0 {
		return RenderRequest{}, invalid("captions", "at least one caption is required")
	}
	for i, c := range captions {
		if math.IsNaN(c.Start) || math.IsInf(c.Start, 0) || c.Start < 0 {
			return RenderRequest{}, invalid(fmt.Sprintf("captions[%d].start", i), "must be a finite number >= 0, got %v", c.Start)
		}
		if math.IsNaN(c.Duration) || math.IsInf(c.Duration, 0) || c.Duration <= 0 {
			return RenderRequest{}, invalid(fmt.Sprintf("captions[%d].duration", i), "must be a finite number > 0, got %v", c.Duration)
		}
	}
	return RenderRequest{
		mode:     types.RenderModeCaptions,
		captions: append([]Caption(nil), captions...),
	}, nil
}

// NewChorusRequest wraps a block of newline-delimited text in a request.
func NewChorusRequest(text string) (RenderRequest, error) {
	if len(splitLines(text)) == 0 {
		return RenderRequest{}, invalid("opposite_chorus", "no non-blank lines")
	}
	return RenderRequest{
		mode:   types.RenderModeOppositeChorus,
		chorus: text,
	}, nil
}

// ParseRequest builds a request from the raw form fields. Captions take
// precedence when both are present.
func ParseRequest(captionsJSON, chorusText string) (RenderRequest, error) {
	if strings.TrimSpace(captionsJSON) != "" {
		var captions []Caption
		if err := json.Unmarshal([]byte(captionsJSON), &captions); err != nil {
			return RenderRequest{}, invalid("captions", "invalid captions JSON: %v", err)
		}
		return NewCaptionsRequest(captions)
	}
	if chorusText != "" {
		return NewChorusRequest(chorusText)
	}
	return RenderRequest{}, invalid("request", "missing required text: either captions[] or opposite_chorus")
}

// splitLines splits on any line break and drops blank lines.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
