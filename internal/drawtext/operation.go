// Package drawtext synthesizes ffmpeg drawtext operations from laid-out
// caption lines and serializes them to filter graph syntax.
package drawtext

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"

	"github.com/ZacxDev/chorus-overlay/internal/config"
	"github.com/ZacxDev/chorus-overlay/internal/layout"
)

type Style struct {
	Color       string
	ShadowColor string
	ShadowX     int
	ShadowY     int
	FontFile    string
}

// FontSize is a fixed size, or when FitRunes > 0 an expression that shrinks
// Size so a line of FitRunes glyphs stays within MaxLineWidthRatio of the
// frame width.
type FontSize struct {
	Size     int
	FitRunes int
}

func (f FontSize) Expr() string {
	if f.FitRunes == 0 {
		return strconv.Itoa(f.Size)
	}
	return fmt.Sprintf("min(%d,(w*%s)/(%d*%s))",
		f.Size, formatFloat(config.MaxLineWidthRatio), f.FitRunes, formatFloat(config.GlyphWidthRatio))
}

// Value evaluates the size for a frame of the given width.
func (f FontSize) Value(frameWidth int) float64 {
	if f.FitRunes == 0 {
		return float64(f.Size)
	}
	fit := float64(frameWidth) * config.MaxLineWidthRatio / (float64(f.FitRunes) * config.GlyphWidthRatio)
	return math.Min(float64(f.Size), fit)
}

// Visibility enables an operation while t is inside Window.
type Visibility struct {
	Window layout.Window
}

func (v Visibility) Expr() string {
	if v.Window.Unbounded() {
		return fmt.Sprintf("gte(t,%s)", formatFloat(v.Window.Start))
	}
	return fmt.Sprintf("between(t,%s,%s)", formatFloat(v.Window.Start), formatFloat(v.Window.End))
}

func (v Visibility) Visible(t float64) bool {
	return v.Window.Contains(t)
}

// Opacity is constant 1 unless Ramp is non-empty, in which case it rises
// linearly from 0 at Ramp.Start to 1 at Ramp.End and holds there.
type Opacity struct {
	Ramp layout.Window
}

func (o Opacity) Constant() bool {
	return o.Ramp.End <= o.Ramp.Start
}

func (o Opacity) Expr() string {
	if o.Constant() {
		return "1"
	}
	a, b := formatFloat(o.Ramp.Start), formatFloat(o.Ramp.End)
	return fmt.Sprintf("if(lt(t,%s),0,if(lt(t,%s),(t-%s)/%s,1))",
		a, b, a, formatFloat(o.Ramp.End-o.Ramp.Start))
}

func (o Opacity) Value(t float64) float64 {
	switch {
	case o.Constant(), t >= o.Ramp.End:
		return 1
	case t <= o.Ramp.Start:
		return 0
	}
	return clamp((t-o.Ramp.Start)/(o.Ramp.End-o.Ramp.Start), 0, 1)
}

// DrawOperation is one drawtext filter. Text is already sanitized.
type DrawOperation struct {
	Text       string
	X          string
	Y          string
	FontSize   FontSize
	Visibility Visibility
	Opacity    Opacity
	Style      Style
}

// String renders the operation in ffmpeg filter syntax.
func (op DrawOperation) String() string {
	opts := []string{
		"text=" + quote(op.Text),
		"fontfile=" + op.Style.FontFile,
		"fontcolor=" + op.Style.Color,
		"fontsize=" + value(op.FontSize.Expr()),
		"shadowcolor=" + op.Style.ShadowColor,
		"shadowx=" + strconv.Itoa(op.Style.ShadowX),
		"shadowy=" + strconv.Itoa(op.Style.ShadowY),
		"x=" + value(op.X),
		"y=" + value(op.Y),
		"enable=" + quote(op.Visibility.Expr()),
	}
	if !op.Opacity.Constant() {
		opts = append(opts, "alpha="+quote(op.Opacity.Expr()))
	}
	return "drawtext=" + strings.Join(opts, ":")
}

// FilterChain scales the input to dims and applies ops in paint order.
func FilterChain(ops []DrawOperation, dims config.VideoDimensions) string {
	filters := make([]string, 0, len(ops)+1)
	filters = append(filters, fmt.Sprintf("scale=%d:%d", dims.Width, dims.Height))
	for _, op := range ops {
		filters = append(filters, op.String())
	}
	return strings.Join(filters, ",")
}

func quote(s string) string {
	return "'" + s + "'"
}

// value quotes expressions whose commas would otherwise split the chain.
func value(s string) string {
	if strings.Contains(s, ",") {
		return quote(s)
	}
	return s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
