package drawtext

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/ZacxDev/chorus-overlay/internal/config"
	"github.com/ZacxDev/chorus-overlay/internal/layout"
	"github.com/ZacxDev/chorus-overlay/pkg/types"
)

const centerX = "(w-text_w)/2"

type roleStyle struct {
	fontFile string
	fontSize int
}

var roleStyles = map[types.LineRole]roleStyle{
	types.LineRoleCaption:  {fontFile: config.FontRegular, fontSize: config.CaptionFontSize},
	types.LineRoleTitle:    {fontFile: config.FontOblique, fontSize: config.TitleFontSize},
	types.LineRoleSubtitle: {fontFile: config.FontRegular, fontSize: config.SubtitleFontSize},
	types.LineRoleBody:     {fontFile: config.FontRegular, fontSize: config.BodyFontSize},
}

// Synthesize builds one draw operation per line, preserving order.
func Synthesize(lines []layout.CaptionLine, dims config.VideoDimensions) []DrawOperation {
	ops := make([]DrawOperation, 0, len(lines))
	for _, line := range lines {
		ops = append(ops, synthesizeLine(line, dims))
	}
	return ops
}

func synthesizeLine(line layout.CaptionLine, dims config.VideoDimensions) DrawOperation {
	rs, ok := roleStyles[line.Role]
	if !ok {
		rs = roleStyles[types.LineRoleCaption]
	}

	op := DrawOperation{
		Text:       Sanitize(line.Text),
		X:          centerX,
		Y:          yExpr(line),
		FontSize:   fitFontSize(line.Text, rs.fontSize, dims.Width),
		Visibility: Visibility{Window: line.Window},
		Style: Style{
			Color:       config.TextColor,
			ShadowColor: config.ShadowColor,
			ShadowX:     config.ShadowX,
			ShadowY:     config.ShadowY,
			FontFile:    rs.fontFile,
		},
	}
	if line.Fades() {
		op.Opacity = Opacity{Ramp: line.Fade}
	}
	return op
}

func yExpr(line layout.CaptionLine) string {
	switch line.Role {
	case types.LineRoleTitle, types.LineRoleSubtitle:
		return strconv.Itoa(config.HeaderBaseOffset + line.Slot*config.HeaderSpacing)
	case types.LineRoleBody:
		// Centers the block of line.Slots lines around mid-height.
		return fmt.Sprintf("(h/2-%d*(%d/2))+%d", config.BodySpacing, line.Slots, line.Slot*config.BodySpacing)
	default:
		return fmt.Sprintf("h-(%d+%d)", config.CaptionBaseOffset, line.Slot*config.CaptionSpacing)
	}
}

func fitFontSize(text string, size, frameWidth int) FontSize {
	n := utf8.RuneCountInString(text)
	estimated := float64(n) * float64(size) * config.GlyphWidthRatio
	if estimated <= float64(frameWidth)*config.MaxLineWidthRatio {
		return FontSize{Size: size}
	}
	return FontSize{Size: size, FitRunes: n}
}
