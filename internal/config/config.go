package config

import "time"

// RenderOptions defines options for a single local render
type RenderOptions struct {
	InputPath      string
	OutputPath     string
	TargetPlatform string
	CaptionsJSON   string
	ChorusText     string
	ConfigPath     string
	Verbose        bool
}

type VideoDimensions struct {
	Width  int
	Height int
}

const (
	// Output resolution (1080x1920 portrait)
	OutputWidth  = 1080
	OutputHeight = 1920

	// Clip settings
	MaxClipSeconds = 15.0
	DefaultPreset  = "ultrafast"
	OutputFormat   = "mp4"

	DefaultPlatform      = "tiktok"
	DefaultMaxConcurrent = 2

	// Temporary upload prefix
	UploadPrefix = "upload_"

	// Opposite chorus layout
	WrapWidth      = 22
	FadeInSeconds  = 1.0
	DefaultTitle   = "Opposite Chorus Challenge"
	DefaultSubline = `Guess the original song from this "opposite" chorus!`

	// Text overlay settings
	FontRegular = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
	FontOblique = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Oblique.ttf"
	TextColor   = "white"
	ShadowColor = "black"
	ShadowX     = 2
	ShadowY     = 2

	CaptionFontSize  = 36
	TitleFontSize    = 44
	SubtitleFontSize = 26
	BodyFontSize     = 34

	// Vertical placement, in pixels
	CaptionBaseOffset = 150 // above the bottom edge
	CaptionSpacing    = 65
	HeaderBaseOffset  = 100
	HeaderSpacing     = 50
	BodySpacing       = 70

	// Fraction of frame width a single line may occupy before its font shrinks
	MaxLineWidthRatio = 0.9
	// Average glyph advance relative to font size, used for width estimates
	GlyphWidthRatio = 0.6
)

const (
	DefaultAddr            = ":3000"
	DefaultUploadDir       = "uploads"
	DefaultOutputDir       = "rendered"
	DefaultMaxUploadBytes  = 50 * 1024 * 1024 // 50MB
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 5 * time.Minute
	DefaultShutdownTimeout = 15 * time.Second
)
