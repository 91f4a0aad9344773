package types

type RenderMode string

const (
	RenderModeCaptions       RenderMode = "captions"
	RenderModeOppositeChorus RenderMode = "opposite_chorus"
)

type LineRole string

const (
	LineRoleCaption  LineRole = "caption"
	LineRoleTitle    LineRole = "title"
	LineRoleSubtitle LineRole = "subtitle"
	LineRoleBody     LineRole = "body"
)
