package videoprocessor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZacxDev/chorus-overlay/internal/layout"
)

func TestBuildFilterGraph(t *testing.T) {
	chain, err := BuildFilterGraph(&RenderOptions{
		CaptionsJSON: `[{"text":"Hello","start":0,"duration":2},{"text":"World","start":2,"duration":2}]`,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(chain, "scale=1080:1920,drawtext=text='Hello':"))
	assert.Equal(t, 2, strings.Count(chain, "drawtext="))
}

func TestBuildFilterGraph_Invalid(t *testing.T) {
	_, err := BuildFilterGraph(&RenderOptions{})
	var verr *layout.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = BuildFilterGraph(&RenderOptions{ChorusText: "la", TargetPlatform: "friendster"})
	assert.Error(t, err)
}

func TestRenderVideo_RequiresPaths(t *testing.T) {
	err := RenderVideo(context.Background(), &RenderOptions{ChorusText: "la"})
	assert.EqualError(t, err, "input path and output path are required")

	err = RenderVideo(context.Background(), &RenderOptions{
		InputPath:  filepath.Join(t.TempDir(), "missing.mp4"),
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
		ChorusText: "la",
	})
	assert.Error(t, err)
}

func TestReadText(t *testing.T) {
	text, err := ReadText("")
	require.NoError(t, err)
	assert.Empty(t, text)

	path := filepath.Join(t.TempDir(), "chorus.txt")
	require.NoError(t, os.WriteFile(path, []byte("up\ndown"), 0o644))
	text, err = ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "up\ndown", text)

	_, err = ReadText(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestGetSupportedPlatforms(t *testing.T) {
	assert.Contains(t, GetSupportedPlatforms(), "tiktok")
}
