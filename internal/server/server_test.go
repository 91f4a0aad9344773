package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZacxDev/chorus-overlay/internal/config"
	"github.com/ZacxDev/chorus-overlay/internal/ffmpeg"
	"github.com/ZacxDev/chorus-overlay/internal/processor"
)

type fakeEncoder struct {
	err   error
	skip  bool
	jobs  []ffmpeg.Job
	input []byte
}

func (f *fakeEncoder) GetVideoMetadata(string) (*ffmpeg.VideoMetadata, error) {
	return &ffmpeg.VideoMetadata{Duration: 3, Width: 1080, Height: 1920, Codec: "h264"}, nil
}

func (f *fakeEncoder) Encode(_ context.Context, job ffmpeg.Job) error {
	f.jobs = append(f.jobs, job)
	if f.err != nil {
		return f.err
	}
	in, err := os.ReadFile(job.InputPath)
	if err != nil {
		return err
	}
	f.input = in
	if f.skip {
		return nil
	}
	return os.WriteFile(job.OutputPath, []byte("rendered:"+string(in)), 0o644)
}

func newTestServer(t *testing.T, enc *fakeEncoder) (*Server, *config.Config) {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Server.UploadDir = filepath.Join(dir, "uploads")
	cfg.Server.OutputDir = filepath.Join(dir, "rendered")
	return New(cfg, processor.NewRenderer(cfg, enc, zap.NewNop()), zap.NewNop()), cfg
}

func multipartRequest(t *testing.T, video []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if video != nil {
		fw, err := mw.CreateFormFile("video", "clip.mp4")
		require.NoError(t, err)
		_, err = fw.Write(video)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/render", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func dirEntries(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRoot(t *testing.T) {
	s, _ := newTestServer(t, &fakeEncoder{})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Opposite Chorus Renderer is live.", rec.Body.String())
}

func TestRender_ClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
		body   string
	}{
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/render", strings.NewReader("x"))
			},
			status: http.StatusBadRequest,
			body:   "No video file provided.",
		},
		{
			name: "no video",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, nil, map[string]string{"opposite_chorus": "la"})
			},
			status: http.StatusBadRequest,
			body:   "No video file provided.",
		},
		{
			name: "no text",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, []byte("video"), nil)
			},
			status: http.StatusBadRequest,
			body:   "missing required text: either captions[] or opposite_chorus",
		},
		{
			name: "bad captions json",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, []byte("video"), map[string]string{"captions": "[{"})
			},
			status: http.StatusBadRequest,
			body:   "invalid captions",
		},
		{
			name: "unknown platform",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, []byte("video"), map[string]string{"opposite_chorus": "la", "platform": "vine"})
			},
			status: http.StatusBadRequest,
			body:   "unsupported platform: vine",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := &fakeEncoder{}
			s, cfg := newTestServer(t, enc)
			rec := serve(s, tt.req(t))

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
			assert.Empty(t, enc.jobs, "encoder must not run")
			assert.Empty(t, dirEntries(t, cfg.Server.UploadDir))
		})
	}
}

func TestRender_Success(t *testing.T) {
	enc := &fakeEncoder{}
	s, cfg := newTestServer(t, enc)

	rec := serve(s, multipartRequest(t, []byte("VIDEO"), map[string]string{
		"captions": `[{"text":"Hello","start":0,"duration":2},{"text":"World","start":2,"duration":2}]`,
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "rendered:VIDEO", rec.Body.String())
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte("VIDEO"), enc.input)

	require.Len(t, enc.jobs, 1)
	job := enc.jobs[0]
	assert.Equal(t, 4.0, job.Duration)
	assert.Equal(t, cfg.Server.OutputDir, filepath.Dir(job.OutputPath))
	assert.Equal(t, ".mp4", filepath.Ext(job.OutputPath))
	assert.Contains(t, job.FilterChain, "drawtext=text='World'")

	assert.Empty(t, dirEntries(t, cfg.Server.UploadDir), "upload is removed")
	assert.Empty(t, dirEntries(t, cfg.Server.OutputDir), "output is removed")

	metrics := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metrics.Body.String(), `chorus_overlay_renders_total{mode="captions",status="ok"} 1`)
}

func TestRender_EncoderFailure(t *testing.T) {
	enc := &fakeEncoder{err: errors.New("exit status 1")}
	s, cfg := newTestServer(t, enc)

	rec := serve(s, multipartRequest(t, []byte("VIDEO"), map[string]string{"opposite_chorus": "up\ndown"}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rendering failed.")
	assert.Empty(t, dirEntries(t, cfg.Server.UploadDir))
}

func TestRender_MissingOutput(t *testing.T) {
	enc := &fakeEncoder{skip: true}
	s, _ := newTestServer(t, enc)

	rec := serve(s, multipartRequest(t, []byte("VIDEO"), map[string]string{"opposite_chorus": "up\ndown"}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rendering failed (file not found).")
}

func TestRender_UploadTooLarge(t *testing.T) {
	enc := &fakeEncoder{}
	s, cfg := newTestServer(t, enc)
	cfg.Server.MaxUploadBytes = 16

	rec := serve(s, multipartRequest(t, bytes.Repeat([]byte("v"), 1024), map[string]string{"opposite_chorus": "la"}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, enc.jobs)
}

func TestFilter(t *testing.T) {
	s, _ := newTestServer(t, &fakeEncoder{})

	form := url.Values{"opposite_chorus": {"This is a somewhat long line that needs wrapping\nShort line"}}
	req := httptest.NewRequest(http.MethodPost, "/filter", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp filterResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "opposite_chorus", resp.Mode)
	assert.Equal(t, "tiktok", resp.Platform)
	assert.Equal(t, 15.0, resp.Duration)
	assert.Equal(t, 6, resp.Lines)
	assert.True(t, strings.HasPrefix(resp.Filter, "scale=1080:1920,drawtext=text='Opposite Chorus Challenge':"))
	assert.Equal(t, 6, strings.Count(resp.Filter, "drawtext="))
}

func TestFilter_Invalid(t *testing.T) {
	s, _ := newTestServer(t, &fakeEncoder{})
	req := httptest.NewRequest(http.MethodPost, "/filter", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "invalid request")
}

func TestFilter_TooLarge(t *testing.T) {
	s, cfg := newTestServer(t, &fakeEncoder{})
	cfg.Server.MaxUploadBytes = 16

	form := url.Values{"opposite_chorus": {strings.Repeat("la ", 64)}}
	req := httptest.NewRequest(http.MethodPost, "/filter", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(s, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "Upload too large.")
}

func TestFilter_Multipart(t *testing.T) {
	s, _ := newTestServer(t, &fakeEncoder{})

	req := multipartRequest(t, nil, map[string]string{"opposite_chorus": "up\ndown"})
	req.URL.Path = "/filter"
	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp filterResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "opposite_chorus", resp.Mode)
	assert.Equal(t, 4, resp.Lines)
}

func TestRender_SaveUploadFailure(t *testing.T) {
	enc := &fakeEncoder{}
	s, cfg := newTestServer(t, enc)

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	cfg.Server.UploadDir = filepath.Join(blocker, "uploads")

	rec := serve(s, multipartRequest(t, []byte("VIDEO"), map[string]string{"opposite_chorus": "up\ndown"}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rendering failed.")
	assert.Empty(t, enc.jobs)

	metrics := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metrics.Body.String(), `chorus_overlay_renders_total{mode="opposite_chorus",status="failed"} 1`)
}
