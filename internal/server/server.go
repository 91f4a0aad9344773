// Package server exposes the renderer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ZacxDev/chorus-overlay/internal/config"
	"github.com/ZacxDev/chorus-overlay/internal/layout"
	"github.com/ZacxDev/chorus-overlay/internal/platform"
	"github.com/ZacxDev/chorus-overlay/internal/processor"
)

const (
	statusOK      = "ok"
	statusInvalid = "invalid"
	statusFailed  = "failed"

	multipartMemory = 32 << 20
)

type Server struct {
	cfg      *config.Config
	renderer *processor.Renderer
	metrics  *Metrics
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// New creates a server. Metrics are registered on a private registry served
// at /metrics.
func New(cfg *config.Config, renderer *processor.Renderer, logger *zap.Logger) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Server{
		cfg:      cfg,
		renderer: renderer,
		metrics:  NewMetrics("chorus_overlay", reg),
		gatherer: reg,
		logger:   logger.With(zap.String("component", "server")),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /render", s.handleRender)
	mux.HandleFunc("POST /filter", s.handleFilter)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return Chain(mux, Recovery(s.logger), RequestLogger(s.logger))
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	io.WriteString(w, "Opposite Chorus Renderer is live.")
}

type filterResponse struct {
	Mode     string  `json:"mode"`
	Platform string  `json:"platform"`
	Duration float64 `json:"duration"`
	Lines    int     `json:"lines"`
	Filter   string  `json:"filter"`
}

// handleFilter returns the filter chain for the submitted text without
// rendering anything.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		if isTooLarge(err) {
			http.Error(w, "Upload too large.", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Malformed form.", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	req, err := layout.ParseRequest(r.FormValue("captions"), r.FormValue("opposite_chorus"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := s.renderer.Plan(req, r.FormValue("platform"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(filterResponse{
		Mode:     string(plan.Mode),
		Platform: plan.Platform.GetName(),
		Duration: plan.Duration,
		Lines:    len(plan.Lines),
		Filter:   plan.FilterChain,
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			http.Error(w, "Upload too large.", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "No video file provided.", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("video")
	if err != nil {
		http.Error(w, "No video file provided.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	req, err := layout.ParseRequest(r.FormValue("captions"), r.FormValue("opposite_chorus"))
	if err != nil {
		s.metrics.RecordRender("", statusInvalid, 0, 0)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mode := string(req.Mode())

	platformName := r.FormValue("platform")
	if platformName != "" {
		if _, err := platform.Get(platformName); err != nil {
			s.metrics.RecordRender(mode, statusInvalid, 0, 0)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	inputPath, err := s.saveUpload(file, header.Filename)
	if err != nil {
		s.metrics.RecordRender(mode, statusFailed, 0, time.Since(start))
		s.logger.Error("failed to save upload", zap.Error(err))
		http.Error(w, "Rendering failed.", http.StatusInternalServerError)
		return
	}
	defer s.remove(inputPath)

	outputPath := filepath.Join(s.cfg.Server.OutputDir, uuid.NewString()+"."+config.OutputFormat)
	plan, err := s.renderer.Render(r.Context(), req, inputPath, outputPath, platformName)
	if err != nil {
		s.metrics.RecordRender(mode, statusFailed, 0, time.Since(start))
		s.logger.Error("rendering error", zap.String("mode", mode), zap.Error(err))
		http.Error(w, "Rendering failed.", http.StatusInternalServerError)
		return
	}
	defer s.remove(outputPath)

	if _, err := os.Stat(outputPath); err != nil {
		s.metrics.RecordRender(mode, statusFailed, len(plan.Operations), time.Since(start))
		s.logger.Error("output file missing", zap.String("output", outputPath), zap.Error(err))
		http.Error(w, "Rendering failed (file not found).", http.StatusInternalServerError)
		return
	}

	s.metrics.RecordRender(mode, statusOK, len(plan.Operations), time.Since(start))
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, outputPath)
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

func (s *Server) saveUpload(src io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(s.cfg.Server.UploadDir, 0755); err != nil {
		return "", errors.Wrap(err, "creating upload directory")
	}
	dst, err := os.CreateTemp(s.cfg.Server.UploadDir, config.UploadPrefix+"*"+filepath.Ext(filename))
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		s.remove(dst.Name())
		return "", errors.Wrap(err, "writing upload")
	}
	return dst.Name(), nil
}

func (s *Server) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove file", zap.String("path", path), zap.Error(err))
	}
}
