package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maax3v3/faceblend/internal/config"
	"github.com/maax3v3/faceblend/internal/detection"
	"github.com/maax3v3/faceblend/internal/geometry"
	"github.com/maax3v3/faceblend/internal/imaging"
	"github.com/maax3v3/faceblend/internal/pipeline"
	"github.com/maax3v3/faceblend/internal/pixbuf"
)

// Response headers set by the composite endpoint.
const (
	HeaderWarnings = "X-Faceblend-Warnings"
	HeaderRegion   = "X-Faceblend-Region"
)

// Server exposes detection and compositing over HTTP.
type Server struct {
	cfg    *config.Config
	logger *log.Logger
	router chi.Router
}

// New builds the router. A nil logger discards request logs.
func New(cfg *config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(middleware.Recoverer)
	if cfg.Server.RequestTimeoutSeconds > 0 {
		r.Use(middleware.Timeout(time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second))
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/detect", s.handleDetect)
		r.Post("/composite", s.handleComposite)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Printf("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RegionJSON is the wire form of a region.
type RegionJSON struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
}

func regionJSON(r geometry.Region) RegionJSON {
	return RegionJSON{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, Confidence: r.Confidence}
}

// DetectResponse is returned by POST /v1/detect.
type DetectResponse struct {
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Region      RegionJSON `json:"region"`
	FellBack    bool       `json:"fell_back"`
	Candidates  int        `json:"candidates"`
	Symmetry    float64    `json:"symmetry"`
	EdgeSupport float64    `json:"edge_support"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	buf, err := s.readImage(r, "image")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	det, err := s.detector(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	d := det.Detect(buf)
	writeJSON(w, http.StatusOK, DetectResponse{
		Width:       buf.Width,
		Height:      buf.Height,
		Region:      regionJSON(d.Region),
		FellBack:    d.FellBack,
		Candidates:  d.Candidates,
		Symmetry:    d.Symmetry,
		EdgeSupport: d.EdgeSupport,
	})
}

func (s *Server) handleComposite(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	source, err := s.readImage(r, "source")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	target, err := s.readImage(r, "target")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts, err := s.cfg.PipelineOptions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if opts.Detector, err = s.detector(r); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	reqID := middleware.GetReqID(r.Context())
	opts.Progress = func(p int, msg string) {
		s.logger.Printf("[%s] %3d%% %s", reqID, p, msg)
	}

	res, err := pipeline.Run(r.Context(), source, target, opts)
	var inputErr *pipeline.InputError
	switch {
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	case res.Cancelled:
		s.writeCancelled(w, r)
		return
	}

	var png bytes.Buffer
	if err := imaging.EncodePNG(&png, res.Output.ToNRGBA()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if len(res.Warnings) > 0 {
		msgs := make([]string, len(res.Warnings))
		for i, wn := range res.Warnings {
			msgs[i] = wn.String()
		}
		w.Header().Set(HeaderWarnings, strings.Join(msgs, "; "))
	}
	w.Header().Set(HeaderRegion, res.Region.String())
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png.Bytes()); err != nil {
		s.logger.Printf("[%s] writing response: %v", reqID, err)
	}
}

// writeCancelled answers a run stopped by its request context. A deadline
// set by the Timeout middleware is answered by the middleware itself with
// 504, so nothing is written here in that case.
func (s *Server) writeCancelled(w http.ResponseWriter, r *http.Request) {
	if errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		if s.cfg.Server.RequestTimeoutSeconds > 0 {
			return
		}
		writeError(w, http.StatusGatewayTimeout, fmt.Errorf("request timed out"))
		return
	}
	writeError(w, http.StatusServiceUnavailable, fmt.Errorf("request cancelled"))
}

// detector honours an optional ?strategy= override of the configured one.
func (s *Server) detector(r *http.Request) (detection.Detector, error) {
	name := r.URL.Query().Get("strategy")
	if name == "" {
		name = s.cfg.Detection.Strategy
	}
	return detection.ByName(name)
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	limit := s.cfg.MaxUploadBytes()
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return fmt.Errorf("parsing multipart form: %w", err)
	}
	return nil
}

func (s *Server) readImage(r *http.Request, field string) (*pixbuf.Buffer, error) {
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", field, err)
	}
	defer f.Close()

	buf, err := imaging.Decode(f, s.cfg.Input.MaxDimension)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", field, err)
	}
	return buf, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
