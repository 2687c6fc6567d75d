// Package api provides the HTTP API for uploading manifests and fetching
// archived ones.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"manifest_parser/internal/aggregate"
	"manifest_parser/internal/extractor"
	"manifest_parser/internal/manifest"
	"manifest_parser/internal/pdftext"
	"manifest_parser/internal/report"
	"manifest_parser/internal/stats"
	"manifest_parser/internal/storage"
)

// DefaultMaxUploadBytes caps the size of an uploaded manifest.
const DefaultMaxUploadBytes = 32 << 20

// Config holds the API server configuration.
type Config struct {
	Port           int
	AuthEnabled    bool
	APIKeys        []string
	MaxUploadBytes int64
	Options        extractor.Options
}

// ExtractFunc turns PDF bytes into a per-page line stream.
type ExtractFunc func(content []byte, mode pdftext.Mode) ([]manifest.Page, error)

// Server is the manifest API server.
type Server struct {
	store   storage.Store
	sink    storage.Sink
	cfg     Config
	apiKeys map[string]bool
	logger  *zap.Logger
	metrics *Metrics
	extract ExtractFunc
}

// NewServer creates a new API server. store may be nil, in which case the
// archive endpoints answer 503. Uploaded manifests are saved to sink when it
// is set, otherwise to store.
func NewServer(store storage.Store, sink storage.Sink, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if sink == nil && store != nil {
		sink = store
	}

	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		keys[k] = true
	}

	return &Server{
		store:   store,
		sink:    sink,
		cfg:     cfg,
		apiKeys: keys,
		logger:  logger,
		metrics: NewMetrics(prometheus.NewRegistry()),
		extract: pdftext.Extract,
	}
}

// WithExtractor replaces the PDF text extractor.
func (s *Server) WithExtractor(fn ExtractFunc) *Server {
	s.extract = fn
	return s
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("manifest API listening", zap.Int("port", s.cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.AuthEnabled {
			r.Use(s.authMiddleware)
		}

		r.Get("/health", s.handleHealth)
		r.Post("/manifests", s.handleParse)
		r.Get("/manifests", s.handleList)
		r.Get("/manifests/{id}", s.handleGet)
		r.Get("/manifests/{id}/report.{format}", s.handleReport)
	})

	return r
}

// requestLogger logs each request through zap.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// corsMiddleware adds CORS headers for browser clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks for a valid API key.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			if auth := r.Header.Get("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
				key = auth[7:]
			}
		}
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}

		if key == "" {
			writeError(w, http.StatusUnauthorized, "missing API key")
			return
		}
		if !s.apiKeys[key] {
			writeError(w, http.StatusForbidden, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ManifestResponse is the JSON body describing one parsed manifest.
type ManifestResponse struct {
	ID         string           `json:"id"`
	Source     string           `json:"source"`
	ParsedAt   time.Time        `json:"parsed_at"`
	Pages      int              `json:"pages"`
	Lines      int              `json:"lines"`
	Header     manifest.Header  `json:"header"`
	Rows       []manifest.Row   `json:"rows"`
	Totals     aggregate.Totals `json:"totals"`
	Stats      stats.Histogram  `json:"stats"`
	Filtered   bool             `json:"filtered"`
	Empty      bool             `json:"empty"`
	Unreadable bool             `json:"unreadable"`
	Archived   bool             `json:"archived"`
}

func resultToResponse(res *extractor.Result) ManifestResponse {
	rows := res.Table.Rows
	if rows == nil {
		rows = []manifest.Row{}
	}
	return ManifestResponse{
		ID:         res.Document.ID,
		Source:     res.Document.Source,
		ParsedAt:   res.Document.ParsedAt,
		Pages:      res.Document.Pages,
		Lines:      res.Document.Lines,
		Header:     res.Table.Header,
		Rows:       rows,
		Totals:     res.Totals,
		Stats:      res.Stats,
		Filtered:   res.Filtered,
		Empty:      res.Empty(),
		Unreadable: res.Unreadable(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"archive": s.store != nil,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// options returns the pipeline options for a request: the server defaults
// overridden by the sort and filter query parameters.
func (s *Server) options(r *http.Request, filter aggregate.Filter) extractor.Options {
	opts := s.cfg.Options
	if v := r.URL.Query().Get("sort"); v != "" {
		opts.SortByPieces = v == "pieces"
	}
	if !filter.Empty() {
		opts.Filter = filter
	}
	return opts
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	filter := aggregate.ParseFilter(r.FormValue("filter"))
	if ff, _, err := r.FormFile("filter_file"); err == nil {
		text, err := io.ReadAll(ff)
		ff.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read filter file")
			return
		}
		for _, id := range aggregate.ParseFilter(string(text)).IDs() {
			filter[id] = struct{}{}
		}
	}
	opts := s.options(r, filter)

	start := time.Now()
	pages, err := s.extract(buf.Bytes(), opts.ExtractMode)
	if err != nil {
		s.metrics.observeFailure()
		s.logger.Warn("pdf extraction failed", zap.String("file", fh.Filename), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "could not read PDF: "+err.Error())
		return
	}
	res := extractor.Run(fh.Filename, pages, opts)
	s.metrics.observe(res, time.Since(start))

	resp := resultToResponse(res)
	if s.sink != nil {
		if _, err := s.sink.SaveManifest(r.Context(), res.Document); err != nil {
			s.logger.Error("failed to archive manifest", zap.String("id", res.Document.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to archive manifest")
			return
		}
		resp.Archived = true
	}

	s.logger.Info("manifest parsed",
		zap.String("id", res.Document.ID),
		zap.String("file", fh.Filename),
		zap.String("flight", res.Document.Header.FlightNo),
		zap.Int("containers", res.Totals.Containers),
		zap.Int("awbs", res.Totals.AWBs),
	)

	if f := r.URL.Query().Get("format"); f != "" {
		s.writeReport(w, r, res, f)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no manifest archive configured")
		return
	}

	q := r.URL.Query()
	params := storage.ListParams{
		FlightNo: q.Get("flight"),
		Origin:   q.Get("origin"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			params.Offset = n
		}
	}

	list, err := s.store.ListManifests(r.Context(), params)
	if err != nil {
		s.logger.Error("failed to list manifests", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list manifests")
		return
	}
	if list == nil {
		list = []storage.Summary{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"manifests": list,
		"count":     len(list),
	})
}

// load fetches an archived manifest and rebuilds its table. It writes the
// error response itself and returns nil on failure.
func (s *Server) load(w http.ResponseWriter, r *http.Request) *extractor.Result {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no manifest archive configured")
		return nil
	}

	id := chi.URLParam(r, "id")
	doc, err := s.store.GetManifest(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "manifest not found")
		return nil
	}
	if err != nil {
		s.logger.Error("failed to load manifest", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load manifest")
		return nil
	}

	filter := aggregate.NewFilter(splitQuery(r.URL.Query()["filter"])...)
	return extractor.FromDocument(doc, s.options(r, filter))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	res := s.load(w, r)
	if res == nil {
		return
	}
	resp := resultToResponse(res)
	resp.Archived = true
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if f, err := report.ParseFormat(format); err != nil || f == report.FormatJSON {
		writeError(w, http.StatusNotFound, "unknown report format")
		return
	}

	res := s.load(w, r)
	if res == nil {
		return
	}
	s.writeReport(w, r, res, format)
}

// writeReport renders the result in the requested format and layout.
func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, res *extractor.Result, format string) {
	f, err := report.ParseFormat(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	layout, err := report.ParseLayout(r.URL.Query().Get("layout"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, f, report.New(res.Document.Source, layout, res.Table)); err != nil {
		s.logger.Error("failed to render report", zap.String("id", res.Document.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", report.FileName(res.Document.Source, f)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// splitQuery flattens repeated and comma-separated query values.
func splitQuery(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
