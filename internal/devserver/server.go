// Package devserver is the reference backend: every dashboard endpoint served
// by a chi router over deterministic placeholder models.
package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/huangsam/climdash/internal/auth"
	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// Server holds the backend state: saved sessions.
type Server struct {
	auth    *auth.Service
	origins []string
	logger  bool

	mu       sync.RWMutex
	sessions map[string]json.RawMessage
}

// Option configures a Server.
type Option func(*Server)

// WithSecret requires an HS256 bearer token on every /api route.
func WithSecret(secret string) Option {
	return func(s *Server) { s.auth = auth.NewService(secret) }
}

// WithCORS allows browser clients from origins.
func WithCORS(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithRequestLog enables the chi request logger.
func WithRequestLog(enabled bool) Option {
	return func(s *Server) { s.logger = enabled }
}

// New creates a reference backend.
func New(opts ...Option) *Server {
	s := &Server{sessions: make(map[string]json.RawMessage)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig creates a backend from the validated config.
func NewFromConfig(cfg *contract.Config) *Server {
	return New(WithSecret(cfg.APISecret), WithCORS(cfg.CORSOrigins), WithRequestLog(true))
}

// Router returns the HTTP handler of the backend.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	if s.logger {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Timeout(contract.DefaultTimeout))
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			ExposedHeaders: []string{"Content-Length"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware(s.auth))
		pr.Get(schema.DefaultDataPath, s.handleDefaultData)
		pr.Post(schema.ProcessPath, s.handleProcess)
		pr.Post(schema.ExportPath, s.handleExport)
		pr.Post(schema.UpdateScenarioPath, s.handleUpdateScenario)
		pr.Post(schema.UpdateSensitivityPath, s.handleUpdateSensitivity)
		pr.Post(schema.SaveSessionPath, s.handleSaveSession)
		pr.Get(schema.LoadSessionPath+"{sessionID}", s.handleLoadSession)
		pr.Post(schema.ReportPath, s.handleReport)
		pr.Post(schema.AnalyticsPath, s.handleAnalytics)
		pr.Post(schema.QueryPath, s.handleQuery)
		pr.Post(schema.SummaryPath, s.handleSummary)
		pr.Post(schema.ComparePath, s.handleCompare)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// SessionCount returns how many sessions are saved.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) handleDefaultData(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, buildBundle(DefaultTemperature(), false))
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var raw any
	if err := decodeBody(r, &raw); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, Process(raw, false))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req schema.ExportRequest
	if err := decodeBody(r, &req); err != nil || req.Data == nil {
		respondError(w, http.StatusBadRequest, "No data provided")
		return
	}
	if req.Format == "" {
		req.Format = "json"
	}
	out, err := Export(req.Data, req.Format)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, schema.ExportResponse{ExportedData: out})
}

func (s *Server) handleUpdateScenario(w http.ResponseWriter, r *http.Request) {
	var req schema.ScenarioRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "No data provided in the request")
		return
	}
	if len(req.TemperatureData) == 0 {
		respondError(w, http.StatusBadRequest, "No temperature data provided")
		return
	}
	set, err := Scenarios(req.TemperatureData, req.Scenario)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, set)
}

func (s *Server) handleUpdateSensitivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sensitivity  *int                   `json:"sensitivity"`
		EconomicData []schema.EconomicPoint `json:"economicData"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "No data provided in the request")
		return
	}
	if req.Sensitivity == nil {
		respondError(w, http.StatusBadRequest, "Sensitivity value is missing")
		return
	}
	if len(req.EconomicData) == 0 {
		respondError(w, http.StatusBadRequest, "Economic data is missing or empty")
		return
	}
	out, err := Sensitivity(req.EconomicData, *req.Sensitivity)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeBody(r, &raw); err != nil || len(raw) == 0 || string(raw) == "null" {
		respondError(w, http.StatusBadRequest, "No session data provided")
		return
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = raw
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, schema.SessionResponse{SessionID: id})
}

func (s *Server) handleLoadSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	s.mu.RLock()
	raw, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req schema.ReportRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Data == nil {
		req.Data = buildBundle(DefaultTemperature(), false)
	}
	var buf bytes.Buffer
	if err := RenderReport(&buf, req, time.Now()); err != nil {
		respondError(w, http.StatusInternalServerError, "An error occurred while generating the report")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	var req schema.AnalyticsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	temps := req.TemperatureData
	if len(temps) == 0 {
		temps = DefaultTemperature()
	}
	respondJSON(w, http.StatusOK, buildBundle(temps, true))
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req schema.QueryRequest
	if err := decodeBody(r, &req); err != nil || req.Query == "" {
		respondError(w, http.StatusBadRequest, "No query provided")
		return
	}
	respondJSON(w, http.StatusOK, schema.QueryResponse{Response: Answer(req.Query)})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var b schema.DatasetBundle
	if err := decodeBody(r, &b); err != nil {
		respondError(w, http.StatusBadRequest, "No data provided")
		return
	}
	respondJSON(w, http.StatusOK, schema.SummaryResponse{Summary: Summary(&b)})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req schema.CompareRequest
	if err := decodeBody(r, &req); err != nil || req.Scenarios.Len() == 0 {
		respondError(w, http.StatusBadRequest, "No scenario data provided")
		return
	}
	rows, err := Compare(req.Scenarios)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, schema.CompareResponse{Comparison: rows})
}

func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("empty body")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("bad json: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, schema.APIError{Error: msg})
}
