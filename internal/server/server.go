package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yuin/goldmark"

	"scirag/internal/ingest"
	"scirag/internal/ledger"
	"scirag/internal/retrieval"
)

// Querier answers questions over the ingested corpus.
type Querier interface {
	Query(ctx context.Context, question, userID string, topK int) (*retrieval.Response, error)
}

// Ingester runs an ingestion batch for a source pattern.
type Ingester interface {
	Run(ctx context.Context, pattern, userID string) (*ingest.Result, error)
}

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server exposes the retrieval engine and ingestion pipeline over HTTP.
type Server struct {
	cfg        Config
	engine     Querier
	pipeline   Ingester
	ledger     *ledger.Ledger
	markdown   goldmark.Markdown
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. ledger may be nil; document listing then returns
// empty results.
func New(cfg Config, engine Querier, pipeline Ingester, lg *ledger.Ledger) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		pipeline: pipeline,
		ledger:   lg,
		markdown: goldmark.New(),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Minute))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Post("/ingest", s.handleIngest)
		r.Get("/documents", s.handleListDocuments)
	})

	return r
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.router,
	}
	log.Printf("listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router (useful for testing).
func (s *Server) Handler() http.Handler {
	return s.router
}

type queryRequest struct {
	Question string `json:"question"`
	UserID   string `json:"user_id"`
	TopK     int    `json:"top_k"`
}

type queryMedia struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
	HTML string `json:"html,omitempty"`
}

type queryResponse struct {
	Answer   string       `json:"answer"`
	Domain   string       `json:"domain,omitempty"`
	NoDomain bool         `json:"no_domain,omitempty"`
	Media    []queryMedia `json:"media,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "question and user_id are required")
		return
	}

	resp, err := s.engine.Query(r.Context(), req.Question, req.UserID, req.TopK)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := queryResponse{
		Answer:   resp.Answer,
		Domain:   resp.Domain,
		NoDomain: resp.NoDomain,
	}
	for _, m := range resp.Media {
		qm := queryMedia{Kind: m.Kind, Path: m.Path}
		// Table assets are markdown on disk; ship rendered HTML so
		// clients can display the citation directly.
		if m.Kind == retrieval.KindTable {
			if html, err := s.renderTable(m.Path); err == nil {
				qm.HTML = html
			}
		}
		out.Media = append(out.Media, qm)
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) renderTable(path string) (string, error) {
	md, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := s.markdown.Convert(md, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type ingestRequest struct {
	Pattern string `json:"pattern"`
	UserID  string `json:"user_id"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Pattern == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "pattern and user_id are required")
		return
	}

	result, err := s.pipeline.Run(r.Context(), req.Pattern, req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ingested": result.Ingested,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
		"chunks":   result.Chunks,
		"figures":  result.Figures,
		"tables":   result.Tables,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if s.ledger == nil {
		writeJSON(w, http.StatusOK, []ledger.Document{})
		return
	}

	docs, err := s.ledger.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []ledger.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
