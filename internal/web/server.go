// Package web is the HTTP adapter: statement uploads, the redirect-driven
// mapping workflow and JSON reports.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/budgetbook/internal/config"
	"github.com/cleared-dev/budgetbook/internal/importer"
	"github.com/cleared-dev/budgetbook/internal/model"
	"github.com/cleared-dev/budgetbook/internal/report"
	"github.com/cleared-dev/budgetbook/internal/resolver"
)

const maxUploadBytes = 10 << 20

// Workflow is the unknown-merchant resolver.
type Workflow interface {
	Start(ctx context.Context, meta model.StatementMetadata, lines []model.Line) (resolver.Outcome, error)
	Resume(token string) (resolver.Prompt, error)
	Submit(ctx context.Context, token string, sub resolver.Submission) (resolver.Outcome, error)
}

// Reports builds report payloads.
type Reports interface {
	Monthly(ctx context.Context, year, month int) (report.Payload, error)
	Annual(ctx context.Context, date time.Time) (report.AnnualPayload, error)
}

// CategoryLister lists the category schema.
type CategoryLister interface {
	All() []model.Category
}

// Deps are the collaborators of a Server.
type Deps struct {
	Config      *config.Config
	Workflow    Workflow
	Reports     Reports
	Categories  CategoryLister
	Normalizers *importer.Registry
}

// Server serves the HTTP API.
type Server struct {
	deps Deps
	log  zerolog.Logger
}

// NewServer creates a Server.
func NewServer(deps Deps, log zerolog.Logger) *Server {
	return &Server{deps: deps, log: log.With().Str("component", "web").Logger()}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /statements", s.uploadStatement)
	mux.HandleFunc("GET /mappings/new", s.mappingPrompt)
	mux.HandleFunc("POST /mappings", s.submitMapping)
	mux.HandleFunc("GET /reports/annual", s.annualReport)
	mux.HandleFunc("GET /reports/{year}/{month}", s.monthlyReport)
	mux.HandleFunc("GET /healthz", s.health)

	return Chain(mux, RequestID(s.log), Logger, Recovery)
}

// NewHTTPServer wraps the handler with timeouts.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
