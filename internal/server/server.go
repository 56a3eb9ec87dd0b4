package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/kinetic/internal/author"
	kmcp "github.com/claude/kinetic/internal/mcp"
	"github.com/claude/kinetic/internal/metrics"
	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/session"
	"github.com/claude/kinetic/internal/storage"
)

// Author drafts programs with an AI model.
type Author interface {
	Available() bool
	DiscoverIdeas(ctx context.Context) ([]models.ProgramIdea, error)
	GenerateFromIdea(ctx context.Context, idea models.ProgramIdea, profile models.Profile) (author.Draft, error)
	GenerateFromPrompt(ctx context.Context, request string, profile models.Profile) (author.Draft, error)
	ExtractFromDocument(ctx context.Context, mimeType string, data []byte) (author.Draft, error)
}

// Deps are the collaborators the HTTP layer serves.
type Deps struct {
	Store     *storage.Store
	Scheduler *storage.Scheduler
	Sessions  *session.Manager
	Author    Author
	Metrics   *metrics.Manager
	Registry  prometheus.Gatherer
	MCP       *mcpserver.MCPServer
	APIKey    string
	Log       *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     *storage.Store
	scheduler *storage.Scheduler
	sessions  *session.Manager
	author    Author
	metrics   *metrics.Manager
	registry  prometheus.Gatherer
	mcp       *mcpserver.MCPServer
	apiKey    string
	log       *slog.Logger
	whois     WhoIser
	router    chi.Router
}

// New creates a new Server with all routes configured.
func New(deps Deps) *Server {
	s := &Server{
		store:     deps.Store,
		scheduler: deps.Scheduler,
		sessions:  deps.Sessions,
		author:    deps.Author,
		metrics:   deps.Metrics,
		registry:  deps.Registry,
		mcp:       deps.MCP,
		apiKey:    deps.APIKey,
		log:       deps.Log,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale switches identity resolution from the dev user to Tailscale
// WhoIs lookups.
func (s *Server) SetTailscale(whois WhoIser) {
	s.whois = whois
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	if s.metrics != nil {
		s.router.Use(RequestMetrics(s.metrics))
	}
	s.router.Use(CORS)

	if s.registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}
		r.Use(s.identity)

		r.Get("/me", s.handleMe)

		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handlePutProfile)

		r.Get("/programs", s.handleListPrograms)
		r.Post("/programs", s.handleCreateProgram)
		r.Get("/programs/{id}", s.handleGetProgram)
		r.Delete("/programs/{id}", s.handleDeleteProgram)
		r.Get("/programs/{id}/schedule", s.handleProgramSchedule)
		r.Put("/programs/{id}/schedule", s.handleSchedule)

		r.Get("/schedule", s.handleMonth)
		r.Get("/today", s.handleToday)

		r.Get("/history", s.handleListHistory)
		r.Get("/history/stats", s.handleHistoryStats)
		r.Get("/history/{id}", s.handleGetHistory)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/", s.handleStartSession)
			r.Delete("/", s.handleDiscardSession)
			r.Patch("/exercises/{ex}/sets/{set}", s.handleUpdateSet)
			r.Patch("/exercises/{ex}/metric", s.handleEditMetric)
			r.Post("/finish", s.handleFinishSession)
			r.Post("/resume", s.handleResumeSession)
			r.Post("/feedback", s.handleFeedback)
		})

		r.Get("/author/ideas", s.handleIdeas)
		r.Post("/author/generate", s.handleGenerate)
		r.Post("/author/extract", s.handleExtract)
	})

	if s.mcp != nil {
		mcpHandler := mcpserver.NewStreamableHTTPServer(s.mcp,
			mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
				return kmcp.WithIdentity(ctx, userInfoFromContext(r).Login)
			}),
		)
		s.router.Group(func(r chi.Router) {
			if s.apiKey != "" {
				r.Use(APIKeyAuth(s.apiKey))
			}
			r.Use(s.identity)
			r.Handle("/mcp", mcpHandler)
		})
	}
}
