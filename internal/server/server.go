package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stillhq/still/internal/cache"
	"github.com/stillhq/still/internal/forum"
	"github.com/stillhq/still/internal/freshness"
	"github.com/stillhq/still/internal/llm"
)

// Server is the still HTTP API server.
type Server struct {
	store      forum.Store
	engine     *freshness.Engine
	scheduler  *freshness.Scheduler
	cache      *cache.Cache
	classifier *llm.Classifier
	verifier   *llm.Verifier
	router     chi.Router
	version    string
	started    time.Time
}

// New creates a new Server. classifier must be non-nil (it degrades to
// heuristics internally); verifier may be nil when no LLM is configured.
func New(store forum.Store, engine *freshness.Engine, scheduler *freshness.Scheduler, stateCache *cache.Cache, classifier *llm.Classifier, verifier *llm.Verifier, version string) *Server {
	s := &Server{
		store:      store,
		engine:     engine,
		scheduler:  scheduler,
		cache:      stateCache,
		classifier: classifier,
		verifier:   verifier,
		version:    version,
		started:    time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/threads", s.handleListThreads)
		r.Post("/threads", s.handleCreateThread)
		r.Get("/threads/{threadID}/posts", s.handleListPosts)
		r.Post("/threads/{threadID}/posts", s.handleCreatePost)
		r.Post("/threads/{threadID}/recalculate", s.handleRecalculate)

		r.Post("/posts/{postID}/verify", s.handleVerify)
		r.Post("/posts/{postID}/assess", s.handleAssess)

		r.Post("/scheduler/trigger", s.handleSchedulerTrigger)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"version":   s.version,
		"uptime":    time.Since(s.started).Seconds(),
		"scheduler": s.scheduler.Running(),
	})
}
