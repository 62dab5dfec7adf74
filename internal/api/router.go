// Package api wires the HTTP surface: routing, middleware and handler
// construction.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/anishgoyal/promptforge/internal/api/handlers"
	"github.com/anishgoyal/promptforge/internal/api/middleware"
	"github.com/anishgoyal/promptforge/internal/auth"
	"github.com/anishgoyal/promptforge/internal/cache"
	"github.com/anishgoyal/promptforge/internal/config"
	"github.com/anishgoyal/promptforge/internal/export"
	"github.com/anishgoyal/promptforge/internal/feedback"
	"github.com/anishgoyal/promptforge/internal/input"
	"github.com/anishgoyal/promptforge/internal/judge"
	"github.com/anishgoyal/promptforge/internal/llm"
	"github.com/anishgoyal/promptforge/internal/queue"
	"github.com/anishgoyal/promptforge/internal/run"
	"github.com/anishgoyal/promptforge/internal/session"
	"github.com/anishgoyal/promptforge/internal/telemetry"
	"github.com/anishgoyal/promptforge/internal/version"
	"github.com/anishgoyal/promptforge/internal/workflow"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	authn *auth.Middleware
	llmGW *llm.Gateway
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		authn: auth.NewMiddleware(cfg.Auth.APIKey, cfg.Auth.APIKeyHeader, cfg.Auth.JWTSecret),
		llmGW: llm.NewGateway(cfg.LLM),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(50, 100)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Stores and collaborators
	sessions := session.NewStore(rt.db)
	inputs := input.NewStore(rt.db)
	versions := version.NewStore(rt.db)
	results := run.NewStore(rt.db)
	tracer := telemetry.NewPgTracer(rt.db)
	feedbackStore := feedback.NewStore(rt.db, tracer)

	var jd *judge.Judge
	if rt.cfg.Judge.Enabled {
		jd = judge.NewJudge(rt.llmGW, tracer, judge.NewExampleStore(rt.db),
			rt.cfg.Judge.Model, rt.cfg.Judge.EmbeddingModel, rt.cfg.Judge.RetrievalK)
	}

	wf := workflow.New(sessions, inputs, versions, results, rt.llmGW, tracer, jd,
		rt.cfg.LLM.ReflectionModel)
	exporter := export.NewExporter(sessions, inputs, versions, results)

	redisCache := cache.NewCache(rt.redis)
	tracker := cache.NewProgressTracker(redisCache)
	queueClient := queue.NewClient(rt.cfg.Redis)

	sessionH := handlers.NewSessionHandler(sessions, wf, exporter)
	inputH := handlers.NewInputHandler(inputs)
	versionH := handlers.NewVersionHandler(versions, sessions)
	runH := handlers.NewRunHandler(wf, results, tracer, queueClient, tracker)
	feedbackH := handlers.NewFeedbackHandler(feedbackStore, redisCache)
	refineH := handlers.NewRefineHandler(wf, versions)
	compareH := handlers.NewCompareHandler(wf, results, queueClient, tracker)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authn.Authenticate)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionH.Create)
			r.Get("/", sessionH.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionH.Get)
				r.Patch("/status", sessionH.UpdateStatus)
				r.Delete("/", sessionH.Delete)
				r.Get("/export", sessionH.Export)

				r.Route("/inputs", func(r chi.Router) {
					r.Post("/", inputH.Create)
					r.Post("/import", inputH.Import)
					r.Get("/", inputH.List)
				})

				r.Route("/versions", func(r chi.Router) {
					r.Get("/", versionH.History)
					r.Get("/current", versionH.Current)
					r.Get("/latest", versionH.Latest)
					r.Get("/{oldID}/diff/{newID}", versionH.Diff)
				})

				r.Post("/run", runH.Run)
				r.Get("/progress", runH.Progress)

				r.Post("/refine/propose", refineH.Propose)
				r.Post("/refine/accept", refineH.Accept)
				r.Post("/refine/reject", refineH.Reject)

				r.Post("/compare", compareH.Prepare)

				if jd != nil {
					judgeH := handlers.NewJudgeHandler(jd, queueClient)
					r.Post("/judge/align", judgeH.Align)
					r.Post("/judge/suggest", judgeH.Suggest)
				}
			})
		})

		r.Route("/inputs/{inputID}", func(r chi.Router) {
			r.Delete("/", inputH.Delete)
			r.Get("/results", runH.ResultsForInput)
		})

		r.Route("/versions/{versionID}", func(r chi.Router) {
			r.Get("/", versionH.Get)
			r.Patch("/status", versionH.UpdateStatus)
			r.Get("/export", versionH.Export)
			r.Get("/results", runH.ResultsForVersion)
			r.Get("/feedback/summary", feedbackH.Summary)
		})

		r.Route("/results/{resultID}", func(r chi.Router) {
			r.Get("/", runH.GetResult)
			r.Get("/trace", runH.GetTrace)
			r.Post("/rerun", runH.Rerun)
			r.Put("/feedback", feedbackH.Update)
			r.Put("/comparison", compareH.Judge)
		})
	})

	return r
}
