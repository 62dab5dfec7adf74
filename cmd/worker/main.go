package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/anishgoyal/promptforge/internal/cache"
	"github.com/anishgoyal/promptforge/internal/config"
	"github.com/anishgoyal/promptforge/internal/database"
	"github.com/anishgoyal/promptforge/internal/input"
	"github.com/anishgoyal/promptforge/internal/judge"
	"github.com/anishgoyal/promptforge/internal/llm"
	"github.com/anishgoyal/promptforge/internal/queue/workers"
	"github.com/anishgoyal/promptforge/internal/run"
	"github.com/anishgoyal/promptforge/internal/session"
	"github.com/anishgoyal/promptforge/internal/telemetry"
	"github.com/anishgoyal/promptforge/internal/version"
	"github.com/anishgoyal/promptforge/internal/workflow"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	gateway := llm.NewGateway(cfg.LLM)
	tracer := telemetry.NewPgTracer(db)

	var jd *judge.Judge
	if cfg.Judge.Enabled {
		jd = judge.NewJudge(gateway, tracer, judge.NewExampleStore(db),
			cfg.Judge.Model, cfg.Judge.EmbeddingModel, cfg.Judge.RetrievalK)
	}

	wf := workflow.New(
		session.NewStore(db),
		input.NewStore(db),
		version.NewStore(db),
		run.NewStore(db),
		gateway, tracer, jd, cfg.LLM.ReflectionModel,
	)
	tracker := cache.NewProgressTracker(cache.NewCache(rdb))

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			// LLM batches are I/O bound but each one hits provider rate
			// limits; keep parallelism modest.
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	var judgeWorker *workers.JudgeWorker
	if jd != nil {
		judgeWorker = workers.NewJudgeWorker(jd)
	}
	workers.Register(mux,
		workers.NewBatchWorker(wf, tracker),
		workers.NewCompareWorker(wf, tracker),
		judgeWorker,
	)

	slog.Info("starting worker", "concurrency", 4, "judge_enabled", jd != nil)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
