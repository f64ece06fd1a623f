package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/generator"
	"trivia-quiz-service/internal/infra/gemini"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/infra/postgres"
	"trivia-quiz-service/internal/infra/postgres/migrations"
	redisinfra "trivia-quiz-service/internal/infra/redis"
	"trivia-quiz-service/internal/infra/sqlite"
	"trivia-quiz-service/internal/logging"
)

// runtime holds everything a command needs, built from config.
type runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	store       app.Store
	supervisor  *app.Supervisor
	replenisher *app.Replenisher
	service     *app.GameService
	closers     []func()
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

func buildRuntime(ctx context.Context, cfgPath string) (*runtime, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	rt := &runtime{
		cfg:    cfg,
		logger: logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level),
	}

	store, err := rt.openStore(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}

	var (
		cache app.QuestionCache
		lock  app.PoolLock = memory.NewPoolLock()
	)
	cacheTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			rt.logger.Warn("redis unreachable, running without cache", "addr", cfg.Redis.Addr, "err", err)
		} else {
			cache = redisinfra.NewQuestionCache(client, store, cacheTTL)
			lock = redisinfra.NewPoolLock(client, config.TTLDuration(cfg.Redis.LockTTL, 5*time.Minute))
			rt.logger.Info("redis question cache enabled", "addr", cfg.Redis.Addr)
		}
	}
	if cache == nil {
		if _, inMemory := store.(*memory.Store); !inMemory {
			cache = memory.NewQuestionCache(store, cacheTTL)
		}
	}
	rt.store = app.WithQuestionCache(store, cache)

	policy, err := app.ParsePolicy(cfg.Scoring.Policy)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.supervisor = app.NewSupervisor(2, rt.logger)
	rt.closers = append(rt.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.supervisor.Shutdown(shutdownCtx); err != nil {
			rt.logger.Warn("background tasks did not stop in time", "err", err)
		}
	})

	rt.replenisher = app.NewReplenisher(rt.store, rt.questionGenerator(), rt.supervisor, lock, rt.logger)
	rt.service = app.NewGameService(rt.store, app.NewSelector(rt.store, rt.store), rt.replenisher, policy, app.PoolSettings{
		MinQuestions: cfg.Pool.MinQuestions,
		MaxAttempts:  cfg.Pool.MaxAttempts,
		Topic:        cfg.Pool.Topic,
		Async:        cfg.Pool.Async,
	}, rt.logger)
	return rt, nil
}

// openStore picks Postgres, then SQLite, then memory.
func (rt *runtime) openStore(ctx context.Context) (app.Store, error) {
	switch {
	case rt.cfg.Postgres.URL != "":
		if _, err := migrations.Apply(ctx, rt.cfg.Postgres.URL); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		pool, err := postgres.Connect(ctx, rt.cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		rt.logger.Info("using postgres store")
		return postgres.NewStore(pool), nil
	case rt.cfg.SQLite.Path != "":
		store, err := sqlite.NewStore(rt.cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		rt.closers = append(rt.closers, func() { _ = store.Close() })
		rt.logger.Info("using sqlite store", "path", rt.cfg.SQLite.Path)
		return store, nil
	default:
		rt.logger.Info("using in-memory store")
		return memory.NewStore(), nil
	}
}

// questionGenerator falls back to the built-in set when no API key is configured.
func (rt *runtime) questionGenerator() app.QuestionGenerator {
	g := rt.cfg.Generator
	if g.APIKey == "" {
		rt.logger.Warn("no generator API key configured, serving built-in questions")
		return generator.NewStaticGenerator(domain.FallbackQuestions())
	}
	client := gemini.NewClient(
		&http.Client{Timeout: config.TTLDuration(g.Timeout, 60*time.Second)},
		g.Endpoint,
		g.APIKey,
	)
	return generator.New(client, generator.Options{
		Model:      g.Model,
		Attempts:   g.Attempts,
		BaseDelay:  config.TTLDuration(g.BaseDelay, generator.DefaultBaseDelay),
		Multiplier: g.Multiplier,
		Logger:     rt.logger,
	})
}
