package app

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/inkwell-blog/inkwell/internal/auth"
	"github.com/inkwell-blog/inkwell/internal/blog"
	"github.com/inkwell-blog/inkwell/internal/observability"
	"github.com/inkwell-blog/inkwell/internal/token"
	"github.com/inkwell-blog/inkwell/jobs"
)

// Infra carries the connections a binary opened. Redis, Notifier and Inspector
// are optional; Pool is required unless STORAGE_DRIVER=memory.
type Infra struct {
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Notifier  auth.Notifier
	Inspector jobs.QueueInspector
	Metrics   *observability.Metrics
	Logger    *slog.Logger
}

// Repositories picks the storage backend named by cfg.
func Repositories(cfg *Config, pool *pgxpool.Pool) (auth.Repository, blog.Repository, error) {
	if cfg.UsesMemoryStorage() {
		return auth.NewMemoryRepository(), blog.NewMemoryRepository(), nil
	}
	if pool == nil {
		return nil, nil, errors.New("app: postgres storage selected without a pool")
	}
	return auth.NewRepository(pool), blog.NewRepository(pool), nil
}

// NewHTTPHandler assembles services, handlers and the router.
func NewHTTPHandler(cfg *Config, infra Infra) (http.Handler, error) {
	logger := infra.Logger
	if logger == nil {
		logger = slog.Default()
	}
	users, posts, err := Repositories(cfg, infra.Pool)
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewService(cfg.JWTSecret, token.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	authService := auth.NewService(users, tokens, auth.ServiceConfig{
		Notifier: infra.Notifier,
		Logger:   logger,
		HashCost: cfg.BcryptCost,
	})
	guard := auth.NewGuard(tokens, authService, logger, infra.Metrics)

	blogCfg := blog.ServiceConfig{Recorder: infra.Metrics, Logger: logger}
	if infra.Redis != nil {
		blogCfg.Cache = blog.NewRedisFeedCache(infra.Redis, cfg.FeedCacheTTL)
	}
	blogService := blog.NewService(posts, blogCfg)

	return NewRouter(RouterParams{
		Logger:      logger,
		Config:      cfg,
		AuthHandler: auth.NewHandler(logger, authService, guard),
		BlogHandler: blog.NewHandler(logger, blogService, guard.Require),
		JobHandler:  jobs.NewHandler(infra.Inspector, logger),
		Metrics:     infra.Metrics,
	}), nil
}
