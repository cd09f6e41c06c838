package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/counterpointai/counterpoint/config"
	"github.com/counterpointai/counterpoint/internal/corpus"
	"github.com/counterpointai/counterpoint/internal/debate"
	"github.com/counterpointai/counterpoint/internal/evaluation"
	"github.com/counterpointai/counterpoint/internal/store"
	"github.com/counterpointai/counterpoint/internal/telemetry"
	"github.com/counterpointai/counterpoint/provider"
)

// Run wires the service together and serves the HTTP API until the listener
// fails.
func Run(cfg *appconfig.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	index, err := corpus.NewIndex(cfg.Corpus.Dir, cfg.Corpus.ChunkSize, cfg.Corpus.Overlap)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}
	corpusLogger := log.New(log.Writer(), "[CORPUS] ", log.LstdFlags)
	corpusLogger.Printf("indexed %d chunks from %s", index.Size(), cfg.Corpus.Dir)

	llm, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), provider.Options{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	})
	if err != nil {
		return fmt.Errorf("configuring llm provider: %w", err)
	}

	sessions, pgStore, err := buildSessionStore(ctx, cfg)
	if err != nil {
		return err
	}

	metrics := telemetry.New()
	debateLogger := log.New(log.Writer(), "[DEBATE] ", log.LstdFlags)
	gateway := debate.NewGateway(llm, cfg.LLM.PromptDir, cfg.LLM.Temperature, debateLogger, metrics)
	engine := debate.NewEngine(sessions, index, gateway, metrics, debateLogger)
	eval := evaluation.NewService(sessions)

	api := e.Group("/api")

	if cfg.Server.AuthEnabled {
		if pgStore == nil {
			return fmt.Errorf("auth requires the postgres storage driver")
		}
		if cfg.Server.JWTSecret == "" {
			return fmt.Errorf("jwt secret not configured (server.jwt_secret)")
		}
		auth := &AuthHandler{Store: pgStore, Secret: []byte(cfg.Server.JWTSecret)}
		auth.Register(api.Group("/auth"))
		api.Use(authMiddleware([]byte(cfg.Server.JWTSecret), "/api/auth"))
	}

	dh := &DebateHandler{Engine: engine, Eval: eval, Gateway: gateway}
	dh.Register(api)

	ch := &CorpusHandler{Index: index, Logger: corpusLogger}
	ch.Register(api.Group("/corpus"))

	return e.Start(cfg.Server.Address)
}

// buildSessionStore picks the configured backend; the postgres handle is
// also returned separately because the auth layer needs it.
func buildSessionStore(ctx context.Context, cfg *appconfig.Config) (store.SessionStore, *store.Store, error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		return store.NewMemoryStore(), nil, nil
	case "postgres":
		dsn, err := cfg.Storage.Postgres.DSN()
		if err != nil {
			return nil, nil, err
		}
		st, err := store.NewWithDSN(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil
	case "redis":
		st, err := store.NewRedisStore(ctx,
			cfg.Storage.Redis.Host, cfg.Storage.Redis.Port,
			cfg.Storage.Redis.Password, cfg.Storage.Redis.DB,
			cfg.Storage.Redis.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return st, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}
