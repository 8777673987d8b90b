package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/cache"
	"github.com/geocoder89/recipehub/internal/config"
	"github.com/geocoder89/recipehub/internal/db"
	httpx "github.com/geocoder89/recipehub/internal/http"
	"github.com/geocoder89/recipehub/internal/http/handlers"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/geocoder89/recipehub/internal/repo/memory"
	"github.com/geocoder89/recipehub/internal/repo/postgres"
	"github.com/geocoder89/recipehub/internal/storage"
)

// stores groups the repositories of whichever backend DATABASE_URL selects.
type stores struct {
	users interface {
		httpx.UserStore
		auth.UserStore
		db.SuperuserStore
	}
	tokens      auth.TokenStore
	recipes     handlers.RecipeStore
	tags        handlers.AttributeStore
	ingredients handlers.AttributeStore
}

var errShuttingDown = errors.New("shutting down")

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env, cfg.ServiceName)

	ctx := context.Background()

	if cfg.OTelEnabled {
		stopTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: cfg.ServiceName,
			Env:         cfg.Env,
			Endpoint:    cfg.OTelEndpoint,
			SampleRatio: cfg.OTelSampleRatio,
		})
		if err != nil {
			log.Error("otel init failed", "err", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = stopTracer(sctx)
			}()
		}
	}

	reg := observability.NewRegistry()
	prom := observability.NewProm(reg)

	var draining atomic.Bool

	checks := map[string]handlers.Check{
		"shutdown": func(context.Context) error {
			if draining.Load() {
				return errShuttingDown
			}
			return nil
		},
	}

	var st stores

	if cfg.UsesMemoryStore() {
		log.Warn("using in-memory store; data is lost on restart")

		mem := memory.NewStore()
		st = stores{
			users:       mem.Users(),
			tokens:      mem.Tokens(),
			recipes:     mem.Recipes(),
			tags:        mem.Tags(),
			ingredients: mem.Ingredients(),
		}
	} else {
		if err := db.Migrate(ctx, cfg.DBURL); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}

		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			log.Error("db connection failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		checks["db"] = pool.Ping

		st = stores{
			users:       postgres.NewUsersRepo(pool, prom),
			tokens:      postgres.NewTokensRepo(pool, prom),
			recipes:     postgres.NewRecipesRepo(pool, prom),
			tags:        postgres.NewTagsRepo(pool, prom),
			ingredients: postgres.NewIngredientsRepo(pool, prom),
		}
	}

	var tokenCache auth.TokenCache

	if cfg.RedisAddr != "" {
		rc := cache.NewRedisTokens(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.TokenCacheTTL, log)
		defer rc.Close()

		checks["redis"] = rc.Ping
		tokenCache = rc
	} else {
		tokenCache = cache.NewMemoryTokens(cfg.TokenCacheTTL)
	}

	images, err := storage.New(ctx, cfg)
	if err != nil {
		log.Error("media storage init failed", "err", err)
		os.Exit(1)
	}

	created, err := db.EnsureSuperuser(ctx, st.users, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
	if err != nil {
		log.Error("superuser bootstrap failed", "err", err)
		os.Exit(1)
	}
	if created {
		log.Info("superuser created", "email", cfg.AdminEmail)
	}

	authService := auth.NewService(
		auth.NewManager(cfg.TokenSecret, cfg.TokenTTL),
		st.tokens,
		st.users,
		tokenCache,
	)

	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Users:       st.users,
		Recipes:     st.recipes,
		Tags:        st.tags,
		Ingredients: st.ingredients,
		Auth:        authService,
		Images:      images,
		Prom:        prom,
		Checks:      checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "media", cfg.MediaBackend)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	draining.Store(true)
	log.Info("server shutting down")

	shutdown(log, srv)
}

func shutdown(log *slog.Logger, srv *http.Server) {
	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
