package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/bomcorte/blackfriday/internal/api"
	"github.com/bomcorte/blackfriday/internal/config"
	"github.com/bomcorte/blackfriday/internal/database"
	"github.com/bomcorte/blackfriday/internal/location"
	"github.com/bomcorte/blackfriday/internal/logger"
	"github.com/bomcorte/blackfriday/internal/middleware"
	"github.com/bomcorte/blackfriday/internal/repository"
	"github.com/bomcorte/blackfriday/internal/session"
	"github.com/bomcorte/blackfriday/internal/webhook"
)

func main() {
	app := &cli.App{
		Name:  "blackfriday",
		Usage: "BomCorte Black Friday lead-capture API and admin panel backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   config.DefaultPort,
				Usage:   "HTTP server port",
				EnvVars: []string{"PORT"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Aliases: []string{"d"},
				Value:   config.DefaultDatabaseURL,
				Usage:   "PostgreSQL connection URL",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Aliases: []string{"r"},
				Value:   config.DefaultRedisAddr,
				Usage:   "Redis address for sessions and lookup caching",
				EnvVars: []string{"REDIS_ADDR"},
			},
			&cli.StringFlag{
				Name:    "viacep-url",
				Value:   config.DefaultViaCEPURL,
				Usage:   "ViaCEP service base URL",
				EnvVars: []string{"VIACEP_URL"},
			},
			&cli.StringFlag{
				Name:    "ibge-url",
				Value:   config.DefaultIBGEURL,
				Usage:   "IBGE locality service base URL",
				EnvVars: []string{"IBGE_URL"},
			},
			&cli.IntFlag{
				Name:    "rate-limit",
				Value:   config.DefaultRateLimit,
				Usage:   "Public endpoint requests per minute per IP",
				EnvVars: []string{"RATE_LIMIT"},
			},
			&cli.BoolFlag{
				Name:    "migrate",
				Value:   true,
				Usage:   "Apply pending database migrations on startup",
				EnvVars: []string{"MIGRATE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	ctx := c.Context

	databaseURL := c.String("database-url")
	if databaseURL == "" {
		return fmt.Errorf("database URL is required (--database-url or DATABASE_URL)")
	}

	if c.Bool("migrate") {
		if err := database.Migrate(databaseURL); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
	}

	pool, err := database.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: c.String("redis-addr")})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}

	leads, err := repository.NewLeadRepository(pool)
	if err != nil {
		return err
	}
	content, err := repository.NewConfigRepository(pool)
	if err != nil {
		return err
	}
	users, err := repository.NewUserRepository(pool)
	if err != nil {
		return err
	}
	audit, err := repository.NewAuditRepository(pool)
	if err != nil {
		return err
	}
	sessions, err := session.NewStore(rdb)
	if err != nil {
		return err
	}
	notifier, err := webhook.NewNotifier(content)
	if err != nil {
		return err
	}

	locations := location.New(c.String("viacep-url"), c.String("ibge-url"), rdb)

	handler, err := api.New(leads, content, users, audit, locations, notifier, sessions)
	if err != nil {
		return fmt.Errorf("failed to create API handler: %w", err)
	}

	limiter, err := middleware.NewRateLimiter(c.Int("rate-limit"))
	if err != nil {
		return err
	}
	defer limiter.Close()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, limiter)

	server := &http.Server{
		Addr:         ":" + c.String("port"),
		Handler:      middleware.SecurityHeaders(middleware.CacheControl(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+c.String("port"))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
