package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fireops/auth"
	"fireops/dashboard"
	"fireops/db"
	"fireops/handlers"
	"fireops/middleware"
	"fireops/reminders"
	"fireops/service"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	log.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("store", cfg.Store.Backend).
		Msg("starting fireops API server")

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := db.Open(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to open store")
		return err
	}
	defer store.Close()
	repo := db.NewRepository(store, log).WithLocation(loc)

	reminderBackend, err := reminders.NewFileBackend(cfg.Reminders.Dir)
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.Reminders.Dir).Msg("failed to open reminder storage")
		return err
	}
	reminderRepo := reminders.NewRepository(reminderBackend, log)

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	log.Info().Dur("expiration", cfg.JWT.Expiration).Msg("JWT manager initialized")

	aggregator := dashboard.NewAggregator(repo, reminderRepo, log)
	aggregator.SetLocation(loc)

	clock := handlers.Clock(time.Now)
	set := &handlers.Set{
		Auth:      handlers.NewAuthHandler(repo, jwtManager, clock),
		Users:     handlers.NewUserHandler(repo),
		Clients:   handlers.NewClientHandler(service.NewClientService(repo, log)),
		Visits:    handlers.NewVisitHandler(service.NewVisitService(repo, log, loc), clock),
		Tasks:     handlers.NewTaskHandler(service.NewTaskService(repo, log), clock),
		Reminders: handlers.NewReminderHandler(reminderRepo),
		Dashboard: handlers.NewDashboardHandler(aggregator, loc),
	}
	mux := handlers.Routes(set, jwtManager, repo)

	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	rateLimiter.CleanupOldLimiters(time.Hour, stopCleanup)
	log.Info().Int("requests", cfg.RateLimit.Requests).Dur("window", cfg.RateLimit.Window).Msg("rate limiter initialized")

	// The request logger wraps everything so 429s and panics are logged too.
	var handler http.Handler = mux
	handler = middleware.CORSMiddleware(cfg.CORS.AllowedOrigins)(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = middleware.Recover(handler)
	handler = middleware.RequestLogger(log)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("server failed to start")
			return err
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}
	log.Info().Msg("server stopped gracefully")
	return nil
}
