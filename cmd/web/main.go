package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anujaroke/Task-Vault/internal/auth"
	"github.com/anujaroke/Task-Vault/internal/config"
	"github.com/anujaroke/Task-Vault/internal/db"
	"github.com/anujaroke/Task-Vault/internal/handlers"
	mw "github.com/anujaroke/Task-Vault/internal/middleware"
	"github.com/anujaroke/Task-Vault/internal/repo"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	setupLogger(cfg.LogFormat)

	if cfg.Env == "prod" && cfg.JWTSecret == "supersecretkey" {
		slog.Error("refusing to start: JWT_SECRET must be set in prod")
		os.Exit(1)
	}

	database, err := db.Connect(
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBUser,
		cfg.DBPass,
		cfg.DBMaxOpenConns,
		cfg.DBMaxIdleConns,
	)
	if err != nil {
		slog.Error("connect to database", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Run(cfg.DatabaseURL()); err != nil {
		slog.Error("apply migrations", "err", err)
		os.Exit(1)
	}

	renderer, err := handlers.NewRenderer()
	if err != nil {
		slog.Error("parse templates", "err", err)
		os.Exit(1)
	}

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	retention := time.Duration(cfg.RetentionHours) * time.Hour
	codec := auth.NewCodec([]byte(cfg.JWTSecret), sessionTTL)

	useTLS := cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""

	authHandler := &handlers.AuthHandler{
		Users:        repo.NewUserRepo(database),
		Codec:        codec,
		Render:       renderer,
		SessionTTL:   sessionTTL,
		SecureCookie: useTLS,
	}
	taskHandler := &handlers.TaskHandler{
		Tasks:     repo.NewTaskRepo(database),
		Render:    renderer,
		Retention: retention,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(mw.RequestLog)
	r.Use(mw.Recoverer)
	r.Use(mw.Prometheus)
	r.Use(mw.SecurityHeaders(useTLS))
	r.Use(mw.MaxBytes(mw.DefaultMaxBodyBytes))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public
	r.Get("/login", authHandler.LoginForm)
	r.Post("/login", authHandler.Login)
	r.Get("/register", authHandler.RegisterForm)
	r.Post("/register", authHandler.Register)
	r.Get("/logout", authHandler.Logout)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth(codec))
		r.Get("/", taskHandler.Index)
		r.Post("/add", taskHandler.Add)
		r.Post("/complete/{id}", taskHandler.Complete)
		r.Get("/delete/{id}", taskHandler.Delete)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.Port, "tls", useTLS)
		if useTLS {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "err", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server", "err", err)
			os.Exit(1)
		}
	}
}

func setupLogger(format string) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}
