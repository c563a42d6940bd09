package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Asim-Shah-2004/medicine-app/internal/auth"
	"github.com/Asim-Shah-2004/medicine-app/internal/emergency"
	"github.com/Asim-Shah-2004/medicine-app/internal/medicine"
	"github.com/Asim-Shah-2004/medicine-app/internal/notification"
	sharedauth "github.com/Asim-Shah-2004/medicine-app/internal/shared/auth"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/config"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/database"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/metrics"
	secmiddleware "github.com/Asim-Shah-2004/medicine-app/internal/shared/middleware"
	"github.com/Asim-Shah-2004/medicine-app/internal/user"
)

func main() {
	ctx := context.Background()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Shared infrastructure
	issuer := sharedauth.NewTokenIssuer(cfg.Auth)
	authLimiter := secmiddleware.NewIPRateLimiter(1, 5)

	// Notification channels. Email is the required channel; SMS degrades
	// to a console provider when no gateway is configured.
	emailProvider := notification.NewSendGridProvider(cfg.Mail)
	var smsProvider notification.SMSProvider
	if cfg.SMS.Enabled {
		smsProvider = notification.NewConsoleSMSProvider()
	}

	// Modules
	userRepo := user.NewRepository(db.Pool)
	medicineRepo := medicine.NewRepository(db.Pool)
	medicineService := medicine.NewService(medicineRepo, logger)
	medicineHandler := medicine.NewHandler(medicineService)
	userHandler := user.NewHandler(userRepo, medicineService)
	authHandler := auth.NewHandler(userRepo, issuer, cfg.Auth, logger)

	recorder := emergency.NewRecorder(db.Pool)
	dispatcher := emergency.NewDispatcher(emailProvider, smsProvider, cfg.Mail, cfg.SMS, logger)
	emergencyHandler := emergency.NewHandler(recorder, dispatcher, userRepo, medicineService, nil, logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(metrics.Middleware)
	r.Use(secmiddleware.CORS(secmiddleware.DefaultCORSConfig()))

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(db))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// Credential endpoints sit behind the per-IP limiter only.
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Mount("/auth", authHandler.Routes())
		})

		// Everything else requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(sharedauth.Middleware(issuer))
			r.Get("/auth/check-auth", authHandler.CheckAuth)
			r.Mount("/user", userHandler.ProfileRoutes())
			r.Mount("/onboarding", userHandler.OnboardingRoutes())
			r.Mount("/medicines", medicineHandler.Routes())
			r.Mount("/help", emergencyHandler.Routes())
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		close(done)
	}()

	logger.Info("server starting",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"sms_enabled", cfg.SMS.Enabled,
	)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func readyHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"server": "ready"}

		ready := true
		if err := db.Health(r.Context()); err != nil {
			checks["database"] = "not ready: " + err.Error()
			ready = false
		} else {
			checks["database"] = "ready"
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[ready],
			"checks": checks,
		})
	}
}
