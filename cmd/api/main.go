package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sentinelworks/gatepass/internal/database"
	"github.com/sentinelworks/gatepass/internal/demo"
	"github.com/sentinelworks/gatepass/internal/http/handlers"
	mw "github.com/sentinelworks/gatepass/internal/http/middleware"
	"github.com/sentinelworks/gatepass/internal/platform/mailer"
	"github.com/sentinelworks/gatepass/internal/repo/postgres"
	"github.com/sentinelworks/gatepass/internal/store"
	"github.com/sentinelworks/gatepass/internal/uploads"
	"github.com/sentinelworks/gatepass/pkg/config"
	"github.com/sentinelworks/gatepass/pkg/events"
	"github.com/sentinelworks/gatepass/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()

	// Connect to both stores; a missing production store is fatal,
	// a missing demo store is not.
	registry, err := database.Initialize(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to production database", "error", err)
		os.Exit(1)
	}
	defer registry.Close()

	if pool, err := registry.Production(); err == nil {
		if err := database.EnsureSchema(ctx, pool); err != nil {
			logger.Error("Failed to ensure production schema", "error", err)
			os.Exit(1)
		}
	}
	if pool, err := registry.Demo(); err == nil {
		if err := database.EnsureSchema(ctx, pool); err != nil {
			logger.Error("Failed to ensure demo schema", "error", err)
		}
	}

	source := store.NewSource(registry)

	// Seed the demo accounts before the server starts accepting
	// connections; a demo-store outage only degrades demo mode.
	prodRepos, err := source.Production()
	if err != nil {
		logger.Error("Failed to bind production repositories", "error", err)
		os.Exit(1)
	}
	var demoUsers postgres.UserRepository
	if demoRepos, err := source.Demo(); err == nil {
		demoUsers = demoRepos.Users
	} else if cfg.Database.DemoEnabled {
		logger.Error("Demo store unavailable during bootstrap", "error", err)
	}
	demo.NewBootstrap(cfg.Demo).Ensure(ctx, prodRepos.Users, demoUsers)

	// Event bus
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.Enabled {
		natsPub, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsPub.Close()
		publisher = natsPub
	}

	// Redis backs the forgot-password rate limiter.
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	uploadStore, err := uploads.NewStore(cfg.Uploads.Dir)
	if err != nil {
		logger.Error("Failed to prepare uploads directory", "error", err)
		os.Exit(1)
	}

	mail := selectMailer(cfg)

	authHandler := handlers.NewAuthHandler(prodRepos.Users, mail, uploadStore, cfg)
	visitorHandler := handlers.NewVisitorHandler(uploadStore, publisher, cfg)
	passHandler := handlers.NewPassHandler(publisher)
	adminHandler := handlers.NewAdminHandler(uploadStore, publisher, cfg)
	auditHandler := handlers.NewAuditHandler()

	forgotLimiter := mw.NewRateLimiter(redisClient, mw.RateLimitConfig{
		Requests: 5,
		Window:   15 * time.Minute,
		KeyFunc:  mw.IPKeyFunc,
	})

	protect := mw.Protect(source, cfg.Auth.JWTSecret)
	storeContext := mw.StoreContext(source)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
	})

	// Stored photos
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Uploads.Dir))))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(forgotLimiter.Middleware()).Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password/{token}", authHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(protect)
			r.Use(storeContext)
			r.Use(mw.DemoGuard)
			r.Get("/profile", authHandler.Profile)
			r.Put("/profile/password", authHandler.UpdatePassword)
			r.Put("/profile/photo", authHandler.UpdatePhoto)
		})
	})

	r.Route("/api/visitors", func(r chi.Router) {
		r.Use(protect)
		r.Use(storeContext)
		r.Use(mw.DemoGuard)
		r.Use(mw.Authorize("admin", "security"))

		r.Get("/", visitorHandler.List)
		r.With(mw.DemoPassLimit(cfg.Demo.SessionPassQuota)).Post("/", visitorHandler.Create)
		r.Get("/today", visitorHandler.Today)
		r.Get("/export", visitorHandler.Export)
		r.Get("/scan/{passID}", visitorHandler.Scan)
		r.Put("/{id}/checkout", visitorHandler.MarkExit)
		r.Patch("/{id}/exit", visitorHandler.MarkExit)
	})

	r.Route("/api/passes", func(r chi.Router) {
		// Public verification page for scanned QR codes; resolves to
		// the production store (no caller to branch on).
		r.With(storeContext).Get("/{passID}", passHandler.Status)

		r.Group(func(r chi.Router) {
			r.Use(protect)
			r.Use(storeContext)
			r.Use(mw.DemoGuard)
			r.Use(mw.Authorize("admin", "security"))
			r.Patch("/{passID}/checkin", passHandler.CheckIn)
			r.Patch("/{passID}/status", passHandler.UpdateStatus)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(protect)
		r.Use(storeContext)
		r.Use(mw.Authorize("admin"))
		r.Use(mw.DemoGuard)

		r.Post("/create-security", adminHandler.CreateSecurity)
		r.Delete("/user/{id}", adminHandler.DeleteUser)
		r.Get("/dashboard", adminHandler.Dashboard)
		r.Get("/visitors", adminHandler.Visitors)
		r.Get("/visitors/search", adminHandler.SearchVisitors)
		r.Get("/security-users", adminHandler.SecurityUsers)
	})

	r.Route("/api/audit-logs", func(r chi.Router) {
		r.Use(protect)
		r.Use(storeContext)
		r.Use(mw.Authorize("admin"))
		r.Get("/", auditHandler.List)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting gatepass API", "port", cfg.Server.Port, "demo_store", registry.DemoEnabled())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func selectMailer(cfg *config.Config) mailer.Service {
	switch {
	case cfg.Email.DevMode:
		return mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	default:
		return mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass)
	}
}
