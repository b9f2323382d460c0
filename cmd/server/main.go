package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/CleanAfricaNow/civic-service/internal/client"
	"github.com/CleanAfricaNow/civic-service/internal/config"
	"github.com/CleanAfricaNow/civic-service/internal/handler"
	"github.com/CleanAfricaNow/civic-service/internal/middleware"
	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/repository"
	"github.com/CleanAfricaNow/civic-service/internal/service"
	"github.com/CleanAfricaNow/civic-service/internal/storage"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
	"github.com/CleanAfricaNow/civic-service/internal/telemetry"
	"github.com/CleanAfricaNow/civic-service/internal/util"
	"github.com/CleanAfricaNow/civic-service/internal/util/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}

	logger.Init(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	defer logger.Sync()

	taxonomy.SetStrict(cfg.Development())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.ResolveSecrets(ctx, cfg); err != nil {
		logger.Fatalf("resolve secrets: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		logger.Fatalf("ping database: %v", err)
	}

	redisClient, err := client.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatalf("connect redis: %v", err)
	}
	defer redisClient.Close()

	store, err := storage.NewClient(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalf("init storage: %v", err)
	}

	jwtManager, err := util.NewJWTManager(cfg.JWT)
	if err != nil {
		logger.Fatalf("init jwt: %v", err)
	}

	notifier, err := telemetry.NewNotifier(cfg.Notifier)
	if err != nil {
		logger.Fatalf("init notifier: %v", err)
	}
	notifier.Start()

	if cfg.Notifier.Enabled {
		worker := telemetry.NewEmailWorker(cfg.Notifier, &telemetry.LogSender{})
		worker.Start(ctx)
	}

	userRepo := repository.NewPostgresUserRepository(db)
	roleRepo := repository.NewPostgresRoleRepository(db)
	profileRepo := repository.NewPostgresProfileRepository(db)
	cityRepo := repository.NewPostgresCityRepository(db)
	reportRepo := repository.NewPostgresReportRepository(db)
	binRepo := repository.NewPostgresBinRepository(db)
	registrationRepo := repository.NewPostgresRegistrationRepository(db)
	orgRepo := repository.NewPostgresOrganizationRepository(db)

	authService := service.NewAuthService(userRepo, roleRepo, profileRepo, jwtManager, redisClient, notifier, 0)
	reportService := service.NewReportService(reportRepo, profileRepo, userRepo, store, notifier)
	binService := service.NewBinService(binRepo)
	registrationService := service.NewRegistrationService(registrationRepo, userRepo, store, notifier)
	orgService := service.NewOrgService(orgRepo, cityRepo)
	dashboardService := service.NewDashboardService(reportRepo, binRepo, profileRepo, registrationRepo)

	authHandler := handler.NewAuthHandler(authService)
	reportHandler := handler.NewReportHandler(reportService)
	binHandler := handler.NewBinHandler(binService)
	registrationHandler := handler.NewRegistrationHandler(registrationService)
	orgHandler := handler.NewOrgHandler(orgService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	healthHandler := handler.NewHealthHandler(cfg, db, redisClient)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, redisClient)

	r := chi.NewRouter()
	r.Use(middleware.SecurityHeaders(middleware.DefaultHeadersConfig()))
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer, chimw.Timeout(10*time.Second))
	r.Use(chimw.Logger)
	r.Use(middleware.Authenticator(jwtManager, authService))

	r.Get("/healthz", healthHandler.Liveness)
	r.Get("/readyz", healthHandler.Readiness)

	r.Route("/auth", func(rt chi.Router) {
		rt.Post("/signup", authHandler.SignUp)
		rt.Post("/signin", authHandler.SignIn)
		rt.Post("/refresh", authHandler.Refresh)
		rt.Post("/reset-password", authHandler.ResetPassword)

		rt.Group(func(pr chi.Router) {
			pr.Use(middleware.SessionLoader(authService))
			pr.Use(middleware.RequireAuth)
			pr.Post("/signout", authHandler.SignOut)
			pr.Get("/session", authHandler.Session)
			pr.Patch("/profile", authHandler.UpdateProfile)
		})
	})

	r.Route("/reports", func(rt chi.Router) {
		rt.Get("/", reportHandler.List)
		rt.Get("/{id}", reportHandler.Get)
		rt.Get("/leaderboard", reportHandler.Leaderboard)

		rt.Group(func(pr chi.Router) {
			pr.Use(middleware.RequireAuth)
			pr.Post("/", reportHandler.Create)
			pr.Post("/{id}/photos", reportHandler.AddPhoto)
			pr.Delete("/{id}", reportHandler.Delete)
		})
		rt.Group(func(pr chi.Router) {
			pr.Use(middleware.RequireRoles(models.RoleMunicipality, models.RoleNGO, models.RoleAdmin))
			pr.Patch("/{id}/status", reportHandler.UpdateStatus)
			pr.Patch("/{id}/priority", reportHandler.AssignPriority)
		})
	})

	// Anonymous bin reporting stays open but rate limited.
	r.Group(func(rt chi.Router) {
		rt.Use(limiter.Handler)
		rt.Post("/public/bins/{id}/status-reports", binHandler.SubmitStatusReport)
	})

	r.Route("/bins", func(rt chi.Router) {
		rt.Get("/", binHandler.List)
		rt.Get("/{id}", binHandler.Get)
		rt.Get("/{id}/status-reports", binHandler.StatusHistory)

		rt.Group(func(pr chi.Router) {
			pr.Use(middleware.RequireAuth)
			pr.Post("/{id}/status-reports", binHandler.SubmitStatusReport)
		})
		rt.Group(func(pr chi.Router) {
			pr.Use(middleware.RequireRoles(models.RoleMunicipality, models.RoleAdmin, models.RolePartner))
			pr.Post("/", binHandler.Create)
			pr.Put("/{id}", binHandler.Update)
			pr.Post("/{id}/collections", binHandler.LogCollection)
		})
	})

	r.Route("/registration-requests", func(rt chi.Router) {
		rt.Use(middleware.RequireAuth)
		rt.Post("/", registrationHandler.Submit)
		rt.Post("/{id}/documents", registrationHandler.AttachDocument)
		rt.Get("/mine", registrationHandler.Mine)

		rt.Group(func(pr chi.Router) {
			pr.Use(middleware.RequireRoles(models.RoleAdmin))
			pr.Get("/", registrationHandler.List)
			pr.Patch("/{id}", registrationHandler.Decide)
		})
	})

	r.Route("/cities", func(rt chi.Router) {
		rt.Get("/", orgHandler.Cities)
		rt.Group(func(pr chi.Router) {
			pr.Use(middleware.RequireRoles(models.RoleAdmin))
			pr.Post("/", orgHandler.CreateCity)
		})
	})

	r.Route("/organizations", func(rt chi.Router) {
		rt.Get("/", orgHandler.List)
		rt.Get("/{id}", orgHandler.Get)

		rt.Group(func(pr chi.Router) {
			pr.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleMunicipality, models.RoleNGO))
			pr.Post("/", orgHandler.Create)
			pr.Put("/{id}", orgHandler.Update)
			pr.Post("/{id}/members", orgHandler.AddMember)
			pr.Delete("/{id}/members/{userID}", orgHandler.RemoveMember)
			pr.Get("/{id}/members", orgHandler.Members)
			pr.Post("/{id}/territories", orgHandler.ClaimTerritory)
			pr.Delete("/{id}/territories/{cityID}", orgHandler.ReleaseTerritory)
			pr.Get("/{id}/territories", orgHandler.Territories)
		})
	})

	r.Group(func(rt chi.Router) {
		rt.Use(middleware.SessionLoader(authService))
		rt.Use(middleware.RequireAuth)
		rt.Get("/dashboard/{role}", dashboardHandler.Get)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	notifier.Stop(shutdownCtx)
}
