package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/mindengage-academy/internal/api/http"
	auth "github.com/mind-engage/mindengage-academy/internal/auth/middleware"
	"github.com/mind-engage/mindengage-academy/internal/cache"
	"github.com/mind-engage/mindengage-academy/internal/catalog"
	"github.com/mind-engage/mindengage-academy/internal/certificate"
	"github.com/mind-engage/mindengage-academy/internal/config"
	"github.com/mind-engage/mindengage-academy/internal/db"
	"github.com/mind-engage/mindengage-academy/internal/exam"
	"github.com/mind-engage/mindengage-academy/internal/platform/logger"
	"github.com/mind-engage/mindengage-academy/internal/progress"
	syncx "github.com/mind-engage/mindengage-academy/internal/sync"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	driver, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		log.Fatal("invalid DB_DRIVER", "driver", cfg.DBDriver, "error", err)
	}
	dbh, err := db.Open(ctx, driver, cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", "driver", driver, "error", err)
	}
	defer dbh.Close()

	// --- Engines ---
	cat := catalog.NewSQLCatalog(dbh)
	events := syncx.NewEventRepo(dbh, "")
	tracker := progress.NewTracker(progress.NewSQLStore(dbh), cat, progress.WithLogger(log))

	examStore := exam.NewSQLStore(dbh)
	examOpts := []exam.Option{
		exam.WithMaxAttempts(cfg.ExamMaxAttempts),
		exam.WithEvents(events),
		exam.WithLogger(log),
	}
	var defCache *cache.Definitions
	if cfg.RedisAddr != "" {
		defCache, err = cache.Connect(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.ExamCacheTTL,
		})
		if err != nil {
			// the cache is an optimization; serve from the database without it
			log.Warn("redis unavailable, exam definition cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer defCache.Close()
			examOpts = append(examOpts, exam.WithCache(defCache))
		}
	}
	exams := exam.NewEngine(examStore, examStore, examOpts...)
	certs := certificate.NewEngine(certificate.NewSQLStore(dbh), tracker, exams,
		certificate.WithEvents(events), certificate.WithLogger(log))

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, api.RequestLogger(log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Local login (enabled in offline mode by default; can be enabled online via env)
	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, auth.LoginOptions{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
			DevStudents:   cfg.Mode == config.ModeOffline,
		}))
	}

	// Protected API (JWT → subject and role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		api.Mount(pr, api.Deps{
			Progress:  tracker,
			Exams:     exams,
			Certs:     certs,
			Catalog:   cat,
			Events:    events,
			Courses:   catalog.NewCourseSet(cfg.KnownCourses),
			Log:       log,
			PublicURL: cfg.PublicURL,
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	checks := []api.Check{{Name: "db", Ping: dbh.PingContext, Required: true}}
	if defCache != nil {
		checks = append(checks, api.Check{Name: "cache", Ping: defCache.Ping})
	}
	r.Get("/readyz", api.ReadyHandler(log, checks...))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", driver,
			"known_courses", cfg.KnownCourses, "max_attempts", exams.MaxAttempts(), "cache", defCache != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}
