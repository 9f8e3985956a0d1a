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
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/bookworm/config"
	"github.com/kevinaaaquil/bookworm/handlers"
	"github.com/kevinaaaquil/bookworm/logging"
	"github.com/kevinaaaquil/bookworm/middleware"
	"github.com/kevinaaaquil/bookworm/ratelimit"
	"github.com/kevinaaaquil/bookworm/service"
	"github.com/kevinaaaquil/bookworm/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("config")
	}
	format := cfg.LogFormat
	if cfg.Production() {
		format = "json"
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: format})

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		logging.Fatal().Err(err).Msg("mongodb")
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			logging.Error().Err(err).Msg("mongodb disconnect")
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		logging.Fatal().Err(err).Msg("mongodb indexes")
	}

	var images service.ImageStore
	if cfg.S3Bucket != "" {
		s3Service, err := service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			logging.Fatal().Err(err).Msg("s3")
		}
		images = s3Service
	} else {
		logging.Warn().Msg("AWS_S3_BUCKET not set; image uploads are disabled")
	}

	rl, closeLimiter := newRateLimiter(cfg)
	defer closeLimiter()

	var notifier service.ReviewNotifier
	if cfg.SMTPEnabled() {
		notifier = service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	}

	authHandler := &handlers.AuthHandler{
		Users:        db,
		JWTSecret:    cfg.JWTSecret,
		TokenTTL:     time.Duration(cfg.TokenTTLHours) * time.Hour,
		SecureCookie: cfg.Production(),
	}
	booksHandler := &handlers.BooksHandler{
		DB:       db,
		Browser:  service.NewBrowser(db),
		Metadata: service.NewMetadataClient(""),
	}
	genresHandler := &handlers.GenresHandler{DB: db}
	tutorialsHandler := &handlers.TutorialsHandler{DB: db}
	usersHandler := &handlers.UsersHandler{DB: db}
	shelvesHandler := &handlers.ShelvesHandler{DB: db, Shelves: service.NewShelves(db)}
	reviewsHandler := &handlers.ReviewsHandler{DB: db, Reviews: service.NewReviews(db, notifier)}
	statsHandler := &handlers.StatsHandler{Stats: service.NewStats(db), Activity: service.NewActivityFeed(db)}
	recsHandler := &handlers.RecommendationsHandler{Recommender: service.NewRecommender(db, cfg.RecommendSeed)}
	uploadHandler := &handlers.UploadHandler{Images: images, MaxBytes: cfg.MaxUploadMB * 1024 * 1024}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.Origins()))
	r.Use(middleware.FloodGuard(600, time.Minute))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"welcome to bookworm."}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(rl.Apply(middleware.RegisterLimit)).Post("/register", authHandler.Register)
		r.With(rl.Apply(middleware.LoginLimit)).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		// Public catalog reads
		r.Group(func(r chi.Router) {
			r.Use(rl.Apply(middleware.APILimit))
			r.Get("/books/browse", booksHandler.Browse)
			r.Get("/books/number-of-books", booksHandler.Count)
			r.Get("/genres", genresHandler.List)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(rl.Apply(middleware.APILimit))

			r.Get("/me", authHandler.Me)
			r.Get("/users/user", usersHandler.ByEmail)

			r.Get("/books", booksHandler.List)
			r.Get("/books/{id}", booksHandler.Get)
			r.Get("/genres/number-of-genres", genresHandler.Count)
			r.Get("/tutorials", tutorialsHandler.List)

			r.Post("/shelves/add-to-shelf", shelvesHandler.Add)
			r.Put("/shelves/update-progress", shelvesHandler.UpdateProgress)
			r.Delete("/shelves/remove-from-shelf", shelvesHandler.Remove)
			r.Get("/shelves/check-status", shelvesHandler.CheckStatus)
			r.Get("/shelves/user-library", shelvesHandler.Library)

			r.Post("/reviews/add-review", reviewsHandler.Add)
			r.Get("/reviews/check-review", reviewsHandler.CheckReview)
			r.Get("/reviews/book/{id}", reviewsHandler.ForBook)

			r.Get("/stats/reading-stats", statsHandler.ReadingStats)
			r.Get("/stats/monthly-books-read", statsHandler.MonthlyBooksRead)
			r.Get("/stats/genre-distribution", statsHandler.GenreDistribution)
			r.Get("/activity-feed", statsHandler.ActivityFeed)

			r.Get("/recommendations", recsHandler.Get)
			r.Post("/uploads/image", uploadHandler.Image)

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Post("/books/add-book", booksHandler.Add)
				r.Put("/books/edit-book/{id}", booksHandler.Edit)
				r.Delete("/books/{id}", booksHandler.Delete)
				r.Get("/books/books-per-genre", booksHandler.PerGenre)
				r.Get("/books/lookup", booksHandler.Lookup)

				r.Post("/genres/add-genre", genresHandler.Add)
				r.Put("/genres/edit-genre/{id}", genresHandler.Edit)
				r.Delete("/genres/delete-genre/{id}", genresHandler.Delete)

				r.Post("/tutorials", tutorialsHandler.Add)
				r.Delete("/tutorials/delete-tutorial/{id}", tutorialsHandler.Delete)

				r.Get("/users", usersHandler.ListUsers)
				r.Get("/users/number-of-users", usersHandler.Count)
				r.Put("/users/change-role/{id}", usersHandler.ChangeRole)
				r.Delete("/users/{id}", usersHandler.DeleteUser)

				r.Get("/reviews", reviewsHandler.List)
				r.Get("/reviews/number-of-reviews", reviewsHandler.PendingCount)
				r.Put("/reviews/approve-review/{id}", reviewsHandler.Approve)
				r.Delete("/reviews/delete-review/{id}", reviewsHandler.Delete)
			})
		})
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.Info().Str("addr", server.Addr).Str("env", cfg.AppEnv).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown")
	}
}

// newRateLimiter shares limits through Redis when REDIS_ADDR is set and
// keeps them in-process otherwise. Nil disables limiting.
func newRateLimiter(cfg *config.Config) (*middleware.RateLimiter, func()) {
	if cfg.RateLimitDisabled {
		logging.Warn().Msg("rate limiting disabled")
		return nil, func() {}
	}
	if cfg.RedisAddr == "" {
		return &middleware.RateLimiter{}, func() {}
	}
	counters, err := ratelimit.NewRedis(cfg.RedisAddr, cfg.RedisPassword, "")
	if err != nil {
		logging.Fatal().Err(err).Msg("redis")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := counters.Ping(ctx); err != nil {
		logging.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping")
	}
	return &middleware.RateLimiter{Counters: counters}, func() {
		if err := counters.Close(); err != nil {
			logging.Error().Err(err).Msg("redis close")
		}
	}
}
