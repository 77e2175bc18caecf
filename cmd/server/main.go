package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"

	config "github.com/maheshrc27/social-link-api/configs"
	"github.com/maheshrc27/social-link-api/internal/api"
	"github.com/maheshrc27/social-link-api/internal/api/handlers"
	"github.com/maheshrc27/social-link-api/internal/api/middleware"
	job "github.com/maheshrc27/social-link-api/internal/jobs"
	"github.com/maheshrc27/social-link-api/internal/models"
	"github.com/maheshrc27/social-link-api/internal/provider"
	"github.com/maheshrc27/social-link-api/internal/queue"
	"github.com/maheshrc27/social-link-api/internal/repository"
	"github.com/maheshrc27/social-link-api/internal/service"
)

type resources struct {
	db          *sql.DB
	redis       *redis.Client
	asynqClient *asynq.Client
	asynqServer *asynq.Server
	cron        *cron.Cron
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	res := &resources{}
	defer res.close()

	if cfg.PostgresURI != "" {
		res.db, err = sql.Open("postgres", cfg.PostgresURI)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := res.db.Ping(); err != nil {
			log.Fatalf("Database is unreachable: %v", err)
		}
	}

	if cfg.HandshakeStore == config.StoreRedis || cfg.R2.Enabled() {
		res.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	}

	var (
		profileRepo repository.ProfileRepository
		accountRepo repository.SocialAccountRepository
	)
	if res.db != nil {
		profileRepo = repository.NewProfileRepository(res.db)
		accountRepo = repository.NewSocialAccountRepository(res.db)
	} else {
		slog.Warn("POSTGRES_URI not set, profiles and accounts are kept in memory")
		store := repository.NewMemoryAccountStore()
		profileRepo = store
		accountRepo = store.Accounts()
	}

	handshakeRepo := newHandshakeRepository(*cfg, res)

	registry := provider.NewRegistry(providerCredentials(*cfg), provider.WithHTTPClient(&http.Client{Timeout: cfg.ProviderTimeout}))

	var avatars service.AvatarEnqueuer
	if cfg.R2.Enabled() {
		r2Service, err := service.NewR2Service(context.Background(), *cfg)
		if err != nil {
			log.Fatalf("Failed to configure object storage: %v", err)
		}

		redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
		res.asynqClient = asynq.NewClient(redisConn)
		avatars = queue.NewAvatarQueue(res.asynqClient)

		avatarService := service.NewAvatarService(accountRepo, r2Service, nil)
		worker := queue.NewQueue(avatarService)

		res.asynqServer = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})
		go func() {
			slog.Info("starting avatar mirror worker")
			if err := res.asynqServer.Run(worker.Mux()); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	} else {
		slog.Info("R2 not configured, avatars are not mirrored")
	}

	handshakeService := service.NewHandshakeService(*cfg, registry, handshakeRepo)
	attachmentService := service.NewAttachmentService(profileRepo, accountRepo, avatars)
	profileService := service.NewProfileService(profileRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	app := fiber.New(api.NewConfig())

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	api.RegisterRoutes(app, api.Handlers{
		Handshake: handlers.NewHandshakeHandler(handshakeService, attachmentService),
		Platform:  handlers.NewPlatformHandler(handshakeService, attachmentService, *cfg),
		Profile:   handlers.NewProfileHandler(profileService),
	}, authMiddleware.AuthMiddleware())

	// cron jobs
	if cfg.HandshakeStore != config.StoreRedis {
		sweepJob := job.NewHandshakeSweepJob(handshakeRepo)
		res.cron = cron.New()
		if err := res.cron.AddFunc(job.Spec(cfg.SweepInterval), sweepJob.SweepExpired); err != nil {
			log.Fatalf("Failed to schedule handshake sweep: %v", err)
		}
		res.cron.Start()
	}

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	slog.Info("server is running", "addr", cfg.ListenAddr, "handshake_store", cfg.HandshakeStore)

	gracefulShutdown(app)
}

func newHandshakeRepository(cfg config.Config, res *resources) repository.HandshakeRepository {
	switch cfg.HandshakeStore {
	case config.StoreRedis:
		return repository.NewRedisHandshakeRepository(res.redis)
	case config.StorePostgres:
		return repository.NewHandshakeRepository(res.db)
	default:
		slog.Warn("handshakes are kept in memory, run a single instance only")
		return repository.NewMemoryHandshakeRepository()
	}
}

func providerCredentials(cfg config.Config) map[models.Platform]provider.Credentials {
	creds := make(map[models.Platform]provider.Credentials)
	for name, client := range cfg.OAuthClients() {
		creds[models.Platform(name)] = provider.Credentials{
			ClientID:     client.ClientID,
			ClientSecret: client.ClientSecret,
			RedirectURL:  client.RedirectURI,
		}
	}
	return creds
}

func (r *resources) close() {
	if r.cron != nil {
		r.cron.Stop()
	}
	if r.asynqServer != nil {
		r.asynqServer.Shutdown()
	}
	if r.asynqClient != nil {
		if err := r.asynqClient.Close(); err != nil {
			slog.Info(err.Error())
		}
	}
	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			slog.Info(err.Error())
		}
	}
	if r.db != nil {
		closeDB(r.db)
	}
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("shutting down server")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}
	slog.Info("server shutdown complete")
}
