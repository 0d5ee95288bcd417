package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"

	"PicSphere/internal/api/middleware"
	"PicSphere/internal/api/routes"
	"PicSphere/internal/app"
	"PicSphere/internal/cache"
	"PicSphere/internal/config"
	"PicSphere/internal/core/comments"
	"PicSphere/internal/core/counters"
	"PicSphere/internal/core/events"
	"PicSphere/internal/core/feed"
	"PicSphere/internal/core/media"
	"PicSphere/internal/core/posts"
	"PicSphere/internal/core/profiles"
	"PicSphere/internal/core/socialgraph"
	"PicSphere/internal/core/stories"
	"PicSphere/internal/db/documents"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	backend, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open backend: ", err)
	}
	defer backend.Close()

	authProvider, err := backend.Identity(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	notifier, err := backend.Notifier(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	// Redis backs the shared profile cache and relays events between instances
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to ping redis: ", err)
		}
		log.Printf("Connected to redis at %s", cfg.RedisAddr)
	}

	var profileCache profiles.Cache
	if cfg.CacheBackend == "redis" {
		profileCache = cache.NewRedisProfileCache(redisClient, cfg.CacheTTL, logger)
	} else {
		profileCache = cache.NewProfileLRU(cfg.CacheSize, cfg.CacheTTL)
	}

	hub := events.NewHub()
	if redisClient != nil {
		bridge := events.NewRedisBridge(redisClient, hub)
		go func() {
			if err := bridge.Run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[EVENTS] Redis bridge stopped: %v", err)
			}
		}()
	}

	// Repositories
	store := backend.Store
	userRepo := documents.NewUserRepository(store)
	postRepo := documents.NewPostRepository(store)
	storyRepo := documents.NewStoryRepository(store)
	commentRepo := documents.NewCommentRepository(store)

	// Services
	mediaService := media.NewService(backend.Blobs, media.NewProcessor(cfg.MaxImageWidth, cfg.MaxImageHeight), cfg.MaxUploadBytes)
	maintainer := counters.NewMaintainer(store, logger)

	mode, err := socialgraph.ParseMode(cfg.EdgeWriteMode)
	if err != nil {
		log.Fatal(err)
	}
	graphService := socialgraph.NewGraphService(store,
		socialgraph.WithMode(mode),
		socialgraph.WithCache(profileCache),
		socialgraph.WithPublisher(hub),
		socialgraph.WithNotifier(notifier),
		socialgraph.WithLogger(logger),
	)
	log.Printf("Follow edges written in %s mode", graphService.Mode())

	profileService := profiles.NewProfileService(userRepo, authProvider, mediaService, profileCache,
		[]profiles.SnapshotUpdater{postRepo, storyRepo, commentRepo}, logger)
	postService := posts.NewPostService(postRepo, userRepo, mediaService, maintainer, hub, logger,
		posts.WithCache(profileCache))
	storyService := stories.NewStoryService(storyRepo, userRepo, mediaService)
	commentService := comments.NewCommentService(commentRepo, postRepo, userRepo, maintainer, hub, notifier)

	assemblerOpts := []feed.Option{feed.WithConcurrency(cfg.FeedConcurrency)}
	if cfg.FeedRecencyOrder {
		assemblerOpts = append(assemblerOpts, feed.WithRecencyOrder())
	}
	feedService := feed.NewFeedService(graphService, feed.NewAssembler(postService, storyService, assemblerOpts...))

	// Auth: bearer tokens, plus a cookie session when a secret is configured
	var cookies sessions.Store
	if cfg.SessionSecret != "" {
		cookies = middleware.NewCookieStore(cfg.SessionSecret, cfg.SecureCookies)
	}
	authMiddleware := middleware.NewAuthMiddleware(authProvider, cookies)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	r := routes.NewRouter(routes.Services{
		Profiles: profileService,
		Graph:    graphService,
		Posts:    postService,
		Stories:  storyService,
		Comments: commentService,
		Feed:     feedService,
		Hub:      hub,
	}, routes.RouterOptions{
		Auth:        authMiddleware,
		RateLimiter: rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
		Media:       backend.Media,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
		}
	}()

	log.Printf("PicSphere server starting on %s (store=%s auth=%s cache=%s)",
		cfg.Addr(), cfg.StoreBackend, cfg.AuthBackend, cfg.CacheBackend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}

