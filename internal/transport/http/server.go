package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swamptok/internal/cache"
	"swamptok/internal/config"
	"swamptok/internal/database"
	"swamptok/internal/handler"
	"swamptok/internal/queue"
	"swamptok/internal/redis"
	"swamptok/internal/repository"
	"swamptok/internal/service"
	"swamptok/internal/worker"
)

// Run wires the whole application together and serves until interrupted.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("create redis client: %w", err)
	}
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Cache and event stream
	feedCache := cache.NewFeedCache(redisClient)
	publisher := queue.NewPublisher(redisClient)

	// Services
	userService := service.NewUserService(userRepo, followRepo)
	followService := service.NewFollowService(db, userRepo, followRepo, publisher)
	postService := service.NewPostService(postRepo, userRepo, commentRepo, followRepo, publisher)
	feedService := service.NewFeedService(postRepo, userRepo, followRepo, feedCache)
	engagementService := service.NewEngagementService(db, postRepo, commentRepo, userRepo)

	// Media is optional: without R2 credentials the API runs but the media
	// routes are not mounted.
	var mediaHandler *handler.MediaHandler
	mediaService, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		log.Printf("[Server] media disabled: %v", err)
	} else {
		mediaHandler = handler.NewMediaHandler(mediaService)
	}

	// Feed workers
	eventHandler := worker.NewEventHandler(feedCache, followRepo, postRepo)
	manager := worker.NewManager(redisClient, eventHandler, cfg.WorkerCount)
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}
	defer manager.Stop()

	router := NewRouter(Handlers{
		User:       handler.NewUserHandler(userService),
		Follow:     handler.NewFollowHandler(followService),
		Post:       handler.NewPostHandler(postService),
		Feed:       handler.NewFeedHandler(feedService),
		Engagement: handler.NewEngagementHandler(engagementService),
		Media:      mediaHandler,
	}, cfg.AuthSecret)

	server := &stdhttp.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] listening on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-stop:
		log.Printf("[Server] shutting down: signal=%v", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
