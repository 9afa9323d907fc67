package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"teamchat/internal/chat"
	"teamchat/internal/config"
	"teamchat/internal/db"
	"teamchat/internal/feed"
	"teamchat/internal/member"
	"teamchat/internal/message"
	"teamchat/internal/middleware"
	"teamchat/internal/presence"
	"teamchat/internal/reaction"
	"teamchat/internal/retention"
	"teamchat/internal/settings"
	"teamchat/internal/storage"
	"teamchat/internal/user"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Platform layer: Postgres row store and Redis change feed.
	database, err := db.NewDatabase(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	log.Println("Connected to PostgreSQL")

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Database schema initialized")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")

	bus := feed.NewBus(redisClient)

	settingsStore, err := settings.Open(cfg.SettingsDir)
	if err != nil {
		log.Fatalf("Failed to open settings store: %v", err)
	}
	defer settingsStore.Close()

	fileStore, err := storage.NewStore(cfg.UploadDir, cfg.UploadBaseURL)
	if err != nil {
		log.Fatalf("Failed to open upload store: %v", err)
	}

	// Feature layer.
	memberRepo := member.NewRepository(database.Conn)
	memberService := member.NewService(memberRepo, bus)
	memberHandler := member.NewHandler(memberService)

	userRepo := user.NewRepository(database.Conn)
	userService := user.NewService(userRepo, memberService, cfg.JWTSecret)
	userHandler := user.NewHandler(userService)

	messageRepo := message.NewRepository(database.Conn)
	messageService := message.NewService(messageRepo, bus, memberService)

	reactionRepo := reaction.NewRepository(database.Conn)
	reactionService := reaction.NewService(reactionRepo, bus)
	reactionHandler := reaction.NewHandler(reactionService)

	recorder := presence.NewRecorder(userRepo, memberRepo)

	fileHandler := storage.NewHandler(fileStore)

	// Chat orchestration: hub plus per-connection sessions.
	chatService := &chat.Service{
		Users:     userService,
		Members:   memberService,
		Messages:  messageService,
		Reactions: reactionService,
		Settings:  settingsStore,
		Bus:       bus,
		Presence:  recorder,
	}
	hub := chat.NewHub()
	go hub.Run(ctx)
	chatHandler := chat.NewHandler(hub, chatService)

	messageHandler := message.NewHandler(messageService, chatService)

	stopRetention, err := retention.Start(ctx, messageRepo, cfg.RetentionCron, cfg.RetentionDays)
	if err != nil {
		log.Fatalf("Bad retention schedule: %v", err)
	}
	defer stopRetention()

	authMiddleware := middleware.NewAuthMiddleware(userService)

	r := chi.NewRouter()
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	// Public routes.
	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle(cfg.UploadBaseURL+"/*", fileStore.Handler())

	// Protected routes.
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)

		r.Get("/ws", chatHandler.ServeWs)

		r.Get("/api/me", userHandler.Me)

		r.Post("/api/members", memberHandler.Invite)
		r.Get("/api/members", memberHandler.Roster)
		r.Post("/api/members/{id}/block", memberHandler.SetBlocked)
		r.Put("/api/members/nickname", memberHandler.SetNickname)

		r.Post("/api/messages", messageHandler.Send)
		r.Get("/api/messages/team", messageHandler.TeamHistory)
		r.Get("/api/messages/private", messageHandler.PrivateHistory)
		r.Get("/api/messages/unread", messageHandler.Unread)
		r.Post("/api/messages/read", messageHandler.MarkRead)
		r.Delete("/api/messages", messageHandler.Clear)

		r.Post("/api/reactions", reactionHandler.Toggle)
		r.Get("/api/reactions", reactionHandler.List)

		r.Post("/api/uploads", fileHandler.Upload)

		r.Get("/api/settings", chatHandler.GetSettings)
		r.Put("/api/settings", chatHandler.PutSettings)
		r.Get("/api/sounds/{cue}", chatHandler.Sound)
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		srv.Shutdown(context.Background())
	}()

	log.Printf("Server starting on %s (env %s)", cfg.Addr, cfg.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
