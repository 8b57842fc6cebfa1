package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beeja-hrm-backend/internal/config"
	"beeja-hrm-backend/internal/database"
	"beeja-hrm-backend/internal/handler"
	"beeja-hrm-backend/internal/middleware"
	"beeja-hrm-backend/internal/repository"
	"beeja-hrm-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	// Database
	db, err := database.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied successfully")

	// Repositories
	chatRepo := repository.NewChatRepository(db)
	connRepo := repository.NewConnectionRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)

	// Realtime
	presence := service.NewPresenceTracker()
	wsHub := service.NewWSHub(presence)

	// Services
	chatSvc := service.NewChatService(chatRepo, connRepo, directoryRepo, presence, wsHub)
	connSvc := service.NewConnectionService(connRepo, chatRepo, directoryRepo, wsHub)

	// Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())

	// Health
	healthH := handler.NewHealthHandler(db)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	// API v1, all JWT-protected (tokens are issued by the HR core's auth
	// service; this side only verifies them)
	v1 := app.Group("/api/v1", middleware.Auth(cfg.JWTSecret))

	// Chats
	chatH := handler.NewChatHandler(chatSvc)
	chats := v1.Group("/chats")
	chats.Get("/", chatH.ListSessions)
	chats.Get("/available-users", chatH.AvailableUsers)
	chats.Post("/with/:otherUserId", chatH.OpenSession)
	chats.Get("/:id/messages", chatH.ListMessages)
	chats.Post("/:id/messages", middleware.RateLimit(30, time.Minute), chatH.SendMessage)
	chats.Post("/:id/read", chatH.MarkRead)

	// Connection requests
	connH := handler.NewConnectionHandler(connSvc)
	connections := v1.Group("/connections")
	connections.Get("/", connH.ListPending)
	connections.Post("/:recipientId", middleware.RateLimit(10, time.Minute), connH.Create)
	connections.Patch("/:id", connH.Respond)

	// WebSocket
	wsH := handler.NewWSHandler(wsHub, chatRepo, cfg.JWTSecret)
	app.Get("/ws", wsH.Upgrade)

	// Start hub
	go wsHub.Run()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("HRM chat backend running on :%s (%s)", cfg.Port, cfg.Env)

	<-quit
	log.Println("Shutting down...")
	_ = app.ShutdownWithTimeout(5 * time.Second)
	wsHub.Shutdown()
	log.Println("Server stopped")
}
