package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meeterup/meeterup-be/internal/api"
	"github.com/meeterup/meeterup-be/internal/auth"
	"github.com/meeterup/meeterup-be/internal/chat"
	"github.com/meeterup/meeterup-be/internal/config"
	"github.com/meeterup/meeterup-be/internal/database"
	"github.com/meeterup/meeterup-be/internal/logger"
	"github.com/meeterup/meeterup-be/internal/monitoring"
	"github.com/meeterup/meeterup-be/internal/services"
	"github.com/meeterup/meeterup-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY must be set")
	}
	auth.Init(cfg.JWTSecret)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	// Set up the external chat provider client
	chatProvider, err := chat.NewClient(cfg.ChatAPIKey, cfg.ChatAPISecret, cfg.ChatBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize chat provider: %v", err)
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db, hub)
	accountService := services.NewAccountService(db, chatProvider)
	relationshipService := services.NewRelationshipService(db, eventService)
	directoryService := services.NewDirectoryService(db)

	// Set up and run the background reconciler
	reconciler, err := monitoring.NewReconciler(db, cfg.RepairSchedule, cfg.PurgeSchedule)
	if err != nil {
		log.Fatalf("Failed to initialize reconciler: %v", err)
	}
	go reconciler.Run()

	// Set up router
	router := api.NewRouter(api.RouterDeps{
		Hub:           hub,
		Accounts:      accountService,
		Relationships: relationshipService,
		Directory:     directoryService,
		Events:        eventService,
		ChatProvider:  chatProvider,
		ClientOrigin:  cfg.ClientOrigin,
		IsProduction:  cfg.AppEnv == "production",
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on port %d\n", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	reconciler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
