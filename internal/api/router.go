package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/meeterup/meeterup-be/internal/api/handlers"
	"github.com/meeterup/meeterup-be/internal/auth"
	"github.com/meeterup/meeterup-be/internal/chat"
	"github.com/meeterup/meeterup-be/internal/services"
	"github.com/meeterup/meeterup-be/internal/websocket"
)

// RouterDeps bundles the collaborators the router wires into handlers.
type RouterDeps struct {
	Hub           *websocket.Hub
	Accounts      services.AccountServiceProvider
	Relationships services.RelationshipServiceProvider
	Directory     services.DirectoryServiceProvider
	Events        services.EventServiceProvider
	ChatProvider  chat.Provider
	ClientOrigin  string
	IsProduction  bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{deps.ClientOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.IsProduction)
	userHandler := handlers.NewUserHandler(deps.Accounts, deps.Directory, deps.Events)
	friendHandler := handlers.NewFriendHandler(deps.Relationships, deps.Directory)
	chatHandler := handlers.NewChatHandler(deps.ChatProvider)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"healthy"}`))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(auth.JWTMiddleware())
				r.Post("/onboarding", authHandler.Onboard)
				r.Get("/me", authHandler.GetMe)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(auth.JWTMiddleware())

			r.Get("/", userHandler.GetRecommendedUsers)
			r.Put("/me", userHandler.UpdateProfile)
			r.Get("/friends", userHandler.GetMyFriends)
			r.Delete("/friends/{id}", friendHandler.Unfriend)

			r.Post("/friend-request/{id}", friendHandler.SendFriendRequest)
			r.Put("/friend-request/{id}/accept", friendHandler.AcceptFriendRequest)
			r.Delete("/friend-request/{id}", friendHandler.CancelFriendRequest)

			r.Get("/friend-requests", friendHandler.GetFriendRequests)
			r.Get("/outgoing-friend-requests", friendHandler.GetOutgoingFriendRequests)
			r.Get("/notifications", userHandler.GetNotifications)

			r.Get("/blocked", userHandler.GetBlockedUsers)
			r.Post("/block/{id}", friendHandler.Block)
			r.Delete("/block/{id}", friendHandler.Unblock)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Use(auth.JWTMiddleware())
			r.Get("/token", chatHandler.GetToken)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware())
			r.Get("/ws", wsHandler.Serve)
		})
	})

	return r
}
