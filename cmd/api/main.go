package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/ironvault/api/docs"
	"github.com/ironvault/api/internal/config"
	"github.com/ironvault/api/internal/database"
	"github.com/ironvault/api/internal/file"
	"github.com/ironvault/api/internal/room"
	"github.com/ironvault/api/internal/user"
	"github.com/ironvault/api/pkg/auth"
	"github.com/ironvault/api/pkg/inflight"
	mw "github.com/ironvault/api/pkg/middleware"
)

// @title           Iron Vault API
// @version         1.0
// @description     Room collaboration and file sharing API.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database successfully")

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)
	guard := inflight.NewGuard()

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo, jwtManager)
	userHandler := user.NewHandler(userService)

	// Room feature
	roomRepo := room.NewRepository(db)
	roomService := room.NewService(roomRepo, userService, guard)

	// File feature (room-scoped, mounted under /rooms/{id}/files)
	fileRepo := file.NewRepository(db)
	fileService := file.NewService(fileRepo, roomRepo, guard)
	fileHandler := file.NewHandler(fileService)

	roomHandler := room.NewHandler(roomService, fileHandler.Routes())

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Mount("/auth", userHandler.AuthRoutes())

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(jwtManager))

			r.Mount("/users", userHandler.Routes())
			r.Mount("/rooms", roomHandler.Routes())
			r.Mount("/invitations", roomHandler.InvitationRoutes())
		})
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
