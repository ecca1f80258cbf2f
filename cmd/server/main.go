package main

import (
	"context"
	"log"
	"net/http"

	"go-classified/internal/advert"
	"go-classified/internal/category"
	"go-classified/internal/config"
	"go-classified/internal/db"
	"go-classified/internal/message"
	myMiddleware "go-classified/internal/middleware"
	"go-classified/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	// 2. Connect to Database (Platform Layer)
	database, err := db.NewDatabase(cfg.DBDSN)
	if err != nil {
		log.Fatalf("❌ Failed to connect to DB: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database Schema Initialized")

	// 3. Connect to Redis (Platform Layer)
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Connected to Redis")

	// 4. User Feature
	userRepo := user.NewRepository(database.Conn)
	userService := user.NewService(userRepo, cfg.JWTSecret)
	userHandler := user.NewHandler(userService, userRepo)

	// 5. Category Feature
	categoryRepo := category.NewRepository(database.Conn)
	categoryHandler := category.NewHandler(categoryRepo)

	// 6. Advert Feature
	uploader, err := advert.NewUploader(cfg.PhotosDir)
	if err != nil {
		log.Fatalf("❌ Failed to prepare photo storage: %v", err)
	}
	advertRepo := advert.NewRepository(database.Conn)
	advertHandler := advert.NewHandler(advertRepo, userService, uploader)

	// 7. Messaging Feature
	// The hub fans redis notifications out to websocket clients; the notifier
	// is what the service publishes through, so every instance sees it.
	messageRepo := message.NewRepository(database.Conn)
	hub := message.NewHub(redisClient)
	notifier := message.NewRedisNotifier(redisClient)
	messageService := message.NewService(messageRepo, advertRepo, notifier)
	messageHandler := message.NewHandler(messageService, hub, userService)

	go hub.Run()
	go hub.SubscribeToRedis()

	authMiddleware := myMiddleware.NewAuthMiddleware(userService, userService)

	// 8. Routes
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Public
	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)
	r.Get("/api/categories", categoryHandler.Index)
	r.Get("/api/categories/all", categoryHandler.All)

	// Public advert browsing. Identity is optional here: admins see inactive
	// adverts too, anonymous visitors only the active ones.
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.HandleOptional)
		r.Get("/api/adverts", advertHandler.Index)
		r.Get("/api/adverts/{id}", advertHandler.View)
		r.Get("/api/adverts/{id}/photos", advertHandler.Photos)
		r.Get("/api/search", advertHandler.Search)
	})

	// Protected (Require JWT)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)

		// Account self-service
		r.Get("/api/account", userHandler.Account)
		r.Put("/api/account/data", userHandler.EditData)
		r.Put("/api/account/password", userHandler.EditPassword)

		// Advert management (owner or admin)
		r.Post("/api/adverts", advertHandler.Add)
		r.Put("/api/adverts/{id}", advertHandler.Edit)
		r.Delete("/api/adverts/{id}", advertHandler.Delete)
		r.Put("/api/adverts/{id}/activity", advertHandler.Activity)
		r.Post("/api/adverts/{id}/photos", advertHandler.AddPhoto)
		r.Delete("/api/photos/{id}", advertHandler.DeletePhoto)

		// Conversations
		r.Get("/api/conversations", messageHandler.Index)
		r.Get("/api/conversations/{id}", messageHandler.View)
		r.Post("/api/adverts/{id}/contact", messageHandler.Contact)
		r.Post("/api/conversations/{id}/messages", messageHandler.Reply)
		r.Put("/api/messages/{id}", messageHandler.EditMessage)
		r.Delete("/api/messages/{id}", messageHandler.DeleteMessage)

		// WebSocket (Real-time message feed)
		r.Get("/ws", messageHandler.ServeWs)

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAdmin)

			r.Get("/api/users", userHandler.Index)
			r.Get("/api/users/{id}", userHandler.View)
			r.Put("/api/users/{id}", userHandler.Edit)
			r.Delete("/api/users/{id}", userHandler.Delete)

			r.Post("/api/categories", categoryHandler.Add)
			r.Put("/api/categories/{id}", categoryHandler.Edit)
			r.Delete("/api/categories/{id}", categoryHandler.Delete)
		})
	})

	log.Printf("🚀 Server starting on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal(err)
	}
}
