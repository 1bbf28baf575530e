package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deudbot/backend/internal/chat"
	"github.com/deudbot/backend/internal/config"
	"github.com/deudbot/backend/internal/database"
	"github.com/deudbot/backend/internal/gateway"
	"github.com/deudbot/backend/internal/handlers"
	mW "github.com/deudbot/backend/internal/middleware"
	"github.com/deudbot/backend/internal/notify"
	"github.com/deudbot/backend/internal/scheduler"
	"github.com/deudbot/backend/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

func main() {
	// Initialize config
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("admin.password_hash", "ADMIN_PASSWORD_HASH")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Storage
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	st := store.New(db)
	ctx := context.Background()
	if err := st.EnsureDefaultSettings(ctx); err != nil {
		log.Fatalf("Failed to seed default settings: %v", err)
	}

	// Messaging
	msgCfg := config.LoadMessagingConfig()
	transport := gateway.NewBridgeTransport(msgCfg)
	gw := gateway.New(transport)
	notifier := notify.New(st, gw, redisClient, msgCfg)
	gw.OnIncoming(notifier.HandleIncoming)

	dispatcher := chat.NewDispatcher(st, notifier)

	sched := scheduler.New(st, func(runCtx context.Context) {
		sent, failed, err := notifier.SendBulkReminders(runCtx)
		if err != nil {
			log.Printf("[SCHEDULER] bulk reminders failed: %v", err)
			return
		}
		log.Printf("[SCHEDULER] bulk reminders done: %d sent, %d failed", sent, failed)
	})
	if err := sched.Reload(ctx); err != nil {
		log.Printf("Scheduler not armed: %v", err)
	}

	mW.InitAuthMiddleware(redisClient)

	// Handlers
	authHandler := handlers.NewAuthHandler(redisClient)
	chatHandler := handlers.NewChatHandler(dispatcher)
	debtorHandler := handlers.NewDebtorHandler(st)
	statsHandler := handlers.NewStatsHandler(st)
	messageHandler := handlers.NewMessageHandler(st, notifier)
	settingsHandler := handlers.NewSettingsHandler(st, sched)
	gatewayHandler := handlers.NewGatewayHandler(gw)

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Post("/chat/command", chatHandler.Command)

			r.Get("/debtors", debtorHandler.List)
			r.Post("/debtors", debtorHandler.Create)
			r.Get("/debtors/{id}", debtorHandler.Get)
			r.Put("/debtors/{id}", debtorHandler.Update)
			r.Delete("/debtors/{id}", debtorHandler.Delete)
			r.Get("/debtors/{id}/entries", debtorHandler.Entries)
			r.Post("/debtors/{id}/payments", debtorHandler.AddPayment)
			r.Post("/debtors/{id}/charges", debtorHandler.AddCharge)

			r.Get("/stats", statsHandler.Get)

			r.Post("/messages/send", messageHandler.SendSingle)
			r.Post("/messages/send-all", messageHandler.SendAll)
			r.Get("/messages/log", messageHandler.Log)

			r.Get("/settings", settingsHandler.Get)
			r.Put("/settings", settingsHandler.Put)

			r.Get("/whatsapp/status", gatewayHandler.Status)
			r.Post("/whatsapp/connect", gatewayHandler.Connect)
			r.Post("/whatsapp/disconnect", gatewayHandler.Disconnect)
		})
	})

	// Web panel
	r.Handle("/*", mW.StaticFileServer("./web"))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Bring the WhatsApp session up in the background so a slow or offline
	// bridge never delays serving HTTP.
	go func() {
		if err := gw.Connect(context.Background()); err != nil {
			log.Printf("WhatsApp session not started: %v", err)
		}
	}()

	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sched.Stop()
	if err := gw.Disconnect(shutdownCtx); err != nil {
		log.Printf("WhatsApp disconnect failed: %v", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
