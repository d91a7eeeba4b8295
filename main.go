package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"analyst/internal/extract"
	"analyst/internal/handlers"
	"analyst/internal/middleware"
	"analyst/internal/models"
	"analyst/internal/repositories"
	"analyst/internal/services"
	"analyst/pkg/events"
	"analyst/pkg/responder"

	"github.com/spf13/viper"
)

var startTime = time.Now()

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=analyst port=5432 sslmode=disable")
	viper.SetDefault("ACCESS_TOKEN_SECRET", "dev-access-secret")
	viper.SetDefault("REFRESH_TOKEN_SECRET", "dev-refresh-secret")
	viper.SetDefault("ACCESS_TOKEN_EXPIRY", "15m")
	viper.SetDefault("REFRESH_TOKEN_EXPIRY", "240h")
	viper.SetDefault("UPLOAD_DIR", "./public/uploads")
	viper.SetDefault("UPLOAD_CLEANUP", false)
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("OPENAI_API_KEY", "")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")

	tokenConfig := services.TokenConfig{
		AccessSecret:  viper.GetString("ACCESS_TOKEN_SECRET"),
		RefreshSecret: viper.GetString("REFRESH_TOKEN_SECRET"),
		AccessExpiry:  viper.GetDuration("ACCESS_TOKEN_EXPIRY"),
		RefreshExpiry: viper.GetDuration("REFRESH_TOKEN_EXPIRY"),
	}
	uploadConfig := services.UploadConfig{
		Dir:                viper.GetString("UPLOAD_DIR"),
		RemoveAfterExtract: viper.GetBool("UPLOAD_CLEANUP"),
	}

	// --- Initialize Database (GORM) ---
	// TranslateError turns unique-index violations into gorm.ErrDuplicatedKey
	// so concurrent registrations resolve to 409 at the store.
	db, err := gorm.Open(postgres.Open(viper.GetString("DATABASE_DSN")), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Document{}, &models.ChatExchange{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Initialize Event Client (optional) ---
	var mqClient *events.Client
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err = events.NewClient(events.Config{URL: mqURL})
		if err != nil {
			log.Printf("Warning: event publishing disabled, RabbitMQ unreachable: %v", err)
			mqClient = nil
		} else {
			defer mqClient.Close()
		}
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	docRepo := repositories.NewGORMDocumentRepository(db)
	chatRepo := repositories.NewGORMChatRepository(db)

	// --- Initialize Responder ---
	var replyGen responder.Responder = responder.NewStatic()
	if apiKey := viper.GetString("OPENAI_API_KEY"); apiKey != "" {
		replyGen = responder.NewOpenAI(apiKey)
		log.Println("Using completion-API responder")
	} else {
		log.Println("Using static rule-based responder")
	}

	// --- Initialize Services ---
	tokenService := services.NewTokenService(userRepo, tokenConfig)
	authService := services.NewAuthService(userRepo, tokenService)
	extractor := extract.NewStrategy(extract.NewDocconvExtractor(), extract.NewOCRExtractor())
	docService := services.NewDocumentService(docRepo, extractor, mqClient, uploadConfig)
	chatService := services.NewChatService(chatRepo, replyGen, mqClient)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	docHandler := handlers.NewDocumentHandler(docService)
	chatHandler := handlers.NewChatHandler(chatService)

	// --- Initialize Fiber App ---
	// BodyLimit rejects oversized uploads before the pipeline ever runs;
	// ErrorHandler is the single terminal error-translation stage.
	app := fiber.New(fiber.Config{
		BodyLimit:    services.MaxUploadSize,
		ErrorHandler: handlers.ErrorHandler,
	})

	// --- Middleware ---
	app.Use(logger.New()) // Request logger
	app.Use(cors.New(cors.Config{
		AllowOrigins:     viper.GetString("CORS_ORIGINS"),
		AllowCredentials: true,
	}))

	// --- API Routes ---
	requireAuth := middleware.AuthRequired(tokenService, userRepo)
	optionalAuth := middleware.OptionalAuth(tokenService, userRepo)

	api := app.Group("/api")
	chatHandler.RegisterRoutes(api)
	docHandler.RegisterRoutes(api, optionalAuth)

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1, requireAuth)

	// --- Health Check Endpoint ---
	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "OK",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "Enterprise AI Analyst Backend",
			"uptime":    time.Since(startTime).Seconds(),
		})
	})
	app.Get("/api/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message":   "Backend connected successfully!",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "1.0.0",
		})
	})

	// --- Start Event Consumer in a Goroutine ---
	if mqClient != nil {
		go func() {
			log.Println("Starting event consumer for ingested documents...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received Document Event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeDocumentEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start event consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
