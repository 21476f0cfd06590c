package main

import (
	"log"
	"os"

	_ "solicitudes/api/swagger" // swagger docs
	"solicitudes/internal/database"
	"solicitudes/internal/handler"
	"solicitudes/internal/middleware"
	"solicitudes/internal/repository"
	"solicitudes/internal/service"
	"solicitudes/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// defaultRetentionThreshold applies when RETENTION_THRESHOLD is unset:
// purchase-order requests above this amount need a fully qualified roster
// before submission.
const defaultRetentionThreshold = "50000000"

// @title           Procurement Requests API
// @version         1.0
// @description     Request lifecycle, approver rosters, quote attachments and audit trail.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	rawThreshold := os.Getenv("RETENTION_THRESHOLD")
	if rawThreshold == "" {
		rawThreshold = defaultRetentionThreshold
	}
	retentionThreshold, err := decimal.NewFromString(rawThreshold)
	if err != nil {
		log.Fatalf("Invalid RETENTION_THRESHOLD %q: %v", rawThreshold, err)
	}

	storageDir := os.Getenv("STORAGE_DIR")
	if storageDir == "" {
		storageDir = "uploads"
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	txManager := repository.NewTransactionManager(db)

	notifier := service.NewHubNotifier(wsHub)

	userService := service.NewUserService(userRepo)
	requestService := service.NewRequestService(
		requestRepo,
		participantRepo,
		attachmentRepo,
		historyRepo,
		txManager,
		notifier,
		retentionThreshold,
	)
	participantService := service.NewParticipantService(participantRepo, requestRepo, userRepo, txManager)
	attachmentService := service.NewAttachmentService(attachmentRepo, requestRepo, txManager, storageDir)
	historyService := service.NewHistoryService(historyRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	requestHandler := handler.NewRequestHandler(requestService, historyService)
	participantHandler := handler.NewParticipantHandler(participantService)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService)
	historyHandler := handler.NewHistoryHandler(historyService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	requestHandler.RegisterRoutes(router.Group(""))
	participantHandler.RegisterRoutes(router.Group(""))
	attachmentHandler.RegisterRoutes(router.Group(""))
	historyHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
