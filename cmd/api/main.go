package main

import (
	"log"
	"os"
	"strconv"

	_ "taxengine/api/swagger" // swagger docs
	"taxengine/internal/collab"
	"taxengine/internal/database"
	"taxengine/internal/handler"
	"taxengine/internal/middleware"
	"taxengine/internal/repository"
	"taxengine/internal/service"
	"taxengine/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const defaultRelevanceCutoff = 30

// @title           Tax Rule Engine API
// @version         1.0
// @description     Versioned tax configuration, rules, categories and law update tracking.
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

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	configRepo := repository.NewConfigEntryRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	lawUpdateRepo := repository.NewLawUpdateRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	configService := service.NewConfigService(configRepo, auditRepo, txManager)
	ruleService := service.NewRuleService(ruleRepo, auditRepo, txManager)
	categoryService := service.NewCategoryService(categoryRepo)
	thresholdService := service.NewThresholdService(configService, categoryService)
	evaluationService := service.NewEvaluationService(ruleService, configService)
	migrationService := service.NewMigrationService(configRepo, ruleRepo, categoryRepo, auditRepo, txManager)
	auditService := service.NewAuditService(auditRepo)

	// The feed monitor is optional; without LAW_FEED_URL only webhook-style
	// detection is available.
	var monitor service.LegalSourceMonitor
	if feedURL := os.Getenv("LAW_FEED_URL"); feedURL != "" {
		monitor = collab.NewFeedMonitor(feedURL)
	}
	cutoff := defaultRelevanceCutoff
	if raw := os.Getenv("LAW_RELEVANCE_CUTOFF"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			cutoff = parsed
		}
	}
	lawUpdateService := service.NewLawUpdateService(
		lawUpdateRepo, configRepo, ruleRepo, auditRepo, txManager,
		collab.NewKeywordClassifier(), monitor, wsHub, cutoff,
	)

	// Initialize Handlers
	configHandler := handler.NewConfigHandler(configService)
	ruleHandler := handler.NewRuleHandler(ruleService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	thresholdHandler := handler.NewThresholdHandler(thresholdService)
	lawUpdateHandler := handler.NewLawUpdateHandler(lawUpdateService)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService)
	auditHandler := handler.NewAuditHandler(auditService)
	migrationHandler := handler.NewMigrationHandler(migrationService)

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

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	configHandler.RegisterRoutes(router.Group(""))
	ruleHandler.RegisterRoutes(router.Group(""))
	categoryHandler.RegisterRoutes(router.Group(""))
	thresholdHandler.RegisterRoutes(router.Group(""))
	lawUpdateHandler.RegisterRoutes(router.Group(""))
	evaluationHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	migrationHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
