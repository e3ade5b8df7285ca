package app

import (
	"fmt"

	"buzzchat_backend/database"
	"buzzchat_backend/internal/auth"
	"buzzchat_backend/internal/config"
	"buzzchat_backend/internal/handlers"
	"buzzchat_backend/internal/logger"
	"buzzchat_backend/internal/repositories"
	"buzzchat_backend/internal/routes"
	"buzzchat_backend/internal/services"
	chatService "buzzchat_backend/internal/services/chat"
	"buzzchat_backend/internal/validator"
	"buzzchat_backend/internal/verification"
	"buzzchat_backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ginRouter := SetupRouter(cfg, gormDB, rdb)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter builds the full engine. Tests can call it directly with an
// sqlite handle.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB, rdb *redis.Client) *gin.Engine {
	v := validator.New()
	base := handlers.NewBaseHandler(v)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())
	codes := verification.NewCodeStore(rdb, cfg.VerificationCodeTTL(), cfg.RefreshTokenTTL())
	sender := verification.NewSender(cfg)

	userRepo := repositories.NewUserRepository(gormDB)
	authService := services.NewAuthService(userRepo, codes, sender, tokens, cfg)

	hub := ws.NewHub(func(chatID uint) ([]uint, error) {
		return chatService.NewChatService(gormDB).ActiveMemberIDs(chatID)
	})
	go hub.Run()
	wsHandler := ws.NewHandler(hub, tokens, gormDB)

	authHandler := handlers.NewAuthHandler(base, authService)
	chatHandler := handlers.NewChatHandler(base, hub)
	messageHandler := handlers.NewMessageHandler(base, hub)
	internalHandler := handlers.NewInternalHandler(base, tokens, hub, cfg.Internal.APIKey)

	if cfg.Server.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())

	routes.SetupRoutes(ginRouter, gormDB, tokens, authHandler, chatHandler, messageHandler, internalHandler, wsHandler)

	return ginRouter
}
