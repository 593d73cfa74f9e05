package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"antrelay/internal/ai"
	appsvc "antrelay/internal/app"
	"antrelay/internal/bootstrap"
	"antrelay/internal/cache"
	rabbitmqClient "antrelay/internal/platform/rabbitmq"
	"antrelay/internal/repository"
	"antrelay/internal/transport/http/handler"
	"antrelay/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	messageRepo := repository.NewMessageRepository(app.MySQL)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	var provider appsvc.CompletionProvider
	if app.Config.OpenAIEnabled() {
		provider = ai.NewOpenAICompatibleClient(ai.ChatConfig{
			BaseURL: app.Config.OpenAI.BaseURL,
			APIKey:  app.Config.OpenAI.APIKey,
			Model:   app.Config.OpenAI.Model,
		})
	}

	// Turn events are only published when an archive target exists.
	var publisher appsvc.TurnEventPublisher
	var memoryStore appsvc.ObjectStore
	if app.ObjectStore != nil {
		publisher = rabbitmqClient.NewTurnEventPublisher(app.MQConn, app.Config.RabbitMQ.TurnEventQueue)
		memoryStore = app.ObjectStore
	}

	chatService := appsvc.NewChatService(messageRepo, provider, publisher, historyCache, app.Config.OpenAI.MaxOutputTokens)
	memoryService := appsvc.NewMemoryService(memoryStore, app.Config.Memory.MaxFileBytes, app.Config.Memory.ExpiryDays)

	chatHandler := handler.NewChatHandler(chatService)
	proofHandler := handler.NewProofHandler(chatService)
	memoryHandler := handler.NewMemoryHandler(memoryService)
	healthHandler := handler.NewHealthHandler(app, chatService)

	router.StaticFile("/", "web/index.html")
	router.GET("/healthz", healthHandler.Check)
	router.GET("/mode", healthHandler.Mode)
	router.GET("/version", healthHandler.Version)

	api := router.Group("/api")
	api.POST("/chat", chatHandler.Chat)
	api.GET("/history", chatHandler.History)
	api.POST("/memory", memoryHandler.Upsert)

	router.GET("/proof/messages", proofHandler.RecentMessages)

	return router
}
