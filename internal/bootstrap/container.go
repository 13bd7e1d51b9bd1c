package bootstrap

import (
	"context"
	"log"

	"menu-lens-be/internal/config"
	"menu-lens-be/internal/controller"
	"menu-lens-be/internal/handler"
	"menu-lens-be/internal/pkg/logger"
	"menu-lens-be/internal/pkg/mailer"
	"menu-lens-be/internal/repository/implementation"
	"menu-lens-be/internal/repository/memory"
	"menu-lens-be/internal/repository/unitofwork"
	"menu-lens-be/internal/service"
	"menu-lens-be/internal/websocket"
	"menu-lens-be/pkg/embedding"
	"menu-lens-be/pkg/eventbus"
	"menu-lens-be/pkg/menuai"

	pktNats "menu-lens-be/pkg/nats"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	TranslationController controller.ITranslationController
	GlossaryController    controller.IGlossaryController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	ProgressWsHandler *handler.ProgressWsHandler
	WebSocketHub      *websocket.Hub

	// Owned infrastructure, closed on shutdown
	EventBus *eventbus.Bus
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	bus := eventbus.New(sysLogger)

	// 3. AI Providers
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	var engine menuai.Engine
	if cfg.Ai.EngineProvider == "fake" {
		engine = menuai.NewFakeEngine()
		log.Printf("[INFO] Using Menu Engine: FAKE (deterministic, no network)")
	} else {
		engine = menuai.NewGeminiEngine(cfg.Ai.GeminiAPIKey, cfg.Ai.GeminiModel)
		log.Printf("[INFO] Using Menu Engine: GEMINI (%s)", cfg.Ai.GeminiModel)
	}

	// Coordinator registry for live sessions
	registry := memory.NewCoordinatorRegistry()

	// 2.5 Infrastructure (Moved up for dependency injection)
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/progress.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Services
	sessionStore := implementation.NewProgressSessionStore(
		implementation.NewTranslationSessionRepository(db),
	)

	glossaryService := service.NewGlossaryService(uowFactory, embeddingProvider, sysLogger)
	pipelineService := service.NewPipelineService(
		engine,
		bus,
		uowFactory,
		glossaryService,
		natsPub,
		sysLogger,
	)
	translationService := service.NewTranslationService(
		uowFactory,
		bus,
		sessionStore,
		registry,
		pipelineService,
		emailService,
		sysLogger,
	)

	consumerService := service.NewConsumerService(bus, wsHub, registry, wsLogger)

	// Terminal-state notifications over the durable NATS stream
	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}

	// Handler
	wsHandler := handler.NewProgressWsHandler(translationService, wsHub, wsLogger)

	return &Container{
		TranslationController: controller.NewTranslationController(translationService),
		GlossaryController:    controller.NewGlossaryController(glossaryService),

		ConsumerService: consumerService,

		ProgressWsHandler: wsHandler,
		WebSocketHub:      wsHub,
		EventBus:          bus,
	}
}
