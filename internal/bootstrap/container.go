package bootstrap

import (
	"context"
	"log"

	"ai-collab-be/internal/config"
	"ai-collab-be/internal/controller"
	"ai-collab-be/internal/handler"
	"ai-collab-be/internal/pkg/logger"
	"ai-collab-be/internal/realtime"
	"ai-collab-be/internal/repository/memory"
	"ai-collab-be/internal/repository/unitofwork"
	"ai-collab-be/internal/service"
	"ai-collab-be/pkg/llm"
	"ai-collab-be/pkg/llm/factory"

	pktNats "ai-collab-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ProjectController controller.IProjectController

	// Background Services (Exposed for main.go to run)
	ConsumerService  service.IConsumerService
	CacheSyncService *service.CacheSyncService

	// Realtime gateway
	RealtimeHandler *handler.RealtimeHandler
	Hub             *realtime.Hub

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	rtLogger := logger.NewIsolatedLogger(cfg.App.RealtimeLogPath)

	instanceID := cfg.App.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	c := &Container{}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(cfg.Ai)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 2.5 Infrastructure
	// NATS
	var eventPublisher service.IEventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		c.closers = append(c.closers, natsSub.Close)
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
		log.Printf("[WARN] Failed to connect to Redis: %v. Running single instance", err)
		_ = rdb.Close()
		rdb = nil
	} else {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// 3. Services
	fileTreeCache := memory.NewFileTreeCache(cfg.Cache.FileTreeTTL)
	credentialService := service.NewCredentialService(cfg.Auth.JwtSecret, uowFactory)
	fileTreeService := service.NewFileTreeService(uowFactory, fileTreeCache, eventPublisher, sysLogger, instanceID)
	projectService := service.NewProjectService(uowFactory, fileTreeService, eventPublisher, sysLogger)

	publisherService := service.NewPublisherService(cfg.Ai.FileTreeTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Ai.FileTreeTopic, fileTreeService, sysLogger)
	if natsSub != nil {
		c.CacheSyncService = service.NewCacheSyncService(natsSub, fileTreeService, instanceID, sysLogger)
	}

	// 3.5 Realtime Gateway
	hub := realtime.NewHub(rdb, cfg.Realtime.RedisChannel, instanceID, rtLogger)
	gate := realtime.NewGate(credentialService, cfg.Realtime.RequireExistingRoom, rtLogger)
	router := realtime.NewRouter(hub, cfg.Realtime.MentionMarker, cfg.Realtime.PreserveClientFields, rtLogger)
	mediator := realtime.NewAIMediator(llmProvider, hub, publisherService, eventPublisher, cfg.Ai.Timeout, rtLogger,
		llm.WithTemperature(cfg.Ai.Temperature))

	c.Hub = hub
	c.RealtimeHandler = handler.NewRealtimeHandler(hub, gate, router, mediator, cfg.Realtime, rtLogger)

	// 4. Controllers
	c.ProjectController = controller.NewProjectController(projectService, credentialService)

	sysLogger.Info("Bootstrap", "Container ready", map[string]interface{}{
		"instance_id": instanceID,
		"clustered":   rdb != nil,
		"events":      eventPublisher != nil,
	})
	c.closers = append(c.closers, func() {
		_ = sysLogger.Sync()
		_ = rtLogger.Sync()
	})
	return c
}

// Close releases broker connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
