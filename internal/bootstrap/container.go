package bootstrap

import (
	"context"
	"log"
	"time"

	"research-assistant-be/internal/config"
	"research-assistant-be/internal/controller"
	"research-assistant-be/internal/handler"
	"research-assistant-be/internal/pkg/locker"
	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/internal/pkg/mailer"
	"research-assistant-be/internal/pkg/metrics"
	"research-assistant-be/internal/repository/memory"
	"research-assistant-be/internal/repository/unitofwork"
	"research-assistant-be/internal/service"
	"research-assistant-be/internal/websocket"
	"research-assistant-be/pkg/events"
	"research-assistant-be/pkg/filter"
	"research-assistant-be/pkg/gatekeeper"
	"research-assistant-be/pkg/generation"
	"research-assistant-be/pkg/literature"
	"research-assistant-be/pkg/llm/factory"
	"research-assistant-be/pkg/shortterm"
	"research-assistant-be/pkg/workflow"

	pktNats "research-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	sessionCacheTTL     = 30 * time.Minute
	sessionCacheJanitor = 10 * time.Minute
	lockPrefix          = "research:lock:"
	lockLease           = 30 * time.Second
)

type Container struct {
	// Controllers
	ResearchController controller.IResearchController
	ApprovalController controller.IApprovalController

	// Background services (exposed for main.go to run)
	FindingsConsumer service.IConsumerService
	ReviewAudit      *service.ReviewAuditService // nil without NATS

	// WebSockets
	ReviewStreamHandler *handler.ReviewStreamHandler
	WebSocketHub        *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	reviewLogger := logger.NewIsolatedLogger(cfg.App.ReviewLogFilePath)
	m := metrics.NewMetrics()

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. In-process findings bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)

	// 3. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	var rdb redis.UniversalClient = redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		if cfg.App.DistributedLocks {
			log.Fatalf("[FATAL] DISTRIBUTED_LOCKS requires Redis: %v", err)
		}
		rdb.Close()
		rdb = nil
	}

	var sessionLocker locker.Locker = locker.NewLocalLocker()
	if cfg.App.DistributedLocks {
		// the holder renews the lease for as long as its cycle runs
		sessionLocker = locker.NewRedisLocker(rdb, lockPrefix, lockLease, sysLogger)
		log.Printf("[INFO] Using Redis session locks")
	}

	// 4. Pipeline components
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.HuggingFaceAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	generator := generation.NewLLMGenerator(
		llmProvider,
		literature.NewMockSearcher(),
		generation.WithRateLimit(cfg.Ai.RequestsPerSecond, 1),
	)

	relevance := filter.New(filter.Config{
		MedicalKeywords:           cfg.Pipeline.MedicalKeywords,
		MedicalRelevanceThreshold: cfg.Pipeline.MedicalRelevanceThreshold,
	})
	gate := gatekeeper.New(gatekeeper.Config{
		ConfidenceThreshold: cfg.Pipeline.ConfidenceThreshold,
		HighImpactJournals:  cfg.Pipeline.HighImpactJournals,
		SensitiveTerms:      cfg.Pipeline.SensitiveTerms,
	})
	wf := workflow.New(relevance, gate, generator,
		workflow.WithLimits(shortterm.Limits{
			Responses:    cfg.Pipeline.MaxShortTermItems,
			Conversation: cfg.Pipeline.MaxConversationTurns,
			Queries:      cfg.Pipeline.MaxShortTermItems,
		}),
		workflow.WithGenerationTimeout(cfg.Ai.GenerationTimeout),
		workflow.WithAutoApproval(cfg.Pipeline.AutoApprovalEnabled),
		workflow.WithLogger(sysLogger),
		workflow.WithMetrics(m),
	)

	// 5. Services
	store := service.NewMemoryStore(
		uowFactory,
		memory.NewSessionCache(sessionCacheTTL, sessionCacheJanitor),
		sysLogger,
		m,
	)

	wsHub := websocket.NewHub(rdb, logger.NewIsolatedLogger("logs/review_stream.log"))

	var bus events.Publisher
	if natsPub != nil {
		bus = natsPub
	}
	eventPublisher := service.NewEventPublisher(bus, sysLogger)

	researchService := service.NewResearchService(
		store,
		wf,
		relevance,
		sessionLocker,
		service.NewPublisherService(cfg.App.FindingsTopic, pubSub),
		eventPublisher,
		wsHub, // Hub implements ReviewDelivery
		sysLogger,
		m,
	)
	approvalService := service.NewApprovalService(
		store,
		sessionLocker,
		eventPublisher,
		wsHub,
		emailService,
		cfg.SMTP.ReviewerEmail,
		sysLogger,
		reviewLogger,
		m,
	)

	findingsConsumer := service.NewFindingsConsumer(pubSub, cfg.App.FindingsTopic, store, sysLogger)

	var reviewAudit *service.ReviewAuditService
	if natsSub != nil {
		reviewAudit = service.NewReviewAuditService(natsSub, reviewLogger, sysLogger)
	}

	c := &Container{
		ResearchController:  controller.NewResearchController(researchService, cfg.Pipeline.MemoryCleanupDays),
		ApprovalController:  controller.NewApprovalController(approvalService, reviewLogger),
		FindingsConsumer:    findingsConsumer,
		ReviewAudit:         reviewAudit,
		ReviewStreamHandler: handler.NewReviewStreamHandler(wsHub, sysLogger),
		WebSocketHub:        wsHub,
		Logger:              sysLogger,
	}
	c.closers = append(c.closers, func() { pubSub.Close() })
	if natsPub != nil {
		c.closers = append(c.closers, natsPub.Close)
	}
	if natsSub != nil {
		c.closers = append(c.closers, natsSub.Close)
	}
	if rdb != nil {
		c.closers = append(c.closers, func() { rdb.Close() })
	}
	c.closers = append(c.closers, func() {
		sysLogger.Sync()
		reviewLogger.Sync()
	})
	return c
}

// Close releases broker and cache connections in creation order.
func (c *Container) Close() {
	for _, fn := range c.closers {
		fn()
	}
}
