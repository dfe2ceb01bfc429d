package bootstrap

import (
	"context"
	"log"
	"regexp"
	"time"

	"virtual-hr-be/internal/config"
	"virtual-hr-be/internal/controller"
	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/internal/pkg/mailer"
	"virtual-hr-be/internal/repository/implementation"
	"virtual-hr-be/internal/repository/memory"
	redisrepo "virtual-hr-be/internal/repository/redis"
	"virtual-hr-be/internal/service"
	"virtual-hr-be/pkg/agent/feedback"
	"virtual-hr-be/pkg/agent/leave"
	"virtual-hr-be/pkg/dispatcher"
	"virtual-hr-be/pkg/embedding"
	"virtual-hr-be/pkg/events"
	"virtual-hr-be/pkg/ingest"
	"virtual-hr-be/pkg/intent"
	"virtual-hr-be/pkg/ledger"
	"virtual-hr-be/pkg/ledger/sheets"
	"virtual-hr-be/pkg/llm/factory"
	pktNats "virtual-hr-be/pkg/nats"
	"virtual-hr-be/pkg/rag"
	"virtual-hr-be/pkg/session"
	"virtual-hr-be/pkg/state"
	"virtual-hr-be/pkg/vectorstore"
	vsmemory "virtual-hr-be/pkg/vectorstore/memory"
	"virtual-hr-be/pkg/vectorstore/qdrant"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController   controller.IChatController
	LeaveController  controller.ILeaveController
	HRController     controller.IHRController
	HealthController controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService // nil when NATS is not configured

	Logger   logger.ILogger
	Pipeline *ingest.Pipeline

	closers []func()
}

// NewContainer wires every component. db may be nil unless a postgres-backed driver is selected.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c := &Container{Logger: sysLogger}

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Model backends
	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3. Storage
	vectorStore := c.newVectorStore(db, cfg)
	sessionRepo := c.newSessionRepository(cfg)
	hrLedger := newLedger(db, cfg)

	// 4. Event Bus
	var eventPublisher events.Publisher = events.NopPublisher{}
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			natsSub = nil
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	} else {
		log.Println("[INFO] NATS_URL not set, domain events are dropped")
	}

	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 5. Domain
	pipeline := ingest.NewPipeline(embeddingProvider, vectorStore, ingest.Config{
		ChunkSize:    cfg.Rag.ChunkSize,
		ChunkOverlap: cfg.Rag.ChunkOverlap,
		MaxAttempts:  cfg.Rag.EmbedRetries,
		RetryBackoff: 500 * time.Millisecond,
		BatchSize:    cfg.Rag.IngestBatchSize,
	}, sysLogger)
	c.Pipeline = pipeline

	ragEngine := rag.NewEngine(embeddingProvider, vectorStore, llmProvider, rag.Config{
		TopK:     cfg.Rag.TopK,
		MinScore: float32(cfg.Rag.MinScore),
	}, sysLogger)

	idPattern, err := regexp.Compile(cfg.HR.EmployeeIDPattern)
	if err != nil {
		log.Fatalf("[FATAL] Invalid EMPLOYEE_ID_PATTERN: %v", err)
	}
	leaveAgent := leave.NewAgent(hrLedger, eventPublisher, idPattern, balances(cfg.HR), sysLogger)
	feedbackAgent := feedback.NewAgent(hrLedger, llmProvider, eventPublisher, cfg.Ledger.FeedbackAnonymous, sysLogger)

	sessionManager := session.NewManager(sessionRepo, cfg.Session.TTL, cfg.Session.HistorySize, sysLogger)
	hrDispatcher := dispatcher.NewDispatcher(
		sessionManager,
		state.NewManager(sysLogger),
		intent.NewClassifier(llmProvider, sysLogger),
		ragEngine,
		leaveAgent,
		feedbackAgent,
		dispatcher.Config{RedeliveryWindow: cfg.Session.RedeliveryWindow},
		sysLogger,
	)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Keys.IngestTopic, pubSub)
	chatService := service.NewChatService(hrDispatcher)
	hrService := service.NewHRService(leaveAgent, feedbackAgent, publisherService)
	backends := map[string]service.Pinger{"embedding": embeddingProvider}
	if p, ok := llmProvider.(service.Pinger); ok {
		backends["llm"] = p
	}
	healthService := service.NewHealthService(vectorStore, hrLedger, cfg.Validate(), backends)

	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Keys.IngestTopic, pipeline, sysLogger)
	if natsSub != nil {
		c.NotificationService = service.NewNotificationService(natsSub, emailService, cfg.HR.NotifyEmail, sysLogger)
	}

	// 7. Controllers
	c.ChatController = controller.NewChatController(chatService)
	c.LeaveController = controller.NewLeaveController(hrService)
	c.HRController = controller.NewHRController(hrService)
	c.HealthController = controller.NewHealthController(healthService)

	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	return c
}

// Close releases broker connections and flushes the log.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func (c *Container) newVectorStore(db *gorm.DB, cfg *config.Config) vectorstore.VectorStore {
	switch cfg.Rag.VectorStore {
	case "qdrant":
		client, err := qdrant.New(qdrant.Config{
			URL:            cfg.Rag.QdrantURL,
			CollectionName: cfg.Rag.Collection,
			APIKey:         cfg.Keys.QdrantAPIKey,
		})
		if err != nil {
			log.Fatalf("[FATAL] Failed to connect to Qdrant: %v", err)
		}
		c.closers = append(c.closers, func() { _ = client.Close() })
		log.Printf("[INFO] Using Vector Store: QDRANT (%s)", cfg.Rag.Collection)
		return client
	case "pgvector":
		if db == nil {
			log.Fatal("[FATAL] VECTOR_STORE=pgvector requires DB_CONNECTION_STRING")
		}
		log.Println("[INFO] Using Vector Store: PGVECTOR")
		return implementation.NewPolicyChunkRepository(db)
	default:
		log.Println("[INFO] Using Vector Store: MEMORY")
		return vsmemory.New()
	}
}

func (c *Container) newSessionRepository(cfg *config.Config) session.Repository {
	if cfg.Session.Store != "redis" {
		log.Println("[INFO] Using Session Store: MEMORY")
		return memory.NewSessionRepository(cfg.Session.TTL, 10*time.Minute)
	}

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
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	log.Println("[INFO] Using Session Store: REDIS")
	return redisrepo.NewSessionRepository(rdb, cfg.Session.TTL)
}

func newLedger(db *gorm.DB, cfg *config.Config) ledger.Ledger {
	switch cfg.Ledger.Driver {
	case "sheets":
		client, err := sheets.New(context.Background(), cfg.Keys.GoogleCredentialsFile, map[string]string{
			ledger.SheetLeave:    cfg.Ledger.LeaveSheetID,
			ledger.SheetFeedback: cfg.Ledger.FeedbackSheetID,
		})
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize Google Sheets ledger: %v", err)
		}
		log.Println("[INFO] Using Ledger: GOOGLE SHEETS")
		return client
	case "postgres":
		if db == nil {
			log.Fatal("[FATAL] LEDGER_DRIVER=postgres requires DB_CONNECTION_STRING")
		}
		log.Println("[INFO] Using Ledger: POSTGRES")
		return implementation.NewLedgerRepository(db)
	default:
		log.Println("[INFO] Using Ledger: MEMORY (data is lost on restart)")
		return ledger.NewMemory()
	}
}

func balances(hr config.HRConfig) map[leave.Type]int {
	b := leave.DefaultBalances()
	b[leave.Annual] = hr.AnnualBalance
	b[leave.Sick] = hr.SickBalance
	b[leave.Personal] = hr.PersonalBalance
	return b
}
