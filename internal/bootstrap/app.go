package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"hr-assistant/internal/ai"
	"hr-assistant/internal/authsession"
	"hr-assistant/internal/chathistory"
	"hr-assistant/internal/config"
	"hr-assistant/internal/mail"
	"hr-assistant/internal/model"
	rabbitmqClient "hr-assistant/internal/platform/rabbitmq"
	redisClient "hr-assistant/internal/platform/redis"
	sqliteClient "hr-assistant/internal/platform/sqlite"
	"hr-assistant/internal/rag"
	"hr-assistant/internal/repository"
	"hr-assistant/internal/worker"
)

// App wires the process-wide resources. The RAG engine and its loaded index
// are built exactly once here and shared read-only by every request.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client    // nil when not configured
	MQConn *amqp.Connection // nil when not configured

	Index        *rag.Index
	Engine       *rag.Engine
	ModelClient  *rag.ModelClient
	SessionStore authsession.Store
	History      *chathistory.Store
	Mailer       *mail.SMTPMailer
	EventWorker  *worker.AuthEventWorker
	Publisher    *rabbitmqClient.EventPublisher

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	db, err := sqliteClient.New(ctx, cfg.SQLite.Path)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.User{}, &model.AuthEvent{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	index, err := rag.LoadIndex(cfg.RAG.IndexDir)
	if err != nil {
		return nil, fmt.Errorf("load similarity index failed: %w", err)
	}

	llmClient := ai.NewClient()
	modelClient := rag.NewModelClient(llmClient,
		ai.EmbeddingConfig{BaseURL: cfg.LLM.BaseURL, APIKey: cfg.LLM.APIKey, Model: cfg.LLM.EmbeddingModel},
		ai.ChatConfig{BaseURL: cfg.LLM.BaseURL, APIKey: cfg.LLM.APIKey, Model: cfg.LLM.Model},
	)
	engine := rag.NewEngine(index, modelClient, modelClient, rag.Options{
		TopK:   cfg.RAG.TopK,
		FetchK: cfg.RAG.FetchK,
		Lambda: cfg.RAG.Lambda,
	})

	mailer, err := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if err != nil {
		return nil, fmt.Errorf("configure mail relay failed: %w", err)
	}

	sessionTTL := time.Duration(cfg.Auth.SessionTTLMinute) * time.Minute

	app := &App{
		Config:       cfg,
		DB:           db,
		Index:        index,
		Engine:       engine,
		ModelClient:  modelClient,
		SessionStore: authsession.NewMemoryStore(sessionTTL),
		History:      chathistory.NewStore(),
		Mailer:       mailer,
		StartedAt:    time.Now(),
	}

	if cfg.Redis.Addr != "" {
		redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		app.Redis = redisCli
		app.SessionStore = authsession.NewRedisStore(redisCli, sessionTTL)
	}

	if cfg.RabbitMQ.URL != "" {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
		app.MQConn = mqConn
		app.Publisher = rabbitmqClient.NewEventPublisher(mqConn, cfg.RabbitMQ.AuthEventQueue)

		eventRepo := repository.NewAuthEventRepository(db)
		app.EventWorker = worker.NewAuthEventWorker(mqConn, eventRepo, cfg.RabbitMQ.AuthEventQueue)
		if err := app.EventWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start auth event worker failed: %w", err)
		}
	}

	return app, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
