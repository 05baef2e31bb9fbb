package backend

import (
	"context"
	"fmt"

	"billed/internal/amqp"
	"billed/internal/api"
	"billed/internal/bills/memory"
	"billed/internal/log"
	"billed/internal/services"
	"billed/internal/storage"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case APIBackend:
		return f.createAPIBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without messages",
				log.FieldError, err)
			amqpClient = nil
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	// A nil *amqp.Client must not become a non-nil Publisher.
	var publisher services.Publisher
	if amqpClient != nil {
		publisher = amqpClient
	}
	svc := services.NewBillService(repo, publisher, f.logger)

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Service:  svc,
		Receipts: repo,
		Ready:    repo.Ping,
		Cleanup: func() error {
			if amqpClient != nil {
				_ = amqpClient.Close()
			}
			return repo.Close()
		},
	}, nil
}

func (f *DefaultFactory) createAPIBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := api.NewClient(config.BillsAPIURL, config.BillsAPITimeout, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bills API client: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized bills API backend", "url", config.BillsAPIURL)
	return &BackendResult{Service: client}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) (*BackendResult, error) {
	store := memory.New()
	f.logger.InfoContext(ctx, "Initialized memory backend")
	return &BackendResult{Service: store, Receipts: store}, nil
}
