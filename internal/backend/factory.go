package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"udlaeg/internal/amqp"
	"udlaeg/internal/storage"
)

// Bridge is the broker connection the share bridge listens on.
type Bridge interface {
	Available() bool
	PublishShareRequest(ctx context.Context, msg *amqp.ShareRequestMessage) error
	Close() error
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	dial   func(url, exchange, queue string) (Bridge, error)
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		dial: func(url, exchange, queue string) (Bridge, error) {
			client, err := amqp.NewClient(url, exchange, queue)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		result = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachBridge(ctx, config, result)
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	kv, err := storage.NewSQLiteKV(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{KV: kv, Cleanup: kv.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Info("Initialized memory backend")
	return &BackendResult{KV: storage.NewMemoryKV()}
}

// attachBridge connects the share bridge. A broker that cannot be reached
// only disables native share.
func (f *DefaultFactory) attachBridge(ctx context.Context, config Config, result *BackendResult) {
	if config.AMQPURL == "" {
		f.logger.InfoContext(ctx, "No AMQP URL configured, native share disabled")
		return
	}

	bridge, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without native share", "error", err)
		return
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	result.Bridge = bridge
	storageCleanup := result.Cleanup
	result.Cleanup = func() error {
		var errs []error
		if err := bridge.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close AMQP client: %w", err))
		}
		if storageCleanup != nil {
			if err := storageCleanup(); err != nil {
				errs = append(errs, fmt.Errorf("close storage: %w", err))
			}
		}
		return errors.Join(errs...)
	}
}
