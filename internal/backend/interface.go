package backend

import (
	"context"

	"udlaeg/internal/storage"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult is the storage for settings and history plus the optional
// share bridge connection. Bridge is nil when no broker is configured or it
// could not be reached.
type BackendResult struct {
	KV      storage.KV
	Bridge  Bridge
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Share bridge, optional for every backend type
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
