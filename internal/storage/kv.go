// Package storage holds the durable key-value store the app persists its
// settings and history into. Values are whole JSON documents; there are no
// partial updates.
package storage

import (
	"context"
	"errors"
)

// Keys of the persisted documents.
const (
	SettingsKey = "expenseAppSettings"
	HistoryKey  = "expenseHistory"
)

var ErrNotFound = errors.New("key not found")

// KV is a durable key-value store of whole values.
type KV interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error
}
