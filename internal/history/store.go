// Package history keeps the bounded log of past reimbursement requests.
package history

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"udlaeg/internal/core"
	"udlaeg/internal/storage"
)

// MaxEntries is how many submissions are kept; older ones age out.
const MaxEntries = 10

var historySchema = storage.MustCompileSchema("history.json", `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"id":            {"type": ["string", "number"]},
			"date":          {"type": "string"},
			"description":   {"type": "string"},
			"total":         {"type": ["number", "string"]},
			"receiptsCount": {"type": "integer", "minimum": 0},
			"received":      {"type": "boolean"}
		},
		"required": ["id", "date", "total"]
	}
}`)

// Store is the sole owner of the persisted history. Storage is the source of
// truth: every mutation reloads the list, changes it and writes it back whole.
type Store struct {
	mu    sync.Mutex
	kv    storage.KV
	now   func() time.Time
	newID func(time.Time) string
}

func NewStore(kv storage.KV) *Store {
	entropy := ulid.Monotonic(rand.Reader, 0)
	var idMu sync.Mutex
	return &Store{
		kv:  kv,
		now: time.Now,
		newID: func(t time.Time) string {
			idMu.Lock()
			defer idMu.Unlock()
			return ulid.MustNew(ulid.Timestamp(t), entropy).String()
		},
	}
}

// Record prepends a new, not yet received entry and keeps the newest MaxEntries.
func (s *Store) Record(ctx context.Context, description string, total core.Money, receiptsCount int) (core.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry := core.HistoryEntry{
		ID:            s.newID(now),
		Date:          now,
		Description:   description,
		Total:         total,
		ReceiptsCount: receiptsCount,
	}

	entries := append([]core.HistoryEntry{entry}, s.load(ctx)...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	if err := s.persist(ctx, entries); err != nil {
		return core.HistoryEntry{}, err
	}

	slog.InfoContext(ctx, "Expense recorded in history",
		"id", entry.ID,
		"amount_cents", total.Cents,
		"receipts", receiptsCount)
	return entry, nil
}

// ToggleReceived flips the received flag of the entry with the given id.
// It reports false without writing anything when the id is unknown.
func (s *Store) ToggleReceived(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load(ctx)
	for i := range entries {
		if entries[i].ID != id {
			continue
		}
		entries[i].Received = !entries[i].Received
		if err := s.persist(ctx, entries); err != nil {
			return false, err
		}
		slog.InfoContext(ctx, "History entry toggled", "id", id, "received", entries[i].Received)
		return true, nil
	}
	return false, nil
}

// List returns the entries newest first.
func (s *Store) List(ctx context.Context) []core.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) []core.HistoryEntry {
	data, err := s.kv.Get(ctx, storage.HistoryKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to read history, starting empty", "error", err)
		return nil
	}

	var raw []storedEntry
	if err := historySchema.Decode(data, &raw); err != nil {
		slog.WarnContext(ctx, "Stored history unreadable, starting empty", "error", err)
		return nil
	}
	entries := make([]core.HistoryEntry, len(raw))
	for i, e := range raw {
		entries[i] = e.entry()
	}
	return entries
}

func (s *Store) persist(ctx context.Context, entries []core.HistoryEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := s.kv.Put(ctx, storage.HistoryKey, data); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// storedEntry reads entries written by older versions too, whose ids were
// millisecond timestamps stored as numbers.
type storedEntry struct {
	ID            json.RawMessage `json:"id"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	Total         core.Money      `json:"total"`
	ReceiptsCount int             `json:"receiptsCount"`
	Received      bool            `json:"received"`
}

func (e storedEntry) entry() core.HistoryEntry {
	id := string(e.ID)
	var s string
	if err := json.Unmarshal(e.ID, &s); err == nil {
		id = s
	}
	return core.HistoryEntry{
		ID:            id,
		Date:          e.Date,
		Description:   e.Description,
		Total:         e.Total,
		ReceiptsCount: e.ReceiptsCount,
		Received:      e.Received,
	}
}
