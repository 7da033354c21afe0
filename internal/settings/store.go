// Package settings loads and saves the treasurer contact, account number and
// association name.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"udlaeg/internal/core"
	"udlaeg/internal/storage"
)

var settingsSchema = storage.MustCompileSchema("settings.json", `{
	"type": "object",
	"properties": {
		"treasurerEmail":  {"type": "string"},
		"accountNumber":   {"type": "string"},
		"associationName": {"type": "string"}
	}
}`)

type Store struct {
	kv storage.KV
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// Load returns the saved settings. Missing or malformed data yields the empty
// default; read problems are logged, never returned.
func (s *Store) Load(ctx context.Context) core.Settings {
	data, err := s.kv.Get(ctx, storage.SettingsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Settings{}
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to read settings, using defaults", "error", err)
		return core.Settings{}
	}

	var out core.Settings
	if err := settingsSchema.Decode(data, &out); err != nil {
		slog.WarnContext(ctx, "Stored settings unreadable, using defaults", "error", err)
		return core.Settings{}
	}
	return out
}

// Save overwrites the stored settings entirely. Nothing is validated here.
func (s *Store) Save(ctx context.Context, v core.Settings) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := s.kv.Put(ctx, storage.SettingsKey, data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	slog.InfoContext(ctx, "Settings saved",
		"has_email", v.TreasurerEmail != "",
		"has_account", v.AccountNumber != "",
		"association", v.AssociationName)
	return nil
}
