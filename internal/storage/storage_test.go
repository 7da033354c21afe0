package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := kv.Put(ctx, SettingsKey, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := kv.Put(ctx, SettingsKey, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := kv.Get(ctx, SettingsKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"a":2}` {
		t.Fatalf("unexpected value %s", got)
	}
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestMemoryKVCopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	buf := []byte("abc")
	_ = kv.Put(context.Background(), "k", buf)
	buf[0] = 'x'
	got, _ := kv.Get(context.Background(), "k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %s", got)
	}
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "udlaeg.db")
	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer kv.Close()

	exerciseKV(t, kv)

	// Reopening runs migrations again without error and keeps data.
	kv.Close()
	kv2, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv2.Close()
	got, err := kv2.Get(context.Background(), SettingsKey)
	if err != nil || string(got) != `{"a":2}` {
		t.Fatalf("value not persisted: %s err=%v", got, err)
	}
}

func TestSchemaDecode(t *testing.T) {
	s := MustCompileSchema("thing.json", `{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"required": ["name"]
	}`)

	var v struct {
		Name string `json:"name"`
	}
	if err := s.Decode([]byte(`{"name":"x"}`), &v); err != nil || v.Name != "x" {
		t.Fatalf("decode valid: %+v err=%v", v, err)
	}
	if err := s.Decode([]byte(`{"name":1}`), &v); err == nil {
		t.Fatalf("expected schema error")
	}
	if err := s.Decode([]byte(`not json`), &v); err == nil {
		t.Fatalf("expected syntax error")
	}
}
