package history

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"udlaeg/internal/core"
	"udlaeg/internal/storage"
)

func newTestStore(kv storage.KV) *Store {
	s := NewStore(kv)
	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	s.newID = func(time.Time) string { return fmt.Sprintf("id-%02d", n) }
	return s
}

func TestRecordPrependsUnreceivedEntry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryKV())

	first, err := s.Record(ctx, "Lunch", core.Money{Cents: 1000}, 1)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if first.Received || first.ID == "" || first.Date.IsZero() {
		t.Fatalf("unexpected entry %+v", first)
	}
	second, _ := s.Record(ctx, "Office supplies", core.Money{Cents: 1975}, 2)

	list := s.List(ctx)
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if list[0].Total.Cents != 1975 || list[0].ReceiptsCount != 2 || list[0].Description != "Office supplies" {
		t.Fatalf("entry not persisted faithfully: %+v", list[0])
	}
}

func TestHistoryKeepsNewestTen(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryKV())

	for i := 1; i <= 25; i++ {
		if _, err := s.Record(ctx, fmt.Sprintf("expense %d", i), core.Money{Cents: int64(i)}, 1); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if n := len(s.List(ctx)); n > MaxEntries {
			t.Fatalf("history grew to %d", n)
		}
	}

	list := s.List(ctx)
	if len(list) != MaxEntries {
		t.Fatalf("len = %d", len(list))
	}
	for i, e := range list {
		want := fmt.Sprintf("expense %d", 25-i)
		if e.Description != want {
			t.Fatalf("position %d = %q, want %q", i, e.Description, want)
		}
	}
}

func TestToggleReceived(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryKV())
	e, _ := s.Record(ctx, "Lunch", core.Money{Cents: 1000}, 1)

	ok, err := s.ToggleReceived(ctx, e.ID)
	if err != nil || !ok {
		t.Fatalf("toggle: ok=%v err=%v", ok, err)
	}
	if !s.List(ctx)[0].Received {
		t.Fatalf("expected received after one toggle")
	}

	_, _ = s.ToggleReceived(ctx, e.ID)
	if s.List(ctx)[0].Received {
		t.Fatalf("double toggle should restore the original state")
	}
}

func TestToggleUnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := newTestStore(kv)
	_, _ = s.Record(ctx, "Lunch", core.Money{Cents: 1000}, 1)
	before, _ := kv.Get(ctx, storage.HistoryKey)

	ok, err := s.ToggleReceived(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("expected no-op, ok=%v err=%v", ok, err)
	}
	after, _ := kv.Get(ctx, storage.HistoryKey)
	if !bytes.Equal(before, after) {
		t.Fatalf("storage changed on unknown id")
	}
}

func TestListFailsSoftOnCorruptData(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{`garbage`, `{"id":1}`, `[{"description":"no id"}]`} {
		kv := storage.NewMemoryKV()
		_ = kv.Put(ctx, storage.HistoryKey, []byte(raw))
		if got := NewStore(kv).List(ctx); len(got) != 0 {
			t.Fatalf("%q: expected empty list, got %+v", raw, got)
		}
	}
}

func TestListReadsLegacyNumericIDs(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	_ = kv.Put(ctx, storage.HistoryKey, []byte(`[
		{"id": 1718000000000, "date": "2024-06-10T08:00:00.000Z", "description": "Kaffe",
		 "total": 45.5, "receiptsCount": 1, "received": true}
	]`))
	s := NewStore(kv)

	list := s.List(ctx)
	if len(list) != 1 || list[0].ID != "1718000000000" || list[0].Total.Cents != 4550 || !list[0].Received {
		t.Fatalf("unexpected %+v", list)
	}
	if ok, _ := s.ToggleReceived(ctx, "1718000000000"); !ok {
		t.Fatalf("legacy id should be toggleable")
	}
}

func TestRealIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryKV())
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		e, err := s.Record(ctx, "x", core.Money{}, 0)
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		if seen[e.ID] {
			t.Fatalf("duplicate id %s", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestExportXLSX(t *testing.T) {
	entries := []core.HistoryEntry{
		{ID: "b", Date: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), Description: "Office supplies", Total: core.Money{Cents: 1975}, ReceiptsCount: 2},
		{ID: "a", Date: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), Description: "Lunch", Total: core.Money{Cents: 1000}, ReceiptsCount: 1, Received: true},
	}
	var buf bytes.Buffer
	if err := ExportXLSX(entries, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "19.10.2026" || rows[1][1] != "Office supplies" || rows[1][4] != "Nej" {
		t.Fatalf("unexpected first row %v", rows[1])
	}
	if rows[2][4] != "Ja" {
		t.Fatalf("unexpected second row %v", rows[2])
	}
}
