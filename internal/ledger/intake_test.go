package ledger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"testing"
)

func upload(name string, data []byte) Upload {
	return Upload{
		Filename: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestCaptureAddsEveryDecodedUpload(t *testing.T) {
	l := New()
	in := NewIntake(l, 0)

	added, err := in.Capture(context.Background(), []Upload{
		upload("a.png", pngHeader),
		upload("b.png", pngHeader),
		upload("c.png", pngHeader),
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(added) != 3 || l.Len() != 3 {
		t.Fatalf("added=%d len=%d", len(added), l.Len())
	}

	// Completion order is not guaranteed; only the set of names is.
	var names []string
	for _, r := range l.Receipts() {
		names = append(names, r.Filename)
	}
	sort.Strings(names)
	if names[0] != "a.png" || names[1] != "b.png" || names[2] != "c.png" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestCaptureSkipsFailedUploads(t *testing.T) {
	l := New()
	in := NewIntake(l, 8)

	broken := Upload{Filename: "broken.jpg", Open: func() (io.ReadCloser, error) {
		return nil, errors.New("camera error")
	}}
	added, err := in.Capture(context.Background(), []Upload{
		upload("ok.png", []byte("tiny")),
		broken,
		upload("huge.png", bytes.Repeat([]byte{1}, 64)),
		upload("empty.png", nil),
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(added) != 1 || added[0].Filename != "ok.png" {
		t.Fatalf("unexpected receipts %+v", added)
	}
}

func TestCaptureDetectsContentType(t *testing.T) {
	l := New()
	u := upload("scan", pngHeader)
	u.ContentType = "application/octet-stream"
	if _, err := NewIntake(l, 0).Capture(context.Background(), []Upload{u}); err != nil {
		t.Fatalf("capture: %v", err)
	}
	img := l.Receipts()[0].Image
	if want := "data:image/png;base64,"; img[:len(want)] != want {
		t.Fatalf("content type not detected: %s", img[:30])
	}
}

func TestLateCaptureDoesNotResurrectClearedLedger(t *testing.T) {
	l := New()
	l.Add(jpeg, "before.jpg")
	in := NewIntake(l, 0)

	// The user navigates away while the image is still decoding.
	late := Upload{Filename: "late.png", Open: func() (io.ReadCloser, error) {
		l.Clear()
		return io.NopCloser(bytes.NewReader(pngHeader)), nil
	}}
	added, err := in.Capture(context.Background(), []Upload{late})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(added) != 0 || l.Len() != 0 {
		t.Fatalf("late capture leaked into ledger: added=%d len=%d", len(added), l.Len())
	}
}

func TestCaptureHonoursCancelledContext(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewIntake(l, 0).Capture(ctx, []Upload{upload("a.png", pngHeader)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if l.Len() != 0 {
		t.Fatalf("nothing should be added")
	}
}

func TestCaptureForStaleSessionAddsNothing(t *testing.T) {
	l := New()
	session := l.Session()
	l.Clear()

	added, err := NewIntake(l, 0).CaptureFor(context.Background(), session, []Upload{upload("late.png", pngHeader)})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(added) != 0 || l.Len() != 0 {
		t.Fatalf("stale session added receipts: added=%d len=%d", len(added), l.Len())
	}
}
