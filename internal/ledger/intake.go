package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"udlaeg/internal/core"
)

// DefaultMaxImageBytes caps a single captured image.
const DefaultMaxImageBytes = 20 << 20

var ErrImageTooLarge = errors.New("image too large")

// Upload is one file handed over by the camera or file picker.
type Upload struct {
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

type captured struct {
	image    core.Image
	filename string
}

// Intake turns uploads into receipts. Each upload is decoded on its own
// goroutine and its completion is funneled through a channel into the ledger,
// so receipts land in completion order, not upload order.
type Intake struct {
	ledger      *Ledger
	maxBytes    int64
	parallelism int
}

func NewIntake(l *Ledger, maxBytes int64) *Intake {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &Intake{ledger: l, maxBytes: maxBytes, parallelism: 4}
}

// Capture decodes all uploads and appends them to the ledger. A failing upload
// is logged and skipped. Completions that arrive after the ledger was cleared
// are dropped.
func (in *Intake) Capture(ctx context.Context, uploads []Upload) ([]core.Receipt, error) {
	return in.CaptureFor(ctx, in.ledger.Session(), uploads)
}

// CaptureFor is Capture bound to a session token the caller read earlier.
// Nothing is added if the ledger was cleared since then.
func (in *Intake) CaptureFor(ctx context.Context, session uint64, uploads []Upload) ([]core.Receipt, error) {
	events := make(chan captured, len(uploads))

	var g errgroup.Group
	g.SetLimit(in.parallelism)
	for _, u := range uploads {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := in.decode(u)
			if err != nil {
				slog.WarnContext(ctx, "Failed to decode captured image", "filename", u.Filename, "error", err)
				return nil
			}
			events <- captured{image: img, filename: u.Filename}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(events)
	}()

	var added []core.Receipt
	for ev := range events {
		r, ok := in.ledger.AddFor(session, ev.image, ev.filename)
		if !ok {
			slog.InfoContext(ctx, "Dropped capture for a cleared ledger", "filename", ev.filename)
			continue
		}
		added = append(added, r)
	}
	return added, <-done
}

func (in *Intake) decode(u Upload) (core.Image, error) {
	if u.Open == nil {
		return core.Image{}, fmt.Errorf("no content for %s", u.Filename)
	}
	rc, err := u.Open()
	if err != nil {
		return core.Image{}, fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, in.maxBytes+1))
	if err != nil {
		return core.Image{}, fmt.Errorf("read: %w", err)
	}
	if int64(len(data)) > in.maxBytes {
		return core.Image{}, ErrImageTooLarge
	}
	if len(data) == 0 {
		return core.Image{}, fmt.Errorf("empty file %s", u.Filename)
	}

	ct := u.ContentType
	if !strings.HasPrefix(ct, "image/") {
		ct = http.DetectContentType(data)
	}
	return core.Image{ContentType: ct, Data: data}, nil
}
