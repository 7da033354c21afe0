package submission

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"udlaeg/internal/core"
)

// File is a receipt image ready to be shared or downloaded.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileName is the receipt's original filename, or kvittering-N.jpg for the
// 1-based position when it has none.
func FileName(r core.Receipt, index int) string {
	if r.Filename != "" {
		return r.Filename
	}
	return fmt.Sprintf("kvittering-%d.jpg", index+1)
}

// ToFiles converts every receipt image into a File. Conversions run
// concurrently and are all awaited; a receipt that cannot be converted is
// logged and left out. The result keeps ledger order.
func ToFiles(ctx context.Context, receipts []core.Receipt) []File {
	converted := make([]*File, len(receipts))

	var g errgroup.Group
	for i, r := range receipts {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			img, err := core.ParseDataURI(r.Image)
			if err != nil {
				slog.ErrorContext(ctx, "Error converting receipt to file",
					"receipt_id", r.ID, "position", i+1, "error", err)
				return nil
			}
			converted[i] = &File{Name: FileName(r, i), ContentType: img.ContentType, Data: img.Data}
			return nil
		})
	}
	_ = g.Wait()

	files := make([]File, 0, len(receipts))
	for _, f := range converted {
		if f != nil {
			files = append(files, *f)
		}
	}
	return files
}
