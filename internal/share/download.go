package share

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"udlaeg/internal/submission"
)

// DirDownloader saves receipt images into a directory for manual attachment.
// Existing files are never overwritten; a numbered suffix is added instead.
type DirDownloader struct {
	mu  sync.Mutex
	dir string
}

func NewDirDownloader(dir string) (*DirDownloader, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve download directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}
	return &DirDownloader{dir: dir}, nil
}

// Dir is the absolute directory files are saved to.
func (d *DirDownloader) Dir() string {
	return d.dir
}

func (d *DirDownloader) Download(ctx context.Context, f submission.File) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	path, file, err := d.create(f.Name)
	if err != nil {
		return err
	}
	if _, err := file.Write(f.Data); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	slog.InfoContext(ctx, "Receipt image downloaded", "path", path, "bytes", len(f.Data))
	return nil
}

// create opens a new file for name, adding " (n)" before the extension until
// the name is free.
func (d *DirDownloader) create(name string) (string, *os.File, error) {
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." {
		name = "kvittering.jpg"
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 0; ; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		path := filepath.Join(d.dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return path, f, nil
		}
		if !os.IsExist(err) {
			return "", nil, fmt.Errorf("create %s: %w", path, err)
		}
	}
}
