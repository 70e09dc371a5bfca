package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"

	"driver-portal/internal/domain"
	"driver-portal/internal/logx"
)

// ManifestName is the file dispatch drops into the watched directory.
const ManifestName = "manifest.json"

// Importer receives the deliveries a manifest assigns.
type Importer interface {
	ImportDeliveries(ctx context.Context, deliveries []domain.Delivery) error
}

// Watcher monitors a directory for dispatch manifest files and imports the
// deliveries they assign. Dispatch is the only writer of the manifest; the
// portal only reads it.
type Watcher struct {
	dir      string
	debounce time.Duration
	importer Importer
	logger   logx.Logger
	imports  prometheus.Counter
	fs       *fsnotify.Watcher
}

// NewWatcher creates a watcher over dir. The imports counter may be nil.
func NewWatcher(dir string, debounce time.Duration, importer Importer, logger logx.Logger, imports prometheus.Counter) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("resolve manifest dir: %w", err)
	}

	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}

	return &Watcher{
		dir:      absDir,
		debounce: debounce,
		importer: importer,
		logger:   logger,
		imports:  imports,
		fs:       fs,
	}, nil
}

// Run imports any manifest already present, then blocks watching for new
// ones until ctx is cancelled. Manifest write bursts are debounced so a
// half-written file is not imported.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.fs.Add(w.dir); err != nil {
		return fmt.Errorf("watch manifest dir %s: %w", w.dir, err)
	}
	w.logger.Info("dispatch manifest watcher started", logx.String("dir", w.dir))

	w.importManifest(ctx)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != ManifestName {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(w.debounce)
		case <-pending:
			pending = nil
			w.importManifest(ctx)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("manifest watcher error", logx.Any("err", err))
		}
	}
}

// Close stops the underlying file system watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) importManifest(ctx context.Context) {
	path := filepath.Join(w.dir, ManifestName)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		w.logger.Error("read manifest failed", logx.String("path", path), logx.Any("err", err))
		return
	}

	var deliveries []domain.Delivery
	if err := json.Unmarshal(raw, &deliveries); err != nil {
		w.logger.Error("decode manifest failed", logx.String("path", path), logx.Any("err", err))
		return
	}

	if err := w.importer.ImportDeliveries(ctx, deliveries); err != nil {
		w.logger.Error("import manifest failed", logx.Any("err", err))
		return
	}
	if w.imports != nil {
		w.imports.Inc()
	}
	w.logger.Info("dispatch manifest imported",
		logx.String("path", path),
		logx.Int("deliveries", len(deliveries)),
	)
}
