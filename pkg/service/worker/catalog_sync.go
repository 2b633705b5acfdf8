package worker

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/service/catalog"
	"github.com/secmon-lab/dynattr/pkg/utils/errutil"
	"github.com/secmon-lab/dynattr/pkg/utils/logging"
	"github.com/secmon-lab/dynattr/pkg/utils/safe"
)

// DefaultDebounce collapses the burst of events an editor save produces
const DefaultDebounce = 200 * time.Millisecond

// SyncFunc applies a freshly loaded catalog
type SyncFunc func(ctx context.Context, c *catalog.Catalog) error

// CatalogSyncWorker keeps the repository in line with catalog files. Local
// files are watched with fsnotify; gs:// objects are polled when an interval
// is set.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Sync is idempotent, so a redundant run is harmless
type CatalogSyncWorker struct {
	loader   *catalog.Loader
	paths    []string
	sync     SyncFunc
	debounce time.Duration
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// CatalogSyncOption configures a CatalogSyncWorker
type CatalogSyncOption func(*CatalogSyncWorker)

// WithDebounce sets how long the worker waits for events to settle
func WithDebounce(d time.Duration) CatalogSyncOption {
	return func(w *CatalogSyncWorker) {
		w.debounce = d
	}
}

// WithPollInterval re-syncs periodically, which is the only way remote
// catalogs are refreshed. Zero disables polling.
func WithPollInterval(d time.Duration) CatalogSyncOption {
	return func(w *CatalogSyncWorker) {
		w.interval = d
	}
}

// NewCatalogSyncWorker creates a new worker syncing paths through syncFn
func NewCatalogSyncWorker(loader *catalog.Loader, paths []string, syncFn SyncFunc, opts ...CatalogSyncOption) *CatalogSyncWorker {
	w := &CatalogSyncWorker{
		loader:   loader,
		paths:    paths,
		sync:     syncFn,
		debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start registers the watches and begins the sync loop. The initial sync
// runs in the background and does not block server startup.
func (w *CatalogSyncWorker) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return goerr.Wrap(err, "failed to create file watcher")
	}

	// Watch directories: editors often replace a file instead of writing it
	dirs := make(map[string]bool)
	for _, p := range w.paths {
		if catalog.IsRemote(p) {
			continue
		}
		dir := filepath.Dir(p)
		if isDir(p) {
			dir = p
		}
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			safe.Close(ctx, watcher)
			return goerr.Wrap(err, "failed to watch catalog directory", goerr.V("dir", dir))
		}
		dirs[dir] = true
	}

	logging.From(ctx).Info("catalog sync worker starting",
		"paths", w.paths,
		"poll_interval", w.interval.String())

	go w.run(ctx, watcher)
	return nil
}

// Stop signals the worker to stop and waits for completion. It is safe to
// call more than once.
func (w *CatalogSyncWorker) Stop() {
	w.stopOnce.Do(func() {
		logging.Default().Info("catalog sync worker stopping")
		close(w.stopCh)
	})
	<-w.doneCh
	logging.Default().Info("catalog sync worker stopped")
}

func (w *CatalogSyncWorker) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(w.doneCh)
	defer safe.Close(ctx, watcher)

	w.syncOnce(ctx)

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	debounce := time.NewTimer(w.debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			logging.From(ctx).Debug("catalog changed", "path", event.Name, "op", event.Op.String())
			debounce.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.From(ctx).Warn("error watching catalog", "error", err)

		case <-debounce.C:
			w.syncOnce(ctx)

		case <-tick:
			w.syncOnce(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

// relevant reports whether event touches one of the configured catalogs
func (w *CatalogSyncWorker) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}

	name := filepath.Clean(event.Name)
	for _, p := range w.paths {
		if catalog.IsRemote(p) {
			continue
		}
		p = filepath.Clean(p)
		if name == p {
			return true
		}
		if filepath.Dir(name) == p && catalog.IsCatalogFile(name) {
			return true
		}
	}
	return false
}

func (w *CatalogSyncWorker) syncOnce(ctx context.Context) {
	start := time.Now()

	c, err := w.loader.Load(ctx, w.paths...)
	if err != nil {
		errutil.Handle(ctx, err, "failed to load catalog (will retry on next change)")
		return
	}
	if err := w.sync(ctx, c); err != nil {
		errutil.Handle(ctx, err, "failed to sync catalog (will retry on next change)")
		return
	}

	logging.From(ctx).Info("catalog synced",
		"templates", len(c.Templates),
		"fields", len(c.Fields),
		"duration", time.Since(start).String())
}
