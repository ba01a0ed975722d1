// Package watch ingests documents dropped into an inbox directory.
//
// The watcher listens for create and write events with fsnotify. A file is
// ingested once it has been quiet for the settle period, so a copy in
// progress is not read half-written. Files whose modification time has not
// changed since their last ingestion are skipped.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
	"github.com/custodia-labs/athena/internal/logger"
	"github.com/custodia-labs/athena/internal/normalisers"
)

// DefaultSettle is how long a file must be quiet before it is ingested.
const DefaultSettle = 750 * time.Millisecond

// Result reports the outcome of one ingestion.
type Result struct {
	Path       string
	DocumentID int64
	ChunkCount int
	Err        error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithTenant tags every ingested document with tenant.
func WithTenant(tenant string) Option {
	return func(w *Watcher) {
		w.tenant = tenant
	}
}

// WithSettle overrides the quiet period.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithExisting ingests files already in the directory when Run starts.
func WithExisting(existing bool) Option {
	return func(w *Watcher) {
		w.existing = existing
	}
}

// WithResults registers a callback invoked after every ingestion attempt.
func WithResults(fn func(Result)) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// Watcher auto-ingests supported files from a directory.
type Watcher struct {
	dir      string
	ingest   driving.IngestService
	tenant   string
	settle   time.Duration
	existing bool
	onResult func(Result)

	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]time.Time
}

// New creates a watcher for dir.
func New(dir string, ingest driving.IngestService, opts ...Option) *Watcher {
	w := &Watcher{
		dir:     dir,
		ingest:  ingest,
		settle:  DefaultSettle,
		pending: make(map[string]*time.Timer),
		seen:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. Ingestion failures are reported
// through the results callback and never stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch directory: %s is not a directory", w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s", w.dir)

	ready := make(chan string, 16)
	defer w.stopTimers()

	if w.existing {
		entries, err := os.ReadDir(w.dir)
		if err != nil {
			return fmt.Errorf("listing %s: %w", w.dir, err)
		}
		for _, e := range entries {
			path := filepath.Join(w.dir, e.Name())
			if !e.IsDir() && IsWatchable(path) {
				w.schedule(ctx, path, ready)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.handleEvent(event); ok {
				w.schedule(ctx, path, ready)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)

		case path := <-ready:
			w.report(w.ingestFile(ctx, path))
		}
	}
}

// handleEvent returns the path to ingest for event, if any.
func (w *Watcher) handleEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if !IsWatchable(event.Name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// ingestFile ingests path unless it is unchanged since the last run.
func (w *Watcher) ingestFile(ctx context.Context, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Path: path, Err: err}
	}

	w.mu.Lock()
	last, done := w.seen[path]
	w.mu.Unlock()
	if done && last.Equal(info.ModTime()) {
		logger.Debug("Skipping unchanged %s", path)
		return Result{Path: path, Err: ErrUnchanged}
	}

	sourceType, ok := domain.SourceTypeFromExtension(filepath.Ext(path))
	if !ok {
		return Result{Path: path, Err: fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(path))}
	}

	res, err := w.ingest.Ingest(ctx, domain.IngestRequest{
		SourceType: string(sourceType),
		Title:      normalisers.TitleFromPath(path),
		Tenant:     w.tenant,
		FilePath:   path,
	})
	if err != nil {
		return Result{Path: path, Err: err}
	}

	w.mu.Lock()
	w.seen[path] = info.ModTime()
	w.mu.Unlock()

	return Result{Path: path, DocumentID: res.DocumentID, ChunkCount: res.ChunkCount}
}

func (w *Watcher) report(r Result) {
	switch {
	case errors.Is(r.Err, ErrUnchanged):
		return
	case r.Err != nil:
		logger.Warn("ingesting %s: %v", r.Path, r.Err)
	default:
		logger.Info("Ingested %s as document %d (%d chunks)", r.Path, r.DocumentID, r.ChunkCount)
	}
	if w.onResult != nil {
		w.onResult(r)
	}
}

// ErrUnchanged marks a file skipped because it was already ingested.
var ErrUnchanged = errors.New("file unchanged since last ingestion")

// IsWatchable reports whether path has a supported extension and is not
// hidden or an editor temp file.
func IsWatchable(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") || strings.HasSuffix(name, "~") {
		return false
	}
	_, ok := domain.SourceTypeFromExtension(filepath.Ext(name))
	return ok
}
