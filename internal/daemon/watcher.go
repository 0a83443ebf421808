package daemon

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"voicetovision/internal/auth"
	"voicetovision/internal/config"
	"voicetovision/internal/jobs"
	"voicetovision/internal/logging"
)

// InboxWatcher submits audio files dropped into the inbox directory. Files
// are claimed once their size stops changing so half-copied uploads are not
// submitted mid-transfer.
type InboxWatcher struct {
	cfg    *config.Config
	queue  *jobs.Queue
	logger *slog.Logger

	settle time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	claimed map[string]bool
	fw      *fsnotify.Watcher
	done    chan struct{}
}

func NewInboxWatcher(cfg *config.Config, queue *jobs.Queue, logger *slog.Logger) *InboxWatcher {
	settle := time.Duration(cfg.Workflow.InboxSettleMillis) * time.Millisecond
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}
	return &InboxWatcher{
		cfg:     cfg,
		queue:   queue,
		logger:  logging.NewComponentLogger(logger, "inbox"),
		settle:  settle,
		pending: make(map[string]*time.Timer),
		claimed: make(map[string]bool),
	}
}

// Start watches the inbox directory and submits existing files first.
func (w *InboxWatcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.cfg.System.InboxDir); err != nil {
		_ = fw.Close()
		return err
	}
	w.fw = fw
	w.done = make(chan struct{})

	w.submitExisting(ctx)

	go w.loop(ctx)
	w.logger.Info("inbox watcher started", "dir", w.cfg.System.InboxDir)
	return nil
}

// Stop halts event handling and cancels settle timers.
func (w *InboxWatcher) Stop() {
	if w.fw == nil {
		return
	}
	_ = w.fw.Close()
	<-w.done

	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
}

func (w *InboxWatcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("inbox watch error", "error", err)
		}
	}
}

// schedule arms (or re-arms) the settle timer for a path. Each new write
// postpones submission until the file has been quiet for the settle window.
func (w *InboxWatcher) schedule(ctx context.Context, path string) {
	if !w.supported(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.claimed[path] {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.submit(ctx, path)
	})
}

func (w *InboxWatcher) submit(ctx context.Context, path string) {
	w.mu.Lock()
	delete(w.pending, path)
	if w.claimed[path] {
		w.mu.Unlock()
		return
	}
	w.claimed[path] = true
	w.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		w.forget(path)
		return
	}

	job, err := w.queue.Submit(ctx, path, auth.ServiceInbox)
	if err != nil {
		w.logger.Error("inbox submit failed", "file", filepath.Base(path), "error", err)
		w.forget(path)
		return
	}
	w.logger.Info("inbox file submitted", "file", filepath.Base(path), "job_id", job.ID)
}

func (w *InboxWatcher) forget(path string) {
	w.mu.Lock()
	delete(w.claimed, path)
	w.mu.Unlock()
}

func (w *InboxWatcher) submitExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.System.InboxDir)
	if err != nil {
		w.logger.Warn("scan inbox", "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.schedule(ctx, filepath.Join(w.cfg.System.InboxDir, entry.Name()))
	}
}

func (w *InboxWatcher) supported(path string) bool {
	return w.cfg.SupportsFormat(strings.ToLower(filepath.Ext(path)))
}
