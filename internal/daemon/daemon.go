package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"voicetovision/internal/config"
	"voicetovision/internal/download"
	"voicetovision/internal/ideas"
	"voicetovision/internal/jobs"
	"voicetovision/internal/logging"
)

// Daemon coordinates the background services and enforces single-instance
// execution via a lock file.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *ideas.Store
	queue     *jobs.Queue
	downloads *download.Manager
	watcher   *InboxWatcher

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information. It is serialized to a
// status file in the log directory so one-shot CLI commands can report on
// a running daemon without an IPC channel.
type Status struct {
	Running      bool           `json:"running"`
	Jobs         jobs.Stats     `json:"jobs"`
	Downloads    download.Stats `json:"downloads"`
	IdeaCount    int            `json:"idea_count"`
	LockFilePath string         `json:"lock_file"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// StatusFileName is the status file written under the log directory while
// the daemon runs.
const StatusFileName = "v2v.status.json"

// New constructs a daemon with initialized dependencies.
func New(
	cfg *config.Config,
	store *ideas.Store,
	queue *jobs.Queue,
	downloads *download.Manager,
	watcher *InboxWatcher,
	logger *slog.Logger,
) (*Daemon, error) {
	if cfg == nil || store == nil || queue == nil || downloads == nil {
		return nil, errors.New("daemon requires config, store, queue, and download manager")
	}

	lockPath := filepath.Join(cfg.System.LogDir, "v2v.lock")
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     store,
		queue:     queue,
		downloads: downloads,
		watcher:   watcher,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the worker pool, watcher, and
// token sweeper.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another v2v daemon instance is already running")
	}

	ctx, d.cancel = context.WithCancel(ctx)

	d.queue.Start(ctx)

	sweepInterval := time.Duration(d.cfg.Workflow.SweepIntervalSeconds) * time.Second
	d.downloads.StartSweeper(ctx, sweepInterval)

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			d.queue.Stop()
			d.cancel()
			_ = d.lock.Unlock()
			return fmt.Errorf("start inbox watcher: %w", err)
		}
	}

	d.running.Store(true)
	go d.publishStatusLoop(ctx, sweepInterval)
	d.logger.Info("daemon started", "lock", d.lockPath)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.watcher != nil {
		d.watcher.Stop()
	}
	d.queue.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", "error", err)
	}
	d.running.Store(false)
	if err := os.Remove(d.statusPath()); err != nil && !os.IsNotExist(err) {
		d.logger.Warn("remove status file", "error", err)
	}
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// CollectStatus gathers runtime counters for status displays.
func (d *Daemon) CollectStatus(ctx context.Context) (Status, error) {
	status := Status{
		Running:      d.running.Load(),
		Jobs:         d.queue.CollectStats(),
		Downloads:    d.downloads.CollectStats(),
		LockFilePath: d.lockPath,
	}
	count, err := d.store.Count(ctx, ideas.NewFilter())
	if err != nil {
		return status, err
	}
	status.IdeaCount = count
	status.UpdatedAt = time.Now()
	return status, nil
}

func (d *Daemon) statusPath() string {
	return filepath.Join(d.cfg.System.LogDir, StatusFileName)
}

// publishStatusLoop writes the status file once immediately and then on
// every tick until the context ends.
func (d *Daemon) publishStatusLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	d.publishStatus(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.publishStatus(ctx)
		}
	}
}

func (d *Daemon) publishStatus(ctx context.Context) {
	status, err := d.CollectStatus(ctx)
	if err != nil {
		d.logger.Warn("collect status", "error", err)
		return
	}
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		d.logger.Warn("encode status", "error", err)
		return
	}

	tmp := d.statusPath() + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		d.logger.Warn("write status file", "error", err)
		return
	}
	if err := os.Rename(tmp, d.statusPath()); err != nil {
		d.logger.Warn("publish status file", "error", err)
	}
}

// ReadStatus loads the status file a running daemon maintains under the
// log directory. It returns os.ErrNotExist when no daemon has published
// one.
func ReadStatus(logDir string) (Status, error) {
	var status Status
	data, err := os.ReadFile(filepath.Join(logDir, StatusFileName))
	if err != nil {
		return status, err
	}
	if err := json.Unmarshal(data, &status); err != nil {
		return status, fmt.Errorf("decode status file: %w", err)
	}
	return status, nil
}
