package daemon

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"voicetovision/internal/auth"
	"voicetovision/internal/config"
	"voicetovision/internal/download"
	"voicetovision/internal/ideas"
	"voicetovision/internal/jobs"
	"voicetovision/internal/logging"
	"voicetovision/internal/notifications"
	"voicetovision/internal/services/ollama"
	"voicetovision/internal/services/whisper"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	// SkipPing disables the startup Ollama reachability check.
	SkipPing bool
}

// Run builds the full service graph and blocks until the context is
// cancelled or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.NewForDir(cfg.System.LogDir, level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	audit, err := logging.NewAudit(cfg.System.LogDir)
	if err != nil {
		return fmt.Errorf("init audit log: %w", err)
	}

	store, err := ideas.Open(cfg, logger, audit)
	if err != nil {
		return fmt.Errorf("open idea store: %w", err)
	}

	analyzer := ollama.NewClient(cfg.Ollama)
	if !opts.SkipPing {
		if err := analyzer.Ping(signalCtx); err != nil {
			_ = store.Close()
			return fmt.Errorf("ollama check: %w", err)
		}
	}

	notifier := notifications.NewService(cfg)
	queue := jobs.NewQueue(
		cfg,
		auth.New(cfg),
		whisper.NewService(cfg.Whisper),
		analyzer,
		store,
		notifier,
		logger,
		audit,
	)
	downloads := download.NewManager(cfg, logger, audit)
	watcher := NewInboxWatcher(cfg, queue, logger)

	d, err := New(cfg, store, queue, downloads, watcher, logger)
	if err != nil {
		_ = store.Close()
		return err
	}

	if err := d.Start(signalCtx); err != nil {
		_ = store.Close()
		return err
	}
	defer func() { _ = d.Close() }()

	logger.Info("voicetovision daemon ready",
		"base_folder", cfg.System.BaseFolder,
		"inbox", cfg.System.InboxDir,
		"workers", cfg.System.MaxConcurrentJobs)

	<-signalCtx.Done()
	logger.Info("shutdown signal received")
	return nil
}
