package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"voicetovision/internal/auth"
	"voicetovision/internal/config"
	"voicetovision/internal/ideas"
	"voicetovision/internal/logging"
	"voicetovision/internal/notifications"
	"voicetovision/internal/services"
	"voicetovision/internal/services/whisper"
)

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, workDir string) (whisper.Result, error)
}

// Analyzer turns a transcript into a structured analysis.
type Analyzer interface {
	Analyze(ctx context.Context, transcript, language string) (*ideas.Analysis, error)
}

// Queue admits audio submissions and drives them through transcription,
// analysis, and idea creation on a fixed-size worker pool.
type Queue struct {
	cfg        *config.Config
	authorizer *auth.Authorizer
	transcribe Transcriber
	analyze    Analyzer
	store      *ideas.Store
	notifier   notifications.Service
	logger     *slog.Logger
	audit      *logging.Audit

	mu   sync.Mutex
	jobs map[string]*Job

	pending  chan *Job
	group    *errgroup.Group
	cancel   context.CancelFunc
	started  bool
	stopping bool
}

func NewQueue(
	cfg *config.Config,
	authorizer *auth.Authorizer,
	transcriber Transcriber,
	analyzer Analyzer,
	store *ideas.Store,
	notifier notifications.Service,
	logger *slog.Logger,
	audit *logging.Audit,
) *Queue {
	capacity := cfg.System.QueueCapacity
	if capacity <= 0 {
		capacity = 16
	}
	return &Queue{
		cfg:        cfg,
		authorizer: authorizer,
		transcribe: transcriber,
		analyze:    analyzer,
		store:      store,
		notifier:   notifier,
		logger:     logging.NewComponentLogger(logger, "jobs"),
		audit:      audit,
		jobs:       make(map[string]*Job),
		pending:    make(chan *Job, capacity),
	}
}

// Start launches the worker pool. Workers run until Stop is called or the
// context is cancelled.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true

	ctx, q.cancel = context.WithCancel(ctx)
	q.group, ctx = errgroup.WithContext(ctx)

	workers := q.cfg.System.MaxConcurrentJobs
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.group.Go(func() error {
			q.workerLoop(ctx)
			return nil
		})
	}
	q.logger.Info("worker pool started", "workers", workers, "capacity", cap(q.pending))
}

// Stop drains the pool: no new jobs are accepted, in-flight jobs finish,
// and jobs still queued are marked failed without being processed.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	q.stopping = true
	close(q.pending)
	q.mu.Unlock()

	_ = q.group.Wait()
	q.cancel()
	q.logger.Info("worker pool stopped")
}

func (q *Queue) isStopping() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopping
}

// Submit validates the submission and enqueues it FIFO. Validation failures
// reject synchronously; a full queue rejects immediately rather than
// blocking.
func (q *Queue) Submit(ctx context.Context, audioPath, submitter string) (*Job, error) {
	if !q.authorizer.IsAuthorized(submitter) {
		q.audit.Unauthorized("jobs", "submit", submitter)
		return nil, services.Wrap(services.ErrSecurity, "jobs", "submit",
			fmt.Sprintf("user %s is not authorized", submitter), nil)
	}

	ext := strings.ToLower(filepath.Ext(audioPath))
	if !q.cfg.SupportsFormat(ext) {
		return nil, services.Wrap(services.ErrValidation, "jobs", "submit",
			fmt.Sprintf("unsupported audio format %q", ext), nil)
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "jobs", "submit", audioPath, err)
	}
	if info.Size() > q.cfg.MaxAudioSizeBytes() {
		return nil, services.Wrap(services.ErrValidation, "jobs", "submit",
			fmt.Sprintf("audio is %d bytes, limit is %d", info.Size(), q.cfg.MaxAudioSizeBytes()), nil)
	}

	job := &Job{
		ID:          uuid.New().String(),
		Submitter:   submitter,
		AudioPath:   audioPath,
		Status:      StatusQueued,
		SubmittedAt: time.Now(),
	}

	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return nil, services.Wrap(services.ErrPersistence, "jobs", "submit", "queue is not running", nil)
	}
	q.jobs[job.ID] = job

	// The send stays inside the critical section: Stop closes the channel
	// under the same mutex, so a Submit that saw started=true cannot send
	// on a closed channel.
	select {
	case q.pending <- job:
	default:
		delete(q.jobs, job.ID)
		q.mu.Unlock()
		return nil, services.Wrap(services.ErrQueueFull, "jobs", "submit",
			fmt.Sprintf("capacity %d reached", cap(q.pending)), nil)
	}
	q.mu.Unlock()

	q.logger.Info("job queued", "job_id", job.ID, "submitter", submitter, "audio", filepath.Base(audioPath))
	if err := q.notifier.NotifyJobQueued(ctx, job.ID, submitter); err != nil {
		q.logger.Warn("notify job queued", "job_id", job.ID, "error", err)
	}

	q.mu.Lock()
	snapshot := q.snapshotLocked(job.ID)
	q.mu.Unlock()
	return snapshot, nil
}

func (q *Queue) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-q.pending:
			if !ok {
				return
			}
			if q.isStopping() {
				err := fmt.Errorf("shutting down before processing")
				q.finish(job, "", "", err)
				if notifyErr := q.notifier.NotifyJobFailed(ctx, job.ID, err); notifyErr != nil {
					q.logger.Warn("notify job failed", "job_id", job.ID, "error", notifyErr)
				}
				continue
			}
			q.process(ctx, job)
		}
	}
}

func (q *Queue) process(ctx context.Context, job *Job) {
	q.mu.Lock()
	job.Status = StatusProcessing
	job.StartedAt = time.Now()
	q.mu.Unlock()

	q.logger.Info("job processing", "job_id", job.ID)

	idea, err := q.runPipeline(ctx, job)
	if err != nil {
		q.finish(job, "", "", err)
		if notifyErr := q.notifier.NotifyJobFailed(ctx, job.ID, err); notifyErr != nil {
			q.logger.Warn("notify job failed", "job_id", job.ID, "error", notifyErr)
		}
		return
	}

	q.finish(job, idea.UUID, idea.FolderName, nil)
	if notifyErr := q.notifier.NotifyIdeaCreated(ctx, idea.FolderName, idea.Analysis.Type, idea.Analysis.Viability); notifyErr != nil {
		q.logger.Warn("notify idea created", "job_id", job.ID, "error", notifyErr)
	}
}

func (q *Queue) runPipeline(ctx context.Context, job *Job) (*ideas.Idea, error) {
	workDir := filepath.Join(q.cfg.System.TempFolder, job.ID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "jobs", "prepare work dir", workDir, err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			q.logger.Warn("clean work dir", "job_id", job.ID, "error", err)
		}
	}()

	transcript, err := q.transcribe.Transcribe(ctx, job.AudioPath, workDir)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	q.logger.Info("transcription done",
		"job_id", job.ID,
		"language", transcript.Language,
		"chars", len(transcript.Text))

	analysis, err := q.analyze.Analyze(ctx, transcript.Text, transcript.Language)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	idea, err := q.store.Create(ctx, ideas.CreateRequest{
		Creator:    job.Submitter,
		Transcript: transcript.Text,
		AudioPath:  job.AudioPath,
		Analysis:   *analysis,
	})
	if err != nil {
		return nil, err
	}

	if q.cfg.System.AutoDeleteEnabled {
		if err := os.Remove(job.AudioPath); err != nil {
			q.logger.Warn("remove source audio", "job_id", job.ID, "error", err)
		}
	}
	return idea, nil
}

func (q *Queue) finish(job *Job, ideaUUID, ideaFolder string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job.CompletedAt = time.Now()
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		q.logger.Error("job failed", "job_id", job.ID, "error", err)
		return
	}
	job.Status = StatusCompleted
	job.IdeaUUID = ideaUUID
	job.IdeaFolder = ideaFolder
	q.logger.Info("job completed", "job_id", job.ID, "idea", ideaFolder)
}

// Snapshot returns a copy of the job's current state.
func (q *Queue) Snapshot(jobID string) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job := q.snapshotLocked(jobID)
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "snapshot", jobID, nil)
	}
	return job, nil
}

func (q *Queue) snapshotLocked(jobID string) *Job {
	job, ok := q.jobs[jobID]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

// Wait polls until the job reaches a terminal state or the context ends.
func (q *Queue) Wait(ctx context.Context, jobID string) (*Job, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		job, err := q.Snapshot(jobID)
		if err != nil {
			return nil, err
		}
		if job.Terminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// CollectStats counts jobs by state.
func (q *Queue) CollectStats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	var stats Stats
	for _, job := range q.jobs {
		switch job.Status {
		case StatusQueued:
			stats.Pending++
		case StatusProcessing:
			stats.Processing++
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		}
	}
	return stats
}
