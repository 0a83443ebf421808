package jobs

import "time"

// Status is a job's lifecycle state. Transitions are Queued to Processing
// to either Completed or Failed; terminal states never change.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job tracks one audio submission through the pipeline. Only the worker
// that claims a job mutates it.
type Job struct {
	ID          string
	Submitter   string
	AudioPath   string
	Status      Status
	SubmittedAt time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	Error       string

	// Set on completion.
	IdeaUUID   string
	IdeaFolder string
}

// Terminal reports whether the job has finished, successfully or not.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Stats summarizes the queue for status displays.
type Stats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
