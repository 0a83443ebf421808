// Package jobs admits audio submissions and runs them through the
// transcription, analysis, and idea creation pipeline.
//
// A fixed-size worker pool pulls from one bounded FIFO queue. Submission
// validates synchronously and never enqueues invalid work; a full queue
// rejects immediately instead of blocking. Completion order is not
// guaranteed, callers correlate by job id.
package jobs
