// Package daemon wires the pipeline services into a single long-running
// process: the job queue's worker pool, the inbox watcher, and the download
// token sweeper, guarded by a lock file so only one instance runs per
// machine.
package daemon
