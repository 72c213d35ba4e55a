// Package store defines the task registry: the single source of truth for
// which tasks exist and whether each one is still running.
//
// All mutation is by whole-record replacement. Two goroutines that
// read-modify-write the same task can therefore lose each other's field
// updates (last writer wins). This mirrors the engine's historical behavior
// and is deliberate: the pipeline re-reads the record at every checkpoint, so
// a lost log line or status message is benign, while the RUNNING flag is only
// ever flipped through SetStatus and Stop which re-read inside the lock.
package store
