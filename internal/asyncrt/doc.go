// Package asyncrt runs cooperative compiler jobs on a bounded worker pool.
//
// A Job is polled until it finishes. A poll that cannot make progress
// registers the job's Waker with whatever it waits on and returns
// ErrPending; the job is parked until somebody calls Wake and is then
// polled again from the start. Run returns once nothing is ready and no
// worker is busy. Jobs still parked at that point are stalled and can be
// listed and aborted by the caller.
package asyncrt
