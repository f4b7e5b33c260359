package asyncrt

import (
	"context"
	"errors"

	"raven/internal/trace"
)

// ErrPending is returned from Poll when the job has parked itself.
var ErrPending = errors.New("asyncrt: job pending")

// Job is a unit of cooperative work.
type Job interface {
	Poll(jc *JobContext) error
}

// JobFunc adapts a function to Job.
type JobFunc func(jc *JobContext) error

// Poll calls f.
func (f JobFunc) Poll(jc *JobContext) error { return f(jc) }

// Waker resumes a parked job. Wake is safe to call from any goroutine and
// any number of times.
type Waker interface {
	Wake()
}

// JobContext is handed to every poll.
type JobContext struct {
	exec *Executor
	task *Task
	ctx  context.Context
}

// ID returns the polled task's ID.
func (jc *JobContext) ID() TaskID { return jc.task.ID }

// Name returns the name the task was spawned with.
func (jc *JobContext) Name() string { return jc.task.Name }

// Waker returns the task's waker. The same value is returned on every poll.
func (jc *JobContext) Waker() Waker { return jc.task.waker }

// Context returns the context Run was started with.
func (jc *JobContext) Context() context.Context { return jc.ctx }

// Tracer returns the executor's tracer.
func (jc *JobContext) Tracer() trace.Tracer { return jc.exec.tracer }

// Spawn enqueues a child job.
func (jc *JobContext) Spawn(name string, job Job) TaskID {
	return jc.exec.spawn(name, job, jc.task.ID)
}
