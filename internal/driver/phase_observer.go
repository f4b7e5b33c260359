package driver

import "time"

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a compilation phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a phase boundary. Per-file phases (tokenize, parse)
// set File; emit events set Unit.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	File    string
	Unit    string
	Elapsed time.Duration
}

// PhaseObserver receives phase events emitted during Compile. It is called
// from worker goroutines and must be safe for concurrent use.
type PhaseObserver func(PhaseEvent)

func (o PhaseObserver) start(name, file string) time.Time {
	if o != nil {
		o(PhaseEvent{Name: name, Status: PhaseStart, File: file})
	}
	return time.Now()
}

func (o PhaseObserver) end(name, file string, began time.Time) {
	if o != nil {
		o(PhaseEvent{Name: name, Status: PhaseEnd, File: file, Elapsed: time.Since(began)})
	}
}
