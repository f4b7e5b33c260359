package asyncrt

import "slices"

type taskWaker struct {
	exec *Executor
	id   TaskID
}

func (w *taskWaker) Wake() { w.exec.wake(w.id) }

// WaitList collects wakers parked on one resource. Wakers must be
// comparable (pointer types). It is not synchronized:
// the owner guards it with its own lock, drains it under that lock and
// wakes the drained wakers after unlocking.
type WaitList struct {
	wakers []Waker
}

// Add queues w unless it is already queued.
func (l *WaitList) Add(w Waker) {
	if w == nil || slices.Contains(l.wakers, w) {
		return
	}
	l.wakers = append(l.wakers, w)
}

// Len reports the number of queued wakers.
func (l *WaitList) Len() int { return len(l.wakers) }

// Drain empties the list and returns what it held.
func (l *WaitList) Drain() []Waker {
	out := l.wakers
	l.wakers = nil
	return out
}

// WakeAll wakes every waker in ws.
func WakeAll(ws []Waker) {
	for _, w := range ws {
		w.Wake()
	}
}
