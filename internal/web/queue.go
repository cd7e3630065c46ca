package web

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrBusy is returned when a request could not be run by the scheduler
// before its deadline.
var ErrBusy = errors.New("web: device busy")

// Queue hands requests from HTTP goroutines to the scheduler goroutine,
// which runs them one per pass with ServeOne.
type Queue struct {
	jobs chan *job
}

const (
	jobPending int32 = iota
	jobRunning
	jobCancelled
)

type job struct {
	state atomic.Int32
	run   func()
	done  chan struct{}
}

// NewQueue returns a Queue holding up to size pending requests.
func NewQueue(size int) *Queue {
	return &Queue{jobs: make(chan *job, size)}
}

// Do submits fn to run on the scheduler goroutine and waits for it to
// finish. If ctx ends before fn has started, fn is never run and Do
// returns ErrBusy. Once fn has started Do waits for it.
func (q *Queue) Do(ctx context.Context, fn func()) error {
	j := &job{run: fn, done: make(chan struct{})}
	select {
	case q.jobs <- j:
	case <-ctx.Done():
		return ErrBusy
	}
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
	}
	if j.state.CompareAndSwap(jobPending, jobCancelled) {
		return ErrBusy
	}
	<-j.done
	return nil
}

// ServeOne runs the oldest pending request, if any, and reports whether
// it ran one. Cancelled requests are dropped. It never blocks waiting
// for a request.
func (q *Queue) ServeOne() bool {
	for {
		select {
		case j := <-q.jobs:
			if !j.state.CompareAndSwap(jobPending, jobRunning) {
				continue
			}
			j.run()
			close(j.done)
			return true
		default:
			return false
		}
	}
}

// Len returns the number of queued requests, including cancelled ones
// not yet dropped.
func (q *Queue) Len() int {
	return len(q.jobs)
}
