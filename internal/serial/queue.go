// Package serial runs tasks one at a time, in the order they were
// submitted, without a dedicated goroutine.
package serial

import "github.com/karagenc/portal-go/internal/sync"

// Queue is a serial executor. The zero value is ready to use.
type Queue struct {
	mu      sync.Mutex
	tasks   []func()
	running bool
}

// Do submits f. If no goroutine is currently draining the queue, the caller
// becomes the drainer and returns once the queue is empty, having run f and
// every task submitted in the meantime. Otherwise Do returns immediately and
// f runs on the draining goroutine after the tasks queued before it.
//
// Calling Do from inside a task never runs the new task in place.
func (q *Queue) Do(f func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, f)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()
	q.drain()
}

func (q *Queue) drain() {
	defer func() {
		if r := recover(); r != nil {
			// Hand the queue over before propagating, so that it
			// doesn't stay marked as running forever.
			q.mu.Lock()
			q.running = false
			pending := len(q.tasks) > 0
			q.mu.Unlock()
			if pending {
				go q.resume()
			}
			panic(r)
		}
	}()

	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		f := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()
		f()
	}
}

func (q *Queue) resume() {
	q.mu.Lock()
	if q.running || len(q.tasks) == 0 {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()
	q.drain()
}
