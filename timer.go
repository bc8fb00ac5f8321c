package portal

import "time"

// timer runs its function as a task of the socket's queue. A stopped
// timer never runs its function, even if it already expired and the
// task is waiting in the queue.
type timer struct {
	t       *time.Timer
	stopped bool
}

// afterFunc must be called from a queued task.
func (s *Socket) afterFunc(d time.Duration, f func()) *timer {
	tm := new(timer)
	tm.t = time.AfterFunc(d, func() {
		s.queue.Do(func() {
			if tm.stopped {
				return
			}
			tm.stopped = true
			f()
		})
	})
	return tm
}

// stop must be called from a queued task. It is safe to call on a nil
// timer.
func (tm *timer) stop() {
	if tm == nil {
		return
	}
	tm.stopped = true
	tm.t.Stop()
}
