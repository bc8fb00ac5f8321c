package utils

import (
	"testing"
	"time"

	"github.com/karagenc/portal-go/internal/sync"
)

const DefaultTestWaitTimeout = 5 * time.Second

// TestWaiter is a WaitGroup that gives up after a timeout.
type TestWaiter struct {
	wg sync.WaitGroup
}

func NewTestWaiter(delta int) *TestWaiter {
	w := new(TestWaiter)
	w.wg.Add(delta)
	return w
}

func (w *TestWaiter) Add(delta int) { w.wg.Add(delta) }

func (w *TestWaiter) Done() { w.wg.Done() }

// WaitTimeout reports the test as failed and returns true if the
// counter doesn't drop to zero within timeout.
func (w *TestWaiter) WaitTimeout(t testing.TB, timeout time.Duration) (timedout bool) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.wg.Wait()
	}()

	select {
	case <-done:
		return false
	case <-time.After(timeout):
		t.Error("timeout exceeded")
		return true
	}
}
