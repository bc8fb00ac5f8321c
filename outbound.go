package portal

import (
	"github.com/karagenc/portal-go/internal/sync"
	"github.com/karagenc/portal-go/transport"
)

// outboundEvent is an event passed to Send, waiting to be written.
type outboundEvent struct {
	event string
	data  any
	done  *replyCallback
	fail  *replyCallback
}

func (e *outboundEvent) binary() ([]byte, bool) {
	b, ok := e.data.([]byte)
	return b, ok
}

// outboundBuffer holds events sent while the socket isn't opened. It is
// only accessed from the socket's queue.
type outboundBuffer struct {
	events []*outboundEvent
}

func (b *outboundBuffer) add(e *outboundEvent) {
	b.events = append(b.events, e)
}

// take empties the buffer.
func (b *outboundBuffer) take() (events []*outboundEvent) {
	events = b.events
	b.events = nil
	return
}

// prepend puts events back in front of whatever was buffered after they
// were taken.
func (b *outboundBuffer) prepend(events []*outboundEvent) {
	b.events = append(append(make([]*outboundEvent, 0, len(events)+len(b.events)), events...), b.events...)
}

func (b *outboundBuffer) len() int { return len(b.events) }

type payload struct {
	data   []byte
	binary bool
}

// writer hands payloads to the transport of an attempt in order, on a
// goroutine of its own, so that a Send that blocks doesn't hold up the
// socket's queue.
type writer struct {
	t transport.Transport

	mu      sync.Mutex
	queue   []payload
	running bool
	stopped bool
}

func newWriter(t transport.Transport) *writer {
	return &writer{t: t}
}

// write is a no-op on a nil writer.
func (w *writer) write(data []byte, binary bool) {
	if w == nil {
		return
	}
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.queue = append(w.queue, payload{data: data, binary: binary})
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run()
}

func (w *writer) run() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.queue = nil
			w.running = false
			w.mu.Unlock()
			return
		}
		p := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		w.t.Send(p.data, p.binary)
	}
}

// stop makes the writer ignore later writes. Payloads written before are
// still handed to the transport, which discards them if it is closed. It
// is safe to call on a nil writer.
func (w *writer) stop() {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
}
