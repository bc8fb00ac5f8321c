package portal

import (
	"fmt"

	"github.com/karagenc/portal-go/internal/sync"
)

// replyCallback is either a handler or the name of an event to fire with
// the reply data.
type replyCallback struct {
	handler *eventHandler
	event   string
}

func newReplyCallback(v any) *replyCallback {
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		return &replyCallback{event: v}
	default:
		if !isFunc(v) {
			panic(fmt.Sprintf("portal: reply callback must be a function or an event name, got %T", v))
		}
		return &replyCallback{handler: newEventHandler(v)}
	}
}

type replyRecord struct {
	done *replyCallback
	fail *replyCallback
}

// replyTable correlates outbound events with the replies to them. It is
// keyed by the ID of the outbound event and isn't reset across
// connection attempts.
type replyTable struct {
	records map[uint64]*replyRecord
}

func newReplyTable() *replyTable {
	return &replyTable{records: make(map[uint64]*replyRecord)}
}

func (t *replyTable) add(id uint64, done, fail *replyCallback) {
	t.records[id] = &replyRecord{done: done, fail: fail}
}

// take returns and forgets the record of id, so that a reply is handled
// at most once.
func (t *replyTable) take(id uint64) (*replyRecord, bool) {
	r, ok := t.records[id]
	if ok {
		delete(t.records, id)
	}
	return r, ok
}

func (t *replyTable) len() int { return len(t.records) }

// replyLatch lets only the first of possibly concurrent replies through.
type replyLatch struct {
	mu   sync.Mutex
	sent bool
}

func (l *replyLatch) claim() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sent {
		return false
	}
	l.sent = true
	return true
}
