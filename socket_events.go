package portal

import (
	"reflect"
	"time"
)

// On adds a handler for event. handler must be a function. Its arguments
// are bound to the arguments of the event:
//
//   - an argument assignable to the parameter is passed as is
//   - raw JSON is unmarshalled into the parameter with the codec
//   - a map is decoded into a struct parameter (by `json` tags)
//   - missing arguments are zero values, surplus ones are dropped
//   - a parameter of type Reply receives the function that answers the
//     event, if the server asked for a reply
//
// A handler may return (T), (error) or (T, error). For an event that asked
// for a reply, the first result or error returned by its handlers is sent
// back. A panic inside a handler is recovered and replied as an exception.
//
// Handlers of connecting, open, close and waiting added after the event
// fired are called immediately with the arguments it fired with.
//
// Handlers can't be added to a new event while message is disabled (after
// the socket closed, until it is opened again).
//
// To be able to remove the handler with Off, pass a pointer to it.
func (s *Socket) On(event string, handler any) {
	checkEvent("On", event)
	s.addHandler(event, handler, false)
}

// Once is like On but the handler is removed after its first call.
func (s *Socket) Once(event string, handler any) {
	checkEvent("Once", event)
	s.addHandler(event, handler, true)
}

func checkEvent(method, event string) {
	if isReservedEvent(event) {
		panic("portal: " + method + ": reserved event " + event)
	}
}

func (s *Socket) addHandler(event string, handler any, once bool) {
	h := newEventHandler(handler)
	h.once = once
	s.queue.Do(func() {
		c := s.channels.getOrCreate(event)
		if c == nil {
			s.debug.Log("Ignoring handler for disabled event", event)
			return
		}
		c.add(h, s.invoker(nil))
	})
}

// Off removes the given handlers of event. A handler is identified by the
// pointer it was added with; Off panics if it is given a function instead.
// If no handler is given, every handler of event is removed.
func (s *Socket) Off(event string, handler ...any) {
	checkEvent("Off", event)
	s.off(event, handler)
}

func (s *Socket) off(event string, handler []any) {
	ids := make([]uintptr, len(handler))
	for i, h := range handler {
		ids[i] = handlerID(h)
	}

	s.queue.Do(func() {
		c := s.channels.get(event)
		if c == nil {
			return
		}
		if len(ids) == 0 {
			c.removeAll()
			return
		}
		for _, id := range ids {
			c.remove(id)
		}
	})
}

// OnAny adds a handler that is called for every inbound event (binary
// messages included), and for every reply delivered to an event name.
// handler is a func(event string, data any) or a pointer to one.
func (s *Socket) OnAny(handler any) {
	checkAnyHandler(handler)
	s.addHandler(aggregateEvent, handler, false)
}

// OffAny removes the given handlers of OnAny, or all of them if none is
// given. Like Off, it takes the pointers the handlers were added with.
func (s *Socket) OffAny(handler ...any) {
	for _, h := range handler {
		checkAnyHandler(h)
	}
	s.off(aggregateEvent, handler)
}

var anyHandlerType = reflect.TypeOf(func(string, any) {})

func checkAnyHandler(handler any) {
	rv, _ := funcValue(handler)
	if rv.Type() != anyHandlerType {
		panic("portal: OnAny: handler must be a func(event string, data any), got " + rv.Type().String())
	}
}

func (s *Socket) OnConnecting(handler func()) { s.On(EventConnecting, handler) }

func (s *Socket) OnOpen(handler func()) { s.On(EventOpen, handler) }

func (s *Socket) OnClose(handler func(reason Reason)) { s.On(EventClose, handler) }

// The handler is called with the delay before the next attempt and the
// number of that attempt, starting from 1.
func (s *Socket) OnWaiting(handler func(delay time.Duration, attempt int)) {
	s.On(EventWaiting, handler)
}
