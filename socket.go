package portal

import (
	"strconv"
	"time"

	"github.com/karagenc/portal-go/internal/serial"
	"github.com/karagenc/portal-go/internal/sync"
	"github.com/karagenc/portal-go/transport"
	"github.com/mitchellh/mapstructure"
	"github.com/tomruk/yeast"
)

// Socket is a client socket that keeps a logical connection to a server
// alive across transports and connection attempts.
//
// Every state change runs as a task of a serial queue: handlers never run
// concurrently with each other or with the state machine, and calls made
// from inside a handler take effect after the handler returns.
type Socket struct {
	id     string
	url    string
	config *Config
	params map[string]any
	codec  Codec
	debug  Debugger

	yeaster *yeast.Yeaster
	yeastMu sync.Mutex

	queue serial.Queue

	// Guarded by mu. Written only by queued tasks.
	mu          sync.RWMutex
	state       State
	scope       map[string]any
	lastEventID string

	// Accessed only by queued tasks.
	channels       *channelRegistry
	buffer         outboundBuffer
	replies        *replyTable
	nextEventID    uint64
	attempt        *attempt
	connectTimer   *timer
	heartbeat      heartbeat
	reconnectTimer *timer
	reconnectDelay time.Duration
	reconnectTry   int
	skipReconnect  bool
	onTerminate    func()
}

// NewSocket creates a socket for url. The socket doesn't connect until
// Open is called.
func NewSocket(url string, config *Config) *Socket {
	config = config.withDefaults()

	s := &Socket{
		id:          config.IDGenerator(),
		url:         url,
		config:      config,
		params:      paramsMap(config.Params),
		codec:       config.Codec,
		yeaster:     yeast.New(),
		scope:       make(map[string]any),
		lastEventID: config.LastEventID,
		channels:    newChannelRegistry(),
		replies:     newReplyTable(),
	}
	s.heartbeat.s = s
	s.debug = config.Debugger.WithDynamicContext("[portal] Socket "+s.id+" ("+truncateURL(url)+")", func() string {
		return s.State().String()
	})

	s.channels.getOrCreate(aggregateEvent)
	s.channels.getOrCreate(EventReply).add(newInternalHandler(s.onReply), s.invoker(nil))
	return s
}

// ID of the socket. It doesn't change across connection attempts.
func (s *Socket) ID() string { return s.id }

func (s *Socket) URL() string { return s.url }

func (s *Socket) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Socket) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// LastEventID returns the ID of the last inbound event.
func (s *Socket) LastEventID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastEventID
}

// Data returns a value of the connection scope. The scope holds (at
// least) "transport", "url" and "candidates" for the current attempt, and
// whatever transports stored. It is discarded when a new attempt begins.
func (s *Socket) Data(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope[key]
}

func (s *Socket) SetData(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope[key] = value
}

// Open starts a new connection attempt. It has no effect while the socket
// is connecting or opened. Opening a socket that was closed with Close
// enables reconnection again.
func (s *Socket) Open() {
	s.queue.Do(func() {
		s.skipReconnect = false
		s.open()
	})
}

func (s *Socket) open() {
	switch s.state {
	case StateConnecting, StateOpened:
		s.debug.Log("Already open")
		return
	}
	s.debug.Log("Opening")

	s.reconnectTimer.stop()
	s.reconnectTimer = nil

	a := newAttempt(s)
	s.attempt = a
	s.mu.Lock()
	s.scope = a.scope
	s.mu.Unlock()

	s.channels.unlockAll()
	s.setState(StatePreparing)
	s.config.Prepare(a.connect, a.cancel, s.config.copy())
}

func (s *Socket) connect(a *attempt) {
	t := s.resolve(a)
	if s.reconnectTry > 0 {
		s.reconnectTry++
	}
	if t == nil {
		s.debug.Log("Connect", ErrNoTransport)
		s.fire(EventClose, []any{ReasonNoTransport}, nil)
		return
	}
	a.transport = t
	a.writer = newWriter(t)
	s.fire(EventConnecting, nil, nil)
	t.Open()
}

func (s *Socket) activeTransport() transport.Transport {
	if s.attempt == nil {
		return nil
	}
	return s.attempt.transport
}

func (s *Socket) activeWriter() *writer {
	if s.attempt == nil {
		return nil
	}
	return s.attempt.writer
}

// Send sends an event, buffering it until the socket is opened.
//
// reply can hold up to 2 callbacks: the first one is called with the
// reply of the server, the second one with the exception the server
// replied with. A callback is either a function, whose arguments are bound
// the same way as those of handlers, or the name of an event to fire with
// the reply.
//
// If data is a []byte, it is sent as a binary message. Binary messages
// don't have envelopes, so reply callbacks are ignored.
func (s *Socket) Send(event string, data any, reply ...any) {
	if len(reply) > 2 {
		panic("portal: Send accepts at most 2 reply callbacks")
	}
	e := &outboundEvent{event: event, data: data}
	if len(reply) > 0 {
		e.done = newReplyCallback(reply[0])
	}
	if len(reply) > 1 {
		e.fail = newReplyCallback(reply[1])
	}
	s.queue.Do(func() { s.send(e) })
}

func (s *Socket) send(e *outboundEvent) {
	if s.state != StateOpened {
		s.buffer.add(e)
		return
	}
	w := s.activeWriter()

	if b, ok := e.binary(); ok {
		w.write(b, true)
		return
	}

	s.nextEventID++
	id := s.nextEventID
	envelope := &Envelope{
		ID:     EventID(strconv.FormatUint(id, 10)),
		Socket: s.id,
		Type:   e.event,
		Data:   e.data,
		Reply:  e.done != nil || e.fail != nil,
	}
	data, err := s.codec.Encode(envelope)
	if err != nil {
		s.debug.Log("Dropping event "+e.event, err)
		return
	}
	if envelope.Reply {
		s.replies.add(id, e.done, e.fail)
	}
	w.write(data, false)
}

// flush sends the buffered events in the order they were buffered.
func (s *Socket) flush() {
	events := s.buffer.take()
	for i, e := range events {
		if s.state != StateOpened {
			s.buffer.prepend(events[i:])
			return
		}
		s.send(e)
	}
}

// Close closes the socket and disables reconnection. Calling Close more
// than once has no further effect.
func (s *Socket) Close() {
	s.queue.Do(s.close)
}

func (s *Socket) close() {
	s.debug.Log("Closing")
	s.skipReconnect = true
	s.reconnectTimer.stop()
	s.reconnectTimer = nil

	if s.state == StateWaiting {
		s.setState(StateClosed)
		s.terminate()
	}

	t := s.activeTransport()
	if t == nil || !transport.HasFeedback(t) {
		s.fire(EventClose, []any{ReasonAborted}, nil)
	}
	if t != nil {
		t.Close()
	}
}

// Fire dispatches an event to the local handlers without sending anything.
// Firing a lifecycle event drives the state machine the same way a
// transport does.
func (s *Socket) Fire(event string, args ...any) {
	if isReservedEvent(event) {
		panic("portal: Fire: reserved event " + event)
	}
	s.queue.Do(func() { s.fire(event, args, nil) })
}

// fire runs the entry actions of lifecycle events, then the handlers.
// Reconnection is scheduled after the close handlers ran.
func (s *Socket) fire(event string, args []any, reply Reply) (result any, err error) {
	c := s.channels.get(event)
	if c == nil || !c.ready() {
		return nil, nil
	}

	switch event {
	case EventConnecting:
		s.onConnecting()
	case EventOpen:
		s.onOpen()
	case EventClose:
		s.onClose(args)
	case EventWaiting:
		s.setState(StateWaiting)
	}

	result, err = c.fire(args, s.invoker(reply))

	if event == EventClose {
		s.scheduleReconnect()
	}
	return
}

func (s *Socket) invoker(reply Reply) invokeFunc {
	return func(h *eventHandler, args []any) (any, error) {
		result, err := h.call(s.codec.Unmarshal, args, reply)
		if err != nil {
			s.debug.Log("Handler error", err)
		}
		return result, err
	}
}

func (s *Socket) onConnecting() {
	s.setState(StateConnecting)
	if s.config.Timeout > 0 {
		s.connectTimer = s.afterFunc(s.config.Timeout, func() {
			s.debug.Log("Connect timeout")
			if t := s.activeTransport(); t != nil {
				t.Close()
			}
			s.fire(EventClose, []any{ReasonTimeout}, nil)
		})
	}
}

func (s *Socket) onOpen() {
	s.setState(StateOpened)
	s.connectTimer.stop()
	s.connectTimer = nil
	s.channels.get(EventConnecting).lock()

	s.reconnectDelay = 0
	s.reconnectTry = 0

	s.heartbeat.start()
	s.flush()
}

func (s *Socket) onClose(args []any) {
	if len(args) > 0 {
		s.debug.Log("Closed", args[0])
	}
	s.setState(StateClosed)
	s.connectTimer.stop()
	s.connectTimer = nil
	s.heartbeat.stop()
	s.activeWriter().stop()
	s.channels.lockBelow(orderClose)
}

func (s *Socket) scheduleReconnect() {
	if s.config.NoReconnection || s.skipReconnect {
		s.terminate()
		return
	}
	if s.reconnectTry == 0 {
		s.reconnectTry = 1
	}

	delay, ok := s.config.Reconnect(s.reconnectDelay, s.reconnectTry)
	if !ok {
		s.debug.Log("Reconnection policy gave up at attempt", s.reconnectTry)
		s.terminate()
		return
	}
	s.reconnectDelay = delay
	s.reconnectTimer = s.afterFunc(delay, s.open)
	s.fire(EventWaiting, []any{delay, s.reconnectTry}, nil)
}

// terminate is called once the socket closed for good.
func (s *Socket) terminate() {
	if s.onTerminate != nil {
		s.onTerminate()
	}
}

func (s *Socket) receive(a *attempt, data []byte, binary bool) {
	if binary {
		s.fire(EventMessage, []any{data}, nil)
		s.fire(aggregateEvent, []any{EventMessage, data}, nil)
		return
	}

	envelopes, err := s.codec.Decode(data)
	if err != nil {
		s.debug.Log("Invalid inbound data", err)
		if a.transport != nil {
			a.transport.Close()
		}
		s.fire(EventClose, []any{ReasonError}, nil)
		return
	}
	for _, e := range envelopes {
		s.dispatch(e)
	}
}

func (s *Socket) dispatch(e *Envelope) {
	if e.ID != "" {
		s.mu.Lock()
		s.lastEventID = string(e.ID)
		s.mu.Unlock()
	}
	if isLifecycleEvent(e.Type) || isReservedEvent(e.Type) {
		s.debug.Log("Ignoring inbound reserved event", e.Type)
		return
	}

	var reply Reply
	if e.Reply {
		reply = s.newReply(e.ID)
	}
	result, err := s.fire(e.Type, []any{e.Data}, reply)
	s.fire(aggregateEvent, []any{e.Type, e.Data}, nil)

	if reply != nil && (result != nil || err != nil) {
		reply(result, err)
	}
}

func (s *Socket) newReply(id EventID) Reply {
	latch := new(replyLatch)
	return func(result any, err error) {
		if !latch.claim() {
			return
		}
		payload := &replyPayload{ID: id, Data: result}
		if err != nil {
			payload.Data = err.Error()
			payload.Exception = true
		}
		s.queue.Do(func() {
			s.send(&outboundEvent{event: EventReply, data: payload})
		})
	}
}

// onReply handles the replies to the events sent with reply callbacks.
func (s *Socket) onReply(data any) {
	var r replyPayload
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &r,
	})
	if err != nil {
		s.debug.Log("Reply", wrapInternalError(err))
		return
	}
	if err := decoder.Decode(data); err != nil {
		s.debug.Log("Reply", ErrInvalidReply, err)
		return
	}

	id, err := strconv.ParseUint(string(r.ID), 10, 64)
	if err != nil {
		s.debug.Log("Reply", ErrInvalidReply, err)
		return
	}
	record, ok := s.replies.take(id)
	if !ok {
		s.debug.Log("Reply", ErrInvalidReply, "unknown ID "+string(r.ID))
		return
	}

	callback := record.done
	if r.Exception {
		callback = record.fail
	}
	switch {
	case callback == nil:
	case callback.handler != nil:
		s.invoker(nil)(callback.handler, []any{r.Data})
	case isLifecycleEvent(callback.event) || isReservedEvent(callback.event):
		s.debug.Log("Reply callback can't fire lifecycle event", callback.event)
	default:
		s.fire(callback.event, []any{r.Data}, nil)
		s.fire(aggregateEvent, []any{callback.event, r.Data}, nil)
	}
}
