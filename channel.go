package portal

const (
	EventConnecting = "connecting"
	EventOpen       = "open"
	EventMessage    = "message"
	EventClose      = "close"
	EventWaiting    = "waiting"

	// Sent to answer an inbound event that asked for a reply, and
	// received as the answer to an outbound one.
	EventReply = "reply"
	// Sent and expected back by the heartbeat monitor.
	EventHeartbeat = "heartbeat"

	// Every inbound event is mirrored here as (event, data).
	aggregateEvent = "_message"
)

// Lifecycle events in firing order. The index of an event is its order.
var lifecycleEvents = []string{EventConnecting, EventOpen, EventMessage, EventClose, EventWaiting}

var (
	orderMessage = indexOf(lifecycleEvents, EventMessage)
	orderClose   = indexOf(lifecycleEvents, EventClose)
)

func indexOf(s []string, v string) int {
	for i, e := range s {
		if e == v {
			return i
		}
	}
	return -1
}

// Reserved events can't be subscribed to with On, nor received.
func isReservedEvent(event string) bool {
	return event == aggregateEvent
}

func isLifecycleEvent(event string) bool {
	return event != EventMessage && indexOf(lifecycleEvents, event) >= 0
}

type invokeFunc func(h *eventHandler, args []any) (any, error)

// channel is an ordered list of handlers plus the lock/memory state of
// an event.
//
// Handlers added while the channel is firing run in the same dispatch.
// Handlers removed while it is firing don't run if they weren't reached.
type channel struct {
	handlers []*eventHandler

	order int
	// A channel with memory fires at most once until it's unlocked, and
	// replays its arguments to handlers added after it fired.
	memory bool
	locked bool
	fired  bool
	args   []any
	firing bool
}

func newChannel(order int, memory bool) *channel {
	return &channel{order: order, memory: memory}
}

// ready reports whether fire would run the handlers.
func (c *channel) ready() bool {
	return !c.locked && !c.firing && !(c.memory && c.fired)
}

func (c *channel) fire(args []any, invoke invokeFunc) (result any, err error) {
	if !c.ready() {
		return nil, nil
	}
	if c.memory {
		c.fired = true
		c.args = args
	}
	return c.dispatch(0, args, invoke)
}

func (c *channel) dispatch(start int, args []any, invoke invokeFunc) (result any, err error) {
	c.firing = true
	defer func() {
		c.firing = false
		c.compact()
	}()

	for i := start; i < len(c.handlers); i++ {
		h := c.handlers[i]
		if h.removed {
			continue
		}
		if h.once {
			h.removed = true
		}
		res, e := invoke(h, args)
		if result == nil && err == nil {
			if e != nil {
				err = e
			} else {
				result = res
			}
		}
	}
	return
}

func (c *channel) add(h *eventHandler, invoke invokeFunc) {
	c.handlers = append(c.handlers, h)
	if !c.firing && !c.locked && c.memory && c.fired {
		c.dispatch(len(c.handlers)-1, c.args, invoke)
	}
}

// remove drops every handler with the given id.
func (c *channel) remove(id uintptr) {
	for _, h := range c.handlers {
		if id != 0 && h.id == id && !h.internal {
			h.removed = true
		}
	}
	c.compact()
}

func (c *channel) removeHandler(h *eventHandler) {
	h.removed = true
	c.compact()
}

// removeAll drops every handler except the internal ones.
func (c *channel) removeAll() {
	for _, h := range c.handlers {
		if !h.internal {
			h.removed = true
		}
	}
	c.compact()
}

func (c *channel) compact() {
	if c.firing {
		return
	}
	handlers := make([]*eventHandler, 0, len(c.handlers))
	for _, h := range c.handlers {
		if !h.removed {
			handlers = append(handlers, h)
		}
	}
	c.handlers = handlers
}

func (c *channel) lock() { c.locked = true }

// unlock also forgets what a memory channel remembered.
func (c *channel) unlock() {
	c.locked = false
	c.fired = false
	c.args = nil
}

type channelRegistry struct {
	channels map[string]*channel
}

func newChannelRegistry() *channelRegistry {
	r := &channelRegistry{channels: make(map[string]*channel)}
	for order, event := range lifecycleEvents {
		r.channels[event] = newChannel(order, event != EventMessage)
	}
	return r
}

func (r *channelRegistry) get(event string) *channel { return r.channels[event] }

// getOrCreate creates custom channels with the order of message. Once
// message is locked, no channel can be created and nil is returned.
func (r *channelRegistry) getOrCreate(event string) *channel {
	if c, ok := r.channels[event]; ok {
		return c
	}
	if r.channels[EventMessage].locked {
		return nil
	}
	c := newChannel(orderMessage, false)
	r.channels[event] = c
	return c
}

// lockBelow locks every channel whose order is lower than order.
func (r *channelRegistry) lockBelow(order int) {
	for _, c := range r.channels {
		if c.order < order {
			c.lock()
		}
	}
}

func (r *channelRegistry) unlockAll() {
	for _, c := range r.channels {
		c.unlock()
	}
}
