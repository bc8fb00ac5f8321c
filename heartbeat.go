package portal

// heartbeat sends a heartbeat event HeartbeatGrace before the interval
// elapses and expects the server to echo one within HeartbeatGrace. If it
// doesn't, the connection is considered dead.
type heartbeat struct {
	s        *Socket
	send     *timer
	grace    *timer
	listener *eventHandler
}

func (h *heartbeat) start() {
	if !h.s.config.heartbeatEnabled() {
		return
	}
	h.stop()

	var (
		interval = h.s.config.Heartbeat
		grace    = *h.s.config.HeartbeatGrace
	)
	h.send = h.s.afterFunc(interval-grace, func() {
		h.grace = h.s.afterFunc(grace, func() {
			h.s.debug.Log("Heartbeat timed out")
			if t := h.s.activeTransport(); t != nil {
				t.Close()
			}
			h.s.fire(EventClose, []any{ReasonError}, nil)
		})

		h.listener = newInternalHandler(h.start)
		h.listener.once = true
		if c := h.s.channels.getOrCreate(EventHeartbeat); c != nil {
			c.add(h.listener, h.s.invoker(nil))
		}

		h.s.debug.Log("Sending heartbeat")
		h.s.send(&outboundEvent{event: EventHeartbeat})
	})
}

func (h *heartbeat) stop() {
	h.send.stop()
	h.grace.stop()
	h.send, h.grace = nil, nil
	if h.listener != nil {
		if c := h.s.channels.get(EventHeartbeat); c != nil {
			c.removeHandler(h.listener)
		}
		h.listener = nil
	}
}
