// Package transport defines the contract between a portal socket and the
// concrete channels (WebSocket, WebTransport, HTTP streaming, long polling)
// that carry its envelopes.
package transport

type (
	// Transport carries bytes for a single connection attempt.
	//
	// A transport reports everything that happens to it through the Socket
	// handle it was created with. It must eventually call either FireOpen or
	// FireClose after Open, and must call FireClose at most once.
	Transport interface {
		// Open starts establishing the connection. It must not block.
		Open()

		// Send writes a payload. Text payloads are encoded envelopes.
		// Send is only called after the transport fired open, from one
		// goroutine at a time and in order. It may block while the peer
		// applies backpressure, but Close must unblock it, and it can still
		// be called after Close.
		Send(data []byte, binary bool)

		// Close tears the connection down. It must not block and must be
		// safe to call more than once.
		Close()
	}

	// A transport that implements Feedbacker and returns true reports the
	// outcome of Close itself (with the aborted reason). Transports without
	// feedback have the close event fired on their behalf.
	Feedbacker interface {
		Feedback() bool
	}

	// Factory creates a transport for the candidate it was registered under.
	// Returning nil declines the candidate and lets the resolver try the next
	// one. A factory must have no side effects except for calling Unshift.
	Factory func(s Socket) Transport

	// Socket is the per-attempt handle given to factories and transports.
	// Calls made through a handle whose attempt was superseded are ignored.
	Socket interface {
		// ID of the socket. It stays the same across attempts.
		ID() string

		// Name of the candidate this handle was passed to.
		Name() string

		// URL built for the current candidate.
		URL() string

		// BuildURL builds the socket URL for the current candidate with
		// additional query parameters.
		BuildURL(params map[string]any) string

		// Data and SetData access the connection scope. The scope is
		// discarded when the socket is opened again.
		Data(key string) any
		SetData(key string, value any)

		// Unshift puts candidates in front of the remaining ones. This is
		// how facades expand.
		Unshift(candidates ...string)

		FireOpen()
		FireClose(reason Reason)

		// Receive hands an inbound payload to the socket.
		Receive(data []byte, binary bool)
	}
)

// Facade returns a factory that expands into the given candidates instead
// of creating a transport.
func Facade(candidates ...string) Factory {
	return func(s Socket) Transport {
		s.Unshift(candidates...)
		return nil
	}
}

// HasFeedback reports whether t reports the result of Close by itself.
func HasFeedback(t Transport) bool {
	f, ok := t.(Feedbacker)
	return ok && f.Feedback()
}
