package transport

// Reason tells why a connection attempt ended.
type Reason string

const (
	// The prepare hook canceled the attempt.
	ReasonCanceled Reason = "canceled"
	// Every candidate declined.
	ReasonNoTransport Reason = "notransport"
	// The attempt didn't open within the connect timeout.
	ReasonTimeout Reason = "timeout"
	ReasonError   Reason = "error"
	// The server ended the connection normally.
	ReasonDone Reason = "done"
	// The connection was closed locally.
	ReasonAborted Reason = "aborted"
)
