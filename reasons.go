package portal

import "github.com/karagenc/portal-go/transport"

// Reason is passed to close handlers.
type Reason = transport.Reason

const (
	ReasonCanceled    = transport.ReasonCanceled
	ReasonNoTransport = transport.ReasonNoTransport
	ReasonTimeout     = transport.ReasonTimeout
	ReasonError       = transport.ReasonError
	ReasonDone        = transport.ReasonDone
	ReasonAborted     = transport.ReasonAborted
)
