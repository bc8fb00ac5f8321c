package portal

import (
	"github.com/karagenc/portal-go/transport"
	"github.com/karagenc/portal-go/transport/longpoll"
	"github.com/karagenc/portal-go/transport/stream"
	"github.com/karagenc/portal-go/transport/websocket"
	"github.com/karagenc/portal-go/transport/webtransport"
)

const (
	TransportWebSocket    = "ws"
	TransportWebTransport = "webtransport"
	TransportSSE          = "sse"
	TransportStream       = "stream"
	TransportLongPoll     = "longpoll"

	// Facade expanding into sse, stream and longpoll.
	TransportHTTP = "http"
)

// DefaultFactories returns the built-in transports with their default
// options. The WebTransport factory declines every candidate unless it is
// replaced by one with a dialer.
func DefaultFactories() map[string]transport.Factory {
	return map[string]transport.Factory{
		TransportWebSocket:    websocket.NewFactory(nil),
		TransportWebTransport: webtransport.NewFactory(nil),
		TransportSSE:          stream.NewSSEFactory(nil),
		TransportStream:       stream.NewFactory(nil),
		TransportLongPoll:     longpoll.NewFactory(nil),
		TransportHTTP:         transport.Facade(TransportSSE, TransportStream, TransportLongPoll),
	}
}
