// Package websocket implements the ws transport on top of nhooyr.io/websocket.
package websocket

import (
	"context"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/karagenc/portal-go/internal/sync"
	"github.com/karagenc/portal-go/transport"
	"nhooyr.io/websocket"
)

type Options struct {
	// Passed to websocket.Dial.
	DialOptions *websocket.DialOptions

	// Maximum size of an inbound message in bytes.
	// Default: 32768 (the default of nhooyr.io/websocket)
	ReadLimit int64

	// A write that doesn't complete within this duration fails the
	// connection.
	// Default: 10 seconds
	WriteTimeout time.Duration
}

const DefaultWriteTimeout = 10 * time.Second

type Transport struct {
	socket       transport.Socket
	dialOptions  *websocket.DialOptions
	readLimit    int64
	writeTimeout time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	aborted atomic.Bool
	once    sync.Once

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewFactory returns the factory of the ws transport. If opts is nil,
// default options are used.
func NewFactory(opts *Options) transport.Factory {
	if opts == nil {
		opts = new(Options)
	}
	return func(s transport.Socket) transport.Transport {
		if _, ok := websocketURL(s.URL()); !ok {
			return nil
		}
		writeTimeout := opts.WriteTimeout
		if writeTimeout <= 0 {
			writeTimeout = DefaultWriteTimeout
		}
		ctx, cancel := context.WithCancel(context.Background())
		return &Transport{
			socket:       s,
			dialOptions:  opts.DialOptions,
			readLimit:    opts.ReadLimit,
			writeTimeout: writeTimeout,
			ctx:          ctx,
			cancel:       cancel,
		}
	}
}

// websocketURL converts an http(s) URL to a ws(s) one.
func websocketURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", false
	}
	return u.String(), true
}

func (t *Transport) Feedback() bool { return true }

func (t *Transport) Open() {
	go t.run()
}

func (t *Transport) run() {
	u, _ := websocketURL(t.socket.URL())
	conn, _, err := websocket.Dial(t.ctx, u, t.dialOptions)
	if err != nil {
		t.finish(err)
		return
	}
	if t.readLimit > 0 {
		conn.SetReadLimit(t.readLimit)
	}

	t.mu.Lock()
	t.conn = conn
	aborted := t.aborted.Load()
	t.mu.Unlock()
	if aborted {
		conn.Close(websocket.StatusNormalClosure, "")
		t.finish(nil)
		return
	}

	t.socket.FireOpen()

	for {
		mt, data, err := conn.Read(context.Background())
		if err != nil {
			t.finish(err)
			return
		}
		t.socket.Receive(data, mt == websocket.MessageBinary)
	}
}

func (t *Transport) Send(data []byte, binary bool) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return
	}

	mt := websocket.MessageText
	if binary {
		mt = websocket.MessageBinary
	}

	ctx, cancel := context.WithTimeout(t.ctx, t.writeTimeout)
	defer cancel()

	// Write must not be called concurrently.
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := conn.Write(ctx, mt, data); err != nil {
		// The reader sees the connection fail and finishes.
		conn.Close(websocket.StatusInternalError, "write failed")
	}
}

// Close starts the closing handshake. The close is reported (as aborted)
// once the connection is gone.
func (t *Transport) Close() {
	t.mu.Lock()
	t.aborted.Store(true)
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		t.cancel()
		return
	}
	go conn.Close(websocket.StatusNormalClosure, "")
}

func (t *Transport) finish(err error) {
	t.once.Do(func() {
		defer t.cancel()

		var reason transport.Reason
		switch {
		case t.aborted.Load():
			reason = transport.ReasonAborted
		case isNormalClosure(err):
			reason = transport.ReasonDone
		default:
			reason = transport.ReasonError
		}
		t.socket.FireClose(reason)
	})
}

func isNormalClosure(err error) bool {
	if err == nil {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}

// DialOptionsWithHeader is a shorthand for options that only set a
// request header.
func DialOptionsWithHeader(header http.Header) *websocket.DialOptions {
	return &websocket.DialOptions{HTTPHeader: header}
}
