// Package webtransport implements the webtransport transport: envelopes
// are framed on a single bidirectional stream of a WebTransport session.
package webtransport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/karagenc/portal-go/internal/sync"
	"github.com/karagenc/portal-go/transport"
	"github.com/quic-go/webtransport-go"
)

type Options struct {
	// Required. Without a dialer, the factory declines every candidate.
	Dialer *webtransport.Dialer

	// Sent with the session request.
	Header http.Header

	// Maximum size of an inbound frame in bytes.
	// Default: 0 (no limit)
	ReadLimit int64

	// A write that doesn't complete within this duration fails the
	// session.
	// Default: 10 seconds
	WriteTimeout time.Duration
}

const DefaultWriteTimeout = 10 * time.Second

type Transport struct {
	socket       transport.Socket
	dialer       *webtransport.Dialer
	header       http.Header
	readLimit    int64
	writeTimeout time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	aborted atomic.Bool
	once    sync.Once

	mu      sync.Mutex
	session *webtransport.Session
	stream  webtransport.Stream
	sendMu  sync.Mutex
}

// NewFactory returns the factory of the webtransport transport. It only
// accepts https URLs.
func NewFactory(opts *Options) transport.Factory {
	if opts == nil {
		opts = new(Options)
	}
	return func(s transport.Socket) transport.Transport {
		if opts.Dialer == nil {
			return nil
		}
		u, err := url.Parse(s.URL())
		if err != nil || u.Scheme != "https" {
			return nil
		}
		writeTimeout := opts.WriteTimeout
		if writeTimeout <= 0 {
			writeTimeout = DefaultWriteTimeout
		}
		ctx, cancel := context.WithCancel(context.Background())
		return &Transport{
			socket:       s,
			dialer:       opts.Dialer,
			header:       opts.Header.Clone(),
			readLimit:    opts.ReadLimit,
			writeTimeout: writeTimeout,
			ctx:          ctx,
			cancel:       cancel,
		}
	}
}

func (t *Transport) Feedback() bool { return true }

func (t *Transport) Open() {
	go t.run()
}

func (t *Transport) run() {
	_, session, err := t.dialer.Dial(t.ctx, t.socket.URL(), t.header)
	if err != nil {
		t.finish(err)
		return
	}
	stream, err := session.OpenStreamSync(t.ctx)
	if err != nil {
		session.CloseWithError(0, "")
		t.finish(err)
		return
	}

	t.mu.Lock()
	t.session = session
	t.stream = stream
	aborted := t.aborted.Load()
	t.mu.Unlock()
	if aborted {
		t.closeSession()
		t.finish(nil)
		return
	}

	t.socket.FireOpen()

	for {
		data, binary, err := readFrame(stream, t.readLimit)
		if err != nil {
			t.closeSession()
			t.finish(err)
			return
		}
		t.socket.Receive(data, binary)
	}
}

func (t *Transport) Send(data []byte, binary bool) {
	t.mu.Lock()
	stream := t.stream
	t.mu.Unlock()
	if stream == nil {
		return
	}

	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	stream.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	if err := writeFrame(stream, data, binary); err != nil {
		// The reader sees the stream fail and finishes.
		t.closeSession()
	}
}

func (t *Transport) Close() {
	t.aborted.Store(true)
	t.cancel()
	t.closeSession()
}

func (t *Transport) closeSession() {
	t.mu.Lock()
	session := t.session
	t.mu.Unlock()
	if session != nil {
		session.CloseWithError(0, "")
	}
}

func (t *Transport) finish(err error) {
	t.once.Do(func() {
		defer t.cancel()

		var reason transport.Reason
		switch {
		case t.aborted.Load():
			reason = transport.ReasonAborted
		case err == nil || errors.Is(err, io.EOF):
			reason = transport.ReasonDone
		default:
			var sessionErr *webtransport.SessionError
			if errors.As(err, &sessionErr) && sessionErr.ErrorCode == 0 && sessionErr.Remote {
				reason = transport.ReasonDone
			} else {
				reason = transport.ReasonError
			}
		}
		t.socket.FireClose(reason)
	})
}
