// Package httpbase holds what the HTTP based transports (event stream,
// streaming and long polling) have in common: request construction,
// gzip handling, the ordered POST sender and the close bookkeeping.
package httpbase

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/karagenc/portal-go/internal/sync"
	"github.com/karagenc/portal-go/transport"
)

type Options struct {
	// Default: http.DefaultClient
	HTTPClient *http.Client

	// Added to every request.
	Header http.Header
}

// Base implements Send, Close and Feedback of an HTTP transport. The
// embedding transport implements Open and reports the end of its
// connection with Finish.
type Base struct {
	Socket transport.Socket
	Client *http.Client
	Header *RequestHeader

	ctx     context.Context
	cancel  context.CancelFunc
	aborted atomic.Bool
	once    sync.Once

	sender *sender
}

func NewBase(s transport.Socket, opts *Options) *Base {
	if opts == nil {
		opts = new(Options)
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Base{
		Socket: s,
		Client: client,
		Header: NewRequestHeader(opts.Header),
		ctx:    ctx,
		cancel: cancel,
	}
	b.sender = &sender{base: b}
	return b
}

// Context is canceled when the transport is closed or finished.
func (b *Base) Context() context.Context { return b.ctx }

func (b *Base) Feedback() bool { return true }

func (b *Base) Send(data []byte, binary bool) {
	b.sender.send(data, binary)
}

// Close aborts the ongoing requests. The reader sees its request fail and
// finishes with the aborted reason.
func (b *Base) Close() {
	b.aborted.Store(true)
	b.cancel()
}

// Finish reports the end of the connection. Only the first call has an
// effect. If Close was called, the reason is always aborted.
func (b *Base) Finish(reason transport.Reason) {
	b.once.Do(func() {
		if b.aborted.Load() {
			reason = transport.ReasonAborted
		}
		b.cancel()
		b.Socket.FireClose(reason)
	})
}

// FinishWithError finishes with done if err is nil or io.EOF, with error
// otherwise.
func (b *Base) FinishWithError(err error) {
	if err == nil || errors.Is(err, io.EOF) {
		b.Finish(transport.ReasonDone)
		return
	}
	b.Finish(transport.ReasonError)
}

func (b *Base) NewRequest(method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(b.ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Encoding", "gzip")
	b.Header.apply(req)
	return req, nil
}

type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpbase: unexpected HTTP status %d", e.StatusCode)
}

// Do sends req and checks the status of the response.
func (b *Base) Do(req *http.Request) (*http.Response, error) {
	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// Body returns the body of resp, decompressing it if needed. Closing the
// returned reader closes the body of resp.
func Body(resp *http.Response) (io.ReadCloser, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		r, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		return &gzipBody{Reader: r, body: resp.Body}, nil
	default:
		return resp.Body, nil
	}
}

type gzipBody struct {
	*gzip.Reader
	body io.Closer
}

func (g *gzipBody) Close() error {
	g.Reader.Close()
	return g.body.Close()
}

// IsHTTPURL reports whether rawURL can be requested with an HTTP client.
func IsHTTPURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
