// Package stream implements the HTTP streaming transports: sse, which
// reads a text/event-stream response, and stream, which reads a
// long-lived response in the same format without requiring the event
// stream content type. Outbound payloads are POSTed.
package stream

import (
	"mime"

	"github.com/karagenc/portal-go/transport"
	"github.com/karagenc/portal-go/transport/httpbase"
)

type Options = httpbase.Options

type Transport struct {
	*httpbase.Base
	sse bool
}

// NewSSEFactory returns the factory of the sse transport. If opts is nil,
// default options are used.
func NewSSEFactory(opts *Options) transport.Factory {
	return newFactory(opts, true)
}

// NewFactory returns the factory of the stream transport. If opts is nil,
// default options are used.
func NewFactory(opts *Options) transport.Factory {
	return newFactory(opts, false)
}

func newFactory(opts *Options, sse bool) transport.Factory {
	return func(s transport.Socket) transport.Transport {
		if !httpbase.IsHTTPURL(s.URL()) {
			return nil
		}
		return &Transport{
			Base: httpbase.NewBase(s, opts),
			sse:  sse,
		}
	}
}

func (t *Transport) Open() {
	go t.run()
}

func (t *Transport) run() {
	req, err := t.NewRequest("GET", t.Socket.URL(), nil)
	if err != nil {
		t.Finish(transport.ReasonError)
		return
	}
	if t.sse {
		req.Header.Set("Accept", "text/event-stream")
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := t.Do(req)
	if err != nil {
		t.Finish(transport.ReasonError)
		return
	}
	defer resp.Body.Close()

	if t.sse {
		mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
		if mediaType != "text/event-stream" {
			t.Finish(transport.ReasonError)
			return
		}
	}

	body, err := httpbase.Body(resp)
	if err != nil {
		t.Finish(transport.ReasonError)
		return
	}
	defer body.Close()

	t.Socket.FireOpen()

	var (
		p   parser
		buf = make([]byte, 32*1024)
	)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			for _, msg := range p.feed(buf[:n]) {
				t.Socket.Receive([]byte(msg), false)
			}
		}
		if err != nil {
			t.FinishWithError(err)
			return
		}
	}
}
