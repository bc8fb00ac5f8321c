// Package longpoll implements the long polling transport: inbound payloads
// are read from a series of GET requests, outbound payloads are POSTed.
//
// The first poll tests the connection: the server answers it with an
// empty body and the transport opens. After that, every poll is answered
// with the pending payload; an empty body means the server closed the
// connection.
package longpoll

import (
	"io"

	"github.com/karagenc/portal-go/transport"
	"github.com/karagenc/portal-go/transport/httpbase"
)

type Options struct {
	httpbase.Options

	// Open without waiting for the answer to the first poll. The first
	// poll is still answered with an empty body.
	SkipOpenTest bool
}

type Transport struct {
	*httpbase.Base
	skipOpenTest bool
}

// NewFactory returns the factory of the longpoll transport. If opts is
// nil, default options are used.
func NewFactory(opts *Options) transport.Factory {
	if opts == nil {
		opts = new(Options)
	}
	return func(s transport.Socket) transport.Transport {
		if !httpbase.IsHTTPURL(s.URL()) {
			return nil
		}
		return &Transport{
			Base:         httpbase.NewBase(s, &opts.Options),
			skipOpenTest: opts.SkipOpenTest,
		}
	}
}

func (t *Transport) Open() {
	if t.skipOpenTest {
		t.Socket.FireOpen()
	}
	go t.run()
}

func (t *Transport) run() {
	for count := 1; ; count++ {
		data, binary, err := t.poll(count)
		if err != nil {
			t.Finish(transport.ReasonError)
			return
		}

		if count == 1 {
			if !t.skipOpenTest {
				t.Socket.FireOpen()
			}
			if len(data) == 0 {
				continue
			}
		} else if len(data) == 0 {
			t.Finish(transport.ReasonDone)
			return
		}
		t.Socket.Receive(data, binary)
	}
}

func (t *Transport) poll(count int) (data []byte, binary bool, err error) {
	url := t.Socket.BuildURL(map[string]any{"count": count})
	t.Socket.SetData("url", url)

	req, err := t.NewRequest("GET", url, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := t.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	body, err := httpbase.Body(resp)
	if err != nil {
		return nil, false, err
	}
	defer body.Close()

	data, err = io.ReadAll(body)
	binary = resp.Header.Get("Content-Type") == "application/octet-stream"
	return
}
