package httpbase

import (
	"bytes"
	"io"

	"github.com/karagenc/portal-go/internal/sync"
	"github.com/karagenc/portal-go/transport"
)

type payload struct {
	data   []byte
	binary bool
}

// sender POSTs payloads one at a time, in the order they were sent.
type sender struct {
	base *Base

	mu      sync.Mutex
	queue   []payload
	sending bool
}

func (s *sender) send(data []byte, binary bool) {
	s.mu.Lock()
	s.queue = append(s.queue, payload{data: data, binary: binary})
	if s.sending {
		s.mu.Unlock()
		return
	}
	s.sending = true
	s.mu.Unlock()

	go s.run()
}

func (s *sender) run() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.base.ctx.Err() != nil {
			s.queue = nil
			s.sending = false
			s.mu.Unlock()
			return
		}
		p := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if err := s.post(p); err != nil {
			s.base.Finish(transport.ReasonError)
		}
	}
}

// Text payloads are sent as a form-like "data=" body, binary ones as is.
func (s *sender) post(p payload) error {
	var (
		body        io.Reader
		contentType string
	)
	if p.binary {
		body = bytes.NewReader(p.data)
		contentType = "application/octet-stream"
	} else {
		b := make([]byte, 0, len("data=")+len(p.data))
		b = append(b, "data="...)
		body = bytes.NewReader(append(b, p.data...))
		contentType = "text/plain; charset=UTF-8"
	}

	req, err := s.base.NewRequest("POST", s.base.Socket.BuildURL(nil), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.base.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}
