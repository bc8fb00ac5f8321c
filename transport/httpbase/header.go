package httpbase

import (
	"net/http"

	"github.com/karagenc/portal-go/internal/sync"
)

// A concurrent HTTP request header.
type RequestHeader struct {
	mu     sync.Mutex
	header http.Header
}

func NewRequestHeader(header http.Header) *RequestHeader {
	if header == nil {
		header = make(http.Header)
	}
	return &RequestHeader{
		header: header.Clone(),
	}
}

func (r *RequestHeader) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Clone()
}

func (r *RequestHeader) Set(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.header.Set(key, value)
}

func (r *RequestHeader) Get(key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Get(key)
}

// apply copies the header into req, overwriting its values.
func (r *RequestHeader) apply(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.header {
		req.Header[k] = append([]string(nil), v...)
	}
}
