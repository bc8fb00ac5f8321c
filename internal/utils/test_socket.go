package utils

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/karagenc/portal-go/internal/sync"
	"github.com/karagenc/portal-go/transport"
)

type TestMessage struct {
	Data   []byte
	Binary bool
}

// TestSocket is a transport.Socket that records what a transport reports.
type TestSocket struct {
	BaseURL   string
	Transport string

	mu   sync.Mutex
	data map[string]any

	Unshifted []string

	Opened   chan struct{}
	Closed   chan transport.Reason
	Received chan TestMessage
}

func NewTestSocket(baseURL, transportName string) *TestSocket {
	return &TestSocket{
		BaseURL:   baseURL,
		Transport: transportName,
		data:      make(map[string]any),
		Opened:    make(chan struct{}, 1),
		Closed:    make(chan transport.Reason, 1),
		Received:  make(chan TestMessage, 100),
	}
}

func (s *TestSocket) ID() string   { return "test" }
func (s *TestSocket) Name() string { return s.Transport }
func (s *TestSocket) URL() string  { return s.BuildURL(nil) }

func (s *TestSocket) BuildURL(params map[string]any) string {
	q := url.Values{}
	q.Set("id", s.ID())
	q.Set("transport", s.Transport)
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Set(k, fmt.Sprint(params[k]))
	}
	sep := "?"
	if strings.Contains(s.BaseURL, "?") {
		sep = "&"
	}
	return s.BaseURL + sep + q.Encode()
}

func (s *TestSocket) Data(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}

func (s *TestSocket) SetData(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *TestSocket) Unshift(candidates ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Unshifted = append(candidates, s.Unshifted...)
}

func (s *TestSocket) FireOpen() {
	select {
	case s.Opened <- struct{}{}:
	default:
		panic("TestSocket: FireOpen was called more than once")
	}
}

func (s *TestSocket) FireClose(reason transport.Reason) {
	select {
	case s.Closed <- reason:
	default:
		panic("TestSocket: FireClose was called more than once")
	}
}

func (s *TestSocket) Receive(data []byte, binary bool) {
	s.Received <- TestMessage{Data: append([]byte(nil), data...), Binary: binary}
}
