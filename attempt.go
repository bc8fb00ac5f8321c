package portal

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/karagenc/portal-go/transport"
)

// attempt is a single connection attempt. It is the transport.Socket
// handle given to factories and transports; calls made through it after
// the socket moved on to another attempt are ignored.
type attempt struct {
	s     *Socket
	scope map[string]any

	// Accessed only by queued tasks.
	candidates []string
	expanded   mapset.Set[string]
	transport  transport.Transport
	writer     *writer
	settled    bool

	// The candidate being resolved. It doesn't change once a transport
	// was created.
	name string
}

var _ transport.Socket = (*attempt)(nil)

func newAttempt(s *Socket) *attempt {
	a := &attempt{
		s:          s,
		scope:      make(map[string]any),
		candidates: append([]string(nil), s.config.Transports...),
		expanded:   mapset.NewThreadUnsafeSet[string](),
	}
	a.scope["candidates"] = append([]string(nil), a.candidates...)
	return a
}

func (a *attempt) current() bool { return a.s.attempt == a }

// connect and cancel are handed to the prepare hook.
func (a *attempt) connect() {
	a.s.queue.Do(func() {
		if !a.settle() {
			return
		}
		a.s.connect(a)
	})
}

func (a *attempt) cancel() {
	a.s.queue.Do(func() {
		if !a.settle() {
			return
		}
		a.s.debug.Log("Connection attempt canceled")
		a.s.fire(EventClose, []any{ReasonCanceled}, nil)
	})
}

func (a *attempt) settle() bool {
	if a.settled || !a.current() || a.s.state != StatePreparing {
		return false
	}
	a.settled = true
	return true
}

func (a *attempt) ID() string { return a.s.id }

func (a *attempt) Name() string { return a.name }

func (a *attempt) URL() string {
	url, _ := a.Data("url").(string)
	return url
}

func (a *attempt) BuildURL(params map[string]any) string {
	return a.s.buildURL(a.name, params)
}

func (a *attempt) Data(key string) any {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	return a.scope[key]
}

func (a *attempt) SetData(key string, value any) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.scope[key] = value
}

// Unshift is only meant to be called by factories, while the resolver
// runs.
func (a *attempt) Unshift(candidates ...string) {
	a.expanded.Add(a.name)
	a.candidates = append(append([]string(nil), candidates...), a.candidates...)
	a.SetData("candidates", append([]string(nil), a.candidates...))
}

func (a *attempt) FireOpen() {
	a.s.queue.Do(func() {
		if a.current() {
			a.s.fire(EventOpen, nil, nil)
		}
	})
}

func (a *attempt) FireClose(reason transport.Reason) {
	a.s.queue.Do(func() {
		if a.current() {
			a.s.fire(EventClose, []any{reason}, nil)
		}
	})
}

func (a *attempt) Receive(data []byte, binary bool) {
	a.s.queue.Do(func() {
		if a.current() {
			a.s.receive(a, data, binary)
		}
	})
}
