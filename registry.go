package portal

import (
	"net/url"
	"strings"

	"github.com/karagenc/portal-go/internal/sync"
)

type RegistryConfig struct {
	// Remove a socket from the registry once it closed and no
	// reconnection is scheduled.
	RemoveOnClose bool

	// Used for the sockets created by Open when it's given a nil config.
	Config *Config
}

// Registry keeps track of sockets by their URL, so that parts of a
// program can share a socket without passing it around.
type Registry struct {
	removeOnClose bool
	config        *Config

	mu      sync.Mutex
	urls    []string
	sockets map[string]*Socket
}

func NewRegistry(config *RegistryConfig) *Registry {
	if config == nil {
		config = new(RegistryConfig)
	}
	return &Registry{
		removeOnClose: config.RemoveOnClose,
		config:        config.Config,
		sockets:       make(map[string]*Socket),
	}
}

// Open returns the socket of rawURL, creating and opening it if there is
// none. A socket that closed for good is opened again. config is only used
// when a socket is created.
func (r *Registry) Open(rawURL string, config *Config) *Socket {
	key := normalizeURL(rawURL)
	if config == nil {
		config = r.config
	}

	r.mu.Lock()
	s, ok := r.sockets[key]
	if !ok {
		s = NewSocket(rawURL, config)
		r.sockets[key] = s
		r.urls = append(r.urls, key)
		if r.removeOnClose {
			s.onTerminate = func() { r.remove(key, s) }
		}
	}
	r.mu.Unlock()

	if !ok || s.State() == StateClosed {
		s.Open()
	}
	return s
}

// Find returns the socket of rawURL. If rawURL is empty, the socket that
// was added first is returned.
func (r *Registry) Find(rawURL string) (s *Socket, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rawURL == "" {
		if len(r.urls) == 0 {
			return nil, false
		}
		return r.sockets[r.urls[0]], true
	}
	s, ok = r.sockets[normalizeURL(rawURL)]
	return
}

// Remove forgets the socket of rawURL without closing it.
func (r *Registry) Remove(rawURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delete(normalizeURL(rawURL))
}

func (r *Registry) remove(key string, s *Socket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sockets[key] == s {
		r.delete(key)
	}
}

func (r *Registry) delete(key string) {
	delete(r.sockets, key)
	for i, u := range r.urls {
		if u == key {
			r.urls = append(r.urls[:i], r.urls[i+1:]...)
			break
		}
	}
}

// All returns the sockets in the order they were added.
func (r *Registry) All() []*Socket {
	r.mu.Lock()
	defer r.mu.Unlock()
	sockets := make([]*Socket, len(r.urls))
	for i, u := range r.urls {
		sockets[i] = r.sockets[u]
	}
	return sockets
}

// Finalize closes every socket that isn't closed and empties the
// registry.
func (r *Registry) Finalize() {
	sockets := r.All()

	r.mu.Lock()
	r.sockets = make(map[string]*Socket)
	r.urls = nil
	r.mu.Unlock()

	for _, s := range sockets {
		if s.State() != StateClosed {
			s.Close()
		}
	}
}

// normalizeURL lowercases the scheme and the host, which are case
// insensitive.
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}
