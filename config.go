package portal

import (
	"time"

	"github.com/google/uuid"
	"github.com/karagenc/portal-go/transport"
)

type (
	// PrepareFunc is called before every connection attempt. It must call
	// either connect or cancel, now or later. Only the first call has an
	// effect, and calls made after the attempt was superseded are ignored.
	//
	// config is a copy; modifying it has no effect on the socket.
	PrepareFunc func(connect, cancel func(), config *Config)

	// URLBuilder builds the URL transports connect to.
	URLBuilder func(base string, params map[string]any) string

	Config struct {
		// Candidate transports, tried in order on every connection attempt.
		//
		// Default: ["ws", "http"]
		Transports []string

		// Transport factories by candidate name. These are added to (and
		// take precedence over) DefaultFactories.
		Factories map[string]transport.Factory

		// If a connection attempt isn't open within this duration, it is
		// closed with the timeout reason.
		//
		// Default: 0 (no timeout)
		Timeout time.Duration

		// The interval of the heartbeat. The socket sends a heartbeat event
		// HeartbeatGrace before the interval elapses and expects one back
		// within HeartbeatGrace.
		//
		// Default: 0 (disabled)
		Heartbeat time.Duration

		// Default: 5 seconds
		HeartbeatGrace *time.Duration

		// Should we disallow reconnections?
		// Default: false (allow reconnections)
		NoReconnection bool

		// Default: DefaultReconnectPolicy
		Reconnect ReconnectPolicy

		// The last event ID seen by a previous incarnation of the socket.
		// It is sent to the server as the lastEventId query parameter and
		// updated as events arrive.
		LastEventID string

		// Extra query parameters. Either a map with string keys or a
		// struct (fields are named by their `url` tag).
		Params any

		// Default: DefaultURLBuilder
		URLBuilder URLBuilder

		// Default: JSON codec backed by encoding/json
		Codec Codec

		// Default: connect immediately
		Prepare PrepareFunc

		// Generates the socket ID.
		//
		// Default: UUID v4
		IDGenerator func() string

		// For debugging purposes. Leave it nil if it is of no use.
		Debugger Debugger
	}
)

const DefaultHeartbeatGrace = 5 * time.Second

var defaultTransports = []string{"ws", "http"}

func defaultPrepare(connect, _ func(), _ *Config) { connect() }

// withDefaults returns a copy of c with every unset field set to its
// default. Slices and maps are copied too.
func (c *Config) withDefaults() *Config {
	config := new(Config)
	if c != nil {
		*config = *c
	}

	if len(config.Transports) == 0 {
		config.Transports = defaultTransports
	}
	config.Transports = append([]string(nil), config.Transports...)

	factories := DefaultFactories()
	for name, f := range config.Factories {
		factories[name] = f
	}
	config.Factories = factories

	if config.HeartbeatGrace == nil {
		grace := DefaultHeartbeatGrace
		config.HeartbeatGrace = &grace
	} else {
		grace := *config.HeartbeatGrace
		config.HeartbeatGrace = &grace
	}
	if config.Reconnect == nil {
		config.Reconnect = DefaultReconnectPolicy
	}
	if config.URLBuilder == nil {
		config.URLBuilder = DefaultURLBuilder
	}
	if config.Codec == nil {
		config.Codec = NewJSONCodec(nil)
	}
	if config.Prepare == nil {
		config.Prepare = defaultPrepare
	}
	if config.IDGenerator == nil {
		config.IDGenerator = uuid.NewString
	}
	if config.Debugger == nil {
		config.Debugger = NewNoopDebugger()
	}
	return config
}

// copy returns a copy that can be handed out without exposing the
// slices and maps of c.
func (c *Config) copy() *Config {
	config := *c
	config.Transports = append([]string(nil), c.Transports...)
	config.Factories = make(map[string]transport.Factory, len(c.Factories))
	for name, f := range c.Factories {
		config.Factories[name] = f
	}
	grace := *c.HeartbeatGrace
	config.HeartbeatGrace = &grace
	return &config
}

func (c *Config) heartbeatEnabled() bool {
	return c.Heartbeat > 0 && c.Heartbeat > *c.HeartbeatGrace
}
