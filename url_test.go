package portal

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseQuery(t *testing.T, rawURL string) url.Values {
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Query()
}

func TestDefaultURLBuilder(t *testing.T) {
	assert.Equal(t, "http://a.test/x", DefaultURLBuilder("http://a.test/x", nil))

	u := DefaultURLBuilder("http://a.test/x?k=v", map[string]any{
		"s":    "str",
		"n":    3,
		"b":    true,
		"nil":  nil,
		"f":    func() string { return "called" },
		"d":    2 * time.Second,
		"a b":  "c&d",
		"anyf": func() any { return 7 },
	})
	q := parseQuery(t, u)
	assert.Equal(t, "v", q.Get("k"))
	assert.Equal(t, "str", q.Get("s"))
	assert.Equal(t, "3", q.Get("n"))
	assert.Equal(t, "true", q.Get("b"))
	assert.True(t, q.Has("nil"))
	assert.Equal(t, "", q.Get("nil"))
	assert.Equal(t, "called", q.Get("f"))
	assert.Equal(t, "2s", q.Get("d"))
	assert.Equal(t, "c&d", q.Get("a b"))
	assert.Equal(t, "7", q.Get("anyf"))
}

func TestParamsMap(t *testing.T) {
	assert.Nil(t, paramsMap(nil))
	assert.Equal(t, map[string]any{"a": 1}, paramsMap(map[string]any{"a": 1}))
	assert.Equal(t, map[string]any{"a": "b"}, paramsMap(map[string]string{"a": "b"}))
	assert.Equal(t, map[string]any{"a": "b"}, paramsMap(url.Values{"a": {"b", "c"}}))

	type params struct {
		Token  string `url:"token"`
		Room   int    `url:"room"`
		Hidden string `url:"-"`
	}
	assert.Equal(t, map[string]any{"token": "t", "room": 2}, paramsMap(params{Token: "t", Room: 2, Hidden: "h"}))
	assert.Equal(t, map[string]any{"token": "t", "room": 0}, paramsMap(&params{Token: "t"}))

	assert.Panics(t, func() { paramsMap(42) })
}

func TestSocketURL(t *testing.T) {
	type params struct {
		Token string `url:"token"`
	}
	grace := time.Second
	s := NewSocket("http://portal.test/events?v=1", &Config{
		Params:         params{Token: "secret"},
		LastEventID:    "41",
		Heartbeat:      10 * time.Second,
		HeartbeatGrace: &grace,
		IDGenerator:    func() string { return "sock-1" },
	})
	assert.Equal(t, "sock-1", s.ID())
	assert.Equal(t, "41", s.LastEventID())

	q := parseQuery(t, s.buildURL("ws", map[string]any{"count": 2}))
	assert.Equal(t, "1", q.Get("v"))
	assert.Equal(t, "sock-1", q.Get("id"))
	assert.Equal(t, "ws", q.Get("transport"))
	assert.Equal(t, "10000", q.Get("heartbeat"))
	assert.Equal(t, "41", q.Get("lastEventId"))
	assert.Equal(t, "secret", q.Get("token"))
	assert.Equal(t, "2", q.Get("count"))
	assert.NotEmpty(t, q.Get("_"))

	// Cache busters are unique.
	q2 := parseQuery(t, s.buildURL("ws", nil))
	assert.NotEqual(t, q.Get("_"), q2.Get("_"))

	s = NewSocket("http://portal.test/events", nil)
	q = parseQuery(t, s.buildURL("sse", nil))
	assert.Equal(t, "false", q.Get("heartbeat"))
	assert.Equal(t, "", q.Get("lastEventId"))
}

func TestSocketURLBuilder(t *testing.T) {
	var got map[string]any
	s := NewSocket("http://portal.test/events", &Config{
		URLBuilder: func(base string, params map[string]any) string {
			got = params
			return base + "/custom"
		},
	})
	assert.Equal(t, "http://portal.test/events/custom", s.buildURL("ws", nil))
	assert.Equal(t, "ws", got["transport"])
}

func TestTruncateURL(t *testing.T) {
	assert.Equal(t, "http://a.test", truncateURL("http://a.test"))
	long := "http://a.test/" + string(make([]byte, 100))
	assert.Len(t, truncateURL(long), 53)
}
