package websocket

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/karagenc/portal-go/internal/utils"
	"github.com/karagenc/portal-go/transport"
)

const testTimeout = 5 * time.Second

var upgrader = gorilla.Upgrader{}

// echoServer echoes every message back, and closes normally when it
// receives "bye".
func echoServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(data) == "bye" {
				msg := gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, "")
				conn.WriteControl(gorilla.CloseMessage, msg, time.Now().Add(time.Second))
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
}

func open(t *testing.T, url string) (*utils.TestSocket, transport.Transport) {
	s := utils.NewTestSocket(url, "ws")
	tr := NewFactory(nil)(s)
	require.NotNil(t, tr)
	tr.Open()

	select {
	case <-s.Opened:
	case <-time.After(testTimeout):
		t.Fatal("timeout exceeded")
	}
	return s, tr
}

func waitClose(t *testing.T, s *utils.TestSocket) transport.Reason {
	select {
	case reason := <-s.Closed:
		return reason
	case <-time.After(testTimeout):
		t.Fatal("timeout exceeded")
		return ""
	}
}

func TestEchoAndDone(t *testing.T) {
	ts := echoServer(t)
	defer ts.Close()

	s, tr := open(t, ts.URL)
	assert.True(t, transport.HasFeedback(tr))

	tr.Send([]byte(`{"type":"a"}`), false)
	msg := <-s.Received
	assert.Equal(t, `{"type":"a"}`, string(msg.Data))
	assert.False(t, msg.Binary)

	tr.Send([]byte{1, 2, 3}, true)
	msg = <-s.Received
	assert.Equal(t, []byte{1, 2, 3}, msg.Data)
	assert.True(t, msg.Binary)

	tr.Send([]byte("bye"), false)
	assert.Equal(t, transport.ReasonDone, waitClose(t, s))
}

func TestAborted(t *testing.T) {
	ts := echoServer(t)
	defer ts.Close()

	s, tr := open(t, ts.URL)
	tr.Close()
	tr.Close()
	assert.Equal(t, transport.ReasonAborted, waitClose(t, s))
}

func TestAbortedBeforeOpen(t *testing.T) {
	s := utils.NewTestSocket("ws://127.0.0.1:1", "ws")
	tr := NewFactory(nil)(s)
	tr.Close()
	tr.Open()
	assert.Equal(t, transport.ReasonAborted, waitClose(t, s))
}

func TestAbnormalClosure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		c.Close(websocket.StatusInternalError, "failure")
	}))
	defer ts.Close()

	s, _ := open(t, ts.URL)
	assert.Equal(t, transport.ReasonError, waitClose(t, s))
}

func TestDialError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	s := utils.NewTestSocket(ts.URL, "ws")
	NewFactory(nil)(s).Open()
	assert.Equal(t, transport.ReasonError, waitClose(t, s))
	assert.Empty(t, s.Opened)
}

func TestFactoryDeclines(t *testing.T) {
	s := utils.NewTestSocket("ftp://localhost", "ws")
	assert.Nil(t, NewFactory(nil)(s))
}

func TestWriteTimeout(t *testing.T) {
	s := utils.NewTestSocket("http://localhost", "ws")
	tr := NewFactory(nil)(s).(*Transport)
	assert.Equal(t, DefaultWriteTimeout, tr.writeTimeout)

	tr = NewFactory(&Options{WriteTimeout: time.Second})(s).(*Transport)
	assert.Equal(t, time.Second, tr.writeTimeout)
}

func TestWebsocketURL(t *testing.T) {
	u, ok := websocketURL("https://example.com/portal?id=1")
	assert.True(t, ok)
	assert.Equal(t, "wss://example.com/portal?id=1", u)

	u, ok = websocketURL("http://example.com")
	assert.True(t, ok)
	assert.Equal(t, "ws://example.com", u)
}
