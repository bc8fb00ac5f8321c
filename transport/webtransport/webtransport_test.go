package webtransport

import (
	"crypto/tls"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/madflojo/testcerts"
	"github.com/quic-go/webtransport-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karagenc/portal-go/internal/utils"
	"github.com/karagenc/portal-go/transport"
)

const testTimeout = 10 * time.Second

// newEchoServer starts a WebTransport server that echoes every frame on the
// first stream of a session, and ends the stream when it receives "bye".
func newEchoServer(t *testing.T) (url string, close func()) {
	certFile, keyFile, err := testcerts.GenerateCertsToTempFile(os.TempDir())
	require.NoError(t, err)
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	require.NoError(t, err)

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	wtServer := &webtransport.Server{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	wtServer.H3.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	wtServer.H3.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := wtServer.Upgrade(w, r)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		stream, err := session.AcceptStream(r.Context())
		if err != nil {
			return
		}
		for {
			data, binary, err := readFrame(stream, 0)
			if err != nil {
				return
			}
			if string(data) == "bye" {
				stream.Close()
				<-session.Context().Done()
				return
			}
			if err := writeFrame(stream, data, binary); err != nil {
				return
			}
		}
	})
	go func() {
		err := wtServer.Serve(conn)
		if err != nil && err != http.ErrServerClosed {
			t.Logf("webtransport server: %s", err)
		}
	}()

	close = func() {
		wtServer.Close()
		conn.Close()
		os.Remove(certFile)
		os.Remove(keyFile)
	}
	return "https://" + conn.LocalAddr().String() + "/portal", close
}

func newDialer() *webtransport.Dialer {
	return &webtransport.Dialer{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
}

func waitOpen(t *testing.T, s *utils.TestSocket) {
	select {
	case <-s.Opened:
	case <-time.After(testTimeout):
		t.Fatal("timeout exceeded")
	}
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
	if testing.Short() {
		t.Skip("skipping QUIC test in short mode")
	}
	url, close := newEchoServer(t)
	defer close()

	s := utils.NewTestSocket(url, "webtransport")
	tr := NewFactory(&Options{Dialer: newDialer()})(s)
	require.NotNil(t, tr)
	assert.True(t, transport.HasFeedback(tr))
	tr.Open()
	waitOpen(t, s)

	tr.Send([]byte(`{"type":"a"}`), false)
	tr.Send([]byte{0x00, 0x01, 0x02}, true)

	for _, expected := range []utils.TestMessage{
		{Data: []byte(`{"type":"a"}`)},
		{Data: []byte{0x00, 0x01, 0x02}, Binary: true},
	} {
		select {
		case msg := <-s.Received:
			assert.Equal(t, expected, msg)
		case <-time.After(testTimeout):
			t.Fatal("timeout exceeded")
		}
	}

	tr.Send([]byte("bye"), false)
	assert.Equal(t, transport.ReasonDone, waitClose(t, s))
}

func TestAbort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping QUIC test in short mode")
	}
	url, close := newEchoServer(t)
	defer close()

	s := utils.NewTestSocket(url, "webtransport")
	tr := NewFactory(&Options{Dialer: newDialer()})(s)
	require.NotNil(t, tr)
	tr.Open()
	waitOpen(t, s)

	tr.Close()
	assert.Equal(t, transport.ReasonAborted, waitClose(t, s))
}

func TestFactoryDeclines(t *testing.T) {
	s := utils.NewTestSocket("https://example.com/portal", "webtransport")
	assert.Nil(t, NewFactory(nil)(s))

	s = utils.NewTestSocket("http://example.com/portal", "webtransport")
	assert.Nil(t, NewFactory(&Options{Dialer: newDialer()})(s))

	s = utils.NewTestSocket("https://example.com/portal", "webtransport")
	assert.NotNil(t, NewFactory(&Options{Dialer: newDialer()})(s))
}
