package portal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterDebugger(t *testing.T) {
	var buf bytes.Buffer
	d := NewWriterDebugger(&buf)

	d.Log("main", 1, "x")
	d.WithContext("ctx").Log("main")
	d.WithDynamicContext("ctx", func() string { return "dyn" }).Log("", "only")

	assert.Equal(t, "main: 1: x\nctx: main\nctx: dyn: only\n", buf.String())
}

func TestNoopDebugger(t *testing.T) {
	d := NewNoopDebugger()
	assert.Equal(t, d, d.WithContext("ctx"))
	d.Log("main", 1)
}

func TestSocketDebugger(t *testing.T) {
	var buf bytes.Buffer
	f := &fakeFactory{autoOpen: true}
	s := newFakeSocket(f, &Config{
		NoReconnection: true,
		Debugger:       NewWriterDebugger(&buf),
		IDGenerator:    func() string { return "dbg" },
	})
	s.Open()
	s.Close()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.NotEmpty(t, lines) {
		assert.True(t, strings.HasPrefix(lines[0], "[portal] Socket dbg (http://portal.test/events): preparing: Opening"), lines[0])
	}
	assert.Contains(t, buf.String(), "Using transport: fake")
	assert.Contains(t, buf.String(), "Closed: aborted")
}
