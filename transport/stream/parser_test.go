package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParserSingleChunk(t *testing.T) {
	var p parser
	msgs := p.feed([]byte("data: first\n\ndata: second\n\n"))
	assert.Equal(t, []string{"first", "second"}, msgs)
}

func TestParserMultiLineData(t *testing.T) {
	var p parser
	msgs := p.feed([]byte("data: {\"a\":\ndata: 1}\n\n"))
	assert.Equal(t, []string{"{\"a\":\n1}"}, msgs)
}

func TestParserPartialLines(t *testing.T) {
	var p parser
	assert.Empty(t, p.feed([]byte("da")))
	assert.Empty(t, p.feed([]byte("ta: hel")))
	assert.Empty(t, p.feed([]byte("lo\n")))
	assert.Equal(t, []string{"hello"}, p.feed([]byte("\ndata: x")))
	assert.Equal(t, []string{"x"}, p.feed([]byte("\n\n")))
}

func TestParserCRLF(t *testing.T) {
	var p parser
	assert.Empty(t, p.feed([]byte("data: a\r")))
	assert.Equal(t, []string{"a"}, p.feed([]byte("\n\r\n")))

	assert.Equal(t, []string{"b"}, p.feed([]byte("data: b\r\rdata: c\r")))
	assert.Equal(t, []string{"c"}, p.feed([]byte("\r\n")))
}

func TestParserPaddingAndFields(t *testing.T) {
	var p parser
	assert.Empty(t, p.feed([]byte("     \n  ")))
	msgs := p.feed([]byte(": comment\nid: 7\nevent: foo\ndata:no space\nretry: 10\n\n"))
	assert.Equal(t, []string{"no space"}, msgs)
}

func TestParserIgnoresEmptyMessages(t *testing.T) {
	var p parser
	msgs := p.feed([]byte("id: 1\n\n\n\ndata: x\n\n"))
	assert.Equal(t, []string{"x"}, msgs)
}
