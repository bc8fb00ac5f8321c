package stream

import (
	"bytes"
	"strings"
)

// parser splits an event stream into the data of its messages. Input can
// be fed in chunks of any size; a line split across chunks is carried
// over to the next one.
//
// Only data fields are used. Other fields and comments are skipped.
type parser struct {
	partial []byte
	data    []string
	// Leading whitespace is padding some servers send to defeat
	// buffering proxies.
	started bool
}

func (p *parser) feed(chunk []byte) (messages []string) {
	if !p.started {
		chunk = bytes.TrimLeft(chunk, " \t\r\n")
		if len(chunk) == 0 {
			return nil
		}
		p.started = true
	}

	buf := append(p.partial, chunk...)
	p.partial = nil

	for {
		i := bytes.IndexAny(buf, "\r\n")
		if i < 0 {
			break
		}
		// A CR at the end of the buffer could be the first half of CRLF.
		if buf[i] == '\r' && i == len(buf)-1 {
			break
		}

		line := string(buf[:i])
		if buf[i] == '\r' && buf[i+1] == '\n' {
			i++
		}
		buf = buf[i+1:]

		if msg, ok := p.line(line); ok {
			messages = append(messages, msg)
		}
	}

	if len(buf) > 0 {
		p.partial = append([]byte(nil), buf...)
	}
	return
}

func (p *parser) line(line string) (message string, ok bool) {
	if line == "" {
		if p.data == nil {
			return "", false
		}
		message = strings.Join(p.data, "\n")
		p.data = nil
		return message, true
	}
	if strings.HasPrefix(line, ":") {
		return "", false
	}

	field, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")
	if field == "data" {
		p.data = append(p.data, value)
	}
	return "", false
}
