package main

import (
	"encoding/json"
	"strings"
)

type command struct {
	event string
	data  any
	reply bool
}

// parseLine turns an input line into an event to send.
//
//	hello          sends "hello" with the default event
//	!chat {"a":1}  sends {"a":1} with the chat event
//	?!ping         sends ping with no data and waits for a reply
func parseLine(line, defaultEvent string) (cmd command, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return cmd, false
	}
	if strings.HasPrefix(line, "?") {
		cmd.reply = true
		line = strings.TrimSpace(line[1:])
	}

	cmd.event = defaultEvent
	if strings.HasPrefix(line, "!") {
		name, rest, _ := strings.Cut(line[1:], " ")
		if name == "" {
			return cmd, false
		}
		cmd.event = name
		line = strings.TrimSpace(rest)
	}

	if line != "" {
		cmd.data = parseData(line)
	}
	return cmd, true
}

// parseData returns s as JSON if it is valid JSON, and as a plain string
// otherwise.
func parseData(s string) any {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	return s
}

func formatData(data any) string {
	switch v := data.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return string(b)
}
