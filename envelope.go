package portal

import (
	"encoding/json"
	"strconv"
)

// Envelope is the unit exchanged with the server.
//
// On inbound envelopes decoded by the JSON codec, Data is a
// json.RawMessage that is unmarshalled into whatever type the handler
// asks for.
type Envelope struct {
	ID     EventID `json:"id"`
	Socket string  `json:"socket,omitempty"`
	Type   string  `json:"type"`
	Data   any     `json:"data"`
	Reply  bool    `json:"reply"`
}

// EventID identifies an envelope. Outbound IDs are decimal sequence
// numbers and are encoded as JSON numbers. Inbound IDs may be numbers or
// strings.
type EventID string

func (id EventID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseUint(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *EventID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = EventID(s)
		return nil
	}
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = EventID(n)
	return nil
}

// replyPayload is the data of a reply envelope.
type replyPayload struct {
	ID        EventID `json:"id" mapstructure:"id"`
	Data      any     `json:"data" mapstructure:"data"`
	Exception bool    `json:"exception,omitempty" mapstructure:"exception"`
}
