package portal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/karagenc/portal-go/serializer"
	"github.com/karagenc/portal-go/serializer/stdjson"
)

// Codec converts envelopes to and from the text form carried by
// transports.
type Codec interface {
	Encode(e *Envelope) ([]byte, error)

	// Decode returns every envelope contained in data.
	Decode(data []byte) ([]*Envelope, error)

	// Unmarshal decodes the data of an inbound envelope into v.
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct {
	json serializer.JSONSerializer
}

// NewJSONCodec returns a codec that encodes each envelope as a JSON
// object. Decode accepts an object, an array of objects, or a sequence
// of whitespace separated objects. If s is nil, encoding/json is used.
func NewJSONCodec(s serializer.JSONSerializer) Codec {
	if s == nil {
		s = stdjson.New()
	}
	return &jsonCodec{json: s}
}

func (c *jsonCodec) Encode(e *Envelope) ([]byte, error) {
	return c.json.Marshal(e)
}

type wireEnvelope struct {
	ID     EventID         `json:"id"`
	Socket string          `json:"socket"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
	Reply  bool            `json:"reply"`
}

func (w *wireEnvelope) envelope() *Envelope {
	e := &Envelope{
		ID:     w.ID,
		Socket: w.Socket,
		Type:   w.Type,
		Reply:  w.Reply,
	}
	if len(w.Data) != 0 && string(w.Data) != "null" {
		e.Data = w.Data
	}
	return e
}

var errEmptyType = errors.New("portal: envelope without type")

func (c *jsonCodec) Decode(data []byte) ([]*Envelope, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var wires []*wireEnvelope
	if trimmed[0] == '[' {
		if err := c.json.Unmarshal(trimmed, &wires); err != nil {
			return nil, err
		}
	} else {
		d := c.json.NewDecoder(bytes.NewReader(trimmed))
		for {
			w := new(wireEnvelope)
			err := d.Decode(w)
			if err == io.EOF {
				break
			} else if err != nil {
				return nil, err
			}
			wires = append(wires, w)
		}
	}

	envelopes := make([]*Envelope, 0, len(wires))
	for i, w := range wires {
		if w == nil || w.Type == "" {
			return nil, fmt.Errorf("%w (index %d)", errEmptyType, i)
		}
		envelopes = append(envelopes, w.envelope())
	}
	return envelopes, nil
}

func (c *jsonCodec) Unmarshal(data []byte, v any) error {
	return c.json.Unmarshal(data, v)
}
