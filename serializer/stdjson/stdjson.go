// Package stdjson is the encoding/json backed serializer. It is the default
// serializer of the envelope codec.
package stdjson

import (
	"encoding/json"
	"io"

	"github.com/karagenc/portal-go/serializer"
)

type stdjsonSerializer struct{}

func (stdjsonSerializer) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (stdjsonSerializer) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (stdjsonSerializer) NewEncoder(w io.Writer) serializer.JSONEncoder { return json.NewEncoder(w) }

func (stdjsonSerializer) NewDecoder(r io.Reader) serializer.JSONDecoder { return json.NewDecoder(r) }

func New() serializer.JSONSerializer {
	return stdjsonSerializer{}
}
