// Package fast picks the fastest serializer available on the target:
// sonic where its JIT is supported, go-json everywhere else.
package fast

import (
	"github.com/bytedance/sonic"
	"github.com/goccy/go-json"
)

type Config struct {
	Sonic  sonic.Config
	GoJSON GoJSONConfig
}

type GoJSONConfig struct {
	EncodeOptions []json.EncodeOptionFunc
	DecodeOptions []json.DecodeOptionFunc
}

func DefaultConfig() Config {
	return Config{
		Sonic: sonic.Config{
			// Inbound payloads are kept by handlers long after the frame
			// buffer is gone.
			CopyString:       true,
			CompactMarshaler: true,
			EscapeHTML:       true,
		},
		GoJSON: GoJSONConfig{
			EncodeOptions: []json.EncodeOptionFunc{
				json.UnorderedMap(),
			},
		},
	}
}

type SerializerType int

const (
	SerializerTypeSonic SerializerType = iota
	SerializerTypeGoJSON
)

func (t SerializerType) String() string {
	switch t {
	case SerializerTypeSonic:
		return "sonic"
	case SerializerTypeGoJSON:
		return "go-json"
	}
	return "unknown"
}
