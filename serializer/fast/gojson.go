//go:build !amd64 || (amd64 && !(linux || windows || darwin))

package fast

import (
	"github.com/karagenc/portal-go/serializer"
	"github.com/karagenc/portal-go/serializer/gojson"
)

func New() serializer.JSONSerializer { return NewWithConfig(DefaultConfig()) }

func NewWithConfig(config Config) serializer.JSONSerializer {
	return gojson.New(config.GoJSON.EncodeOptions, config.GoJSON.DecodeOptions)
}

func Type() SerializerType { return SerializerTypeGoJSON }
