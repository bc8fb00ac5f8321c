//go:build amd64 && (linux || windows || darwin)

package fast

import (
	"github.com/karagenc/portal-go/serializer"
	"github.com/karagenc/portal-go/serializer/sonic"
)

func New() serializer.JSONSerializer { return NewWithConfig(DefaultConfig()) }

func NewWithConfig(config Config) serializer.JSONSerializer {
	return sonic.New(config.Sonic)
}

func Type() SerializerType { return SerializerTypeSonic }
