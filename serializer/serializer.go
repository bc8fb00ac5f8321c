// Package serializer abstracts the JSON library used to encode envelopes.
package serializer

import "io"

type (
	JSONSerializer interface {
		Marshal(v any) ([]byte, error)
		Unmarshal(data []byte, v any) error

		NewEncoder(w io.Writer) JSONEncoder
		// A decoder reads a stream of JSON values. Decode returns io.EOF
		// once the stream is exhausted.
		NewDecoder(r io.Reader) JSONDecoder
	}

	JSONEncoder interface {
		Encode(v any) error
	}

	JSONDecoder interface {
		Decode(v any) error
	}
)
