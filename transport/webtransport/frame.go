package webtransport

import (
	"encoding/binary"
	"errors"
	"io"
)

// A frame is a header followed by the payload. The lower 7 bits of the
// first byte hold the payload length if it is below 126. 126 means a
// 16-bit length follows, 127 a 64-bit one. The top bit marks binary
// payloads.

var ErrFrameTooLarge = errors.New("webtransport: frame exceeds the read limit")

func writeFrame(w io.Writer, data []byte, isBinary bool) error {
	var (
		header []byte
		n      = len(data)
	)
	switch {
	case n < 126:
		header = []byte{byte(n)}
	case n < 65536:
		header = make([]byte, 3)
		header[0] = 126
		binary.BigEndian.PutUint16(header[1:], uint16(n))
	default:
		header = make([]byte, 9)
		header[0] = 127
		binary.BigEndian.PutUint64(header[1:], uint64(n))
	}
	if isBinary {
		header[0] |= 0x80
	}

	frame := make([]byte, 0, len(header)+n)
	frame = append(frame, header...)
	frame = append(frame, data...)
	_, err := w.Write(frame)
	return err
}

func readFrame(r io.Reader, limit int64) (data []byte, isBinary bool, err error) {
	var first [1]byte
	if _, err = io.ReadFull(r, first[:]); err != nil {
		return
	}
	isBinary = first[0]&0x80 == 0x80

	var n uint64
	switch l := first[0] & 0x7f; l {
	case 126:
		var ext [2]byte
		if _, err = io.ReadFull(r, ext[:]); err != nil {
			return nil, false, unexpectedEOF(err)
		}
		n = uint64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err = io.ReadFull(r, ext[:]); err != nil {
			return nil, false, unexpectedEOF(err)
		}
		n = binary.BigEndian.Uint64(ext[:])
	default:
		n = uint64(l)
	}

	if limit > 0 && n > uint64(limit) {
		return nil, false, ErrFrameTooLarge
	}
	data = make([]byte, n)
	if _, err = io.ReadFull(r, data); err != nil {
		return nil, false, unexpectedEOF(err)
	}
	return
}

// An EOF in the middle of a frame isn't a clean end of stream.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
