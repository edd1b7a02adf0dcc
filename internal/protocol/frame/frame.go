// Package frame implements the companion wire format: a 5-byte header
// (type tag, big-endian length) followed by exactly length payload bytes.
package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// payloadChunk bounds the upfront allocation for one payload.
const payloadChunk = 1 << 20

// HeaderLen is the size of the fixed wire header: 1 byte type tag, 4 bytes length.
const HeaderLen = 5

var (
	ErrStreamClosed    = errors.New("frame: stream closed")
	ErrShortHeader     = errors.New("frame: short header")
	ErrShortPayload    = errors.New("frame: short payload")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
)

// Header is the fixed wire header.
type Header struct {
	Type   uint8
	Length uint32
}

// Frame is one decoded image unit.
type Frame struct {
	Tag       uint8
	MediaType string
	Payload   []byte
}

// Limits constrains frame decode memory use. Zero means unbounded.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{}
}

// ReadFrame reads exactly one header and exactly Length payload bytes.
// End of stream is always an error, including a clean close between frames.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [HeaderLen]byte
	if n, err := io.ReadFull(r, fixed[:]); err != nil {
		switch {
		case errors.Is(err, io.EOF) && n == 0:
			return Frame{}, fmt.Errorf("%w: %w", ErrStreamClosed, err)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return Frame{}, fmt.Errorf("%w: got %d of %d bytes: %w", ErrShortHeader, n, HeaderLen, err)
		}
		return Frame{}, fmt.Errorf("frame: read header: %w", err)
	}

	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Frame{}, err
	}
	if limits.MaxPayloadBytes > 0 && h.Length > limits.MaxPayloadBytes {
		return Frame{}, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, h.Length, limits.MaxPayloadBytes)
	}

	payload, err := readPayload(r, h.Length)
	if err != nil {
		return Frame{}, err
	}

	return Frame{Tag: h.Type, MediaType: MediaTypeFor(h.Type), Payload: payload}, nil
}

// readPayload allocates up front only for small frames; larger ones grow with
// the bytes actually received so a bogus length cannot force a huge allocation.
func readPayload(r io.Reader, length uint32) ([]byte, error) {
	if length <= payloadChunk {
		payload := make([]byte, length)
		if length == 0 {
			return payload, nil
		}
		if n, err := io.ReadFull(r, payload); err != nil {
			return nil, payloadError(err, int64(n), length)
		}
		return payload, nil
	}

	var buf bytes.Buffer
	buf.Grow(payloadChunk)
	n, err := io.CopyN(&buf, r, int64(length))
	if err != nil {
		return nil, payloadError(err, n, length)
	}
	return buf.Bytes(), nil
}

func payloadError(err error, n int64, length uint32) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: got %d of %d bytes: %w", ErrShortPayload, n, length, io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("frame: read payload: %w", err)
}

// WriteFrame encodes f with the tag matching its media type unless Tag is set.
func WriteFrame(w io.Writer, f Frame) error {
	if uint64(len(f.Payload)) > uint64(^uint32(0)) {
		return ErrPayloadTooLarge
	}
	tag := f.Tag
	if tag == 0 {
		tag = TagFor(f.MediaType)
	}
	hb := EncodeHeader(Header{Type: tag, Length: uint32(len(f.Payload))})
	if _, err := w.Write(hb); err != nil {
		return err
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return err
		}
	}
	return nil
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderLen)
	buf[0] = h.Type
	binary.BigEndian.PutUint32(buf[1:5], h.Length)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderLen {
		return Header{}, fmt.Errorf("frame: invalid header length: %d", len(b))
	}
	return Header{
		Type:   b[0],
		Length: binary.BigEndian.Uint32(b[1:5]),
	}, nil
}
