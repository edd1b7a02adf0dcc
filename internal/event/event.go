package event

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	TypeFrame = "frame"
	TypeError = "error"
)

var ErrUnknownType = errors.New("event: unknown type")

// Event is one output line: either a frame (MIME, Data) or an error (Error).
type Event struct {
	Type  string
	MIME  string
	Data  string
	Error string
}

type frameLine struct {
	Type string `json:"type"`
	MIME string `json:"mime"`
	Data string `json:"data"`
}

type errorLine struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type anyLine struct {
	Type  string  `json:"type"`
	MIME  *string `json:"mime"`
	Data  *string `json:"data"`
	Error *string `json:"error"`
}

// Frame builds a frame event with the payload base64 (standard, padded) encoded.
func Frame(mediaType string, payload []byte) Event {
	return Event{Type: TypeFrame, MIME: mediaType, Data: base64.StdEncoding.EncodeToString(payload)}
}

// Payload reverses the text-safe encoding of a frame event.
func (e Event) Payload() ([]byte, error) {
	if e.Type != TypeFrame {
		return nil, fmt.Errorf("%w: %q has no payload", ErrUnknownType, e.Type)
	}
	return base64.StdEncoding.DecodeString(e.Data)
}

func (e Event) wire() (any, error) {
	switch e.Type {
	case TypeFrame:
		return frameLine{Type: TypeFrame, MIME: e.MIME, Data: e.Data}, nil
	case TypeError:
		return errorLine{Type: TypeError, Error: e.Error}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}
}

// Decode parses one output line.
func Decode(line []byte) (Event, error) {
	var raw anyLine
	if err := json.Unmarshal(bytes.TrimSpace(line), &raw); err != nil {
		return Event{}, fmt.Errorf("event: decode: %w", err)
	}
	switch raw.Type {
	case TypeFrame:
		if raw.MIME == nil || raw.Data == nil {
			return Event{}, fmt.Errorf("event: frame missing mime or data")
		}
		return Event{Type: TypeFrame, MIME: *raw.MIME, Data: *raw.Data}, nil
	case TypeError:
		if raw.Error == nil {
			return Event{}, fmt.Errorf("event: error missing message")
		}
		return Event{Type: TypeError, Error: *raw.Error}, nil
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownType, raw.Type)
	}
}
