package event

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
)

// Emitter writes events as JSON lines and flushes after every line.
// Writes are serialized so lines never interleave.
type Emitter struct {
	mu  sync.Mutex
	bw  *bufio.Writer
	enc *json.Encoder
}

func NewEmitter(w io.Writer) *Emitter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &Emitter{bw: bw, enc: enc}
}

func (e *Emitter) Emit(ev Event) error {
	line, err := ev.wire()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(line); err != nil {
		return err
	}
	return e.bw.Flush()
}

func (e *Emitter) EmitFrame(mediaType string, payload []byte) error {
	return e.Emit(Frame(mediaType, payload))
}

func (e *Emitter) EmitError(message string) error {
	return e.Emit(Event{Type: TypeError, Error: message})
}
