package bridge

import (
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/mirrorbridge/internal/event"
	"github.com/danmuck/mirrorbridge/internal/observability"
	"github.com/danmuck/mirrorbridge/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// ErrEmit marks a failure writing to the output sink. No further event can be
// delivered once it occurs.
var ErrEmit = errors.New("bridge: emit failed")

// Result summarizes one pump run.
type Result struct {
	Frames int
	Err    error
}

// Pump decodes frames from r and emits one event per frame, in order, until a
// read fails. The read failure is emitted as exactly one error event.
func Pump(r io.Reader, em *event.Emitter, limits frame.Limits) Result {
	var n int
	for {
		f, err := frame.ReadFrame(r, limits)
		if err != nil {
			observability.RecordStreamError(stageOf(err))
			if emitErr := em.EmitError(StreamErrorMessage(err)); emitErr != nil {
				return Result{Frames: n, Err: fmt.Errorf("%w: %w", ErrEmit, emitErr)}
			}
			return Result{Frames: n, Err: err}
		}

		if err := em.EmitFrame(f.MediaType, f.Payload); err != nil {
			observability.RecordStreamError("emit")
			return Result{Frames: n, Err: fmt.Errorf("%w: %w", ErrEmit, err)}
		}
		n++
		observability.RecordFrame(f.MediaType, len(f.Payload))
		log.Trace().Int("seq", n).Str("mime", f.MediaType).Int("bytes", len(f.Payload)).Msg("bridge.frame")
	}
}

// StreamErrorMessage formats a terminal decode error for the event stream.
func StreamErrorMessage(err error) string {
	return fmt.Sprintf("Mirror stream error: %v", err)
}

func stageOf(err error) string {
	if errors.Is(err, frame.ErrShortPayload) || errors.Is(err, frame.ErrPayloadTooLarge) {
		return "payload"
	}
	return "header"
}
