package bridge

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/mirrorbridge/internal/event"
	"github.com/danmuck/mirrorbridge/internal/protocol/frame"
	"github.com/danmuck/mirrorbridge/internal/testutil/testlog"
)

func readLines(t *testing.T, out string) []event.Event {
	t.Helper()
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	var events []event.Event
	for sc.Scan() {
		ev, err := event.Decode(sc.Bytes())
		if err != nil {
			t.Fatalf("decode line %d: %v", len(events), err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan output: %v", err)
	}
	return events
}

func TestPumpScenarioExactOutput(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	in := bytes.NewReader([]byte{0x01, 0x00, 0x00, 0x00, 0x03, 0x41, 0x42, 0x43})

	res := Pump(in, event.NewEmitter(&out), frame.DefaultLimits())
	if res.Frames != 1 || !errors.Is(res.Err, frame.ErrStreamClosed) {
		t.Fatalf("unexpected result: %+v", res)
	}

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out.String())
	}
	if lines[0] != `{"type":"frame","mime":"image/png","data":"QUJD"}` {
		t.Fatalf("unexpected frame line: %q", lines[0])
	}
	ev, err := event.Decode([]byte(lines[1]))
	if err != nil || ev.Type != event.TypeError {
		t.Fatalf("expected error line, got %q (%v)", lines[1], err)
	}
	if !strings.HasPrefix(ev.Error, "Mirror stream error: ") {
		t.Fatalf("unexpected error message: %q", ev.Error)
	}
}

func TestPumpNFramesThenOneError(t *testing.T) {
	testlog.Start(t)
	var in bytes.Buffer
	payloads := [][]byte{[]byte("one"), {}, bytes.Repeat([]byte{9}, 70_000), []byte("four")}
	tags := []uint8{frame.TagPNG, frame.TagJPEG, frame.TagWebP, 0x7F}
	for i, p := range payloads {
		if err := frame.WriteFrame(&in, frame.Frame{Tag: tags[i], Payload: p}); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}

	var out bytes.Buffer
	res := Pump(&in, event.NewEmitter(&out), frame.DefaultLimits())
	if res.Frames != len(payloads) {
		t.Fatalf("unexpected frame count: %d", res.Frames)
	}

	events := readLines(t, out.String())
	if len(events) != len(payloads)+1 {
		t.Fatalf("expected %d events, got %d", len(payloads)+1, len(events))
	}
	wantMIME := []string{"image/png", "image/jpeg", "image/webp", "image/png"}
	for i, p := range payloads {
		ev := events[i]
		if ev.Type != event.TypeFrame || ev.MIME != wantMIME[i] {
			t.Fatalf("event %d: unexpected %+v", i, ev)
		}
		got, err := ev.Payload()
		if err != nil || !bytes.Equal(got, p) {
			t.Fatalf("event %d: payload mismatch (%v)", i, err)
		}
	}
	if events[len(events)-1].Type != event.TypeError {
		t.Fatalf("last event must be error: %+v", events[len(events)-1])
	}
}

func TestPumpShortPayloadEmitsOnlyError(t *testing.T) {
	testlog.Start(t)
	in := append(frame.EncodeHeader(frame.Header{Type: frame.TagJPEG, Length: 100}), make([]byte, 40)...)
	var out bytes.Buffer

	res := Pump(bytes.NewReader(in), event.NewEmitter(&out), frame.DefaultLimits())
	if res.Frames != 0 || !errors.Is(res.Err, frame.ErrShortPayload) {
		t.Fatalf("unexpected result: %+v", res)
	}
	events := readLines(t, out.String())
	if len(events) != 1 || events[0].Type != event.TypeError {
		t.Fatalf("expected exactly one error event, got %+v", events)
	}
}

func TestPumpEmptyStream(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	res := Pump(bytes.NewReader(nil), event.NewEmitter(&out), frame.DefaultLimits())
	if res.Frames != 0 || !errors.Is(res.Err, frame.ErrStreamClosed) {
		t.Fatalf("unexpected result: %+v", res)
	}
	if events := readLines(t, out.String()); len(events) != 1 || events[0].Type != event.TypeError {
		t.Fatalf("expected one error event, got %+v", events)
	}
}

type brokenSink struct{}

func (brokenSink) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestPumpSinkFailureStopsLoop(t *testing.T) {
	testlog.Start(t)
	var in bytes.Buffer
	for i := 0; i < 3; i++ {
		_ = frame.WriteFrame(&in, frame.Frame{MediaType: frame.MediaPNG, Payload: []byte("x")})
	}
	res := Pump(&in, event.NewEmitter(brokenSink{}), frame.DefaultLimits())
	if !errors.Is(res.Err, ErrEmit) || res.Frames != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}
