package main

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/mirrorbridge/internal/bridge"
	"github.com/danmuck/mirrorbridge/internal/event"
	"github.com/danmuck/mirrorbridge/internal/protocol/frame"
	"github.com/danmuck/mirrorbridge/internal/testutil/testlog"
)

func TestGeneratedSourceIsPNG(t *testing.T) {
	testlog.Start(t)
	f, err := generatedSource{width: 8, height: 8}.Frame(3)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if f.MediaType != frame.MediaPNG {
		t.Fatalf("unexpected media type: %q", f.MediaType)
	}
	if _, err := png.Decode(bytes.NewReader(f.Payload)); err != nil {
		t.Fatalf("payload is not a png: %v", err)
	}
}

func TestFileSourceOrderAndTypes(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	for name, body := range map[string]string{"b.jpg": "jpeg", "a.webp": "webp", "c.txt": "skip"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	src, err := newSource(dir)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	f0, _ := src.Frame(0)
	f1, _ := src.Frame(1)
	f2, _ := src.Frame(2)
	if f0.MediaType != frame.MediaWebP || f1.MediaType != frame.MediaJPEG || string(f2.Payload) != "webp" {
		t.Fatalf("unexpected frames: %q %q %q", f0.MediaType, f1.MediaType, f2.Payload)
	}
	if _, err := newSource(t.TempDir()); err == nil {
		t.Fatalf("expected empty dir error")
	}
}

func TestServerFeedsBridge(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &server{source: generatedSource{width: 4, height: 4}, count: 3}
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln) }()

	cfg := bridge.DefaultConfig()
	cfg.Platform = "desktop"
	cfg.Port = uint16(ln.Addr().(*net.TCPAddr).Port)
	var out bytes.Buffer
	if err := bridge.NewService(cfg, &out).Run(ctx); err != nil {
		t.Fatalf("bridge run: %v", err)
	}

	lines := bytes.Split(bytes.TrimSuffix(out.Bytes(), []byte("\n")), []byte("\n"))
	if len(lines) != 4 {
		t.Fatalf("expected 3 frames + 1 error, got %d lines", len(lines))
	}
	for i, line := range lines[:3] {
		ev, err := event.Decode(line)
		if err != nil || ev.Type != event.TypeFrame || ev.MIME != frame.MediaPNG {
			t.Fatalf("line %d: unexpected %+v (%v)", i, ev, err)
		}
	}

	cancel()
	select {
	case err := <-served:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
