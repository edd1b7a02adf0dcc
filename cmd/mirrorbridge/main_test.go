package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/danmuck/mirrorbridge/internal/bridge"
	"github.com/danmuck/mirrorbridge/internal/devices"
)

func TestRunStreamsScenario(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = conn.Write([]byte{0x01, 0x00, 0x00, 0x00, 0x03, 0x41, 0x42, 0x43})
		_ = conn.Close()
	}()
	port := ln.Addr().(*net.TCPAddr).Port

	var out bytes.Buffer
	if err := run([]string{"--platform", "desktop", "--port", strconv.Itoa(port)}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out.String())
	}
	if lines[0] != `{"type":"frame","mime":"image/png","data":"QUJD"}` {
		t.Fatalf("unexpected frame line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], `{"type":"error","error":"Mirror stream error: `) {
		t.Fatalf("unexpected error line: %q", lines[1])
	}
}

func TestRunConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	var out bytes.Buffer
	err = run([]string{"--platform", "ios", "--port", strconv.Itoa(port)}, &out)
	if err == nil || !strings.Contains(err.Error(), "failed to connect to mirror companion") {
		t.Fatalf("expected connect error, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("stdout must stay empty: %q", out.String())
	}
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"--version"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "mirrorbridge version "+version+"\n" {
		t.Fatalf("unexpected version output: %q", out.String())
	}
}

type fakeRunner struct {
	stdout []byte
	name   string
}

func (r *fakeRunner) Run(_ context.Context, name string, _ ...string) ([]byte, []byte, int32, error) {
	r.name = name
	return r.stdout, nil, 0, nil
}

func TestListDevicesAndroid(t *testing.T) {
	r := &fakeRunner{stdout: []byte("List of devices attached\nemulator-5554\tdevice\n")}
	var out bytes.Buffer
	if err := listDevices(context.Background(), &out, bridge.DefaultConfig(), r); err != nil {
		t.Fatalf("list devices: %v", err)
	}
	want := `{"type":"device","platform":"android","id":"emulator-5554","state":"device","online":true}` + "\n"
	if out.String() != want || r.name != "adb" {
		t.Fatalf("unexpected output: %q (runner=%q)", out.String(), r.name)
	}
}

func TestListDevicesIOS(t *testing.T) {
	r := &fakeRunner{stdout: []byte(`{"devices":{"rt":[{"udid":"U1","name":"iPhone 15","state":"Booted"}]}}`)}
	cfg := bridge.DefaultConfig()
	cfg.Platform = "ios-sim"
	var out bytes.Buffer
	if err := listDevices(context.Background(), &out, cfg, r); err != nil {
		t.Fatalf("list devices: %v", err)
	}
	if r.name != "xcrun" || !strings.Contains(out.String(), `"id":"U1"`) || !strings.Contains(out.String(), `"online":true`) {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestListDevicesDesktopUnsupported(t *testing.T) {
	r := &fakeRunner{}
	cfg := bridge.DefaultConfig()
	cfg.Platform = "desktop"
	var out bytes.Buffer
	err := listDevices(context.Background(), &out, cfg, r)
	if !errors.Is(err, devices.ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
	if r.name != "" || out.Len() != 0 {
		t.Fatalf("nothing should run or print: runner=%q out=%q", r.name, out.String())
	}
}
