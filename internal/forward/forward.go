// Package forward prepares network reachability to the companion before the
// frame stream is opened.
package forward

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/mirrorbridge/internal/tools"
	"github.com/rs/zerolog/log"
)

const (
	PlatformAndroid = "android"
	DefaultADBPath  = "adb"
)

var (
	ErrExec    = errors.New("failed to execute adb forward")
	ErrForward = errors.New("adb forward failed")
)

// Preparer establishes a path to port on the local machine. A failure is
// advisory; callers still attempt the connection.
type Preparer interface {
	Prepare(ctx context.Context, port uint16, device string) error
}

// PreparerFunc adapts a function to Preparer.
type PreparerFunc func(ctx context.Context, port uint16, device string) error

func (f PreparerFunc) Prepare(ctx context.Context, port uint16, device string) error {
	return f(ctx, port, device)
}

// Noop is used for platforms that stream over a route that already exists.
type Noop struct{}

func (Noop) Prepare(context.Context, uint16, string) error { return nil }

// ADBForwarder runs `adb [-s device] forward tcp:port tcp:port`.
type ADBForwarder struct {
	Path   string
	Runner tools.CommandRunner
}

func NewADBForwarder(path string, runner tools.CommandRunner) ADBForwarder {
	if strings.TrimSpace(path) == "" {
		path = DefaultADBPath
	}
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return ADBForwarder{Path: path, Runner: runner}
}

func (f ADBForwarder) Prepare(ctx context.Context, port uint16, device string) error {
	args := ForwardArgs(port, device)
	log.Debug().Str("adb", f.Path).Strs("args", args).Msg("forward.adb")

	_, stderr, exitCode, err := f.Runner.Run(ctx, f.Path, args...)
	if err == nil {
		return nil
	}
	if exitCode == 127 || exitCode == 0 {
		return fmt.Errorf("%w: %w", ErrExec, err)
	}
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		msg = err.Error()
	}
	return fmt.Errorf("%w: %s", ErrForward, msg)
}

// ForwardArgs builds the adb argument list.
func ForwardArgs(port uint16, device string) []string {
	spec := fmt.Sprintf("tcp:%d", port)
	args := make([]string, 0, 5)
	if id := strings.TrimSpace(device); id != "" {
		args = append(args, "-s", id)
	}
	return append(args, "forward", spec, spec)
}

// RequiresForward reports whether platform needs the adb step. An empty
// platform defaults to android.
func RequiresForward(platform string) bool {
	p := strings.ToLower(strings.TrimSpace(platform))
	return p == "" || strings.HasPrefix(p, PlatformAndroid)
}

// ForPlatform picks the bootstrap for platform.
func ForPlatform(platform, adbPath string, runner tools.CommandRunner) Preparer {
	if RequiresForward(platform) {
		return NewADBForwarder(adbPath, runner)
	}
	return Noop{}
}
