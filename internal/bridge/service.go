package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/mirrorbridge/internal/event"
	"github.com/danmuck/mirrorbridge/internal/forward"
	"github.com/danmuck/mirrorbridge/internal/observability"
	"github.com/danmuck/mirrorbridge/internal/protocol/frame"
	"github.com/danmuck/mirrorbridge/internal/tools"
	"github.com/rs/zerolog/log"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 27183
)

var ErrInvalidConfig = errors.New("bridge: invalid config")

// Config configures one bridge run.
type Config struct {
	Device         string
	Platform       string
	Host           string
	Port           uint16
	ADBPath        string
	ConnectTimeout time.Duration
	Limits         frame.Limits
	MetricsAddr    string
}

func DefaultConfig() Config {
	return Config{
		Platform: forward.PlatformAndroid,
		Host:     DefaultHost,
		Port:     DefaultPort,
		ADBPath:  forward.DefaultADBPath,
		Limits:   frame.DefaultLimits(),
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidConfig)
	}
	if c.Port == 0 {
		return fmt.Errorf("%w: port must be non-zero", ErrInvalidConfig)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("%w: negative connect timeout", ErrInvalidConfig)
	}
	return nil
}

// Addr is the companion endpoint.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// Dialer opens the companion connection.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type Option func(*Service)

func WithPreparer(p forward.Preparer) Option {
	return func(s *Service) { s.preparer = p }
}

func WithDialer(d Dialer) Option {
	return func(s *Service) { s.dialer = d }
}

func WithRunner(r tools.CommandRunner) Option {
	return func(s *Service) { s.runner = r }
}

// Service runs bootstrap, connect and the decode loop against one sink.
type Service struct {
	cfg      Config
	emitter  *event.Emitter
	preparer forward.Preparer
	dialer   Dialer
	runner   tools.CommandRunner
}

func NewService(cfg Config, out io.Writer, opts ...Option) *Service {
	s := &Service{cfg: cfg, emitter: event.NewEmitter(out)}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = tools.ExecRunner{}
	}
	if s.preparer == nil {
		s.preparer = forward.ForPlatform(cfg.Platform, cfg.ADBPath, s.runner)
	}
	if s.dialer == nil {
		s.dialer = &net.Dialer{Timeout: cfg.ConnectTimeout}
	}
	return s
}

// Run returns an error only when the connection cannot be opened or the
// output sink fails. Stream failures are reported as events and Run returns nil.
func (s *Service) Run(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	s.bootstrap(ctx)

	addr := s.cfg.Addr()
	conn, err := s.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to mirror companion at %s: %w", addr, err)
	}
	defer conn.Close()
	log.Info().Str("addr", addr).Msg("bridge.connected")

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	res := Pump(conn, s.emitter, s.cfg.Limits)
	log.Info().Int("frames", res.Frames).Err(res.Err).Msg("bridge.stream_ended")
	if errors.Is(res.Err, ErrEmit) {
		return res.Err
	}
	return nil
}

func (s *Service) bootstrap(ctx context.Context) {
	err := s.preparer.Prepare(ctx, s.cfg.Port, s.cfg.Device)
	if err == nil {
		return
	}
	observability.RecordBootstrapFailure()
	log.Warn().Err(err).Str("platform", s.cfg.Platform).Msg("bridge.bootstrap_failed")
	if emitErr := s.emitter.EmitError(err.Error()); emitErr != nil {
		log.Error().Err(emitErr).Msg("bridge.bootstrap_emit_failed")
	}
}
