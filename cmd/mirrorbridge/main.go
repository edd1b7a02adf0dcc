package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/mirrorbridge/internal/bridge"
	"github.com/danmuck/mirrorbridge/internal/devices"
	"github.com/danmuck/mirrorbridge/internal/logging"
	"github.com/danmuck/mirrorbridge/internal/observability"
	"github.com/danmuck/mirrorbridge/internal/tools"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const version = "0.1.0"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "mirrorbridge: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	logging.ConfigureRuntime()

	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.version {
		fmt.Fprintf(stdout, "mirrorbridge version %s\n", version)
		return nil
	}

	cfg, err := resolveConfig(fs, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.listDevices {
		return listDevices(ctx, stdout, cfg, tools.ExecRunner{})
	}

	if cfg.MetricsAddr != "" {
		srv := observability.NewServer(cfg.MetricsAddr, log.Logger)
		go func() {
			if err := srv.Serve(ctx); err != nil {
				log.Warn().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	log.Info().
		Str("platform", cfg.Platform).
		Str("addr", cfg.Addr()).
		Str("device", cfg.Device).
		Msg("mirrorbridge starting")
	return bridge.NewService(cfg, stdout).Run(ctx)
}

func listDevices(ctx context.Context, stdout io.Writer, cfg bridge.Config, runner tools.CommandRunner) error {
	found, err := devices.List(ctx, runner, cfg.Platform, cfg.ADBPath)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	for _, d := range found {
		line := struct {
			Type string `json:"type"`
			devices.Device
			Online bool `json:"online"`
		}{Type: "device", Device: d, Online: d.Online()}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}
