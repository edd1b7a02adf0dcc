package main

import (
	"fmt"
	"time"

	"github.com/danmuck/mirrorbridge/internal/bridge"
	"github.com/danmuck/mirrorbridge/internal/config"
	"github.com/spf13/pflag"
)

type options struct {
	configPath     string
	device         string
	platform       string
	host           string
	port           uint16
	adb            string
	connectTimeout time.Duration
	maxFrameBytes  uint32
	metricsAddr    string
	listDevices    bool
	version        bool
}

func newFlagSet(opts *options) *pflag.FlagSet {
	def := bridge.DefaultConfig()
	fs := pflag.NewFlagSet("mirrorbridge", pflag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	fs.StringVar(&opts.device, "device", def.Device, "adb device id (optional)")
	fs.StringVar(&opts.platform, "platform", def.Platform, "platform hint: android | ios | ios-sim | ios-device | desktop")
	fs.StringVar(&opts.host, "host", def.Host, "host where the companion streams frames")
	fs.Uint16Var(&opts.port, "port", def.Port, "port where the companion streams frames")
	fs.StringVar(&opts.adb, "adb", def.ADBPath, "adb executable (android only)")
	fs.DurationVar(&opts.connectTimeout, "connect-timeout", def.ConnectTimeout, "connect timeout, 0 waits indefinitely")
	fs.Uint32Var(&opts.maxFrameBytes, "max-frame-bytes", def.Limits.MaxPayloadBytes, "reject frames larger than this, 0 disables the limit")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", def.MetricsAddr, "serve /metrics and /health on this address")
	fs.BoolVar(&opts.listDevices, "list-devices", false, "print visible devices as JSON lines and exit")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	return fs
}

// resolveConfig layers defaults, the optional config file and explicitly set flags.
func resolveConfig(fs *pflag.FlagSet, opts options) (bridge.Config, error) {
	cfg := bridge.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := loadServiceConfig(opts.configPath, cfg)
		if err != nil {
			return bridge.Config{}, err
		}
		cfg = loaded
	}

	if fs.Changed("device") {
		cfg.Device = opts.device
	}
	if fs.Changed("platform") {
		cfg.Platform = opts.platform
	}
	if fs.Changed("host") {
		cfg.Host = opts.host
	}
	if fs.Changed("port") {
		cfg.Port = opts.port
	}
	if fs.Changed("adb") {
		cfg.ADBPath = opts.adb
	}
	if fs.Changed("connect-timeout") {
		cfg.ConnectTimeout = opts.connectTimeout
	}
	if fs.Changed("max-frame-bytes") {
		cfg.Limits.MaxPayloadBytes = opts.maxFrameBytes
	}
	if fs.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
	}
	return cfg, cfg.Validate()
}

func loadServiceConfig(path string, base bridge.Config) (bridge.Config, error) {
	cfg, err := config.Load(path, base)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("load mirrorbridge config: %w", err)
	}
	return cfg, nil
}
