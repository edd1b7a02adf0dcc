package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/mirrorbridge/internal/bridge"
)

var ErrUnknownKey = errors.New("config: unknown key")

// File is the on-disk bridge configuration. Every key is optional.
type File struct {
	Device         string `toml:"device"`
	Platform       string `toml:"platform"`
	Host           string `toml:"host"`
	Port           int64  `toml:"port"`
	ADB            string `toml:"adb"`
	ConnectTimeout string `toml:"connect_timeout"`
	MaxFrameBytes  int64  `toml:"max_frame_bytes"`
	MetricsAddr    string `toml:"metrics_addr"`
}

// FromBridge renders cfg in file form.
func FromBridge(cfg bridge.Config) File {
	return File{
		Device:         cfg.Device,
		Platform:       cfg.Platform,
		Host:           cfg.Host,
		Port:           int64(cfg.Port),
		ADB:            cfg.ADBPath,
		ConnectTimeout: cfg.ConnectTimeout.String(),
		MaxFrameBytes:  int64(cfg.Limits.MaxPayloadBytes),
		MetricsAddr:    cfg.MetricsAddr,
	}
}

// Apply overlays the keys reported by defined onto base.
func (f File) Apply(base bridge.Config, defined func(key string) bool) (bridge.Config, error) {
	cfg := base
	if defined("device") {
		cfg.Device = strings.TrimSpace(f.Device)
	}
	if defined("platform") {
		cfg.Platform = strings.TrimSpace(f.Platform)
	}
	if defined("host") {
		cfg.Host = strings.TrimSpace(f.Host)
	}
	if defined("port") {
		if f.Port <= 0 || f.Port > math.MaxUint16 {
			return bridge.Config{}, fmt.Errorf("port out of range: %d", f.Port)
		}
		cfg.Port = uint16(f.Port)
	}
	if defined("adb") {
		cfg.ADBPath = strings.TrimSpace(f.ADB)
	}
	if defined("connect_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(f.ConnectTimeout))
		if err != nil {
			return bridge.Config{}, fmt.Errorf("parse connect_timeout: %w", err)
		}
		cfg.ConnectTimeout = d
	}
	if defined("max_frame_bytes") {
		if f.MaxFrameBytes < 0 || f.MaxFrameBytes > math.MaxUint32 {
			return bridge.Config{}, fmt.Errorf("max_frame_bytes out of range: %d", f.MaxFrameBytes)
		}
		cfg.Limits.MaxPayloadBytes = uint32(f.MaxFrameBytes)
	}
	if defined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(f.MetricsAddr)
	}
	return cfg, nil
}

// Load decodes path and overlays the keys it defines onto base. Unknown keys
// are rejected.
func Load(path string, base bridge.Config) (bridge.Config, error) {
	var raw File
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return bridge.Config{}, fmt.Errorf("%w (%s): %q", ErrUnknownKey, path, undecoded[0].String())
	}
	cfg, err := raw.Apply(base, func(key string) bool { return meta.IsDefined(key) })
	if err != nil {
		return bridge.Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// LoadFile loads path over the bridge defaults and validates the result.
func LoadFile(path string) (bridge.Config, error) {
	cfg, err := Load(path, bridge.DefaultConfig())
	if err != nil {
		return bridge.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return bridge.Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}
