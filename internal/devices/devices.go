// Package devices lists mirror-capable targets visible to the host tools.
package devices

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danmuck/mirrorbridge/internal/tools"
)

const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
	PlatformIOSSim  = "ios-sim"
)

var ErrUnsupportedPlatform = errors.New("devices: listing not supported for platform")

// List dispatches on the platform hint: android* uses adb, ios and ios-sim use
// simctl. Other platforms have no discovery tool.
func List(ctx context.Context, runner tools.CommandRunner, platform, adbPath string) ([]Device, error) {
	p := strings.ToLower(strings.TrimSpace(platform))
	switch {
	case p == "" || strings.HasPrefix(p, PlatformAndroid):
		return ListAndroid(ctx, runner, adbPath)
	case p == PlatformIOS || p == PlatformIOSSim:
		return ListIOSSimulators(ctx, runner)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedPlatform, platform)
	}
}

// Device is one discovered target.
type Device struct {
	Platform string `json:"platform"`
	ID       string `json:"id"`
	State    string `json:"state"`
	Name     string `json:"name,omitempty"`
}

// Online reports whether the device can be mirrored right now.
func (d Device) Online() bool {
	switch d.Platform {
	case PlatformAndroid:
		return d.State == "device"
	case PlatformIOSSim:
		return d.State == "Booted"
	}
	return false
}

// ListAndroid parses `adb devices`.
func ListAndroid(ctx context.Context, runner tools.CommandRunner, adbPath string) ([]Device, error) {
	if strings.TrimSpace(adbPath) == "" {
		adbPath = "adb"
	}
	stdout, stderr, _, err := runner.Run(ctx, adbPath, "devices")
	if err != nil {
		return nil, fmt.Errorf("devices: list android: %w: %s", err, strings.TrimSpace(string(stderr)))
	}
	return ParseADBDevices(stdout), nil
}

func ParseADBDevices(out []byte) []Device {
	var devices []Device
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		devices = append(devices, Device{Platform: PlatformAndroid, ID: parts[0], State: parts[1]})
	}
	return devices
}

type simctlList struct {
	Devices map[string][]struct {
		UDID  string `json:"udid"`
		Name  string `json:"name"`
		State string `json:"state"`
	} `json:"devices"`
}

// ListIOSSimulators parses `xcrun simctl list devices -j`.
func ListIOSSimulators(ctx context.Context, runner tools.CommandRunner) ([]Device, error) {
	stdout, stderr, _, err := runner.Run(ctx, "xcrun", "simctl", "list", "devices", "-j")
	if err != nil {
		return nil, fmt.Errorf("devices: list simulators: %w: %s", err, strings.TrimSpace(string(stderr)))
	}
	return ParseSimctlDevices(stdout)
}

func ParseSimctlDevices(out []byte) ([]Device, error) {
	var list simctlList
	if err := json.Unmarshal(out, &list); err != nil {
		return nil, fmt.Errorf("devices: parse simulator list: %w", err)
	}
	runtimes := make([]string, 0, len(list.Devices))
	for rt := range list.Devices {
		runtimes = append(runtimes, rt)
	}
	sort.Strings(runtimes)

	var devices []Device
	for _, rt := range runtimes {
		for _, sim := range list.Devices[rt] {
			devices = append(devices, Device{Platform: PlatformIOSSim, ID: sim.UDID, State: sim.State, Name: sim.Name})
		}
	}
	return devices, nil
}
