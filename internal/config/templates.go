package config

import (
	"fmt"
	"os"

	"github.com/danmuck/mirrorbridge/internal/bridge"
	"github.com/pelletier/go-toml/v2"
)

const templateHeader = `# mirrorbridge configuration.
# Flags given on the command line override these values.
# platform: android | android-* runs "adb forward"; ios, ios-sim, ios-device, desktop skip it.
# max_frame_bytes = 0 disables the frame size limit.

`

// Template renders the default configuration.
func Template() (string, error) {
	body, err := toml.Marshal(FromBridge(bridge.DefaultConfig()))
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return templateHeader + string(body), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
