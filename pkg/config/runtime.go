package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RuntimeOptions holds the AM's own tunables, distinct from the
// backing-service site configuration (§9's "mutable global configuration"
// note: loaded once, then passed by value). LogLevel, LogJSON and
// LauncherJoinTimeout are loaded but not applied by the lifecycle:
// logging follows the --log-level/--log-json flags, and the launcher's
// join bound is launcher.JoinTimeout.
type RuntimeOptions struct {
	LogLevel             string        `yaml:"logLevel"`
	LogJSON              bool          `yaml:"logJSON"`
	HeartbeatInterval    time.Duration `yaml:"heartbeatInterval"`
	MaxTolerableFailures int           `yaml:"maxTolerableFailures"`
	RingBufferLines      int           `yaml:"ringBufferLines"`
	LauncherJoinTimeout  time.Duration `yaml:"launcherJoinTimeout"`
	StopGracePeriod      time.Duration `yaml:"stopGracePeriod"`
}

// DefaultRuntimeOptions returns the values used when no runtime-options
// file is supplied (§4.F's defaults: 1000ms heartbeat, 10 max tolerable
// failures, 64-line ring buffer, 10s join/grace timeouts).
func DefaultRuntimeOptions() RuntimeOptions {
	return RuntimeOptions{
		LogLevel:             "info",
		LogJSON:              false,
		HeartbeatInterval:    time.Second,
		MaxTolerableFailures: 10,
		RingBufferLines:      64,
		LauncherJoinTimeout:  10 * time.Second,
		StopGracePeriod:      10 * time.Second,
	}
}

// LoadRuntimeOptions reads a YAML runtime-options file, starting from the
// defaults and overriding only the fields present in the file.
func LoadRuntimeOptions(path string) (RuntimeOptions, error) {
	opts := DefaultRuntimeOptions()
	if path == "" {
		return opts, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, err
	}
	if err := yaml.Unmarshal(b, &opts); err != nil {
		return opts, err
	}
	return opts, nil
}
