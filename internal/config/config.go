// Package config loads and persists the logger configuration: channel
// display names plus run settings (cycle count, file prefix, sample
// interval). The config is an explicit value handed to the acquisition
// loop at startup; nothing in this package is process-global.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/thermo.report/internal/k204"
)

// DefaultPath is where the logger looks for its configuration when no
// -config flag is given.
const DefaultPath = "k204_config.json"

// Config is the on-disk configuration. Fields omitted from the JSON
// file fall back to defaults via the Get* methods, so partial configs
// are safe.
type Config struct {
	// Channels maps channel keys (T1..T4) to display names.
	Channels map[string]string `json:"channels"`
	Settings Settings          `json:"settings"`
}

// Settings holds the run parameters.
type Settings struct {
	// Cycles is the number of measurement cycles; 0 means run until
	// interrupted.
	Cycles *int `json:"cycles,omitempty"`
	// Prefix is the output file name prefix.
	Prefix *string `json:"prefix,omitempty"`
	// Interval is the sample interval as a duration string like "1s".
	Interval *string `json:"interval,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Channels: map[string]string{
			"T1": "Channel 1",
			"T2": "Channel 2",
			"T3": "Channel 3",
			"T4": "Channel 4",
		},
	}
}

// Load reads a Config from a JSON file. A missing file yields the
// defaults, matching first-run behaviour. Config files written by
// older versions that kept the channel names at the top level are
// upgraded transparently.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	const maxFileSize = 1 * 1024 * 1024
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", len(data), maxFileSize)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	cfg := Default()
	if _, ok := probe["channels"]; !ok {
		// Legacy flat layout: channel names directly at the top level.
		for i := 0; i < k204.NumChannels; i++ {
			key := k204.ChannelLabel(i)
			if raw, ok := probe[key]; ok {
				var name string
				if err := json.Unmarshal(raw, &name); err != nil {
					return nil, fmt.Errorf("invalid legacy channel name for %s: %w", key, err)
				}
				cfg.Channels[key] = name
			}
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
		for k, v := range Default().Channels {
			if _, ok := cfg.Channels[k]; !ok {
				cfg.Channels[k] = v
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration back as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configured values are usable.
func (c *Config) Validate() error {
	if c.Settings.Cycles != nil && *c.Settings.Cycles < 0 {
		return fmt.Errorf("cycles must be non-negative, got %d", *c.Settings.Cycles)
	}
	if c.Settings.Interval != nil && *c.Settings.Interval != "" {
		d, err := time.ParseDuration(*c.Settings.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval %q: %w", *c.Settings.Interval, err)
		}
		if d <= 0 {
			return fmt.Errorf("interval must be positive, got %s", d)
		}
	}
	return nil
}

// GetCycles returns the configured cycle count; 0 means unbounded.
func (c *Config) GetCycles() int {
	if c.Settings.Cycles == nil {
		return 0
	}
	return *c.Settings.Cycles
}

// GetPrefix returns the output file name prefix.
func (c *Config) GetPrefix() string {
	if c.Settings.Prefix == nil || *c.Settings.Prefix == "" {
		return "k204"
	}
	return *c.Settings.Prefix
}

// GetInterval returns the sample interval.
func (c *Config) GetInterval() time.Duration {
	if c.Settings.Interval == nil || *c.Settings.Interval == "" {
		return time.Second
	}
	d, err := time.ParseDuration(*c.Settings.Interval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// ChannelName returns the display name for channel index i.
func (c *Config) ChannelName(i int) string {
	if name, ok := c.Channels[k204.ChannelLabel(i)]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Channel %d", i+1)
}
