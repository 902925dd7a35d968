// Package config loads server and client configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Known device types.
const (
	TypeSwitch = "Switch"
	TypeButton = "Button"
)

// Duration wraps time.Duration so YAML can carry values like "500ms"
// or "2s".
type Duration time.Duration

// UnmarshalYAML parses a duration string or an integer nanosecond
// count.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration: %s", value.Value)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML renders the duration in time.Duration notation.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig is the root configuration for the register server.
type ServerConfig struct {
	Listen    string         `yaml:"listen"`
	Namespace string         `yaml:"namespace"`
	Advertise bool           `yaml:"advertise"`
	Instance  string         `yaml:"instance"`
	Logging   LoggingConfig  `yaml:"logging"`
	Devices   []DeviceConfig `yaml:"devices"`
}

// DeviceConfig describes one device to create at startup.
type DeviceConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// Auto gives the device a simulated update loop.
	Auto bool `yaml:"auto"`

	// Interval is the update loop period for Auto devices.
	Interval Duration `yaml:"interval"`

	// Pin is the hardware pin a button reports. Zero means unset.
	Pin int `yaml:"pin"`

	// FlipChance is the per-tick flip probability for simulated
	// buttons. Zero uses the default.
	FlipChance float64 `yaml:"flip_chance"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ClientConfig is the root configuration for the register client.
type ClientConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Schema   string        `yaml:"schema"`
	Logging  LoggingConfig `yaml:"logging"`
}

// DefaultServer returns a ServerConfig with the stock device set: an
// auto-toggling switch and a pinned button.
func DefaultServer() *ServerConfig {
	return &ServerConfig{
		Listen:    ":4840",
		Namespace: "http://fleetglue.dev/registers",
		Instance:  "fleetglue",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Devices: []DeviceConfig{
			{Name: "VirtualSwitch", Type: TypeSwitch, Auto: true, Interval: Duration(2 * time.Second)},
			{Name: "Button1", Type: TypeButton, Pin: 17},
		},
	}
}

// DefaultClient returns a ClientConfig pointing at a local server.
func DefaultClient() *ClientConfig {
	return &ClientConfig{
		Endpoint: "localhost:4840",
		Schema:   "default",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadServer reads, parses and validates a server config file.
// Defaults apply for any field the file leaves out.
func LoadServer(path string) (*ServerConfig, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// LoadClient reads and parses a client config file.
func LoadClient(path string) (*ClientConfig, error) {
	cfg := DefaultClient()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks the server configuration. Device misconfiguration is
// fatal at startup: duplicate names, unknown types and nonpositive
// intervals on auto devices all fail here rather than at runtime.
func (c *ServerConfig) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.Namespace == "" {
		return fmt.Errorf("namespace must not be empty")
	}

	seen := make(map[string]struct{}, len(c.Devices))
	for i, d := range c.Devices {
		if d.Name == "" {
			return fmt.Errorf("device %d: name must not be empty", i)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("duplicate device name %q", d.Name)
		}
		seen[d.Name] = struct{}{}

		switch d.Type {
		case TypeSwitch, TypeButton:
		default:
			return fmt.Errorf("device %q: unknown type %q", d.Name, d.Type)
		}

		if d.Auto && d.Interval <= 0 {
			return fmt.Errorf("device %q: auto device needs a positive interval", d.Name)
		}
		if d.FlipChance < 0 || d.FlipChance > 1 {
			return fmt.Errorf("device %q: flip_chance must be within [0, 1]", d.Name)
		}
	}
	return nil
}

// Validate checks the client configuration.
func (c *ClientConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	switch c.Schema {
	case "", "default", "legacy":
	default:
		return fmt.Errorf("unknown schema %q", c.Schema)
	}
	return nil
}
