package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultServer(t *testing.T) {
	cfg := DefaultServer()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Devices) != 2 {
		t.Fatalf("default device count = %d, want 2", len(cfg.Devices))
	}
	if cfg.Devices[0].Name != "VirtualSwitch" || !cfg.Devices[0].Auto {
		t.Errorf("device 0 = %+v", cfg.Devices[0])
	}
	if cfg.Devices[1].Pin != 17 {
		t.Errorf("Button1 pin = %d, want 17", cfg.Devices[1].Pin)
	}
}

func TestLoadServer(t *testing.T) {
	path := writeConfig(t, `
listen: "127.0.0.1:9840"
advertise: true
logging:
  level: debug
  format: json
devices:
  - name: FastSwitch
    type: Switch
    auto: true
    interval: 500ms
  - name: SimBtn
    type: Button
    auto: true
    interval: 100ms
    flip_chance: 0.2
`)

	cfg, err := LoadServer(path)
	if err != nil {
		t.Fatalf("LoadServer failed: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9840" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	// Defaults survive for fields the file omits.
	if cfg.Namespace == "" {
		t.Error("namespace default lost")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if len(cfg.Devices) != 2 {
		t.Fatalf("device count = %d", len(cfg.Devices))
	}
	if cfg.Devices[0].Interval.Std() != 500*time.Millisecond {
		t.Errorf("interval = %v", cfg.Devices[0].Interval)
	}
	if cfg.Devices[1].FlipChance != 0.2 {
		t.Errorf("flip_chance = %v", cfg.Devices[1].FlipChance)
	}
}

func TestLoadServerMissingFile(t *testing.T) {
	if _, err := LoadServer(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestServerValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *ServerConfig) {},
		},
		{
			name: "duplicate device",
			mutate: func(c *ServerConfig) {
				c.Devices = append(c.Devices, DeviceConfig{Name: "Button1", Type: TypeButton})
			},
			wantErr: "duplicate device name",
		},
		{
			name: "unknown type",
			mutate: func(c *ServerConfig) {
				c.Devices[0].Type = "Dimmer"
			},
			wantErr: "unknown type",
		},
		{
			name: "auto without interval",
			mutate: func(c *ServerConfig) {
				c.Devices[0].Interval = 0
			},
			wantErr: "positive interval",
		},
		{
			name: "flip chance out of range",
			mutate: func(c *ServerConfig) {
				c.Devices[1].FlipChance = 1.5
			},
			wantErr: "flip_chance",
		},
		{
			name: "empty listen",
			mutate: func(c *ServerConfig) {
				c.Listen = ""
			},
			wantErr: "listen address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServer()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestClientValidate(t *testing.T) {
	cfg := DefaultClient()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default client config invalid: %v", err)
	}

	cfg.Schema = "legacy"
	if err := cfg.Validate(); err != nil {
		t.Errorf("legacy schema rejected: %v", err)
	}

	cfg.Schema = "weird"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown schema")
	}

	cfg = &ClientConfig{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty endpoint")
	}
}
