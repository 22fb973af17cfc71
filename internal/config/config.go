// Package config loads and validates the bridge configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"k1bridge/internal/transform"
)

// DefaultPath is where the Home Assistant add-on supervisor places the
// user's options file.
const DefaultPath = "/data/options.json"

// Default values applied before validation.
const (
	DefaultMQTTPort        = 1883
	DefaultDiscoveryPrefix = "homeassistant"
)

// MQTT holds the broker connection parameters.
type MQTT struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ClientID        string `json:"client_id"`
	DiscoveryPrefix string `json:"discovery_prefix"`
	UseTLS          bool   `json:"use_tls"`
}

// Mapping describes one monitored field: where to find it in the frame,
// how to transform it, and the sensor metadata announced via discovery.
type Mapping struct {
	UniqueID    string         `json:"unique_id"`
	Name        string         `json:"name"`
	Path        string         `json:"jsonpath"`
	Transform   transform.Mode `json:"transform"`
	Unit        string         `json:"unit"`
	Icon        string         `json:"icon"`
	DeviceClass string         `json:"device_class"`
	StateClass  string         `json:"state_class"`
}

// Debug controls raw-frame diagnostic logging. The limit is a one-shot
// budget for the whole process, not a rate.
type Debug struct {
	LogRawFrames   bool `json:"log_raw_frames"`
	RawFramesLimit int  `json:"raw_frames_limit"`
}

// Config is the full bridge configuration, loaded once at startup and
// read-only afterwards.
type Config struct {
	WSURL      string            `json:"ws_url"`
	WSHeaders  map[string]string `json:"ws_headers"`
	MQTT       MQTT              `json:"mqtt"`
	BaseTopic  string            `json:"base_topic"`
	DeviceID   string            `json:"device_id"`
	DeviceName string            `json:"device_name"`
	Mappings   []Mapping         `json:"mappings"`
	Debug      Debug             `json:"debug"`

	// StatusAddr is the listen address for the status/metrics HTTP
	// server. Empty disables it.
	StatusAddr string `json:"status_addr"`
}

// Load reads the configuration file at path, applies defaults, and
// validates it. Any error here is fatal at startup; the bridge never
// runs with a partial configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults fills in defaults for optional settings.
func (c *Config) setDefaults() {
	if c.MQTT.Port == 0 {
		c.MQTT.Port = DefaultMQTTPort
	}
	if c.MQTT.DiscoveryPrefix == "" {
		c.MQTT.DiscoveryPrefix = DefaultDiscoveryPrefix
	}
	for i := range c.Mappings {
		if c.Mappings[i].Transform == "" {
			c.Mappings[i].Transform = transform.ModeNone
		}
	}
	if !c.Debug.LogRawFrames {
		c.Debug.RawFramesLimit = 0
	}
}

// validate checks required keys and mapping consistency.
func (c *Config) validate() error {
	if c.WSURL == "" {
		return errors.New("ws_url is required")
	}
	if c.MQTT.Host == "" {
		return errors.New("mqtt.host is required")
	}
	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		return fmt.Errorf("invalid mqtt.port: %d", c.MQTT.Port)
	}
	if c.BaseTopic == "" {
		return errors.New("base_topic is required")
	}
	if c.DeviceID == "" {
		return errors.New("device_id is required")
	}
	if c.DeviceName == "" {
		return errors.New("device_name is required")
	}
	if c.Debug.RawFramesLimit < 0 {
		return fmt.Errorf("invalid debug.raw_frames_limit: %d", c.Debug.RawFramesLimit)
	}

	seen := make(map[string]struct{}, len(c.Mappings))
	for i, m := range c.Mappings {
		if m.UniqueID == "" {
			return fmt.Errorf("mapping %d: unique_id is required", i)
		}
		if _, ok := seen[m.UniqueID]; ok {
			return fmt.Errorf("mapping %d: duplicate unique_id %q", i, m.UniqueID)
		}
		seen[m.UniqueID] = struct{}{}
		if m.Path == "" {
			return fmt.Errorf("mapping %q: jsonpath is required", m.UniqueID)
		}
		if !transform.Valid(m.Transform) {
			return fmt.Errorf("mapping %q: unknown transform %q", m.UniqueID, m.Transform)
		}
	}
	return nil
}
