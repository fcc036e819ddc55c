// Package config loads the startup configuration file. All fields are
// pointers so a partial JSON file only overrides what it names; the Get*
// accessors supply defaults for everything else. Values that also live in
// the parameter store are seeded from here on first boot and the store wins
// afterwards.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meridian-uas/setpoint.bridge/internal/frame"
)

// Config represents the root startup configuration. The schema matches the
// /api/config endpoint so the same JSON can be inspected at runtime.
type Config struct {
	// Frame convention applied to outgoing setpoints, by name
	// (e.g. "LOCAL_NED", "BODY_NED").
	MavFrame *string `json:"mav_frame,omitempty"`

	// Pose source selection: when true, consume the transform stream;
	// when false, accept discrete pose submissions.
	TFListen *bool `json:"tf_listen,omitempty"`

	// Transform stream addressing and throttling.
	TFFrameID      *string  `json:"tf_frame_id,omitempty"`
	TFChildFrameID *string  `json:"tf_child_frame_id,omitempty"`
	TFRateLimit    *float64 `json:"tf_rate_limit,omitempty"` // Hz, 0 disables limiting

	// MAVLink addressing for outgoing setpoints.
	TargetSystem    *int `json:"target_system,omitempty"`
	TargetComponent *int `json:"target_component,omitempty"`

	// Serial connection to the flight controller.
	SerialPort *string `json:"serial_port,omitempty"`
	BaudRate   *int    `json:"baud_rate,omitempty"`
}

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. The file must have a .json
// extension and stay under the max file size. Fields omitted from the JSON
// keep their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.MavFrame != nil {
		if _, err := frame.FromName(*c.MavFrame); err != nil {
			return fmt.Errorf("invalid mav_frame %q", *c.MavFrame)
		}
	}
	if c.TFRateLimit != nil && *c.TFRateLimit < 0 {
		return fmt.Errorf("tf_rate_limit must be non-negative, got %f", *c.TFRateLimit)
	}
	if c.TargetSystem != nil && (*c.TargetSystem < 0 || *c.TargetSystem > 255) {
		return fmt.Errorf("target_system must be between 0 and 255, got %d", *c.TargetSystem)
	}
	if c.TargetComponent != nil && (*c.TargetComponent < 0 || *c.TargetComponent > 255) {
		return fmt.Errorf("target_component must be between 0 and 255, got %d", *c.TargetComponent)
	}
	if c.BaudRate != nil && *c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
	}
	return nil
}

// GetMavFrame returns the configured frame name or the default.
func (c *Config) GetMavFrame() string {
	if c.MavFrame == nil || *c.MavFrame == "" {
		return frame.Default.String()
	}
	return *c.MavFrame
}

// GetTFListen returns the tf_listen value or the default.
func (c *Config) GetTFListen() bool {
	if c.TFListen == nil {
		return false // default: discrete pose submissions
	}
	return *c.TFListen
}

// GetTFFrameID returns the tf_frame_id value or the default.
func (c *Config) GetTFFrameID() string {
	if c.TFFrameID == nil || *c.TFFrameID == "" {
		return "map"
	}
	return *c.TFFrameID
}

// GetTFChildFrameID returns the tf_child_frame_id value or the default.
func (c *Config) GetTFChildFrameID() string {
	if c.TFChildFrameID == nil || *c.TFChildFrameID == "" {
		return "target_position"
	}
	return *c.TFChildFrameID
}

// GetTFRateLimit returns the tf_rate_limit value in Hz or the default.
func (c *Config) GetTFRateLimit() float64 {
	if c.TFRateLimit == nil {
		return 50.0
	}
	return *c.TFRateLimit
}

// GetTargetSystem returns the target_system value or the default.
func (c *Config) GetTargetSystem() uint8 {
	if c.TargetSystem == nil {
		return 1
	}
	return uint8(*c.TargetSystem)
}

// GetTargetComponent returns the target_component value or the default.
func (c *Config) GetTargetComponent() uint8 {
	if c.TargetComponent == nil {
		return 1
	}
	return uint8(*c.TargetComponent)
}

// GetSerialPort returns the serial_port value; empty means no hardware
// link was configured.
func (c *Config) GetSerialPort() string {
	if c.SerialPort == nil {
		return ""
	}
	return *c.SerialPort
}

// GetBaudRate returns the baud_rate value or the default telemetry rate.
func (c *Config) GetBaudRate() int {
	if c.BaudRate == nil {
		return 57600
	}
	return *c.BaudRate
}
