// Package config handles gearbox configuration loading and management.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/Faultbox/gearbox/internal/transmission"
)

// Config holds all settings of the gearbox tools.
type Config struct {
	Mechanism transmission.Layout `yaml:"mechanism" toml:"mechanism"`
	Animation AnimationConfig     `yaml:"animation" toml:"animation"`
	Export    ExportConfig        `yaml:"export" toml:"export"`
	Logging   LoggingConfig       `yaml:"logging" toml:"logging"`
}

// AnimationConfig holds shaft speed and shift timing.
type AnimationConfig struct {
	InputRPM    float64  `yaml:"input_rpm" toml:"input_rpm"`
	InputPeriod Duration `yaml:"input_period" toml:"input_period"` // one input revolution on screen
	CamDuration Duration `yaml:"cam_duration" toml:"cam_duration"`
	Paused      bool     `yaml:"paused" toml:"paused"`
}

// ExportConfig holds mesh export settings.
type ExportConfig struct {
	Output    string `yaml:"output" toml:"output"`
	Materials bool   `yaml:"materials" toml:"materials"` // write a .mtl next to the .obj
	Position  int    `yaml:"position" toml:"position"`   // selector position to pose the parts in
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Fast and slow on-screen input shaft periods.
const (
	SlowInputPeriod = 5 * time.Second
	FastInputPeriod = 2500 * time.Millisecond
)

// Default returns a Config for the stock mechanism.
func Default() *Config {
	return &Config{
		Mechanism: transmission.Default(),
		Animation: AnimationConfig{
			InputRPM:    transmission.DefaultInputRPM,
			InputPeriod: Duration(SlowInputPeriod),
			CamDuration: Duration(transmission.DefaultCamDuration),
		},
		Export: ExportConfig{
			Output:    "gearbox.obj",
			Materials: true,
			Position:  transmission.Neutral,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Mechanism.Validate(); err != nil {
		return err
	}
	switch {
	case !(c.Animation.InputRPM >= 0) || math.IsInf(c.Animation.InputRPM, 1):
		return fmt.Errorf("animation: input rpm %g must be finite and not negative", c.Animation.InputRPM)
	case c.Animation.InputPeriod <= 0:
		return fmt.Errorf("animation: input period %v must be positive", c.Animation.InputPeriod)
	case c.Animation.CamDuration <= 0:
		return fmt.Errorf("animation: cam duration %v must be positive", c.Animation.CamDuration)
	case c.Export.Position < 0 || c.Export.Position >= transmission.Positions:
		return fmt.Errorf("export: position %d outside [0, %d]", c.Export.Position, transmission.Positions-1)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	return nil
}

// Duration is a time.Duration that reads and writes as "800ms" in both
// YAML and TOML.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
