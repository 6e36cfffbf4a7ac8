// Package config persists user settings for the controller as JSON,
// with named layout presets.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"airgrid/expression"
	"airgrid/midi"
)

// ErrUnknownPreset is returned by ApplyPreset for names not in the
// preset table.
var ErrUnknownPreset = errors.New("config: unknown preset")

// LayoutPreset is a partial layout override; nil fields keep the current
// value.
type LayoutPreset struct {
	Rows         *int     `json:"rows,omitempty"`
	Columns      *int     `json:"columns,omitempty"`
	Margin       *float64 `json:"margin,omitempty"`
	BaseNote     *int     `json:"baseNote,omitempty"`
	NoteInterval *int     `json:"noteInterval,omitempty"`
}

// LayoutConfig holds grid geometry and note arithmetic.
type LayoutConfig struct {
	Rows           int                     `json:"rows"`
	Columns        int                     `json:"columns"`
	Margin         float64                 `json:"margin"`
	BaseNote       int                     `json:"baseNote"`
	NoteInterval   int                     `json:"noteInterval"`
	ActivationMode string                  `json:"activationMode"`
	Presets        map[string]LayoutPreset `json:"presets,omitempty"`
}

// TrackingConfig configures the frame source and landmark smoothing.
type TrackingConfig struct {
	ListenAddr     string  `json:"listenAddr"`
	Smoother       string  `json:"smoother"`
	SmoothingAlpha float64 `json:"smoothingAlpha"`
}

// ExpressionConfig holds per-signal scaling and threshold factors.
type ExpressionConfig struct {
	VelocityScaling      float64 `json:"velocityScaling"`
	VelocityThreshold    float64 `json:"velocityThreshold"`
	MaxVelocity          float64 `json:"maxVelocity"`
	PressureMin          float64 `json:"pressureMin"`
	PressureMax          float64 `json:"pressureMax"`
	PressureScaling      float64 `json:"pressureScaling"`
	PitchBendThreshold   float64 `json:"pitchBendThreshold"`
	PitchBendSensitivity float64 `json:"pitchBendSensitivity"`
	VerticalScaling      float64 `json:"verticalScaling"`
	TrajectoryLength     int     `json:"trajectoryLength"`
}

// MIDIConfig selects the output port and expression encoding.
type MIDIConfig struct {
	PortName           string `json:"portName,omitempty"`
	MPEEnabled         bool   `json:"mpeEnabled"`
	PressureCC         uint8  `json:"pressureCC"`
	ModulationCC       uint8  `json:"modulationCC"`
	VerticalCC         uint8  `json:"verticalCC"`
	NoteReleaseDelayMS int    `json:"noteReleaseDelayMs"`
}

// Config is the main configuration structure.
type Config struct {
	Layout     LayoutConfig     `json:"layout"`
	Tracking   TrackingConfig   `json:"tracking"`
	Expression ExpressionConfig `json:"expression"`
	MIDI       MIDIConfig       `json:"midi"`
}

// Default returns a config with the reference defaults.
func Default() *Config {
	ec := expression.DefaultConfig()
	return &Config{
		Layout: LayoutConfig{
			Rows:           3,
			Columns:        4,
			Margin:         0.1,
			BaseNote:       60,
			NoteInterval:   1,
			ActivationMode: "all_fingers",
		},
		Tracking: TrackingConfig{
			ListenAddr:     ":9400",
			Smoother:       "ema",
			SmoothingAlpha: 0.3,
		},
		Expression: ExpressionConfig{
			VelocityScaling:      ec.VelocityScaling,
			VelocityThreshold:    ec.VelocityThreshold,
			MaxVelocity:          ec.MaxVelocity,
			PressureMin:          ec.PressureMin,
			PressureMax:          ec.PressureMax,
			PressureScaling:      ec.PressureScaling,
			PitchBendThreshold:   ec.PitchBendThreshold,
			PitchBendSensitivity: ec.PitchBendSensitivity,
			VerticalScaling:      ec.VerticalScaling,
			TrajectoryLength:     ec.TrajectoryLength,
		},
		MIDI: MIDIConfig{
			MPEEnabled:         true,
			PressureCC:         midi.DefaultPressureCC,
			ModulationCC:       midi.DefaultModulationCC,
			VerticalCC:         midi.DefaultVerticalCC,
			NoteReleaseDelayMS: 100,
		},
	}
}

// Dir returns the config directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "airgrid"), nil
}

// Path returns the full path to config.json.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads a config file, or returns defaults if it does not exist.
// Values omitted from the file keep their defaults, so partial configs
// are safe.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyPreset copies a named preset's fields into the live layout
// section. Unknown names error; they are never silently ignored.
func (c *Config) ApplyPreset(name string) error {
	preset, ok := c.Layout.Presets[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	if preset.Rows != nil {
		c.Layout.Rows = *preset.Rows
	}
	if preset.Columns != nil {
		c.Layout.Columns = *preset.Columns
	}
	if preset.Margin != nil {
		c.Layout.Margin = *preset.Margin
	}
	if preset.BaseNote != nil {
		c.Layout.BaseNote = *preset.BaseNote
	}
	if preset.NoteInterval != nil {
		c.Layout.NoteInterval = *preset.NoteInterval
	}
	return nil
}

// ExpressionConfig converts to the engine's config type.
func (c *Config) ExpressionConfig() expression.Config {
	e := c.Expression
	return expression.Config{
		VelocityScaling:      e.VelocityScaling,
		VelocityThreshold:    e.VelocityThreshold,
		MaxVelocity:          e.MaxVelocity,
		PressureMin:          e.PressureMin,
		PressureMax:          e.PressureMax,
		PressureScaling:      e.PressureScaling,
		PitchBendThreshold:   e.PitchBendThreshold,
		PitchBendSensitivity: e.PitchBendSensitivity,
		VerticalScaling:      e.VerticalScaling,
		TrajectoryLength:     e.TrajectoryLength,
	}
}

// ControllerConfig converts to the MIDI controller's config type.
func (c *Config) ControllerConfig() midi.ControllerConfig {
	return midi.ControllerConfig{
		MPEEnabled:   c.MIDI.MPEEnabled,
		PressureCC:   c.MIDI.PressureCC,
		ModulationCC: c.MIDI.ModulationCC,
		VerticalCC:   c.MIDI.VerticalCC,
	}
}

// ReleaseDelay returns the debounce window as a duration.
func (c *Config) ReleaseDelay() time.Duration {
	return time.Duration(c.MIDI.NoteReleaseDelayMS) * time.Millisecond
}
