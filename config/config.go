package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"drum-trigger/sequencer"
)

// EnvPrefix is prepended to every environment override, e.g. DRUM_TRIGGER_BPM
const EnvPrefix = "DRUM_TRIGGER"

// RenderConfig controls the offline SoundFont bounce
type RenderConfig struct {
	SoundFont  string `mapstructure:"soundfont"`
	SampleRate int    `mapstructure:"sample_rate" validate:"oneof=22050 44100 48000 96000"`
	Program    int    `mapstructure:"program" validate:"min=0,max=127"`
}

// PlayConfig selects the hardware output for live playback
type PlayConfig struct {
	Port string `mapstructure:"port"`
}

// LogConfig stores logging preferences
type LogConfig struct {
	Level     string `mapstructure:"level" validate:"oneof=debug info warn error"`
	DebugFile string `mapstructure:"debug_file"`
	Debug     bool   `mapstructure:"debug"`
}

// UIConfig controls terminal styling
type UIConfig struct {
	Palette string `mapstructure:"palette"` // GIMP .gpl file, built-in palette when empty
}

// Config is the main configuration structure
type Config struct {
	Output            string  `mapstructure:"output" validate:"required"`
	Mapping           string  `mapstructure:"mapping"`
	Kit               string  `mapstructure:"kit"`
	SpacingMultiplier float64 `mapstructure:"spacing" validate:"gt=0"`
	Velocity          int     `mapstructure:"velocity" validate:"min=0,max=127"`
	BPM               int     `mapstructure:"bpm" validate:"gt=0"`
	TicksPerBeat      int     `mapstructure:"ticks_per_beat" validate:"gt=0,max=32767"`
	Channel           int     `mapstructure:"channel" validate:"min=1,max=16"`
	TrackName         string  `mapstructure:"track_name"`

	Render RenderConfig `mapstructure:"render"`
	Play   PlayConfig   `mapstructure:"play"`
	Log    LogConfig    `mapstructure:"log"`
	UI     UIConfig     `mapstructure:"ui"`

	// File is the config file that was read, empty when running on defaults
	File string `mapstructure:"-"`
}

var defaults = map[string]any{
	"output":             "drum_trigger.mid",
	"mapping":            "",
	"kit":                "",
	"spacing":            1.0,
	"velocity":           127,
	"bpm":                120,
	"ticks_per_beat":     480,
	"channel":            1,
	"track_name":         "Logic Drum Export",
	"render.soundfont":   "",
	"render.sample_rate": 44100,
	"render.program":     0,
	"play.port":          "",
	"log.level":          "info",
	"log.debug_file":     "",
	"log.debug":          false,
	"ui.palette":         "",
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// defaults are static; a decode failure is a programming error
		panic(fmt.Sprintf("config: decoding defaults: %v", err))
	}
	return cfg
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "drum-trigger"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config. An explicit path must exist; otherwise config.yaml is
// looked up in the working directory and ConfigDir, falling back to defaults.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

var validate = newValidator()

// newValidator reports fields by their config key rather than the Go name
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field against its range and reports the first
// offending field with its value.
func (c *Config) Validate() error {
	return sequencer.ConfigurationError(validate.Struct(c))
}

// Params converts the sequencing settings
func (c *Config) Params() sequencer.Params {
	return sequencer.Params{
		SpacingMultiplier: c.SpacingMultiplier,
		Velocity:          c.Velocity,
		BPM:               c.BPM,
		TicksPerBeat:      c.TicksPerBeat,
		Channel:           c.Channel,
	}
}

// Save writes the config as YAML to path (ConfigPath when empty)
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	for k, val := range c.Settings() {
		v.Set(k, val)
	}
	return v.WriteConfigAs(path)
}

// Settings flattens the config into viper keys
func (c *Config) Settings() map[string]any {
	return map[string]any{
		"output":             c.Output,
		"mapping":            c.Mapping,
		"kit":                c.Kit,
		"spacing":            c.SpacingMultiplier,
		"velocity":           c.Velocity,
		"bpm":                c.BPM,
		"ticks_per_beat":     c.TicksPerBeat,
		"channel":            c.Channel,
		"track_name":         c.TrackName,
		"render.soundfont":   c.Render.SoundFont,
		"render.sample_rate": c.Render.SampleRate,
		"render.program":     c.Render.Program,
		"play.port":          c.Play.Port,
		"log.level":          c.Log.Level,
		"log.debug_file":     c.Log.DebugFile,
		"log.debug":          c.Log.Debug,
		"ui.palette":         c.UI.Palette,
	}
}
