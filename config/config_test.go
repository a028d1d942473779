package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"drum-trigger/sequencer"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SpacingMultiplier != 1.0 || cfg.Velocity != 127 || cfg.BPM != 120 || cfg.TicksPerBeat != 480 || cfg.Channel != 1 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Output != "drum_trigger.mid" || cfg.TrackName != "Logic Drum Export" {
		t.Errorf("unexpected default names: %q %q", cfg.Output, cfg.TrackName)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if got, want := cfg.Params(), sequencer.DefaultParams(); got != want {
		t.Errorf("Params() = %+v, want %+v", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drums.yaml")
	data := "bpm: 90\nspacing: 1.5\nchannel: 10\nrender:\n  sample_rate: 48000\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BPM != 90 || cfg.SpacingMultiplier != 1.5 || cfg.Channel != 10 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Render.SampleRate != 48000 {
		t.Errorf("sample rate = %d", cfg.Render.SampleRate)
	}
	if cfg.Velocity != 127 {
		t.Errorf("unset keys should keep defaults, velocity = %d", cfg.Velocity)
	}
	if cfg.File != path {
		t.Errorf("File = %q, want %q", cfg.File, path)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing explicit config")
	}
}

func TestLoadSearchesWorkingDir(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.File != "" {
		t.Errorf("no config should be found, got %q", cfg.File)
	}

	if err := os.WriteFile("config.yaml", []byte("velocity: 100\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Velocity != 100 {
		t.Errorf("velocity = %d, want 100", cfg.Velocity)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("DRUM_TRIGGER_BPM", "140")
	t.Setenv("DRUM_TRIGGER_RENDER_PROGRAM", "25")

	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("bpm: 90\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BPM != 140 {
		t.Errorf("env should win over file, bpm = %d", cfg.BPM)
	}
	if cfg.Render.Program != 25 {
		t.Errorf("nested env override, program = %d", cfg.Render.Program)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"zero spacing", func(c *Config) { c.SpacingMultiplier = 0 }, "spacing"},
		{"velocity high", func(c *Config) { c.Velocity = 128 }, "velocity"},
		{"bpm zero", func(c *Config) { c.BPM = 0 }, "bpm"},
		{"ticks high", func(c *Config) { c.TicksPerBeat = 40000 }, "ticks_per_beat"},
		{"channel zero", func(c *Config) { c.Channel = 0 }, "channel"},
		{"channel 17", func(c *Config) { c.Channel = 17 }, "channel"},
		{"no output", func(c *Config) { c.Output = "" }, "output"},
		{"sample rate", func(c *Config) { c.Render.SampleRate = 12345 }, "sample_rate"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)
			err := cfg.Validate()
			if !errors.Is(err, sequencer.ErrInvalidConfiguration) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfiguration", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should name %q", err, tt.field)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.BPM = 100
	cfg.SpacingMultiplier = 2.5
	cfg.Kit = "tr8s"
	cfg.Play.Port = "IAC Driver"
	cfg.Log.Debug = true
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	got.File = ""
	if *got != *cfg {
		t.Errorf("round trip:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestSettingsCoversDefaults(t *testing.T) {
	settings := DefaultConfig().Settings()
	for k := range defaults {
		if _, ok := settings[k]; !ok {
			t.Errorf("Settings() missing %q", k)
		}
	}
	if len(settings) != len(defaults) {
		t.Errorf("Settings() has %d keys, defaults %d", len(settings), len(defaults))
	}
}

// chdir changes the working directory for the rest of the test and restores
// it afterwards (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}
