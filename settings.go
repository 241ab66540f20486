package glasspane

import (
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/glasspane/gpucore"
)

// Settings configures an App. The zero value is not valid; start from
// DefaultSettings.
type Settings struct {
	AppName       string `yaml:"app_name"`
	DeveloperName string `yaml:"developer_name"`

	// ForceCPURender disables the GPU path.
	ForceCPURender bool `yaml:"force_cpu_render"`

	// MSAA multisamples render targets with SampleCount samples.
	MSAA        bool   `yaml:"msaa"`
	SampleCount uint32 `yaml:"sample_count"`

	// FaceWinding is "clockwise" or "counter_clockwise".
	FaceWinding string `yaml:"face_winding"`

	// TickInterval is the period of the frame scheduler.
	TickInterval time.Duration `yaml:"tick_interval"`

	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string `yaml:"log_level"`
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() Settings {
	return Settings{
		AppName:       "glasspane",
		DeveloperName: "gogpu",
		MSAA:          true,
		SampleCount:   4,
		FaceWinding:   gpucore.WindingClockwise.String(),
		TickInterval:  2 * time.Millisecond,
		LogLevel:      "warn",
	}
}

// LoadSettings reads a YAML settings file. Fields missing from the file
// keep their default values.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("glasspane: read settings: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes YAML settings over DefaultSettings and validates
// the result.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("glasspane: parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports the first invalid field.
func (s Settings) Validate() error {
	if _, err := parseWinding(s.FaceWinding); err != nil {
		return err
	}
	if s.MSAA && (s.SampleCount == 0 || bits.OnesCount32(s.SampleCount) != 1) {
		return fmt.Errorf("%w: sample_count %d is not a power of two", ErrInvalidSettings, s.SampleCount)
	}
	if s.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval %v must be positive", ErrInvalidSettings, s.TickInterval)
	}
	if _, err := s.Level(); err != nil {
		return err
	}
	return nil
}

// Winding returns the parsed face winding. Invalid values fall back to
// clockwise; Validate reports them.
func (s Settings) Winding() gpucore.Winding {
	w, _ := parseWinding(s.FaceWinding)
	return w
}

// Samples returns the sample count of render targets: SampleCount with
// MSAA on, else 1.
func (s Settings) Samples() uint32 {
	if !s.MSAA || s.SampleCount == 0 {
		return 1
	}
	return s.SampleCount
}

// Level returns the parsed log level.
func (s Settings) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelWarn, fmt.Errorf("%w: log_level %q", ErrInvalidSettings, s.LogLevel)
	}
	return l, nil
}

func parseWinding(s string) (gpucore.Winding, error) {
	switch s {
	case gpucore.WindingClockwise.String():
		return gpucore.WindingClockwise, nil
	case gpucore.WindingCounterClockwise.String():
		return gpucore.WindingCounterClockwise, nil
	}
	return gpucore.WindingClockwise, fmt.Errorf("%w: face_winding %q", ErrInvalidSettings, s)
}
