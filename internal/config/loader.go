package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
// Suspicious but workable values (unknown preset names, missing engines)
// produce warnings instead of errors.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Engines
	if cfg.Engines.Primary.APIKey == "" {
		slog.Warn("engines.primary.api_key is empty; cloud synthesis will be unavailable")
	}
	if cfg.Engines.Fallback.ServerURL == "" {
		slog.Warn("engines.fallback.server_url is empty; no local fallback engine will be configured")
	} else if !strings.HasPrefix(cfg.Engines.Fallback.ServerURL, "http://") &&
		!strings.HasPrefix(cfg.Engines.Fallback.ServerURL, "https://") {
		errs = append(errs, fmt.Errorf("engines.fallback.server_url %q must start with http:// or https://", cfg.Engines.Fallback.ServerURL))
	}
	if cfg.Engines.Fallback.Timeout < 0 {
		errs = append(errs, fmt.Errorf("engines.fallback.timeout must not be negative"))
	}

	// Voice defaults: unknown names fall back at resolution time, so they
	// only warrant warnings here.
	if cfg.Voice.MasterPreset != "" {
		if _, ok := prosody.PresetByID(cfg.Voice.MasterPreset); !ok {
			slog.Warn("voice.master_preset is not a known preset; the default will be used",
				"preset", cfg.Voice.MasterPreset, "known", prosody.PresetIDs())
		}
	}
	if cfg.Voice.Archetype != "" {
		if _, ok := prosody.ArchetypeByName(cfg.Voice.Archetype); !ok {
			slog.Warn("voice.archetype is not a known archetype; the overlay will be skipped",
				"archetype", cfg.Voice.Archetype, "known", prosody.ArchetypeNames())
		}
	}
	errs = append(errs, validateOverlay("voice.overrides", cfg.Voice.Overrides)...)

	// Memory
	if cfg.Memory.PreferredPreset != "" {
		if _, ok := prosody.PresetByID(cfg.Memory.PreferredPreset); !ok {
			slog.Warn("memory.preferred_preset is not a known preset; the default will be used",
				"preset", cfg.Memory.PreferredPreset)
		}
	}
	errs = append(errs, validateOverlay("memory.overrides", cfg.Memory.Overrides)...)

	// Live
	if cfg.Live.InputSampleRate < 0 {
		errs = append(errs, fmt.Errorf("live.input_sample_rate must not be negative"))
	}
	if cfg.Live.OutputSampleRate < 0 {
		errs = append(errs, fmt.Errorf("live.output_sample_rate must not be negative"))
	}
	if cfg.Live.Watchdog.Interval < 0 {
		errs = append(errs, fmt.Errorf("live.watchdog.interval must not be negative"))
	}
	if cfg.Live.Watchdog.Threshold < 0 {
		errs = append(errs, fmt.Errorf("live.watchdog.threshold must not be negative"))
	}
	if cfg.Live.Watchdog.MaxNudges < 0 {
		errs = append(errs, fmt.Errorf("live.watchdog.max_nudges must not be negative"))
	}

	// Synthesis
	if cfg.Synthesis.MaxChunkLen < 0 {
		errs = append(errs, fmt.Errorf("synthesis.max_chunk_len must not be negative"))
	}
	if cfg.Synthesis.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("synthesis.sample_rate must not be negative"))
	}

	return errors.Join(errs...)
}

// validateOverlay range-checks the explicit overlay fields against the hard
// matrix bounds. Out-of-range values are configuration mistakes worth failing
// on, unlike runtime inputs which are clamped.
func validateOverlay(prefix string, o prosody.Overlay) []error {
	var errs []error
	check := func(field string, v *float64, lo, hi float64) {
		if v != nil && (*v < lo || *v > hi) {
			errs = append(errs, fmt.Errorf("%s.%s %.2f is out of range [%.1f, %.1f]", prefix, field, *v, lo, hi))
		}
	}
	check("pitch", o.Pitch, prosody.MinPitch, prosody.MaxPitch)
	check("rate", o.Rate, prosody.MinRate, prosody.MaxRate)
	check("timbre", o.Timbre, prosody.MinTimbre, prosody.MaxTimbre)
	check("emphasis", o.Emphasis, prosody.MinEmphasis, prosody.MaxEmphasis)
	check("breathiness", o.Breathiness, prosody.MinBreath, prosody.MaxBreath)
	check("vocal_tension", o.VocalTension, prosody.MinTension, prosody.MaxTension)
	check("prosody_variance", o.ProsodyVariance, prosody.MinVariance, prosody.MaxVariance)
	check("variability", o.Variability, prosody.MinVariance, prosody.MaxVariance)
	if o.PauseMs != nil && *o.PauseMs < prosody.MinPauseMs {
		errs = append(errs, fmt.Errorf("%s.pause_ms %.0f must not be negative", prefix, *o.PauseMs))
	}

	if o.Emotion != "" && !o.Emotion.IsValid() {
		errs = append(errs, fmt.Errorf("%s.emotion %q is not a recognised emotion", prefix, o.Emotion))
	}
	if o.Intent != "" && !o.Intent.IsValid() {
		errs = append(errs, fmt.Errorf("%s.intent %q is not a recognised intent", prefix, o.Intent))
	}
	return errs
}

// knownLogLevels is used by error messages and tests.
var knownLogLevels = []LogLevel{LogDebug, LogInfo, LogWarn, LogError}

// SlogLevel maps the configured level onto a slog.Level. Unknown or empty
// levels map to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsKnownLevel reports whether s names a recognised log level.
func IsKnownLevel(s string) bool {
	return slices.Contains(knownLogLevels, LogLevel(s))
}
