// Package config provides the configuration schema, loader, and file watcher
// for the voice orchestrator.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
)

// Duration is a time.Duration that unmarshals from YAML duration strings such
// as "15s" or "1.5h". Plain integers are read as nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(v)
	default:
		return fmt.Errorf("config: invalid duration value %v", raw)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Engines   EnginesConfig   `yaml:"engines"`
	Voice     VoiceConfig     `yaml:"voice"`
	Memory    MemoryConfig    `yaml:"memory"`
	Live      LiveConfig      `yaml:"live"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the health/metrics server listens on
	// (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// EnginesConfig declares the two synthesis engines: the cloud primary and
// the local fallback.
type EnginesConfig struct {
	Primary  GeminiEngineConfig `yaml:"primary"`
	Fallback HiggsEngineConfig  `yaml:"fallback"`
}

// GeminiEngineConfig configures the cloud studio engine.
type GeminiEngineConfig struct {
	// APIKey authenticates against the Gemini Live API.
	APIKey string `yaml:"api_key"`

	// Model overrides the default Gemini model. Leave empty for the default.
	Model string `yaml:"model"`

	// Voice selects the prebuilt voice (e.g., "Aoede").
	Voice string `yaml:"voice"`
}

// HiggsEngineConfig configures the local fallback engine.
type HiggsEngineConfig struct {
	// ServerURL is the base URL of the local Higgs server
	// (e.g., "http://localhost:5002").
	ServerURL string `yaml:"server_url"`

	// Speaker selects the speaker_id for multi-speaker models. Optional.
	Speaker string `yaml:"speaker"`

	// Timeout is the per-request HTTP timeout. Zero uses the engine default.
	Timeout Duration `yaml:"timeout"`
}

// VoiceConfig is the default voice profile applied to utterances that do not
// carry their own.
type VoiceConfig struct {
	// MasterPreset selects the baseline preset
	// (e.g., "calm_professional"). Empty uses the default preset.
	MasterPreset string `yaml:"master_preset"`

	// Archetype optionally layers a speaking-style overlay
	// (e.g., "narrator", "educator").
	Archetype string `yaml:"archetype"`

	// ManualOverride pins the voice: document-level persona classification
	// is skipped entirely.
	ManualOverride bool `yaml:"manual_override"`

	// Overrides are explicit per-field adjustments applied after all
	// automatic layers.
	Overrides prosody.Overlay `yaml:"overrides"`
}

// MemoryConfig holds the remembered voice preferences carried across
// utterances.
type MemoryConfig struct {
	// Enabled turns the memory layer on.
	Enabled bool `yaml:"enabled"`

	// AutoTuneEmotion lets classified emotion nudge the matrix.
	AutoTuneEmotion bool `yaml:"auto_tune_emotion"`

	// PreferredPreset is used when an utterance names no preset.
	PreferredPreset string `yaml:"preferred_preset"`

	// Overrides are remembered numeric adjustments.
	Overrides prosody.Overlay `yaml:"overrides"`
}

// LiveConfig tunes the full-duplex conversation session.
type LiveConfig struct {
	// InputSampleRate is the microphone PCM rate in Hz. Default: 16000.
	InputSampleRate int `yaml:"input_sample_rate"`

	// OutputSampleRate is the playback PCM rate in Hz. Default: 24000.
	OutputSampleRate int `yaml:"output_sample_rate"`

	// Watchdog tunes stall detection.
	Watchdog WatchdogConfig `yaml:"watchdog"`
}

// WatchdogConfig tunes the live session's stall watchdog.
type WatchdogConfig struct {
	// Interval is how often the watchdog checks for a stall. Default: 1s.
	Interval Duration `yaml:"interval"`

	// Threshold is the silence duration that counts as a stall.
	// Default: 1.5s.
	Threshold Duration `yaml:"threshold"`

	// MaxNudges bounds recovery nudges per stall before the session enters
	// the error state. Default: 3.
	MaxNudges int `yaml:"max_nudges"`
}

// SynthesisConfig tunes the chunked synthesis pipeline.
type SynthesisConfig struct {
	// MaxChunkLen is the upper bound on chunk length in bytes. Default: 250.
	MaxChunkLen int `yaml:"max_chunk_len"`

	// SampleRate is the PCM rate stamped on synthesised frames.
	// Default: 24000.
	SampleRate int `yaml:"sample_rate"`
}

// Profile converts the configured voice defaults into a prosody.VoiceProfile.
func (v VoiceConfig) Profile() prosody.VoiceProfile {
	return prosody.VoiceProfile{
		MasterPresetID: v.MasterPreset,
		Archetype:      v.Archetype,
		ManualOverride: v.ManualOverride,
		Overrides:      v.Overrides,
	}
}

// Memory converts the configured memory block into a prosody.Memory.
func (m MemoryConfig) Memory() prosody.Memory {
	return prosody.Memory{
		Enabled:         m.Enabled,
		AutoTuneEmotion: m.AutoTuneEmotion,
		PreferredPreset: m.PreferredPreset,
		Overrides:       m.Overrides,
	}
}
