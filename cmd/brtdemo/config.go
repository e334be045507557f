// Package main implements brtdemo, the outer collaborator spec.md §1
// carves out of the core engine's scope: config loading, CLI flags,
// command dispatch, and audio device I/O. None of this lives in the core
// module; brtdemo exists only to give the engine's public ports/command
// surface (brt/ports) and listener models (brt/listener) a runnable
// caller.
package main

import (
	"os"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
	"gopkg.in/yaml.v3"
)

// SourceConfig describes one demo sound source moving on a horizontal
// circle around the listener, the simplest motion that exercises the
// engine's per-block direction recompute every frame.
type SourceConfig struct {
	ID          string  `yaml:"id"`
	RadiusM     float64 `yaml:"radiusM"`
	HeightM     float64 `yaml:"heightM"`
	SpeedHz     float64 `yaml:"speedHz"`
	StartPhase  float64 `yaml:"startPhaseDeg"`
	ToneHz      float64 `yaml:"toneHz"`
}

// RoomConfig describes the SDN environment model's box geometry and wall
// absorption; Enabled=false gives a dry HRTF-only session.
type RoomConfig struct {
	Enabled       bool       `yaml:"enabled"`
	DimensionsM   geom.Vector3 `yaml:"dimensionsM"`
	WallAbsorption float64   `yaml:"wallAbsorption"`
	SoundSpeedMPS float64    `yaml:"soundSpeedMPS"`
}

// Config is brtdemo's session descriptor, loaded from YAML with pflag
// overrides for the handful of scalars worth overriding from the command
// line (spec.md §1 non-goal "configuration loading" is about the core; the
// demo still needs a concrete type to load).
type Config struct {
	SampleRate           int            `yaml:"sampleRate"`
	BlockSize            int            `yaml:"blockSize"`
	HeadRadiusM          float64        `yaml:"headRadiusM"`
	MeasurementDistanceM float64        `yaml:"measurementDistanceM"`
	AmbisonicOrder       int            `yaml:"ambisonicOrder"`
	AmbisonicNorm        string         `yaml:"ambisonicNormalization"`
	UseAmbisonic         bool           `yaml:"useAmbisonic"`
	FeatureFlags         brt.FeatureFlags `yaml:"featureFlags"`
	Room                 RoomConfig     `yaml:"room"`
	Sources              []SourceConfig `yaml:"sources"`
}

// DefaultConfig is the session brtdemo runs when no --config file is
// given: one circling tone source, HRTF listener, no room.
func DefaultConfig() Config {
	return Config{
		SampleRate:           48000,
		BlockSize:            512,
		HeadRadiusM:          0.0875,
		MeasurementDistanceM: 1.95,
		AmbisonicOrder:       1,
		AmbisonicNorm:        "N3D",
		FeatureFlags:         brt.DefaultFeatureFlags(),
		Room: RoomConfig{
			Enabled:       false,
			DimensionsM:   geom.Vector3{X: 6, Y: 3, Z: 5},
			WallAbsorption: 0.2,
			SoundSpeedMPS: 343,
		},
		Sources: []SourceConfig{
			{ID: "voice", RadiusM: 1.5, HeightM: 0, SpeedHz: 0.1, ToneHz: 220},
		},
	}
}

// LoadConfig reads and parses a YAML session descriptor, starting from
// DefaultConfig so a partial file only overrides what it names.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GlobalParameters builds the brt.GlobalParameters this session runs
// with.
func (c Config) GlobalParameters() (brt.GlobalParameters, error) {
	return brt.NewGlobalParameters(c.SampleRate, c.BlockSize, geom.DefaultConvention)
}
