//
// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package config loads simulation settings from a YAML file, DPSIM_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jahidul-arafat/civic-data/checks"
	"github.com/jahidul-arafat/civic-data/noise"
	"github.com/jahidul-arafat/civic-data/rand"
	"github.com/jahidul-arafat/civic-data/report"
	"github.com/jahidul-arafat/civic-data/simulate"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load, e.g.
// DPSIM_SAMPLES_PER_EPSILON or DPSIM_SCENARIO_TRUE_VALUE.
const EnvPrefix = "DPSIM"

// Config holds the settings of a simulation run.
type Config struct {
	EpsilonValues     []float64 `mapstructure:"epsilon_values"`
	Sensitivity       float64   `mapstructure:"sensitivity"`
	SamplesPerEpsilon int       `mapstructure:"samples_per_epsilon"`
	GroupBy           string    `mapstructure:"group_by"`
	FilterField       string    `mapstructure:"filter_field"`
	FilterValue       string    `mapstructure:"filter_value"`
	Threshold         float64   `mapstructure:"threshold"`
	// Seed makes every Monte Carlo path reproducible. 0 draws from the
	// cryptographically secure source.
	Seed int64 `mapstructure:"seed"`
	// MarginMultiplier replaces the Gaussian 1.96 of the reported margin. 0
	// keeps simulate.GaussianZ975.
	MarginMultiplier float64 `mapstructure:"margin_multiplier"`
	// LaplaceMargin sizes the margin with the exact 95% Laplace multiplier
	// ln(20). It excludes MarginMultiplier.
	LaplaceMargin bool     `mapstructure:"laplace_margin"`
	Curve         Curve    `mapstructure:"curve"`
	Scenario      Scenario `mapstructure:"scenario"`
}

// Curve is the ε grid of the error and flip curves.
type Curve struct {
	From float64 `mapstructure:"from"`
	To   float64 `mapstructure:"to"`
	Step float64 `mapstructure:"step"`
}

// LaplaceMarginAlpha is the miscoverage of the margin selected by
// LaplaceMargin.
const LaplaceMarginAlpha = 0.05

// Scenario selects a preset and optionally overrides its fields. Zero fields
// keep the preset's values.
type Scenario struct {
	Preset       string  `mapstructure:"preset"`
	TrueValue    float64 `mapstructure:"true_value"`
	Threshold    float64 `mapstructure:"threshold"`
	Sensitivity  float64 `mapstructure:"sensitivity"`
	DisplayScale float64 `mapstructure:"display_scale"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		EpsilonValues:     append([]float64(nil), report.DefaultEpsilons...),
		Sensitivity:       report.DefaultSensitivity,
		SamplesPerEpsilon: report.DefaultSamplesPerEpsilon,
		Curve:             Curve{From: 0.1, To: 5, Step: 0.3},
		Scenario:          Scenario{Preset: "school"},
	}
}

// SetDefaults registers the defaults on v. Keys unknown to v are not read from
// the environment, so every key gets a default.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("epsilon_values", d.EpsilonValues)
	v.SetDefault("sensitivity", d.Sensitivity)
	v.SetDefault("samples_per_epsilon", d.SamplesPerEpsilon)
	v.SetDefault("group_by", "")
	v.SetDefault("filter_field", "")
	v.SetDefault("filter_value", "")
	v.SetDefault("threshold", 0.0)
	v.SetDefault("seed", int64(0))
	v.SetDefault("margin_multiplier", 0.0)
	v.SetDefault("laplace_margin", false)
	v.SetDefault("curve.from", d.Curve.From)
	v.SetDefault("curve.to", d.Curve.To)
	v.SetDefault("curve.step", d.Curve.Step)
	v.SetDefault("scenario.preset", d.Scenario.Preset)
	v.SetDefault("scenario.true_value", 0.0)
	v.SetDefault("scenario.threshold", 0.0)
	v.SetDefault("scenario.sensitivity", 0.0)
	v.SetDefault("scenario.display_scale", 0.0)
}

// Load reads cfgFile, if set, and the environment into v and decodes the
// result. Flags bound to v beforehand take precedence over both.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file %q: %w", cfgFile, err)
			}
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the sweep settings. Scenario fields are checked by
// ResolveScenario once the preset is merged in.
func (c *Config) Validate() error {
	if err := checks.CheckEpsilons(c.EpsilonValues); err != nil {
		return err
	}
	if err := checks.CheckSensitivity(c.Sensitivity); err != nil {
		return err
	}
	if err := checks.CheckSampleCount(c.SamplesPerEpsilon, "SamplesPerEpsilon"); err != nil {
		return err
	}
	if c.MarginMultiplier != 0 {
		if c.LaplaceMargin {
			return fmt.Errorf("MarginMultiplier is %g and LaplaceMargin is set, choose one: %w", c.MarginMultiplier, checks.ErrInvalidParameter)
		}
		if err := checks.CheckMultiplier(c.MarginMultiplier); err != nil {
			return err
		}
	}
	return checks.CheckThreshold(c.Threshold)
}

// Multiplier returns the margin multiplier selected by MarginMultiplier and
// LaplaceMargin.
func (c *Config) Multiplier() (float64, error) {
	switch {
	case c.LaplaceMargin:
		return noise.LaplaceMultiplier(LaplaceMarginAlpha)
	case c.MarginMultiplier != 0:
		return c.MarginMultiplier, nil
	}
	return simulate.GaussianZ975, nil
}

// ResolveScenario merges the configured overrides into the selected preset.
// Without a preset, all of TrueValue, Sensitivity and DisplayScale must be
// set; Threshold may be 0.
func (c *Config) ResolveScenario() (simulate.Scenario, error) {
	var sc simulate.Scenario
	if c.Scenario.Preset != "" {
		p, ok := simulate.LookupPreset(c.Scenario.Preset)
		if !ok {
			return sc, fmt.Errorf("unknown preset %q: %w", c.Scenario.Preset, checks.ErrInvalidParameter)
		}
		sc = p.Scenario
	}
	if c.Scenario.TrueValue != 0 {
		sc.TrueValue = c.Scenario.TrueValue
	}
	if c.Scenario.Threshold != 0 {
		sc.Threshold = c.Scenario.Threshold
	}
	if c.Scenario.Sensitivity != 0 {
		sc.Sensitivity = c.Scenario.Sensitivity
	}
	if c.Scenario.DisplayScale != 0 {
		sc.DisplayScale = c.Scenario.DisplayScale
	}
	if err := sc.Validate(); err != nil {
		return simulate.Scenario{}, err
	}
	return sc, nil
}

// AnalysisConfig returns the raw-data analysis settings.
func (c *Config) AnalysisConfig() report.AnalysisConfig {
	return report.AnalysisConfig{
		GroupBy:           c.GroupBy,
		FilterField:       c.FilterField,
		FilterValue:       c.FilterValue,
		Threshold:         c.Threshold,
		Epsilons:          c.EpsilonValues,
		Sensitivity:       c.Sensitivity,
		SamplesPerEpsilon: c.SamplesPerEpsilon,
	}
}

// Source returns the random source selected by Seed. offset derives distinct,
// still reproducible streams for concurrent workers.
func (c *Config) Source(offset int64) rand.Source {
	if c.Seed == 0 {
		return rand.Secure()
	}
	return rand.NewSeeded(c.Seed + offset)
}

// Simulator returns a simulator drawing from Source(offset) and sizing
// margins with Multiplier.
func (c *Config) Simulator(offset int64) (*simulate.Simulator, error) {
	m, err := c.Multiplier()
	if err != nil {
		return nil, err
	}
	return simulate.New(&simulate.Options{
		Noise:            noise.NewLaplace(c.Source(offset)),
		MarginMultiplier: m,
	})
}
