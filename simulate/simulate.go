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

// Package simulate estimates how Laplace noise on a published count changes a
// threshold decision.
//
// Two separate noise paths exist. Estimate is deterministic: it places the
// published value with a smooth, ε-dependent display perturbation and derives
// an analytic uncertainty margin, so the same inputs always give the same
// answer. Draws and FlipProbability are Monte Carlo: they perturb the true
// value with real Laplace draws from the simulator's random source.
//
// The ±margin uses the Gaussian 97.5% quantile even though the noise is
// Laplace, so it under-covers the true Laplace interval. Callers wanting the
// exact Laplace interval can set Options.MarginMultiplier to
// noise.LaplaceMultiplier(0.05).
package simulate

import (
	"fmt"
	"math"

	"github.com/jahidul-arafat/civic-data/checks"
	"github.com/jahidul-arafat/civic-data/noise"
)

const (
	// GaussianZ975 is the two-sided 95% Gaussian multiplier applied to the
	// noise scale to obtain the reported margin.
	GaussianZ975 = 1.96

	// Frequency and amplitude of the deterministic display perturbation.
	displayFrequency = 7.3
	displayAmplitude = 0.03
	// Fraction of the true value that one unit of scaled noise represents.
	noiseFraction = 0.02
	// Largest magnitude up to which every integer is exact in a float64.
	maxExactInteger = 1 << 53
)

// SineDisplayNoise is the default display perturbation sin(7.3·ε). It lies in
// [-1, 1] and varies smoothly with ε.
func SineDisplayNoise(epsilon float64) float64 {
	return math.Sin(displayFrequency * epsilon)
}

// Scenario is a threshold decision on a single count.
type Scenario struct {
	// TrueValue is the unperturbed count. Must be strictly positive.
	TrueValue float64 `json:"true_value" yaml:"true_value"`
	// Threshold is the decision boundary; a value at or above it is approved.
	Threshold float64 `json:"threshold" yaml:"threshold"`
	// Sensitivity of the count. Must be strictly positive.
	Sensitivity float64 `json:"sensitivity" yaml:"sensitivity"`
	// DisplayScale rescales reported noise magnitude only. It never affects the
	// decision. Must be strictly positive.
	DisplayScale float64 `json:"display_scale" yaml:"display_scale"`
}

// Validate returns an error wrapping checks.ErrInvalidParameter if sc breaks
// any of the invariants documented on its fields.
func (sc Scenario) Validate() error {
	if err := checks.CheckTrueValue(sc.TrueValue); err != nil {
		return err
	}
	if err := checks.CheckThreshold(sc.Threshold); err != nil {
		return err
	}
	if err := checks.CheckSensitivity(sc.Sensitivity); err != nil {
		return err
	}
	return checks.CheckDisplayScale(sc.DisplayScale)
}

// TrueDecision is the decision taken on the unperturbed value.
func (sc Scenario) TrueDecision() Decision {
	return Decide(sc.TrueValue, sc.Threshold)
}

func (sc Scenario) String() string {
	return fmt.Sprintf("{TrueValue: %g, Threshold: %g, Sensitivity: %g, DisplayScale: %g}",
		sc.TrueValue, sc.Threshold, sc.Sensitivity, sc.DisplayScale)
}

// Decision is the outcome of comparing a value to a threshold.
type Decision string

// Decisions.
const (
	Approved Decision = "approved"
	Denied   Decision = "denied"
)

// Decide approves value iff it is at or above threshold.
func Decide(value, threshold float64) Decision {
	if value >= threshold {
		return Approved
	}
	return Denied
}

// Confidence is High when the whole uncertainty range sits on one side of the
// threshold.
type Confidence string

// Confidence levels.
const (
	High Confidence = "High"
	Low  Confidence = "Low"
)

// Outcome classifies the uncertainty range against the threshold.
type Outcome string

// Outcomes.
const (
	// Positive means the whole range is at or above the threshold.
	Positive Outcome = "positive"
	// Negative means the whole range is at or below the threshold.
	Negative Outcome = "negative"
	// Uncertain means the range straddles the threshold.
	Uncertain Outcome = "uncertain"
)

// Mode labels a privacy/accuracy trade-off region of ε.
type Mode string

// Modes.
const (
	HighPrivacy  Mode = "High Privacy"
	Balanced     Mode = "Balanced"
	HighAccuracy Mode = "High Accuracy"
)

// ModeFor returns HighPrivacy for ε < 1, Balanced for ε < 2.5 and HighAccuracy
// otherwise.
func ModeFor(epsilon float64) Mode {
	switch {
	case epsilon < 1:
		return HighPrivacy
	case epsilon < 2.5:
		return Balanced
	}
	return HighAccuracy
}

// Result is the deterministic estimate for one (Scenario, ε) pair.
type Result struct {
	NoisyValue   int64      `json:"noisy_value" yaml:"noisy_value"`
	RangeLow     int64      `json:"range_low" yaml:"range_low"`
	RangeHigh    int64      `json:"range_high" yaml:"range_high"`
	Margin       int64      `json:"margin" yaml:"margin"`
	ErrorPercent float64    `json:"error_percent" yaml:"error_percent"`
	Confidence   Confidence `json:"confidence" yaml:"confidence"`
	Outcome      Outcome    `json:"outcome" yaml:"outcome"`
	// Scale is the Laplace scale sensitivity/ε.
	Scale float64 `json:"scale" yaml:"scale"`
	// NoiseScale is Scale expressed in display units.
	NoiseScale float64 `json:"noise_scale" yaml:"noise_scale"`
	Mode       Mode    `json:"mode" yaml:"mode"`
}

// Options configures a Simulator. A nil *Options, or zero fields, select the
// defaults.
type Options struct {
	// Noise draws the Monte Carlo noise. Defaults to Laplace noise on the
	// secure random source.
	Noise *noise.Laplace
	// MarginMultiplier scales the noise scale into the reported margin.
	// Defaults to GaussianZ975.
	MarginMultiplier float64
	// DisplayNoise maps ε to the display perturbation in [-1, 1]. Defaults to
	// SineDisplayNoise.
	DisplayNoise func(epsilon float64) float64
}

// Simulator computes estimates and Monte Carlo draws for scenarios. It holds
// no per-scenario state; concurrent use is safe when its noise source is.
type Simulator struct {
	noise            *noise.Laplace
	marginMultiplier float64
	displayNoise     func(float64) float64
}

// New returns a Simulator configured by opt.
func New(opt *Options) (*Simulator, error) {
	if opt == nil {
		opt = &Options{}
	}
	s := &Simulator{
		noise:            opt.Noise,
		marginMultiplier: opt.MarginMultiplier,
		displayNoise:     opt.DisplayNoise,
	}
	if s.noise == nil {
		s.noise = noise.NewLaplace(nil)
	}
	if s.marginMultiplier == 0 {
		s.marginMultiplier = GaussianZ975
	}
	if err := checks.CheckMultiplier(s.marginMultiplier); err != nil {
		return nil, err
	}
	if s.displayNoise == nil {
		s.displayNoise = SineDisplayNoise
	}
	return s, nil
}

// Estimate places the published value for sc at privacy level ε and derives
// the uncertainty range around it. It consumes no randomness. An ε so small
// that the range leaves ±2⁵³ is rejected with checks.ErrInvalidParameter.
func (s *Simulator) Estimate(sc Scenario, epsilon float64) (Result, error) {
	if err := sc.Validate(); err != nil {
		return Result{}, err
	}
	scale, err := noise.Scale(sc.Sensitivity, epsilon)
	if err != nil {
		return Result{}, err
	}

	perturbation := s.displayNoise(epsilon) * scale * sc.TrueValue * displayAmplitude
	noisyValue := math.Round(sc.TrueValue + perturbation)
	marginValue := math.Round(s.marginValue(sc, scale))
	if !(math.Abs(noisyValue)+marginValue <= maxExactInteger) {
		return Result{}, fmt.Errorf("Epsilon is %g, the range %g ± %g exceeds ±2⁵³ and cannot be published as integers: %w",
			epsilon, noisyValue, marginValue, checks.ErrInvalidParameter)
	}
	noisy, margin := int64(noisyValue), int64(marginValue)
	r := Result{
		NoisyValue:   noisy,
		RangeLow:     noisy - margin,
		RangeHigh:    noisy + margin,
		Margin:       margin,
		ErrorPercent: float64(margin) / sc.TrueValue * 100,
		Scale:        scale,
		NoiseScale:   scale * sc.DisplayScale,
		Mode:         ModeFor(epsilon),
	}

	low, high := float64(r.RangeLow), float64(r.RangeHigh)
	switch {
	case low >= sc.Threshold:
		r.Outcome = Positive
	case high <= sc.Threshold:
		r.Outcome = Negative
	default:
		r.Outcome = Uncertain
	}
	r.Confidence = Low
	if r.Outcome != Uncertain {
		r.Confidence = High
	}
	return r, nil
}

// MarginPercent returns the unrounded margin as a percentage of the true
// value. It is the quantity plotted against ε in error curves.
func (s *Simulator) MarginPercent(sc Scenario, epsilon float64) (float64, error) {
	if err := sc.Validate(); err != nil {
		return 0, err
	}
	scale, err := noise.Scale(sc.Sensitivity, epsilon)
	if err != nil {
		return 0, err
	}
	return s.marginValue(sc, scale) / sc.TrueValue * 100, nil
}

func (s *Simulator) marginValue(sc Scenario, scale float64) float64 {
	return s.marginMultiplier * scale * sc.TrueValue * noiseFraction / sc.DisplayScale
}

// Draws returns n Monte Carlo published values for sc at privacy level ε.
// Each is TrueValue + x·TrueValue·0.02/DisplayScale with x drawn from
// Laplace(Sensitivity/ε). Every parameter is validated before any randomness
// is consumed.
func (s *Simulator) Draws(sc Scenario, epsilon float64, n int) ([]float64, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	scale, err := noise.Scale(sc.Sensitivity, epsilon)
	if err != nil {
		return nil, err
	}
	draws, err := s.noise.SampleN(scale, n)
	if err != nil {
		return nil, err
	}
	factor := sc.TrueValue * noiseFraction / sc.DisplayScale
	for i, x := range draws {
		draws[i] = sc.TrueValue + x*factor
	}
	return draws, nil
}

// DrawStdDev returns the standard deviation of the values Draws returns for
// sc at privacy level ε.
func (s *Simulator) DrawStdDev(sc Scenario, epsilon float64) (float64, error) {
	if err := sc.Validate(); err != nil {
		return 0, err
	}
	scale, err := noise.Scale(sc.Sensitivity, epsilon)
	if err != nil {
		return 0, err
	}
	v, err := noise.Variance(scale)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v) * sc.TrueValue * noiseFraction / sc.DisplayScale, nil
}

// FlipProbability returns the percentage, in [0, 100], of n Monte Carlo draws
// whose decision disagrees with the decision on the true value.
func (s *Simulator) FlipProbability(sc Scenario, epsilon float64, n int) (float64, error) {
	draws, err := s.Draws(sc, epsilon, n)
	if err != nil {
		return 0, err
	}
	return FlipPercent(draws, sc), nil
}

// FlipPercent returns the percentage of draws whose decision differs from
// sc.TrueDecision(). It returns 0 for no draws.
func FlipPercent(draws []float64, sc Scenario) float64 {
	if len(draws) == 0 {
		return 0
	}
	want := sc.TrueDecision()
	flips := 0
	for _, d := range draws {
		if Decide(d, sc.Threshold) != want {
			flips++
		}
	}
	return 100 * float64(flips) / float64(len(draws))
}

// MarginFromThreshold returns (TrueValue-Threshold)/Threshold·100. The second
// result is false when the threshold is 0 and the percentage is undefined.
func (sc Scenario) MarginFromThreshold() (float64, bool) {
	if sc.Threshold == 0 {
		return 0, false
	}
	return (sc.TrueValue - sc.Threshold) / sc.Threshold * 100, true
}
