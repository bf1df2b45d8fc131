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

// Package report summarizes decision risk across a sweep of ε values: flip
// probabilities, risk levels, a recommendation and exportable reports.
package report

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"github.com/jahidul-arafat/civic-data/checks"
	"github.com/jahidul-arafat/civic-data/simulate"
	"gonum.org/v1/gonum/stat"
)

// DefaultEpsilons is the ε sweep used when none is configured.
var DefaultEpsilons = []float64{0.5, 1.0, 1.5, 2.0, 3.0, 4.0, 5.0}

const (
	// DefaultSamplesPerEpsilon is the Monte Carlo batch size used when none is
	// configured.
	DefaultSamplesPerEpsilon = 100
	// DefaultSensitivity is the count sensitivity used when none is configured.
	DefaultSensitivity = 1.0
)

// EpsilonStat summarizes the Monte Carlo draws at one ε.
type EpsilonStat struct {
	// Group is the community the draws belong to. Empty for scenario sweeps.
	Group                  string  `json:"group,omitempty" yaml:"group,omitempty"`
	Epsilon                float64 `json:"epsilon" yaml:"epsilon"`
	TrueValue              float64 `json:"true_value" yaml:"true_value"`
	Threshold              float64 `json:"threshold" yaml:"threshold"`
	FlipProbabilityPercent float64 `json:"flip_probability" yaml:"flip_probability"`
	// AvgError is the mean absolute deviation of the draws from TrueValue.
	AvgError        float64 `json:"avg_error" yaml:"avg_error"`
	AvgErrorPercent float64 `json:"error_percent" yaml:"error_percent"`
	// ConfidencePercent is 100 - FlipProbabilityPercent.
	ConfidencePercent float64 `json:"confidence" yaml:"confidence"`
	SampleCount       int     `json:"samples" yaml:"samples"`
}

// RunSweep draws one batch of samplesPerEpsilon Monte Carlo values per ε and
// summarizes each. Every argument is validated before the first draw.
func RunSweep(sim *simulate.Simulator, sc simulate.Scenario, epsilons []float64, samplesPerEpsilon int) ([]EpsilonStat, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if err := checks.CheckEpsilons(epsilons); err != nil {
		return nil, err
	}
	if err := checks.CheckSampleCount(samplesPerEpsilon, "SamplesPerEpsilon"); err != nil {
		return nil, err
	}

	stats := make([]EpsilonStat, 0, len(epsilons))
	for _, eps := range epsilons {
		draws, err := sim.Draws(sc, eps, samplesPerEpsilon)
		if err != nil {
			return nil, fmt.Errorf("sweep at ε=%f: %w", eps, err)
		}
		deviations := make([]float64, len(draws))
		for i, d := range draws {
			deviations[i] = math.Abs(d - sc.TrueValue)
		}
		s := newStat("", eps, sc.TrueValue, sc.Threshold, simulate.FlipPercent(draws, sc), stat.Mean(deviations, nil), len(draws))
		log.V(1).Infof("ε=%g: flip %.2f%%, avg error %.2f%% over %d draws", eps, s.FlipProbabilityPercent, s.AvgErrorPercent, s.SampleCount)
		stats = append(stats, s)
	}
	return stats, nil
}

func newStat(group string, epsilon, trueValue, threshold, flipPercent, avgError float64, samples int) EpsilonStat {
	s := EpsilonStat{
		Group:                  group,
		Epsilon:                epsilon,
		TrueValue:              trueValue,
		Threshold:              threshold,
		FlipProbabilityPercent: flipPercent,
		AvgError:               avgError,
		ConfidencePercent:      100 - flipPercent,
		SampleCount:            samples,
	}
	if trueValue != 0 {
		s.AvgErrorPercent = avgError / trueValue * 100
	}
	return s
}
