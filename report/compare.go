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

package report

import (
	"context"
	"fmt"

	"github.com/jahidul-arafat/civic-data/checks"
	"github.com/jahidul-arafat/civic-data/simulate"
	"golang.org/x/sync/errgroup"
)

// ComparisonRow sets one preset against the others at a common ε.
type ComparisonRow struct {
	Key                    string           `json:"key" yaml:"key"`
	Title                  string           `json:"title" yaml:"title"`
	TrueValue              float64          `json:"true_value" yaml:"true_value"`
	Threshold              float64          `json:"threshold" yaml:"threshold"`
	Epsilon                float64          `json:"epsilon" yaml:"epsilon"`
	ErrorPercent           float64          `json:"error_percent" yaml:"error_percent"`
	FlipProbabilityPercent float64          `json:"flip_probability" yaml:"flip_probability"`
	RiskLevel              RiskLevel        `json:"risk_level" yaml:"risk_level"`
	Outcome                simulate.Outcome `json:"outcome" yaml:"outcome"`
}

// Compare evaluates every preset at ε concurrently: its analytic error, its
// Monte Carlo flip probability from n draws and the resulting risk level.
// newSim supplies the simulator of the i-th preset, so seeded runs stay
// reproducible whatever the scheduling. Rows follow the order of presets.
func Compare(ctx context.Context, newSim func(i int) (*simulate.Simulator, error), presets []simulate.Preset, epsilon float64, n int) ([]ComparisonRow, error) {
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return nil, err
	}
	if err := checks.CheckSampleCount(n); err != nil {
		return nil, err
	}

	rows := make([]ComparisonRow, len(presets))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range presets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sim, err := newSim(i)
			if err != nil {
				return err
			}
			row, err := CompareOne(sim, p, epsilon, n)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// CompareOne evaluates a single preset as Compare does.
func CompareOne(sim *simulate.Simulator, p simulate.Preset, epsilon float64, n int) (ComparisonRow, error) {
	est, err := sim.Estimate(p.Scenario, epsilon)
	if err != nil {
		return ComparisonRow{}, fmt.Errorf("preset %q: %w", p.Key, err)
	}
	errPercent, err := sim.MarginPercent(p.Scenario, epsilon)
	if err != nil {
		return ComparisonRow{}, fmt.Errorf("preset %q: %w", p.Key, err)
	}
	flip, err := sim.FlipProbability(p.Scenario, epsilon, n)
	if err != nil {
		return ComparisonRow{}, fmt.Errorf("preset %q: %w", p.Key, err)
	}
	return ComparisonRow{
		Key:                    p.Key,
		Title:                  p.Title,
		TrueValue:              p.Scenario.TrueValue,
		Threshold:              p.Scenario.Threshold,
		Epsilon:                epsilon,
		ErrorPercent:           errPercent,
		FlipProbabilityPercent: flip,
		RiskLevel:              ClassifyRisk(flip),
		Outcome:                est.Outcome,
	}, nil
}
