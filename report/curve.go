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
	"fmt"

	log "github.com/golang/glog"
	"github.com/jahidul-arafat/civic-data/checks"
	"github.com/jahidul-arafat/civic-data/simulate"
)

// CurvePoint is one ε of the error and flip curves of a scenario.
type CurvePoint struct {
	Epsilon float64       `json:"epsilon" yaml:"epsilon"`
	Mode    simulate.Mode `json:"mode" yaml:"mode"`
	// ErrorPercent is the analytic margin as a percentage of the true value.
	ErrorPercent float64 `json:"error_percent" yaml:"error_percent"`
	// StdDevPercent is the standard deviation of the Monte Carlo draws as a
	// percentage of the true value.
	StdDevPercent          float64   `json:"stddev_percent" yaml:"stddev_percent"`
	FlipProbabilityPercent float64   `json:"flip_probability" yaml:"flip_probability"`
	RiskLevel              RiskLevel `json:"risk_level" yaml:"risk_level"`
}

// RunCurve evaluates sc at every ε of grid: the analytic error, the spread of
// the draws and the flip probability from n draws. Every argument is
// validated before the first draw.
func RunCurve(sim *simulate.Simulator, sc simulate.Scenario, grid []float64, n int) ([]CurvePoint, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if err := checks.CheckEpsilons(grid); err != nil {
		return nil, err
	}
	if err := checks.CheckSampleCount(n); err != nil {
		return nil, err
	}

	points := make([]CurvePoint, 0, len(grid))
	for _, eps := range grid {
		errPercent, err := sim.MarginPercent(sc, eps)
		if err != nil {
			return nil, fmt.Errorf("curve at ε=%f: %w", eps, err)
		}
		sd, err := sim.DrawStdDev(sc, eps)
		if err != nil {
			return nil, fmt.Errorf("curve at ε=%f: %w", eps, err)
		}
		flip, err := sim.FlipProbability(sc, eps, n)
		if err != nil {
			return nil, fmt.Errorf("curve at ε=%f: %w", eps, err)
		}
		points = append(points, CurvePoint{
			Epsilon:                eps,
			Mode:                   simulate.ModeFor(eps),
			ErrorPercent:           errPercent,
			StdDevPercent:          sd / sc.TrueValue * 100,
			FlipProbabilityPercent: flip,
			RiskLevel:              ClassifyRisk(flip),
		})
	}
	log.V(1).Infof("RunCurve: %d point(s) from ε=%g to ε=%g", len(points), grid[0], grid[len(grid)-1])
	return points, nil
}
