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

package simulate

import (
	"fmt"
	"math"
	"sort"

	"github.com/jahidul-arafat/civic-data/checks"
)

// Preset is a named civic decision with its outcome wording.
type Preset struct {
	Key      string   `json:"key" yaml:"key"`
	Title    string   `json:"title" yaml:"title"`
	Scenario Scenario `json:"scenario" yaml:"scenario"`
	// Above and Below describe the decision when the value is at or above the
	// threshold, and below it.
	Above string `json:"above" yaml:"above"`
	Below string `json:"below" yaml:"below"`
}

// OutcomeText returns the wording for decision d.
func (p Preset) OutcomeText(d Decision) string {
	if d == Approved {
		return p.Above
	}
	return p.Below
}

var presets = map[string]Preset{
	"school": {
		Key:      "school",
		Title:    "School Funding Decision",
		Scenario: Scenario{TrueValue: 1247, Threshold: 1200, Sensitivity: 1, DisplayScale: 1},
		Above:    "FUNDED — Title I grant approved ($2.4M annually)",
		Below:    "DENIED — Does not meet eligibility threshold",
	},
	"hospital": {
		Key:      "hospital",
		Title:    "Rural Clinic Placement",
		Scenario: Scenario{TrueValue: 4850, Threshold: 5000, Sensitivity: 1, DisplayScale: 1},
		Above:    "APPROVED — Rural health clinic authorization granted",
		Below:    "DENIED — Population below minimum threshold for clinic approval",
	},
	"redistrict": {
		Key:      "redistrict",
		Title:    "Congressional Redistricting",
		Scenario: Scenario{TrueValue: 710000, Threshold: 700000, Sensitivity: 1000, DisplayScale: 1000},
		Above:    "GAINS SEAT — Additional congressional representation awarded",
		Below:    "NO CHANGE — Does not qualify for additional seat",
	},
}

// Presets returns the built-in scenarios sorted by key.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// LookupPreset returns the preset with the given key.
func LookupPreset(key string) (Preset, bool) {
	p, ok := presets[key]
	return p, ok
}

// MaxGridPoints bounds the length of an EpsilonGrid.
const MaxGridPoints = 10000

// EpsilonGrid returns from, from+step, ... up to and including to. Values are
// computed from their index so that rounding does not accumulate.
func EpsilonGrid(from, to, step float64) ([]float64, error) {
	if err := checks.CheckEpsilonStrict(from, "From"); err != nil {
		return nil, err
	}
	if err := checks.CheckEpsilonStrict(to, "To"); err != nil {
		return nil, err
	}
	if err := checks.CheckScale(step, "Step"); err != nil {
		return nil, err
	}
	if to < from {
		return nil, fmt.Errorf("To is %f, must not be below From %f: %w", to, from, checks.ErrInvalidParameter)
	}
	steps := math.Floor((to-from)/step + 1e-9)
	if steps >= MaxGridPoints {
		return nil, fmt.Errorf("Step is %g, the grid from %g to %g would exceed %d points: %w", step, from, to, MaxGridPoints, checks.ErrInvalidParameter)
	}
	grid := make([]float64, int(steps)+1)
	for i := range grid {
		grid[i] = math.Round((from+float64(i)*step)*1e9) / 1e9
	}
	return grid, nil
}
