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
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultBins is the number of histogram bins used by the CLI.
const DefaultBins = 20

// Bin is one histogram bucket [Low, High).
type Bin struct {
	Low   float64 `json:"low" yaml:"low"`
	High  float64 `json:"high" yaml:"high"`
	Count int     `json:"count" yaml:"count"`
	// BelowThreshold is set when the bin centre lies below the threshold, i.e.
	// draws in it lead to a denial.
	BelowThreshold bool `json:"below_threshold" yaml:"below_threshold"`
}

// Histogram buckets draws into bins of equal width. The span covers every
// draw as well as 0.9·threshold and 1.1·threshold, so the threshold is always
// visible with some context around it. The last bin is closed on the right.
func Histogram(draws []float64, threshold float64, bins int) ([]Bin, error) {
	if len(draws) == 0 {
		return nil, fmt.Errorf("histogram needs at least one draw: %w", checks.ErrInvalidParameter)
	}
	if bins <= 0 {
		return nil, fmt.Errorf("Bins is %d, must be strictly positive: %w", bins, checks.ErrInvalidParameter)
	}
	if err := checks.CheckThreshold(threshold); err != nil {
		return nil, err
	}

	lo := math.Min(floats.Min(draws), math.Min(0.9*threshold, 1.1*threshold))
	hi := math.Max(floats.Max(draws), math.Max(0.9*threshold, 1.1*threshold))
	if hi <= lo {
		hi = lo + 1
	}
	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram bins are half-open, so the maximum needs room on the right.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	sorted := append([]float64(nil), draws...)
	sort.Float64s(sorted)
	counts := stat.Histogram(nil, dividers, sorted, nil)

	out := make([]Bin, bins)
	for i := range out {
		low, high := dividers[i], dividers[i+1]
		out[i] = Bin{
			Low:            low,
			High:           high,
			Count:          int(counts[i]),
			BelowThreshold: (low+high)/2 < threshold,
		}
	}
	return out, nil
}
