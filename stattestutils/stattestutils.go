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

// Package stattestutils provides tolerances for tests of randomized code that
// estimate a proportion by Monte Carlo. Sample moments come from
// github.com/grd/stat.
//
// This package is not optimized for performance or speed and is only intended
// to be used in tests.
package stattestutils

import "math"

// FalseRejectionZ is the 99.9995% Gaussian quantile. Tolerances derived from
// it reject a correct implementation with probability 10⁻⁵.
const FalseRejectionZ = 4.41717

// PercentTolerance returns the tolerance, in percentage points, for a
// proportion estimated from n independent trials whose true percentage is
// wantPercent. The estimate is approximately Gaussian with standard deviation
// sqrt(p(1-p)/n). A floor of one trial keeps the tolerance usable when
// wantPercent is at or near 0 or 100.
func PercentTolerance(wantPercent float64, n int) float64 {
	p := wantPercent / 100
	sd := math.Sqrt(p * (1 - p) / float64(n))
	return 100 * math.Max(FalseRejectionZ*sd, 1/float64(n))
}

// WithinPercent reports whether gotPercent is within PercentTolerance of
// wantPercent.
func WithinPercent(gotPercent, wantPercent float64, n int) bool {
	return math.Abs(gotPercent-wantPercent) <= PercentTolerance(wantPercent, n)
}
