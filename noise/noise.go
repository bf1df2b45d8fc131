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

// Package noise draws Laplace noise calibrated to a sensitivity/ε pair.
package noise

import (
	"github.com/jahidul-arafat/civic-data/checks"
	"gonum.org/v1/gonum/stat/distuv"
)

// Scale returns the Laplace scale sensitivity/ε used by the Laplace mechanism.
// Smaller ε gives a larger scale, hence more noise.
func Scale(sensitivity, epsilon float64) (float64, error) {
	if err := checks.CheckSensitivity(sensitivity); err != nil {
		return 0, err
	}
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return 0, err
	}
	// A subnormal ε can push the ratio past the float64 range.
	scale := sensitivity / epsilon
	if err := checks.CheckScale(scale); err != nil {
		return 0, err
	}
	return scale, nil
}

// Variance returns the variance 2·scale² of a zero-centred Laplace
// distribution with the given scale.
func Variance(scale float64) (float64, error) {
	if err := checks.CheckScale(scale); err != nil {
		return 0, err
	}
	return distuv.Laplace{Mu: 0, Scale: scale}.Variance(), nil
}

// LaplaceMultiplier returns the multiplier z such that a zero-centred Laplace
// variable of scale b lies in [-z·b, z·b] with probability 1-alpha. For
// alpha = 0.05 this is ln(20) ≈ 3.00, noticeably wider than the Gaussian 1.96.
func LaplaceMultiplier(alpha float64) (float64, error) {
	if err := checks.CheckAlpha(alpha); err != nil {
		return 0, err
	}
	// Deriving the upper quantile from alpha/2 keeps precision for small alpha.
	return -distuv.Laplace{Mu: 0, Scale: 1}.Quantile(alpha / 2), nil
}
