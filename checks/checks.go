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

// Package checks contains parameter checks shared by the noise, simulation
// and reporting packages.
//
// Every check returns an error wrapping ErrInvalidParameter so callers can
// test for it with errors.Is.
package checks

import (
	"errors"
	"fmt"
	"math"

	log "github.com/golang/glog"
)

// ErrInvalidParameter is wrapped by every error returned from this package.
var ErrInvalidParameter = errors.New("invalid parameter")

const (
	epsilonName      = "Epsilon"
	sensitivityName  = "Sensitivity"
	trueValueName    = "TrueValue"
	thresholdName    = "Threshold"
	displayScaleName = "DisplayScale"
	scaleName        = "Scale"
	samplesName      = "Samples"

	// Monte Carlo estimates from fewer draws than this are too coarse to
	// say anything about a flip probability.
	smallSampleCount = 30
)

func verifyName(defaultName string, nameSlice []string) (string, error) {
	var name string
	switch len(nameSlice) {
	case 0:
		name = defaultName
	case 1:
		name = nameSlice[0]
	default:
		return "", fmt.Errorf("this should never happen. There should be 0 or 1 'name' parameter, got %d", len(nameSlice))
	}
	return name, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidParameter)
}

func checkStrictlyPositive(value float64, defaultName string, name []string) error {
	n, err := verifyName(defaultName, name)
	if err != nil {
		return err
	}
	if value <= 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return invalid("%s is %f, must be strictly positive and finite", n, value)
	}
	return nil
}

// CheckEpsilonStrict returns an error if ε is nonpositive, +∞ or NaN.
func CheckEpsilonStrict(epsilon float64, name ...string) error {
	return checkStrictlyPositive(epsilon, epsilonName, name)
}

// CheckEpsilons returns an error if the sweep is empty or any of its ε values
// fails CheckEpsilonStrict.
func CheckEpsilons(epsilons []float64) error {
	if len(epsilons) == 0 {
		return invalid("Epsilon values are empty, at least one is required")
	}
	for i, eps := range epsilons {
		if err := CheckEpsilonStrict(eps, fmt.Sprintf("Epsilon[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

// CheckSensitivity returns an error if sensitivity is nonpositive or not finite.
func CheckSensitivity(sensitivity float64, name ...string) error {
	return checkStrictlyPositive(sensitivity, sensitivityName, name)
}

// CheckTrueValue returns an error if the true value is nonpositive or not finite.
func CheckTrueValue(trueValue float64, name ...string) error {
	return checkStrictlyPositive(trueValue, trueValueName, name)
}

// CheckDisplayScale returns an error if the display scale is nonpositive or not finite.
func CheckDisplayScale(displayScale float64, name ...string) error {
	return checkStrictlyPositive(displayScale, displayScaleName, name)
}

// CheckScale returns an error if a Laplace scale is nonpositive or not finite.
func CheckScale(scale float64, name ...string) error {
	return checkStrictlyPositive(scale, scaleName, name)
}

// CheckThreshold returns an error if the threshold is ±∞ or NaN. Any finite
// threshold is accepted.
func CheckThreshold(threshold float64, name ...string) error {
	n, err := verifyName(thresholdName, name)
	if err != nil {
		return err
	}
	if math.IsInf(threshold, 0) || math.IsNaN(threshold) {
		return invalid("%s is %f, must be finite", n, threshold)
	}
	return nil
}

// CheckSampleCount returns an error if n is nonpositive. Counts that are
// positive but small are accepted with a warning.
func CheckSampleCount(n int, name ...string) error {
	sn, err := verifyName(samplesName, name)
	if err != nil {
		return err
	}
	if n <= 0 {
		return invalid("%s is %d, must be strictly positive", sn, n)
	}
	if n < smallSampleCount {
		log.Warningf("%s is %d: flip probabilities estimated from fewer than %d draws are coarse", sn, n, smallSampleCount)
	}
	return nil
}

// CheckAlpha returns an error if the supplied alpha is not between 0 and 1.
func CheckAlpha(alpha float64) error {
	if alpha <= 0 || alpha >= 1 || math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return invalid("Alpha is %f, must be within (0, 1) and finite", alpha)
	}
	return nil
}

// CheckMultiplier returns an error if a margin multiplier is nonpositive or not finite.
func CheckMultiplier(multiplier float64) error {
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return invalid("MarginMultiplier is %f, must be strictly positive and finite", multiplier)
	}
	return nil
}
