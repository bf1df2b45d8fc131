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

package checks

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestCheckEpsilonStrict(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		epsilon float64
		wantErr bool
	}{
		{"negative epsilon",
			-2,
			true},
		{"zero epsilon",
			0,
			true},
		{"epsilon is NaN",
			math.NaN(),
			true},
		{"epsilon is negative infinity",
			math.Inf(-1),
			true},
		{"epsilon is positive infinity",
			math.Inf(1),
			true},
		{"tiny positive epsilon",
			1e-9,
			false},
		{"positive epsilon",
			50,
			false},
	} {
		err := CheckEpsilonStrict(tc.epsilon)
		if (err != nil) != tc.wantErr {
			t.Errorf("CheckEpsilonStrict: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("CheckEpsilonStrict: when %s got %v, want it to wrap ErrInvalidParameter", tc.desc, err)
		}
	}
}

func TestCheckEpsilons(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		epsilons []float64
		wantErr  bool
	}{
		{"nil sweep", nil, true},
		{"empty sweep", []float64{}, true},
		{"one invalid value", []float64{0.5, 0, 1}, true},
		{"valid sweep", []float64{0.5, 1, 1.5, 2, 3, 4, 5}, false},
	} {
		if err := CheckEpsilons(tc.epsilons); (err != nil) != tc.wantErr {
			t.Errorf("CheckEpsilons: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckEpsilonsNamesOffendingIndex(t *testing.T) {
	err := CheckEpsilons([]float64{1, 2, -3})
	if err == nil || !strings.Contains(err.Error(), "Epsilon[2]") {
		t.Errorf("CheckEpsilons: got %v, want an error naming Epsilon[2]", err)
	}
}

func TestCheckStrictlyPositiveParameters(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		check   func(float64, ...string) error
		value   float64
		wantErr bool
	}{
		{"zero sensitivity", CheckSensitivity, 0, true},
		{"negative sensitivity", CheckSensitivity, -1, true},
		{"positive sensitivity", CheckSensitivity, 1000, false},
		{"zero true value", CheckTrueValue, 0, true},
		{"NaN true value", CheckTrueValue, math.NaN(), true},
		{"positive true value", CheckTrueValue, 1247, false},
		{"zero display scale", CheckDisplayScale, 0, true},
		{"infinite display scale", CheckDisplayScale, math.Inf(1), true},
		{"positive display scale", CheckDisplayScale, 1000, false},
		{"zero scale", CheckScale, 0, true},
		{"positive scale", CheckScale, 0.2, false},
	} {
		err := tc.check(tc.value)
		if (err != nil) != tc.wantErr {
			t.Errorf("when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("when %s got %v, want it to wrap ErrInvalidParameter", tc.desc, err)
		}
	}
}

func TestCheckThreshold(t *testing.T) {
	for _, tc := range []struct {
		desc      string
		threshold float64
		wantErr   bool
	}{
		{"threshold is NaN", math.NaN(), true},
		{"threshold is positive infinity", math.Inf(1), true},
		{"threshold is negative infinity", math.Inf(-1), true},
		{"zero threshold", 0, false},
		{"negative threshold", -5, false},
		{"positive threshold", 1200, false},
	} {
		if err := CheckThreshold(tc.threshold); (err != nil) != tc.wantErr {
			t.Errorf("CheckThreshold: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckSampleCount(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		n       int
		wantErr bool
	}{
		{"negative count", -1, true},
		{"zero count", 0, true},
		{"small count", 5, false},
		{"default count", 100, false},
	} {
		if err := CheckSampleCount(tc.n); (err != nil) != tc.wantErr {
			t.Errorf("CheckSampleCount: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckAlpha(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		alpha   float64
		wantErr bool
	}{
		{"alpha is zero", 0, true},
		{"alpha is one", 1, true},
		{"alpha is NaN", math.NaN(), true},
		{"alpha is negative", -0.1, true},
		{"alpha is 5%", 0.05, false},
	} {
		if err := CheckAlpha(tc.alpha); (err != nil) != tc.wantErr {
			t.Errorf("CheckAlpha: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckMultiplier(t *testing.T) {
	for _, tc := range []struct {
		desc       string
		multiplier float64
		wantErr    bool
	}{
		{"zero multiplier", 0, true},
		{"negative multiplier", -1.96, true},
		{"infinite multiplier", math.Inf(1), true},
		{"gaussian multiplier", 1.96, false},
	} {
		if err := CheckMultiplier(tc.multiplier); (err != nil) != tc.wantErr {
			t.Errorf("CheckMultiplier: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCustomParameterName(t *testing.T) {
	err := CheckSensitivity(-1, "LInfSensitivity")
	if err == nil || !strings.HasPrefix(err.Error(), "LInfSensitivity is") {
		t.Errorf("CheckSensitivity with custom name: got %v, want message starting with LInfSensitivity", err)
	}
	if err := CheckSensitivity(1, "a", "b"); err == nil {
		t.Errorf("CheckSensitivity with two names: got nil error, want an error")
	}
}
