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
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jahidul-arafat/civic-data/checks"
	"github.com/jahidul-arafat/civic-data/noise"
	"github.com/jahidul-arafat/civic-data/rand"
	"github.com/jahidul-arafat/civic-data/simulate"
	"github.com/jahidul-arafat/civic-data/stattestutils"
	"go.uber.org/goleak"
)

var school = simulate.Scenario{TrueValue: 1247, Threshold: 1200, Sensitivity: 1, DisplayScale: 1}

// constSource returns the same uniform value forever and counts the draws.
// 0.5 yields zero Laplace noise.
type constSource struct {
	v     float64
	calls int
}

func (c *constSource) Float64() float64 {
	c.calls++
	return c.v
}

func seededSimulator(t *testing.T, seed int64) *simulate.Simulator {
	t.Helper()
	s, err := simulate.New(&simulate.Options{Noise: noise.NewLaplace(rand.NewSeeded(seed))})
	if err != nil {
		t.Fatalf("simulate.New: got err %v", err)
	}
	return s
}

func TestClassifyRisk(t *testing.T) {
	for _, tc := range []struct {
		flip float64
		want RiskLevel
	}{
		{0, LowRisk},
		{10, LowRisk},
		{14.99, LowRisk},
		{15, MediumRisk},
		{20, MediumRisk},
		{30, MediumRisk},
		{30.01, HighRisk},
		{35, HighRisk},
		{100, HighRisk},
	} {
		if got := ClassifyRisk(tc.flip); got != tc.want {
			t.Errorf("ClassifyRisk(%f)=%s, want %s", tc.flip, got, tc.want)
		}
	}
}

func TestRecommend(t *testing.T) {
	stat := func(eps, flip float64) EpsilonStat {
		return EpsilonStat{Epsilon: eps, FlipProbabilityPercent: flip}
	}
	for _, tc := range []struct {
		desc  string
		stats []EpsilonStat
		want  Status
	}{
		{"stable at ε=3", []EpsilonStat{stat(0.5, 40), stat(1, 30), stat(3, 4.9)}, Stable},
		{"moderate at ε=1", []EpsilonStat{stat(0.5, 40), stat(1, 14.9), stat(3, 5)}, Moderate},
		{"sensitive", []EpsilonStat{stat(0.5, 45), stat(1, 15), stat(3, 8)}, Sensitive},
		{"missing checkpoints count as zero", nil, Stable},
		{"missing ε=1 counts as zero", []EpsilonStat{stat(3, 20)}, Moderate},
		{"checkpoint matched despite rounding", []EpsilonStat{stat(3.0000000001, 50), stat(1, 50)}, Sensitive},
	} {
		got := Recommend(tc.stats)
		if got.Status != tc.want {
			t.Errorf("Recommend: when %s got %s, want %s", tc.desc, got.Status, tc.want)
		}
		if got.Message != recommendations[tc.want].Message || got.SuggestedEpsilon != recommendations[tc.want].SuggestedEpsilon {
			t.Errorf("Recommend: when %s got wording %+v", tc.desc, got)
		}
	}

	got := Recommend([]EpsilonStat{stat(0.5, 40), stat(1, 30), stat(3, 4)})
	want := Recommendation{
		Status:             Stable,
		Message:            "Decision is highly stable across privacy settings. Low risk of incorrect outcome.",
		SuggestedEpsilon:   "ε ≥ 1.0 recommended for balanced privacy-accuracy",
		FlipAtHighPrivacy:  40,
		FlipAtBalanced:     30,
		FlipAtHighAccuracy: 4,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Recommend: unexpected recommendation (-want +got):\n%s", diff)
	}
}

func TestBuildReport(t *testing.T) {
	stats := []EpsilonStat{
		{Epsilon: 0.5, FlipProbabilityPercent: 12.5},
		{Epsilon: 1, FlipProbabilityPercent: 4},
		{Epsilon: 3, FlipProbabilityPercent: 0},
	}
	got, err := BuildReport(1500, school, stats)
	if err != nil {
		t.Fatalf("BuildReport: got err %v", err)
	}
	want := &AnalysisReport{
		Summary: Summary{
			TotalRecords:        1500,
			TrueCount:           1247,
			Threshold:           1200,
			MarginFromThreshold: "3.9%",
			TrueDecision:        "APPROVED",
		},
		RiskAssessment: []RiskRow{
			{Epsilon: 0.5, FlipRisk: "12.50%", RiskLevel: LowRisk},
			{Epsilon: 1, FlipRisk: "4.00%", RiskLevel: LowRisk},
			{Epsilon: 3, FlipRisk: "0.00%", RiskLevel: LowRisk},
		},
		Recommendation: Recommend(stats),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildReport: unexpected report (-want +got):\n%s", diff)
	}
}

func TestBuildReportEdgeCases(t *testing.T) {
	below := simulate.Scenario{TrueValue: 4850, Threshold: 5000, Sensitivity: 1, DisplayScale: 1}
	r, err := BuildReport(0, below, nil)
	if err != nil {
		t.Fatalf("BuildReport: got err %v", err)
	}
	if r.Summary.MarginFromThreshold != "-3.0%" || r.Summary.TrueDecision != "DENIED" {
		t.Errorf("BuildReport(hospital): got summary %+v", r.Summary)
	}
	zero := simulate.Scenario{TrueValue: 10, Threshold: 0, Sensitivity: 1, DisplayScale: 1}
	if r, err := BuildReport(1, zero, nil); err != nil || r.Summary.MarginFromThreshold != "n/a" {
		t.Errorf("BuildReport with zero threshold: got (%+v, %v), want margin n/a", r, err)
	}
	if _, err := BuildReport(-1, school, nil); !errors.Is(err, checks.ErrInvalidParameter) {
		t.Errorf("BuildReport with negative record count: got err %v, want ErrInvalidParameter", err)
	}
	nan := simulate.Scenario{TrueValue: 10, Threshold: math.NaN()}
	if _, err := BuildReport(1, nan, nil); !errors.Is(err, checks.ErrInvalidParameter) {
		t.Errorf("BuildReport with NaN threshold: got err %v, want ErrInvalidParameter", err)
	}
}

func TestRunSweep(t *testing.T) {
	const n = 5000
	stats, err := RunSweep(seededSimulator(t, 3), school, DefaultEpsilons, n)
	if err != nil {
		t.Fatalf("RunSweep: got err %v", err)
	}
	if len(stats) != len(DefaultEpsilons) {
		t.Fatalf("RunSweep: got %d stats, want %d", len(stats), len(DefaultEpsilons))
	}
	// Draws deviate by |x|·TrueValue·0.02 with x ~ Laplace(1/ε), and E|x| = 1/ε.
	distance := (school.TrueValue - school.Threshold) / (school.TrueValue * 0.02)
	for i, s := range stats {
		eps := DefaultEpsilons[i]
		if s.Epsilon != eps || s.SampleCount != n || s.TrueValue != school.TrueValue || s.Threshold != school.Threshold {
			t.Errorf("RunSweep: stat %d has wrong identity %+v", i, s)
		}
		if s.ConfidencePercent != 100-s.FlipProbabilityPercent {
			t.Errorf("RunSweep(ε=%f): confidence %f is not 100 - flip %f", eps, s.ConfidencePercent, s.FlipProbabilityPercent)
		}
		wantErr := 2 / eps
		tol := stattestutils.FalseRejectionZ * wantErr / math.Sqrt(n)
		if math.Abs(s.AvgErrorPercent-wantErr) > tol {
			t.Errorf("RunSweep(ε=%f): avg error %f%%, want %f%% ± %f", eps, s.AvgErrorPercent, wantErr, tol)
		}
		if math.Abs(s.AvgError-s.AvgErrorPercent*school.TrueValue/100) > 1e-9 {
			t.Errorf("RunSweep(ε=%f): AvgError %f disagrees with AvgErrorPercent %f", eps, s.AvgError, s.AvgErrorPercent)
		}
		wantFlip := 50 * math.Exp(-eps*distance)
		if !stattestutils.WithinPercent(s.FlipProbabilityPercent, wantFlip, n) {
			t.Errorf("RunSweep(ε=%f): flip %f%%, want %f%%", eps, s.FlipProbabilityPercent, wantFlip)
		}
	}
}

func TestRunSweepValidatesBeforeDrawing(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		sc       simulate.Scenario
		epsilons []float64
		n        int
	}{
		{"invalid ε late in the sweep", school, []float64{1, 2, -1}, 10},
		{"empty sweep", school, nil, 10},
		{"zero samples", school, []float64{1}, 0},
		{"zero true value", simulate.Scenario{TrueValue: 0, Threshold: 1, Sensitivity: 1, DisplayScale: 1}, []float64{1}, 10},
	} {
		src := &constSource{v: 0.75}
		sim, err := simulate.New(&simulate.Options{Noise: noise.NewLaplace(src)})
		if err != nil {
			t.Fatalf("simulate.New: got err %v", err)
		}
		if _, err := RunSweep(sim, tc.sc, tc.epsilons, tc.n); !errors.Is(err, checks.ErrInvalidParameter) {
			t.Errorf("RunSweep: when %s got err %v, want ErrInvalidParameter", tc.desc, err)
		}
		if src.calls != 0 {
			t.Errorf("RunSweep: when %s consumed %d draws, want 0", tc.desc, src.calls)
		}
	}
}

func seededFactory(seed int64) func(int) (*simulate.Simulator, error) {
	return func(i int) (*simulate.Simulator, error) {
		return simulate.New(&simulate.Options{Noise: noise.NewLaplace(rand.NewSeeded(seed + int64(i)))})
	}
}

func TestCompare(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	const n = 4000
	rows, err := Compare(context.Background(), seededFactory(8), simulate.Presets(), 1, n)
	if err != nil {
		t.Fatalf("Compare: got err %v", err)
	}
	var keys []string
	for _, r := range rows {
		keys = append(keys, r.Key)
		if r.RiskLevel != ClassifyRisk(r.FlipProbabilityPercent) {
			t.Errorf("Compare: %s risk %s does not match flip %f", r.Key, r.RiskLevel, r.FlipProbabilityPercent)
		}
	}
	if diff := cmp.Diff([]string{"hospital", "redistrict", "school"}, keys); diff != "" {
		t.Fatalf("Compare: unexpected rows (-want +got):\n%s", diff)
	}
	// The analytic error is 1.96·2% for every preset at ε=1.
	for _, r := range rows {
		if math.Abs(r.ErrorPercent-3.92) > 1e-9 {
			t.Errorf("Compare: %s error %f%%, want 3.92%%", r.Key, r.ErrorPercent)
		}
	}
	if rows[0].Outcome != simulate.Uncertain {
		t.Errorf("Compare: hospital outcome %s, want uncertain", rows[0].Outcome)
	}
	if _, err := Compare(context.Background(), seededFactory(8), simulate.Presets(), 0, n); !errors.Is(err, checks.ErrInvalidParameter) {
		t.Errorf("Compare at ε=0: got err %v, want ErrInvalidParameter", err)
	}
	again, err := Compare(context.Background(), seededFactory(8), simulate.Presets(), 1, n)
	if err != nil {
		t.Fatalf("Compare: got err %v", err)
	}
	if diff := cmp.Diff(rows, again); diff != "" {
		t.Errorf("Compare with equal seeds differs (-first +second):\n%s", diff)
	}
	invalid := []simulate.Preset{{Key: "broken", Scenario: simulate.Scenario{TrueValue: -1, Threshold: 1, Sensitivity: 1, DisplayScale: 1}}}
	if _, err := Compare(context.Background(), seededFactory(8), invalid, 1, n); !errors.Is(err, checks.ErrInvalidParameter) {
		t.Errorf("Compare with an invalid preset: got err %v, want ErrInvalidParameter", err)
	}
}

func TestDefaultsMatchDocumentedSweep(t *testing.T) {
	want := []float64{0.5, 1, 1.5, 2, 3, 4, 5}
	if diff := cmp.Diff(want, DefaultEpsilons); diff != "" {
		t.Errorf("DefaultEpsilons (-want +got):\n%s", diff)
	}
	if DefaultSamplesPerEpsilon != 100 || DefaultSensitivity != 1 {
		t.Errorf("got defaults samples=%d sensitivity=%f, want 100 and 1", DefaultSamplesPerEpsilon, DefaultSensitivity)
	}
}
