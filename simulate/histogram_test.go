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
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jahidul-arafat/civic-data/checks"
)

func TestHistogram(t *testing.T) {
	got, err := Histogram([]float64{1300, 1000, 1200, 1100}, 1200, 4)
	if err != nil {
		t.Fatalf("Histogram: got err %v", err)
	}
	// The span is [min(1000, 1080), max(1300, 1320)] = [1000, 1320].
	want := []Bin{
		{Low: 1000, High: 1080, Count: 1, BelowThreshold: true},
		{Low: 1080, High: 1160, Count: 1, BelowThreshold: true},
		{Low: 1160, High: 1240, Count: 1, BelowThreshold: false},
		{Low: 1240, High: 1320, Count: 1, BelowThreshold: false},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Histogram: unexpected bins (-want +got):\n%s", diff)
	}
}

func TestHistogramCountsEveryDraw(t *testing.T) {
	s := seededSimulator(t, 2)
	draws, err := s.Draws(hospital, 0.5, 1000)
	if err != nil {
		t.Fatalf("Draws: got err %v", err)
	}
	// A draw sitting exactly on the upper edge lands in the last bin.
	draws = append(draws, 10000)
	bins, err := Histogram(draws, hospital.Threshold, DefaultBins)
	if err != nil {
		t.Fatalf("Histogram: got err %v", err)
	}
	if len(bins) != DefaultBins {
		t.Fatalf("Histogram: got %d bins, want %d", len(bins), DefaultBins)
	}
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != len(draws) {
		t.Errorf("Histogram: bins hold %d draws, want %d", total, len(draws))
	}
	if bins[DefaultBins-1].Count == 0 {
		t.Errorf("Histogram: maximum draw missing from the last bin")
	}
	if !bins[0].BelowThreshold || bins[DefaultBins-1].BelowThreshold {
		t.Errorf("Histogram: want the first bin below and the last bin above the threshold")
	}
}

func TestHistogramArgumentCheck(t *testing.T) {
	for _, tc := range []struct {
		desc      string
		draws     []float64
		threshold float64
		bins      int
	}{
		{"no draws", nil, 1, 20},
		{"zero bins", []float64{1}, 1, 0},
		{"NaN threshold", []float64{1}, math.NaN(), 20},
	} {
		if _, err := Histogram(tc.draws, tc.threshold, tc.bins); !errors.Is(err, checks.ErrInvalidParameter) {
			t.Errorf("Histogram: when %s got err %v, want ErrInvalidParameter", tc.desc, err)
		}
	}
}

func TestPresets(t *testing.T) {
	ps := Presets()
	var keys []string
	for _, p := range ps {
		keys = append(keys, p.Key)
		if err := p.Scenario.Validate(); err != nil {
			t.Errorf("preset %q: invalid scenario: %v", p.Key, err)
		}
		if p.Above == "" || p.Below == "" || p.Title == "" {
			t.Errorf("preset %q: missing wording", p.Key)
		}
	}
	if diff := cmp.Diff([]string{"hospital", "redistrict", "school"}, keys); diff != "" {
		t.Errorf("Presets: unexpected keys (-want +got):\n%s", diff)
	}

	p, ok := LookupPreset("school")
	if !ok {
		t.Fatalf("LookupPreset(school): not found")
	}
	if got := p.OutcomeText(p.Scenario.TrueDecision()); got != p.Above {
		t.Errorf("school outcome=%q, want %q", got, p.Above)
	}
	h, _ := LookupPreset("hospital")
	if got := h.OutcomeText(h.Scenario.TrueDecision()); got != h.Below {
		t.Errorf("hospital outcome=%q, want %q", got, h.Below)
	}
	if _, ok := LookupPreset("library"); ok {
		t.Errorf("LookupPreset(library): found an unknown preset")
	}
}

func TestEpsilonGrid(t *testing.T) {
	for _, tc := range []struct {
		from, to, step float64
		wantLen        int
		first, last    float64
	}{
		{0.2, 5, 0.3, 17, 0.2, 5},
		{0.1, 5, 0.3, 17, 0.1, 4.9},
		{0.5, 5, 0.5, 10, 0.5, 5},
		{1, 1, 0.5, 1, 1, 1},
	} {
		got, err := EpsilonGrid(tc.from, tc.to, tc.step)
		if err != nil {
			t.Fatalf("EpsilonGrid(%f, %f, %f): got err %v", tc.from, tc.to, tc.step, err)
		}
		if len(got) != tc.wantLen || got[0] != tc.first || got[len(got)-1] != tc.last {
			t.Errorf("EpsilonGrid(%f, %f, %f)=%v, want %d values from %f to %f", tc.from, tc.to, tc.step, got, tc.wantLen, tc.first, tc.last)
		}
	}
	for _, args := range [][3]float64{{0, 5, 0.3}, {1, 5, 0}, {5, 1, 0.3}, {1, 5, 1e-300}, {0.1, 5, 1e-4}} {
		if _, err := EpsilonGrid(args[0], args[1], args[2]); !errors.Is(err, checks.ErrInvalidParameter) {
			t.Errorf("EpsilonGrid%v: got err %v, want ErrInvalidParameter", args, err)
		}
	}
}
