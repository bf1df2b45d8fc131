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
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jahidul-arafat/civic-data/noise"
	"github.com/jahidul-arafat/civic-data/rand"
	"github.com/jahidul-arafat/civic-data/simulate"
	"github.com/jahidul-arafat/civic-data/table"
	"gopkg.in/yaml.v3"
)

func TestSamplesCSVRoundTrip(t *testing.T) {
	tbl := mustParse(t, enrollment)
	a, err := Analyze(noise.NewLaplace(rand.NewSeeded(4)), tbl, AnalysisConfig{
		GroupBy:           "school",
		Threshold:         2.5,
		Epsilons:          []float64{0.3, 1.5},
		SamplesPerEpsilon: 40,
	})
	if err != nil {
		t.Fatalf("Analyze: got err %v", err)
	}
	// Commas in a community id survive through quoting.
	rows := append(a.Samples, SampleRow{CommunityID: "Oak, East", Epsilon: 0.1, TrueValue: 5, NoisyValue: 0, Threshold: 2.5, Decision: simulate.Denied, FlipFlag: 1, SampleID: 1})

	var buf bytes.Buffer
	if err := WriteSamplesCSV(&buf, rows); err != nil {
		t.Fatalf("WriteSamplesCSV: got err %v", err)
	}
	if header, _, _ := strings.Cut(buf.String(), "\n"); header != strings.Join(SampleHeaders, ",") {
		t.Errorf("WriteSamplesCSV: header %q, want %q", header, strings.Join(SampleHeaders, ","))
	}
	got, err := ReadSamplesCSV(&buf)
	if err != nil {
		t.Fatalf("ReadSamplesCSV: got err %v", err)
	}
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Errorf("CSV round trip changed the rows (-want +got):\n%s", diff)
	}
}

func TestReadSamplesCSVErrors(t *testing.T) {
	for _, tc := range []struct {
		desc string
		text string
		want error
	}{
		{"empty", "", table.ErrMalformedInput},
		{"missing column", "community_id,epsilon\nA,1", table.ErrMissingField},
		{"unparseable number", strings.Join(SampleHeaders, ",") + "\nA,one,10,10,5,approved,0,1", table.ErrMalformedInput},
	} {
		if _, err := ReadSamplesCSV(strings.NewReader(tc.text)); !errors.Is(err, tc.want) {
			t.Errorf("ReadSamplesCSV: when %s got err %v, want %v", tc.desc, err, tc.want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	r, err := BuildReport(7, school, []EpsilonStat{{Epsilon: 1, FlipProbabilityPercent: 42}})
	if err != nil {
		t.Fatalf("BuildReport: got err %v", err)
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, NewEnvelope("report", r)); err != nil {
		t.Fatalf("WriteJSON: got err %v", err)
	}
	var got struct {
		RunID   string         `json:"run_id"`
		Kind    string         `json:"kind"`
		Payload AnalysisReport `json:"payload"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal: got err %v", err)
	}
	if _, err := uuid.Parse(got.RunID); err != nil {
		t.Errorf("WriteJSON: run id %q is not a uuid: %v", got.RunID, err)
	}
	if diff := cmp.Diff(*r, got.Payload); diff != "" {
		t.Errorf("WriteJSON: payload changed (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), `"margin_from_threshold": "3.9%"`) {
		t.Errorf("WriteJSON: output lacks the margin field:\n%s", buf.String())
	}
}

func TestWriteYAML(t *testing.T) {
	r, err := BuildReport(7, school, []EpsilonStat{{Epsilon: 1, FlipProbabilityPercent: 42}})
	if err != nil {
		t.Fatalf("BuildReport: got err %v", err)
	}
	var buf bytes.Buffer
	if err := WriteYAML(&buf, r); err != nil {
		t.Fatalf("WriteYAML: got err %v", err)
	}
	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("yaml.Unmarshal: got err %v", err)
	}
	summary, ok := got["summary"].(map[string]any)
	if !ok || summary["true_decision"] != "APPROVED" {
		t.Errorf("WriteYAML: unexpected summary %v", got["summary"])
	}
	risk, ok := got["risk_assessment"].([]any)
	if !ok || len(risk) != 1 || risk[0].(map[string]any)["risk_level"] != string(HighRisk) {
		t.Errorf("WriteYAML: unexpected risk assessment %v", got["risk_assessment"])
	}
}

func TestNewEnvelopeIDsAreUnique(t *testing.T) {
	a, b := NewEnvelope("sweep", nil), NewEnvelope("sweep", nil)
	if a.RunID == b.RunID {
		t.Errorf("NewEnvelope: two envelopes share run id %s", a.RunID)
	}
}
